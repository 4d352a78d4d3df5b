package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type flakySender struct {
	mu       sync.Mutex
	failures int
	attempts map[string]int
	sent     []domain.Mail
}

func (s *flakySender) Send(_ context.Context, m domain.Mail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempts == nil {
		s.attempts = map[string]int{}
	}
	s.attempts[m.To]++
	if s.attempts[m.To] <= s.failures {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, m)
	return nil
}

func TestMailService(t *testing.T) {
	t.Run("retries until delivered", func(t *testing.T) {
		sender := &flakySender{failures: 2}
		svc := NewMailService(sender, zerolog.Nop(), WithMailWorkers(2), WithMailRetryDelay(time.Millisecond))
		svc.Start()

		svc.Enqueue("a@example.com", "hello", "<p>hi</p>")
		svc.Enqueue("b@example.com", "hello", "<p>hi</p>")
		svc.Close()

		assert.Len(t, sender.sent, 2)
		assert.Equal(t, 3, sender.attempts["a@example.com"])
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		sender := &flakySender{failures: 10}
		svc := NewMailService(sender, zerolog.Nop(), WithMailRetryDelay(time.Millisecond))
		svc.Start()

		svc.Enqueue("a@example.com", "hello", "")
		svc.Close()

		assert.Empty(t, sender.sent)
		assert.Equal(t, 3, sender.attempts["a@example.com"])
	})

	t.Run("closed queue drops mail", func(t *testing.T) {
		sender := &flakySender{}
		svc := NewMailService(sender, zerolog.Nop())
		svc.Start()
		svc.Close()
		svc.Close()

		assert.NotPanics(t, func() { svc.Enqueue("late@example.com", "x", "") })
		assert.Empty(t, sender.sent)
	})
}

func TestSmtpSenderEnvelope(t *testing.T) {
	s := NewSmtpSender("smtp.example.com", 587, "", "", "Tasks <no-reply@example.com>")

	assert.Equal(t, "smtp.example.com:587", s.addr)
	assert.Nil(t, s.auth)
}
