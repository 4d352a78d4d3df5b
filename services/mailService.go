package services

import (
	"context"
	"errors"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/rs/zerolog"
)

const (
	mailQueueSize  = 100
	mailRetries    = 2
	mailRetryDelay = 5 * time.Second
)

var errMailQueueClosed = errors.New("mail queue closed")

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, m domain.Mail) error
}

type SmtpSender struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSmtpSender(host string, port int, user, password, from string) *SmtpSender {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}
	return &SmtpSender{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		auth: auth,
		from: from,
	}
}

func (s *SmtpSender) Send(_ context.Context, m domain.Mail) error {
	envelope := s.from
	if addr, err := mail.ParseAddress(s.from); err == nil {
		envelope = addr.Address
	}

	var msg strings.Builder
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + m.To + "\r\n")
	msg.WriteString("Subject: " + m.Subject + "\r\n")
	msg.WriteString("MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n")
	msg.WriteString(m.Html)

	return smtp.SendMail(s.addr, s.auth, envelope, []string{m.To}, []byte(msg.String()))
}

// MailService delivers queued mail on a fixed pool of workers. Each message
// gets three attempts five seconds apart before it is dropped.
type MailService struct {
	sender  Sender
	queue   chan domain.Mail
	workers int
	retry   *retrier.Retrier
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	logger  zerolog.Logger
}

type MailOption func(*MailService)

func WithMailWorkers(n int) MailOption {
	return func(s *MailService) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithMailRetryDelay(d time.Duration) MailOption {
	return func(s *MailService) {
		s.retry = retrier.New(retrier.ConstantBackoff(mailRetries, d), nil)
	}
}

func NewMailService(sender Sender, logger zerolog.Logger, opts ...MailOption) *MailService {
	s := &MailService{
		sender:  sender,
		queue:   make(chan domain.Mail, mailQueueSize),
		workers: 1,
		retry:   retrier.New(retrier.ConstantBackoff(mailRetries, mailRetryDelay), nil),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MailService) Start() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.work()
	}
	s.logger.Info().Int("workers", s.workers).Msg("mail workers started")
}

// Enqueue never blocks the caller; mail is dropped when the queue is full or closed.
func (s *MailService) Enqueue(to, subject, html string) {
	if err := s.enqueue(domain.Mail{To: to, Subject: subject, Html: html}); err != nil {
		s.logger.Warn().Err(err).Str("to", to).Msg("mail not queued")
	}
}

func (s *MailService) enqueue(m domain.Mail) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errMailQueueClosed
	}
	select {
	case s.queue <- m:
		return nil
	default:
		return errors.New("mail queue full")
	}
}

// Close stops accepting mail and waits for the workers to drain the queue.
func (s *MailService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *MailService) work() {
	defer s.wg.Done()
	for m := range s.queue {
		attempt := 0
		err := s.retry.Run(func() error {
			attempt++
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			err := s.sender.Send(ctx, m)
			if err != nil {
				s.logger.Debug().Err(err).Str("to", m.To).Int("attempt", attempt).Msg("mail attempt failed")
			}
			return err
		})
		if err != nil {
			s.logger.Error().Err(err).Str("to", m.To).Str("subject", m.Subject).Msg("mail delivery failed")
			continue
		}
		s.logger.Info().Str("to", m.To).Str("subject", m.Subject).Msg("mail sent")
	}
}
