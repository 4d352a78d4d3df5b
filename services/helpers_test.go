package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"task-management-app/tasks-service/domain"
	"task-management-app/tasks-service/repositories"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var testTracer = noop.NewTracerProvider().Tracer("test")

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type stores struct {
	tasks    *repositories.TaskSqlRepo
	users    *repositories.UserSqlRepo
	comments *repositories.CommentSqlRepo
	files    *repositories.FileSqlRepo
}

func newStores(t *testing.T) stores {
	t.Helper()

	db, err := repositories.OpenSQL(context.Background(), repositories.DriverSqlite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := zerolog.Nop()
	return stores{
		tasks:    repositories.NewTaskSqlRepo(db, log, testTracer),
		users:    repositories.NewUserSqlRepo(db, log, testTracer),
		comments: repositories.NewCommentSqlRepo(db, log, testTracer),
		files:    repositories.NewFileSqlRepo(db, log, testTracer),
	}
}

func (s stores) addUser(t *testing.T, id, name string) *domain.User {
	t.Helper()

	u := &domain.User{Id: id, Name: name, Email: id + "@example.com", Password: "x", CreatedAt: testNow}
	require.NoError(t, s.users.Create(context.Background(), u))
	return u
}

func newRedisCache(t *testing.T) (*repositories.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cli := repositories.NewRedisClient(mr.Addr(), "")
	t.Cleanup(func() { _ = cli.Close() })
	return repositories.NewRedisCache(cli, zerolog.Nop(), testTracer), mr
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type sentNotification struct {
	UserId  string
	Event   string
	Message string
}

type spyNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *spyNotifier) Emit(userId, event string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserId: userId, Event: event})
}

func (n *spyNotifier) Notify(userId, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserId: userId, Message: message})
}

func (n *spyNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.Event != "" {
			out = append(out, s.Event)
		}
	}
	return out
}

func (n *spyNotifier) messagesFor(userId string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.Message != "" && s.UserId == userId {
			out = append(out, s.Message)
		}
	}
	return out
}

type spyMailer struct {
	mu   sync.Mutex
	sent []domain.Mail
}

func (m *spyMailer) Enqueue(to, subject, html string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, domain.Mail{To: to, Subject: subject, Html: html})
}

// brokenCache reports itself connected but fails every call.
type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) Connected() bool { return true }

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errCacheDown }

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error { return errCacheDown }

func (brokenCache) Keys(context.Context, string) ([]string, error) { return nil, errCacheDown }

func (brokenCache) Delete(context.Context, ...string) error { return errCacheDown }

// countingStore counts list queries that reach the store.
type countingStore struct {
	TaskStore
	mu    sync.Mutex
	finds int
}

func (s *countingStore) Find(ctx context.Context, f domain.TaskFilter, sort domain.TaskSort, skip, take int) (domain.Tasks, error) {
	s.mu.Lock()
	s.finds++
	s.mu.Unlock()
	return s.TaskStore.Find(ctx, f, sort, skip, take)
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finds
}
