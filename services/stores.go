package services

import (
	"context"
	"time"

	"task-management-app/tasks-service/domain"
)

// TaskStore is the source of truth for tasks. Find and Count only ever see
// active tasks; FindById reports soft-deleted tasks as not found.
type TaskStore interface {
	Find(ctx context.Context, filter domain.TaskFilter, sort domain.TaskSort, skip, take int) (domain.Tasks, error)
	Count(ctx context.Context, filter domain.TaskFilter) (int64, error)
	FindById(ctx context.Context, id string) (*domain.Task, error)
	Create(ctx context.Context, tasks ...*domain.Task) error
	Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	FindById(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindAll(ctx context.Context) (domain.Users, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *domain.Comment) error
	FindById(ctx context.Context, id string) (*domain.Comment, error)
	FindByTask(ctx context.Context, taskId string) (domain.Comments, error)
	UpdateContent(ctx context.Context, id, content string) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
}

type FileStore interface {
	Create(ctx context.Context, files ...*domain.File) error
	FindById(ctx context.Context, id string) (*domain.File, error)
	FindByTask(ctx context.Context, taskId string) (domain.Files, error)
	Delete(ctx context.Context, id string) error
}

// Cache is best effort. Callers check Connected before use and treat every
// error as a miss.
type Cache interface {
	Connected() bool
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	FindByUser(ctx context.Context, userID string) (domain.Notifications, error)
	MarkAllRead(ctx context.Context, userID string) error
}

// Notifier broadcasts task events and records in-app notifications. Neither
// call blocks on delivery.
type Notifier interface {
	Emit(userId, event string, payload any)
	Notify(userId, message string)
}

// Mailer queues outbound email. Delivery and retries are its own concern.
type Mailer interface {
	Enqueue(to, subject, html string)
}

// Clock returns the current time. Tests replace it to pin day boundaries.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
