package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultCacheTTL = 60 * time.Second

type TaskService struct {
	tasks    TaskStore
	users    UserStore
	comments CommentStore
	files    FileStore
	cache    Cache
	cacheTTL time.Duration
	notifier Notifier
	mailer   Mailer
	now      Clock
	logger   zerolog.Logger
	tracer   trace.Tracer
}

type TaskServiceOption func(*TaskService)

func WithCache(c Cache, ttl time.Duration) TaskServiceOption {
	return func(s *TaskService) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithNotifier(n Notifier) TaskServiceOption {
	return func(s *TaskService) { s.notifier = n }
}

func WithMailer(m Mailer) TaskServiceOption {
	return func(s *TaskService) { s.mailer = m }
}

func WithClock(c Clock) TaskServiceOption {
	return func(s *TaskService) { s.now = c }
}

func WithLogger(l zerolog.Logger) TaskServiceOption {
	return func(s *TaskService) { s.logger = l }
}

func NewTaskService(tasks TaskStore, users UserStore, comments CommentStore, files FileStore, tracer trace.Tracer, opts ...TaskServiceOption) *TaskService {
	s := &TaskService{
		tasks:    tasks,
		users:    users,
		comments: comments,
		files:    files,
		cacheTTL: DefaultCacheTTL,
		notifier: nopNotifier{},
		mailer:   nopMailer{},
		now:      systemClock,
		logger:   zerolog.Nop(),
		tracer:   tracer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the serialized page of userId's tasks matching params. Cached
// pages are returned byte for byte.
func (s *TaskService) List(ctx context.Context, userId string, params url.Values) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "TaskService.List")
	defer span.End()

	if userId == "" {
		return nil, domain.ErrUnauthorized()
	}
	q, err := domain.ParseTaskQuery(params)
	if err != nil {
		return nil, err
	}

	key := q.CacheKey(userId)
	if body, ok := s.cacheGet(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return body, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	filter := q.Filter(userId)
	tasks, err := s.tasks.Find(ctx, filter, q.Sort(), q.Skip(), q.Limit)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	total, err := s.tasks.Count(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	body, err := json.Marshal(domain.NewPage(tasks, total, q))
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, body)
	return body, nil
}

// Get returns a task with its comments and attachments. Owner and assignee may read it.
func (s *TaskService) Get(ctx context.Context, userId, id string) (*domain.TaskDetails, error) {
	ctx, span := s.tracer.Start(ctx, "TaskService.Get")
	defer span.End()

	task, err := s.visibleTask(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.FindByTask(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	files, err := s.files.FindByTask(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &domain.TaskDetails{Task: task, Comments: comments, Files: files}, nil
}

func (s *TaskService) Create(ctx context.Context, userId string, in domain.TaskInput) (*domain.Task, error) {
	ctx, span := s.tracer.Start(ctx, "TaskService.Create")
	defer span.End()

	tasks, err := s.createMany(ctx, userId, []domain.TaskInput{in}, false)
	if err != nil {
		return nil, err
	}
	return tasks[0], nil
}

// CreateBulk validates every input before writing any of them.
func (s *TaskService) CreateBulk(ctx context.Context, userId string, ins []domain.TaskInput) (domain.Tasks, error) {
	ctx, span := s.tracer.Start(ctx, "TaskService.CreateBulk")
	defer span.End()

	if len(ins) == 0 {
		return nil, domain.NewValidationError("tasks", "at least one task is required")
	}
	return s.createMany(ctx, userId, ins, true)
}

func (s *TaskService) createMany(ctx context.Context, userId string, ins []domain.TaskInput, indexed bool) (domain.Tasks, error) {
	if userId == "" {
		return nil, domain.ErrUnauthorized()
	}

	now := s.now()
	verr := &domain.ValidationError{}
	tasks := make(domain.Tasks, 0, len(ins))
	for i, in := range ins {
		prefix := ""
		if indexed {
			prefix = "[" + strconv.Itoa(i) + "]."
		}
		tasks = append(tasks, in.Task(uuid.NewString(), userId, now, prefix, verr))
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	assignees := map[string]*domain.User{}
	for i, t := range tasks {
		if t.AssigneeId == nil {
			continue
		}
		prefix := ""
		if indexed {
			prefix = "[" + strconv.Itoa(i) + "]."
		}
		u, err := s.assignee(ctx, *t.AssigneeId, prefix)
		if err != nil {
			return nil, err
		}
		assignees[u.Id] = u
	}

	if err := s.tasks.Create(ctx, tasks...); err != nil {
		return nil, err
	}

	for _, t := range tasks {
		s.notifier.Emit(userId, domain.EventTaskCreated, t)
		if t.AssigneeId != nil && *t.AssigneeId != userId {
			s.notifyAssignment(t, assignees[*t.AssigneeId])
		}
	}
	s.invalidate(ctx, userId)
	return tasks, nil
}

// Update applies a partial change. Owner and assignee may update; last write wins.
func (s *TaskService) Update(ctx context.Context, userId, id string, in domain.TaskPatchInput) (*domain.Task, error) {
	ctx, span := s.tracer.Start(ctx, "TaskService.Update")
	defer span.End()

	existing, err := s.visibleTask(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	patch, err := in.Patch(s.now())
	if err != nil {
		return nil, err
	}

	var newAssignee *domain.User
	if patch.AssigneeId != nil && (existing.AssigneeId == nil || *existing.AssigneeId != *patch.AssigneeId) {
		if newAssignee, err = s.assignee(ctx, *patch.AssigneeId, ""); err != nil {
			return nil, err
		}
	}

	task, err := s.tasks.Update(ctx, id, patch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.notifier.Emit(task.OwnerId, domain.EventTaskUpdated, task)
	if newAssignee != nil && newAssignee.Id != userId {
		s.notifyAssignment(task, newAssignee)
	}
	s.invalidate(ctx, task.OwnerId)
	return task, nil
}

// Delete soft-deletes a task. Only the owner may delete.
func (s *TaskService) Delete(ctx context.Context, userId, id string) error {
	ctx, span := s.tracer.Start(ctx, "TaskService.Delete")
	defer span.End()

	task, err := s.visibleTask(ctx, userId, id)
	if err != nil {
		return err
	}
	if task.OwnerId != userId {
		return domain.ErrForbidden()
	}
	if err := s.tasks.SoftDelete(ctx, id, s.now()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.notifier.Emit(task.OwnerId, domain.EventTaskDeleted, map[string]string{"id": id})
	s.invalidate(ctx, task.OwnerId)
	return nil
}

func (s *TaskService) visibleTask(ctx context.Context, userId, id string) (*domain.Task, error) {
	if userId == "" {
		return nil, domain.ErrUnauthorized()
	}
	task, err := s.tasks.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(userId) {
		return nil, domain.ErrForbidden()
	}
	return task, nil
}

func (s *TaskService) assignee(ctx context.Context, id, prefix string) (*domain.User, error) {
	u, err := s.users.FindById(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound()) {
			return nil, domain.NewValidationError(prefix+"assignedToId", "user does not exist")
		}
		return nil, err
	}
	return u, nil
}

func (s *TaskService) notifyAssignment(task *domain.Task, to *domain.User) {
	if to == nil {
		return
	}
	s.notifier.Notify(to.Id, fmt.Sprintf("You have been assigned to task %q", task.Title))

	body := fmt.Sprintf("<p>Hello %s,</p><p>You have been assigned to the task <strong>%s</strong>.</p>",
		html.EscapeString(to.Name), html.EscapeString(task.Title))
	if task.DueDate != nil {
		body += fmt.Sprintf("<p>Due date: %s</p>", task.DueDate.Format(domain.DateLayout))
	}
	s.mailer.Enqueue(to.Email, "New task assigned: "+task.Title, body)
}

// invalidate drops every cached list of ownerId. Failures are logged only.
func (s *TaskService) invalidate(ctx context.Context, ownerId string) {
	if s.cache == nil || !s.cache.Connected() {
		return
	}
	keys, err := s.cache.Keys(ctx, domain.CacheKeyPrefix(ownerId))
	if err != nil {
		s.logger.Warn().Err(err).Str("user", ownerId).Msg("list cache keys for invalidation")
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Str("user", ownerId).Int("keys", len(keys)).Msg("invalidate task cache")
	}
}

func (s *TaskService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil || !s.cache.Connected() {
		return nil, false
	}
	body, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("read task cache")
		return nil, false
	}
	return body, found
}

func (s *TaskService) cacheSet(ctx context.Context, key string, body []byte) {
	if s.cache == nil || !s.cache.Connected() {
		return
	}
	if err := s.cache.Set(ctx, key, body, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("write task cache")
	}
}

type nopNotifier struct{}

func (nopNotifier) Emit(string, string, any) {}

func (nopNotifier) Notify(string, string) {}

type nopMailer struct{}

func (nopMailer) Enqueue(string, string, string) {}
