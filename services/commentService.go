package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type CommentService struct {
	comments CommentStore
	tasks    TaskStore
	users    UserStore
	tracer   trace.Tracer
}

func NewCommentService(comments CommentStore, tasks TaskStore, users UserStore, tracer trace.Tracer) *CommentService {
	return &CommentService{comments: comments, tasks: tasks, users: users, tracer: tracer}
}

func (s *CommentService) Create(ctx context.Context, userId, taskId, content string) (*domain.Comment, error) {
	ctx, span := s.tracer.Start(ctx, "CommentService.Create")
	defer span.End()

	verr := &domain.ValidationError{}
	content = strings.TrimSpace(content)
	if content == "" {
		verr.Add("content", "is required")
	}
	if taskId == "" {
		verr.Add("taskId", "is required")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if err := s.checkTask(ctx, userId, taskId); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		Id:        uuid.NewString(),
		Content:   content,
		TaskId:    taskId,
		UserId:    userId,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.attachAuthors(ctx, domain.Comments{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByTask returns the comments of a task oldest first.
func (s *CommentService) ListByTask(ctx context.Context, userId, taskId string) (domain.Comments, error) {
	ctx, span := s.tracer.Start(ctx, "CommentService.ListByTask")
	defer span.End()

	if err := s.checkTask(ctx, userId, taskId); err != nil {
		return nil, err
	}
	comments, err := s.comments.FindByTask(ctx, taskId)
	if err != nil {
		return nil, err
	}
	if err := s.attachAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *CommentService) Update(ctx context.Context, userId, id, content string) (*domain.Comment, error) {
	ctx, span := s.tracer.Start(ctx, "CommentService.Update")
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("content", "is required")
	}
	if _, err := s.authored(ctx, userId, id); err != nil {
		return nil, err
	}
	comment, err := s.comments.UpdateContent(ctx, id, content)
	if err != nil {
		return nil, err
	}
	if err := s.attachAuthors(ctx, domain.Comments{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, userId, id string) error {
	ctx, span := s.tracer.Start(ctx, "CommentService.Delete")
	defer span.End()

	if _, err := s.authored(ctx, userId, id); err != nil {
		return err
	}
	return s.comments.Delete(ctx, id)
}

func (s *CommentService) authored(ctx context.Context, userId, id string) (*domain.Comment, error) {
	if userId == "" {
		return nil, domain.ErrUnauthorized()
	}
	comment, err := s.comments.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserId != userId {
		return nil, domain.ErrForbidden()
	}
	return comment, nil
}

func (s *CommentService) checkTask(ctx context.Context, userId, taskId string) error {
	if userId == "" {
		return domain.ErrUnauthorized()
	}
	task, err := s.tasks.FindById(ctx, taskId)
	if err != nil {
		return err
	}
	if !task.VisibleTo(userId) {
		return domain.ErrForbidden()
	}
	return nil
}

func (s *CommentService) attachAuthors(ctx context.Context, comments domain.Comments) error {
	authors := map[string]*domain.Author{}
	for _, c := range comments {
		a, ok := authors[c.UserId]
		if !ok {
			u, err := s.users.FindById(ctx, c.UserId)
			switch {
			case err == nil:
				a = &domain.Author{Id: u.Id, Name: u.Name}
			case errors.Is(err, domain.ErrUserNotFound()):
				a = &domain.Author{Id: c.UserId}
			default:
				return err
			}
			authors[c.UserId] = a
		}
		c.User = a
	}
	return nil
}
