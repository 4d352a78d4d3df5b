package services

import (
	"context"
	"sync"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const deliveryTimeout = 5 * time.Second

// NotificationService fans task events out to the publisher and keeps the
// in-app notification log. Either backend may be absent.
type NotificationService struct {
	publisher EventPublisher
	store     NotificationStore
	now       Clock
	wg        sync.WaitGroup
	logger    zerolog.Logger
	tracer    trace.Tracer
}

func NewNotificationService(publisher EventPublisher, store NotificationStore, logger zerolog.Logger, tracer trace.Tracer) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		store:     store,
		now:       systemClock,
		logger:    logger,
		tracer:    tracer,
	}
}

func (s *NotificationService) Emit(userId, event string, payload any) {
	if s.publisher == nil {
		return
	}
	e := domain.Event{Name: event, UserId: userId, Payload: payload, At: s.now()}
	s.async(func(ctx context.Context) {
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.logger.Warn().Err(err).Str("event", event).Str("user", userId).Msg("publish task event")
		}
	})
}

func (s *NotificationService) Notify(userId, message string) {
	if s.store == nil {
		return
	}
	n := &domain.Notification{UserID: userId, Message: message, CreatedAt: s.now()}
	s.async(func(ctx context.Context) {
		if err := s.store.Create(ctx, n); err != nil {
			s.logger.Warn().Err(err).Str("user", userId).Msg("store notification")
		}
	})
}

// List returns userId's notifications newest first.
func (s *NotificationService) List(ctx context.Context, userId string) (domain.Notifications, error) {
	ctx, span := s.tracer.Start(ctx, "NotificationService.List")
	defer span.End()

	if userId == "" {
		return nil, domain.ErrUnauthorized()
	}
	if s.store == nil {
		return domain.Notifications{}, nil
	}
	notifications, err := s.store.FindByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = domain.Notifications{}
	}
	return notifications, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userId string) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.MarkAllRead")
	defer span.End()

	if userId == "" {
		return domain.ErrUnauthorized()
	}
	if s.store == nil {
		return nil
	}
	return s.store.MarkAllRead(ctx, userId)
}

// Wait blocks until every pending delivery has finished.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) async(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		fn(ctx)
	}()
}
