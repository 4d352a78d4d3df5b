package services

import (
	"context"
	"time"

	"task-management-app/tasks-service/domain"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AnalyticsService aggregates a user's active tasks. It always reads the
// store directly.
type AnalyticsService struct {
	tasks  TaskStore
	now    Clock
	tracer trace.Tracer
}

func NewAnalyticsService(tasks TaskStore, tracer trace.Tracer, now Clock) *AnalyticsService {
	if now == nil {
		now = systemClock
	}
	return &AnalyticsService{tasks: tasks, now: now, tracer: tracer}
}

func (s *AnalyticsService) Stats(ctx context.Context, userId string) (*domain.Stats, error) {
	ctx, span := s.tracer.Start(ctx, "AnalyticsService.Stats")
	defer span.End()

	tasks, err := s.activeTasks(ctx, userId)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	stats := ComputeStats(tasks)
	return &stats, nil
}

func (s *AnalyticsService) Trends(ctx context.Context, userId string) (domain.Trends, error) {
	ctx, span := s.tracer.Start(ctx, "AnalyticsService.Trends")
	defer span.End()

	tasks, err := s.activeTasks(ctx, userId)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return ComputeTrends(tasks, s.now()), nil
}

func (s *AnalyticsService) activeTasks(ctx context.Context, userId string) (domain.Tasks, error) {
	if userId == "" {
		return nil, domain.ErrUnauthorized()
	}
	return s.tasks.Find(ctx,
		domain.TaskFilter{OwnerId: userId},
		domain.TaskSort{Field: domain.SortCreatedAt, Order: domain.Asc},
		0, 0)
}

// ComputeStats summarizes tasks. Completion time is measured from creation to
// the last modification of a DONE task, in milliseconds.
func ComputeStats(tasks domain.Tasks) domain.Stats {
	stats := domain.Stats{
		TasksByStatus:   map[domain.Status]int64{},
		TasksByPriority: map[domain.Priority]int64{},
	}
	for _, st := range domain.Statuses {
		stats.TasksByStatus[st] = 0
	}
	for _, p := range domain.Priorities {
		stats.TasksByPriority[p] = 0
	}

	var (
		done    int64
		totalMs float64
		withDue int64
		onTime  int64
	)
	for _, t := range tasks {
		if !t.Active() {
			continue
		}
		stats.TotalTasks++
		stats.TasksByStatus[t.Status]++
		stats.TasksByPriority[t.Priority]++

		if !t.Completed() {
			continue
		}
		done++
		totalMs += float64(t.UpdatedAt.Sub(t.CreatedAt)) / float64(time.Millisecond)
		if t.DueDate != nil {
			withDue++
			if t.OnTime() {
				onTime++
			}
		}
	}

	if done > 0 {
		stats.AvgCompletionTime = totalMs / float64(done)
	}
	if withDue > 0 {
		stats.OnTimeCompletionRate = float64(onTime) / float64(withDue) * 100
	}
	return stats
}

// ComputeTrends buckets tasks into the UTC calendar days from six days before
// now up to and including today. Every day is present even without activity.
func ComputeTrends(tasks domain.Tasks, now time.Time) domain.Trends {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	trends := make(domain.Trends, domain.TrendDays)
	for i := 0; i < domain.TrendDays; i++ {
		trends[domain.DayKey(today.AddDate(0, 0, -i))] = &domain.TrendBucket{}
	}

	for _, t := range tasks {
		if !t.Active() {
			continue
		}
		if b, ok := trends[domain.DayKey(t.CreatedAt)]; ok {
			b.Created++
		}
		if t.Completed() {
			if b, ok := trends[domain.DayKey(t.UpdatedAt)]; ok {
				b.Completed++
			}
		}
	}
	return trends
}
