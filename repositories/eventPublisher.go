package repositories

import (
	"context"
	"encoding/json"

	"task-management-app/tasks-service/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const EventsChannel = "task-events"

// RedisPublisher broadcasts task events on a Redis pub/sub channel.
type RedisPublisher struct {
	cli     *redis.Client
	channel string
	tracer  trace.Tracer
}

func NewRedisPublisher(cli *redis.Client, channel string, tracer trace.Tracer) *RedisPublisher {
	return &RedisPublisher{cli: cli, channel: channel, tracer: tracer}
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.Event) error {
	ctx, span := p.tracer.Start(ctx, "RedisPublisher.Publish")
	defer span.End()

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.cli.Publish(ctx, p.channel, payload).Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
