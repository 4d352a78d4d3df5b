package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const scanBatch = 100

// RedisCache is a key-value cache guarded by a circuit breaker. While the
// breaker is open every call fails fast with gobreaker.ErrOpenState.
type RedisCache struct {
	cli    *redis.Client
	cb     *gobreaker.CircuitBreaker[[]byte]
	logger zerolog.Logger
	tracer trace.Tracer
}

func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

func NewRedisCache(cli *redis.Client, logger zerolog.Logger, tracer trace.Tracer) *RedisCache {
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "RedisCacheCB",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &RedisCache{cli: cli, cb: cb, logger: logger, tracer: tracer}
}

func (c *RedisCache) Connected() bool {
	return c.cb.State() != gobreaker.StateOpen
}

// Get returns the value under key. A missing key is reported with found=false
// and no error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := c.tracer.Start(ctx, "RedisCache.Get")
	defer span.End()

	found := false
	value, err := c.cb.Execute(func() ([]byte, error) {
		b, err := c.cli.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		found = true
		return b, nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	return value, found, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := c.tracer.Start(ctx, "RedisCache.Set")
	defer span.End()

	_, err := c.cb.Execute(func() ([]byte, error) {
		return nil, c.cli.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Keys lists every key starting with prefix using SCAN.
func (c *RedisCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "RedisCache.Keys")
	defer span.End()

	var keys []string
	_, err := c.cb.Execute(func() ([]byte, error) {
		keys = keys[:0]
		iter := c.cli.Scan(ctx, 0, globEscape(prefix)+"*", scanBatch).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		return nil, iter.Err()
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return keys, nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	ctx, span := c.tracer.Start(ctx, "RedisCache.Delete")
	defer span.End()

	if len(keys) == 0 {
		return nil
	}
	_, err := c.cb.Execute(func() ([]byte, error) {
		for start := 0; start < len(keys); start += scanBatch {
			end := start + scanBatch
			if end > len(keys) {
				end = len(keys)
			}
			if err := c.cli.Del(ctx, keys[start:end]...).Err(); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func globEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}

// NopCache is used when no cache is configured. It never reports itself connected.
type NopCache struct{}

func (NopCache) Connected() bool { return false }

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NopCache) Keys(context.Context, string) ([]string, error) { return nil, nil }

func (NopCache) Delete(context.Context, ...string) error { return nil }
