package repositories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cli := NewRedisClient(mr.Addr(), "")
	t.Cleanup(func() { _ = cli.Close() })
	return NewRedisCache(cli, zerolog.Nop(), testTracer), mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	t.Run("get set and expiry", func(t *testing.T) {
		cache, mr := newTestCache(t)

		_, found, err := cache.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
		got, found, err := cache.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("v"), got)

		mr.FastForward(61 * time.Second)
		_, found, err = cache.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("keys by prefix", func(t *testing.T) {
		cache, _ := newTestCache(t)

		require.NoError(t, cache.Set(ctx, `tasks:u1:{"page":1,"tags":["a"]}`, []byte("1"), time.Minute))
		require.NoError(t, cache.Set(ctx, `tasks:u1:{"page":2}`, []byte("2"), time.Minute))
		require.NoError(t, cache.Set(ctx, `tasks:u10:{"page":1}`, []byte("3"), time.Minute))

		keys, err := cache.Keys(ctx, domain.CacheKeyPrefix("u1"))
		require.NoError(t, err)
		assert.Len(t, keys, 2)

		require.NoError(t, cache.Delete(ctx, keys...))
		keys, err = cache.Keys(ctx, domain.CacheKeyPrefix("u1"))
		require.NoError(t, err)
		assert.Empty(t, keys)

		keys, err = cache.Keys(ctx, domain.CacheKeyPrefix("u10"))
		require.NoError(t, err)
		assert.Len(t, keys, 1)
	})

	t.Run("breaker opens when redis is down", func(t *testing.T) {
		cache, mr := newTestCache(t)
		mr.Close()

		for i := 0; i < 3; i++ {
			_, _, err := cache.Get(ctx, "k")
			assert.Error(t, err)
		}
		assert.False(t, cache.Connected())
	})
}

func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cli := NewRedisClient(mr.Addr(), "")
	defer cli.Close()

	sub := cli.Subscribe(ctx, EventsChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(cli, EventsChannel, testTracer)
	require.NoError(t, pub.Publish(ctx, domain.Event{Name: domain.EventTaskDeleted, UserId: "u1", Payload: map[string]string{"id": "t1"}}))

	select {
	case msg := <-sub.Channel():
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, domain.EventTaskDeleted, got["event"])
		assert.Equal(t, map[string]any{"id": "t1"}, got["payload"])
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published")
	}
}
