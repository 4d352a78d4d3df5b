package repositories

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live cluster only, e.g. CASSANDRA_TEST_HOSTS=localhost:9042.
func TestCassandraRepository(t *testing.T) {
	hosts := os.Getenv("CASSANDRA_TEST_HOSTS")
	if hosts == "" {
		t.Skip("CASSANDRA_TEST_HOSTS not set")
	}
	ctx := context.Background()

	repo, err := NewCassandraRepository(strings.Split(hosts, ","), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	t.Run("same timestamp notifications are all kept", func(t *testing.T) {
		user := "u-" + uuid.NewString()
		at := time.Now().UTC().Truncate(time.Millisecond)

		ids := map[string]bool{}
		for i := 0; i < 5; i++ {
			n := &domain.Notification{UserID: user, Message: "assigned", CreatedAt: at}
			require.NoError(t, repo.Create(ctx, n))
			ids[n.ID] = true
		}
		assert.Len(t, ids, 5)

		list, err := repo.FindByUser(ctx, user)
		require.NoError(t, err)
		assert.Len(t, list, 5)

		require.NoError(t, repo.MarkAllRead(ctx, user))
		list, err = repo.FindByUser(ctx, user)
		require.NoError(t, err)
		require.Len(t, list, 5)
		for _, n := range list {
			assert.True(t, n.IsRead)
		}
	})
}
