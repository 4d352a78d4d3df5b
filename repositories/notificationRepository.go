package repositories

import (
	"context"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog"
)

const notificationsKeyspace = "notifications"

type CassandraRepository struct {
	session *gocql.Session
	logger  zerolog.Logger
}

func NewCassandraRepository(hosts []string, logger zerolog.Logger) (*CassandraRepository, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = "system"
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second

	logger.Info().Strs("hosts", hosts).Msg("connecting to cassandra")

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}
	err = EnsureKeyspaceExists(session)
	session.Close()
	if err != nil {
		return nil, err
	}

	cluster.Keyspace = notificationsKeyspace
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, err
	}
	if err := EnsureTableExists(session); err != nil {
		session.Close()
		return nil, err
	}

	logger.Info().Str("keyspace", notificationsKeyspace).Msg("connected to cassandra")
	return &CassandraRepository{session: session, logger: logger}, nil
}

func (r *CassandraRepository) Close() {
	r.session.Close()
}

func EnsureKeyspaceExists(session *gocql.Session) error {
	query := `
	CREATE KEYSPACE IF NOT EXISTS notifications
	WITH replication = {
		'class': 'SimpleStrategy',
		'replication_factor': 1
	};`
	return session.Query(query).Exec()
}

func EnsureTableExists(session *gocql.Session) error {
	query := `
	CREATE TABLE IF NOT EXISTS notifications (
		id UUID,
		user_id TEXT,
		message TEXT,
		created_at TIMESTAMP,
		is_read BOOLEAN,
		PRIMARY KEY (user_id, created_at, id)
	) WITH CLUSTERING ORDER BY (created_at DESC, id DESC);`
	return session.Query(query).Exec()
}

func (r *CassandraRepository) Create(ctx context.Context, n *domain.Notification) error {
	id := gocql.TimeUUID()
	err := r.session.Query(
		"INSERT INTO notifications (id, user_id, message, created_at, is_read) VALUES (?, ?, ?, ?, ?)",
		id, n.UserID, n.Message, n.CreatedAt, n.IsRead,
	).WithContext(ctx).Exec()
	if err != nil {
		return err
	}
	n.ID = id.String()
	return nil
}

func (r *CassandraRepository) FindByUser(ctx context.Context, userID string) (domain.Notifications, error) {
	iter := r.session.Query(
		"SELECT id, user_id, message, created_at, is_read FROM notifications WHERE user_id = ?", userID,
	).WithContext(ctx).Iter()

	notifications := domain.Notifications{}
	var (
		id gocql.UUID
		n  domain.Notification
	)
	for iter.Scan(&id, &n.UserID, &n.Message, &n.CreatedAt, &n.IsRead) {
		n.ID = id.String()
		notifications = append(notifications, n)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkAllRead flags every unread notification of userID. Updates need the
// full primary key, so the unread rows are selected first.
func (r *CassandraRepository) MarkAllRead(ctx context.Context, userID string) error {
	iter := r.session.Query(
		"SELECT created_at, id, is_read FROM notifications WHERE user_id = ?", userID,
	).WithContext(ctx).Iter()

	type rowKey struct {
		createdAt time.Time
		id        gocql.UUID
	}
	var (
		key     rowKey
		isRead  bool
		pending []rowKey
	)
	for iter.Scan(&key.createdAt, &key.id, &isRead) {
		if !isRead {
			pending = append(pending, key)
		}
	}
	if err := iter.Close(); err != nil {
		return err
	}

	for _, k := range pending {
		err := r.session.Query(
			"UPDATE notifications SET is_read = true WHERE user_id = ? AND created_at = ? AND id = ?", userID, k.createdAt, k.id,
		).WithContext(ctx).Exec()
		if err != nil {
			r.logger.Error().Err(err).Str("user", userID).Str("id", k.id.String()).Msg("mark notification read")
			return err
		}
	}
	r.logger.Debug().Str("user", userID).Int("count", len(pending)).Msg("notifications marked read")
	return nil
}
