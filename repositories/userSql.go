package repositories

import (
	"context"
	"database/sql"
	"errors"

	"task-management-app/tasks-service/domain"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type UserSqlRepo struct {
	*SqlDB
	logger zerolog.Logger
	tracer trace.Tracer
}

func NewUserSqlRepo(db *SqlDB, logger zerolog.Logger, tracer trace.Tracer) *UserSqlRepo {
	return &UserSqlRepo{SqlDB: db, logger: logger, tracer: tracer}
}

func (ur *UserSqlRepo) Create(ctx context.Context, user *domain.User) error {
	ctx, span := ur.tracer.Start(ctx, "UserRepo.Create")
	defer span.End()

	_, err := execBuilder(ctx, ur.db, ur.builder.Insert("users").
		Columns("id", "name", "email", "password", "created_at").
		Values(user.Id, user.Name, user.Email, user.Password, utc(user.CreatedAt)))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists()
		}
		span.SetStatus(codes.Error, err.Error())
		ur.logger.Error().Err(err).Msg("insert user")
		return err
	}
	return nil
}

func (ur *UserSqlRepo) FindById(ctx context.Context, id string) (*domain.User, error) {
	return ur.findOne(ctx, "UserRepo.FindById", squirrel.Eq{"id": id})
}

func (ur *UserSqlRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return ur.findOne(ctx, "UserRepo.FindByEmail", squirrel.Eq{"email": email})
}

func (ur *UserSqlRepo) findOne(ctx context.Context, spanName string, where squirrel.Eq) (*domain.User, error) {
	ctx, span := ur.tracer.Start(ctx, spanName)
	defer span.End()

	query, args, err := ur.builder.Select("id", "name", "email", "password", "created_at").
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u domain.User
	err = ur.db.QueryRowContext(ctx, query, args...).Scan(&u.Id, &u.Name, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound()
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (ur *UserSqlRepo) FindAll(ctx context.Context) (domain.Users, error) {
	ctx, span := ur.tracer.Start(ctx, "UserRepo.FindAll")
	defer span.End()

	query, args, err := ur.builder.Select("id", "name", "email", "created_at").
		From("users").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := ur.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	users := domain.Users{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.Id, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		users = append(users, &u)
	}
	return users, rows.Err()
}
