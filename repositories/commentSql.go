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

var commentColumns = []string{"id", "content", "task_id", "user_id", "created_at"}

type CommentSqlRepo struct {
	*SqlDB
	logger zerolog.Logger
	tracer trace.Tracer
}

func NewCommentSqlRepo(db *SqlDB, logger zerolog.Logger, tracer trace.Tracer) *CommentSqlRepo {
	return &CommentSqlRepo{SqlDB: db, logger: logger, tracer: tracer}
}

func (cr *CommentSqlRepo) Create(ctx context.Context, comment *domain.Comment) error {
	ctx, span := cr.tracer.Start(ctx, "CommentRepo.Create")
	defer span.End()

	_, err := execBuilder(ctx, cr.db, cr.builder.Insert("comments").
		Columns(commentColumns...).
		Values(comment.Id, comment.Content, comment.TaskId, comment.UserId, utc(comment.CreatedAt)))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		cr.logger.Error().Err(err).Msg("insert comment")
	}
	return err
}

func (cr *CommentSqlRepo) FindById(ctx context.Context, id string) (*domain.Comment, error) {
	ctx, span := cr.tracer.Start(ctx, "CommentRepo.FindById")
	defer span.End()

	query, args, err := cr.builder.Select(commentColumns...).From("comments").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanComment(cr.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCommentNotFound()
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return c, nil
}

func (cr *CommentSqlRepo) FindByTask(ctx context.Context, taskId string) (domain.Comments, error) {
	ctx, span := cr.tracer.Start(ctx, "CommentRepo.FindByTask")
	defer span.End()

	query, args, err := cr.builder.Select(commentColumns...).
		From("comments").
		Where(squirrel.Eq{"task_id": taskId}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := cr.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	comments := domain.Comments{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (cr *CommentSqlRepo) UpdateContent(ctx context.Context, id, content string) (*domain.Comment, error) {
	ctx, span := cr.tracer.Start(ctx, "CommentRepo.UpdateContent")
	defer span.End()

	res, err := execBuilder(ctx, cr.db, cr.builder.Update("comments").Set("content", content).Where(squirrel.Eq{"id": id}))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, domain.ErrCommentNotFound()
	}
	return cr.FindById(ctx, id)
}

func (cr *CommentSqlRepo) Delete(ctx context.Context, id string) error {
	ctx, span := cr.tracer.Start(ctx, "CommentRepo.Delete")
	defer span.End()

	res, err := execBuilder(ctx, cr.db, cr.builder.Delete("comments").Where(squirrel.Eq{"id": id}))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCommentNotFound()
	}
	return nil
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(&c.Id, &c.Content, &c.TaskId, &c.UserId, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}
