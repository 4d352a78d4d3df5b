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

var fileColumns = []string{"id", "task_id", "original_name", "mime_type", "size", "created_at"}

type FileSqlRepo struct {
	*SqlDB
	logger zerolog.Logger
	tracer trace.Tracer
}

func NewFileSqlRepo(db *SqlDB, logger zerolog.Logger, tracer trace.Tracer) *FileSqlRepo {
	return &FileSqlRepo{SqlDB: db, logger: logger, tracer: tracer}
}

func (fr *FileSqlRepo) Create(ctx context.Context, files ...*domain.File) error {
	ctx, span := fr.tracer.Start(ctx, "FileRepo.Create")
	defer span.End()

	if len(files) == 0 {
		return nil
	}
	insert := fr.builder.Insert("files").Columns(append(append([]string{}, fileColumns...), "data")...)
	for _, f := range files {
		insert = insert.Values(f.Id, f.TaskId, f.OriginalName, f.MimeType, f.Size, utc(f.CreatedAt), f.Data)
	}
	if _, err := execBuilder(ctx, fr.db, insert); err != nil {
		span.SetStatus(codes.Error, err.Error())
		fr.logger.Error().Err(err).Msg("insert files")
		return err
	}
	return nil
}

func (fr *FileSqlRepo) FindById(ctx context.Context, id string) (*domain.File, error) {
	ctx, span := fr.tracer.Start(ctx, "FileRepo.FindById")
	defer span.End()

	query, args, err := fr.builder.Select(append(append([]string{}, fileColumns...), "data")...).
		From("files").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var f domain.File
	err = fr.db.QueryRowContext(ctx, query, args...).
		Scan(&f.Id, &f.TaskId, &f.OriginalName, &f.MimeType, &f.Size, &f.CreatedAt, &f.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFileNotFound()
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	f.CreatedAt = f.CreatedAt.UTC()
	return &f, nil
}

func (fr *FileSqlRepo) FindByTask(ctx context.Context, taskId string) (domain.Files, error) {
	ctx, span := fr.tracer.Start(ctx, "FileRepo.FindByTask")
	defer span.End()

	query, args, err := fr.builder.Select(fileColumns...).
		From("files").
		Where(squirrel.Eq{"task_id": taskId}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := fr.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	files := domain.Files{}
	for rows.Next() {
		var f domain.File
		if err := rows.Scan(&f.Id, &f.TaskId, &f.OriginalName, &f.MimeType, &f.Size, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.CreatedAt = f.CreatedAt.UTC()
		files = append(files, &f)
	}
	return files, rows.Err()
}

func (fr *FileSqlRepo) Delete(ctx context.Context, id string) error {
	ctx, span := fr.tracer.Start(ctx, "FileRepo.Delete")
	defer span.End()

	res, err := execBuilder(ctx, fr.db, fr.builder.Delete("files").Where(squirrel.Eq{"id": id}))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrFileNotFound()
	}
	return nil
}
