package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var sqlSortColumns = map[domain.SortField]string{
	domain.SortCreatedAt: "created_at",
	domain.SortUpdatedAt: "updated_at",
	domain.SortDueDate:   "due_date",
	domain.SortTitle:     "title",
	domain.SortStatus:    "status",
	domain.SortPriority:  "priority_weight",
}

var taskColumns = []string{
	"id", "title", "description", "status", "priority", "due_date",
	"user_id", "assigned_to_id", "created_at", "updated_at", "deleted_at",
}

var taskInsertColumns = append(append([]string{}, taskColumns...), "priority_weight")

type TaskSqlRepo struct {
	*SqlDB
	logger zerolog.Logger
	tracer trace.Tracer
}

func NewTaskSqlRepo(db *SqlDB, logger zerolog.Logger, tracer trace.Tracer) *TaskSqlRepo {
	return &TaskSqlRepo{SqlDB: db, logger: logger, tracer: tracer}
}

func taskFilterSql(f domain.TaskFilter) squirrel.And {
	where := squirrel.And{squirrel.Eq{"deleted_at": nil}}
	if f.OwnerId != "" {
		where = append(where, squirrel.Eq{"user_id": f.OwnerId})
	}
	if f.Status != "" {
		where = append(where, squirrel.Eq{"status": string(f.Status)})
	}
	if f.Priority != "" {
		where = append(where, squirrel.Eq{"priority": string(f.Priority)})
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		where = append(where, squirrel.Or{
			squirrel.Expr(`LOWER(title) LIKE ? ESCAPE '\'`, pattern),
			squirrel.Expr(`LOWER(description) LIKE ? ESCAPE '\'`, pattern),
		})
	}
	if len(f.Tags) > 0 {
		sub, args, _ := squirrel.Select("1").
			From("task_tags tt").
			Where("tt.task_id = tasks.id").
			Where(squirrel.Eq{"tt.tag": f.Tags}).
			ToSql()
		where = append(where, squirrel.Expr("EXISTS ("+sub+")", args...))
	}
	return where
}

func taskOrderSql(s domain.TaskSort) []string {
	col, ok := sqlSortColumns[s.Field]
	if !ok {
		col = "created_at"
	}
	dir := " ASC"
	if s.Descending() {
		dir = " DESC"
	}
	return []string{col + dir, "id" + dir}
}

func (tr *TaskSqlRepo) Find(ctx context.Context, filter domain.TaskFilter, sort domain.TaskSort, skip, take int) (domain.Tasks, error) {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.Find")
	defer span.End()

	q := tr.builder.Select(taskColumns...).
		From("tasks").
		Where(taskFilterSql(filter)).
		OrderBy(taskOrderSql(sort)...)
	if take > 0 {
		q = q.Limit(uint64(take)).Offset(uint64(skip))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := tr.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		tr.logger.Error().Err(err).Msg("find tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := domain.Tasks{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tr.loadTags(ctx, tasks); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return tasks, nil
}

func (tr *TaskSqlRepo) Count(ctx context.Context, filter domain.TaskFilter) (int64, error) {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.Count")
	defer span.End()

	query, args, err := tr.builder.Select("COUNT(*)").From("tasks").Where(taskFilterSql(filter)).ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tr.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return n, nil
}

func (tr *TaskSqlRepo) FindById(ctx context.Context, id string) (*domain.Task, error) {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.FindById")
	defer span.End()

	task, err := tr.findById(ctx, tr.db, id)
	if err != nil && !domain.IsNotFound(err) {
		span.SetStatus(codes.Error, err.Error())
	}
	return task, err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (tr *TaskSqlRepo) findById(ctx context.Context, db queryer, id string) (*domain.Task, error) {
	query, args, err := tr.builder.Select(taskColumns...).
		From("tasks").
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, err
	}

	task, err := scanTask(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound()
		}
		return nil, err
	}

	tags, err := tr.tagsOf(ctx, db, []string{task.Id})
	if err != nil {
		return nil, err
	}
	task.Tags = tags[task.Id]
	if task.Tags == nil {
		task.Tags = []string{}
	}
	return task, nil
}

func (tr *TaskSqlRepo) Create(ctx context.Context, tasks ...*domain.Task) error {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.Create")
	defer span.End()

	if len(tasks) == 0 {
		return nil
	}
	err := tr.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tasks {
			insert := tr.builder.Insert("tasks").
				Columns(taskInsertColumns...).
				Values(t.Id, t.Title, t.Description, string(t.Status), string(t.Priority), nullTime(t.DueDate),
					t.OwnerId, t.AssigneeId, utc(t.CreatedAt), utc(t.UpdatedAt), nullTime(t.DeletedAt),
					t.Priority.Weight())
			if _, err := execBuilder(ctx, tx, insert); err != nil {
				return err
			}
			if err := tr.replaceTags(ctx, tx, t.Id, t.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		tr.logger.Error().Err(err).Int("count", len(tasks)).Msg("insert tasks")
	}
	return err
}

func (tr *TaskSqlRepo) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.Update")
	defer span.End()

	set := map[string]interface{}{"updated_at": utc(patch.UpdatedAt)}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Priority != nil {
		set["priority"] = string(*patch.Priority)
		set["priority_weight"] = patch.Priority.Weight()
	}
	if patch.ClearDueDate {
		set["due_date"] = nil
	} else if patch.DueDate != nil {
		set["due_date"] = utc(*patch.DueDate)
	}
	if patch.ClearAssignee {
		set["assigned_to_id"] = nil
	} else if patch.AssigneeId != nil {
		set["assigned_to_id"] = *patch.AssigneeId
	}

	var task *domain.Task
	err := tr.inTx(ctx, func(tx *sql.Tx) error {
		res, err := execBuilder(ctx, tx, tr.builder.Update("tasks").
			SetMap(set).
			Where(squirrel.Eq{"id": id, "deleted_at": nil}))
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return domain.ErrTaskNotFound()
		}
		if patch.Tags != nil {
			if err := tr.replaceTags(ctx, tx, id, *patch.Tags); err != nil {
				return err
			}
		}
		task, err = tr.findById(ctx, tx, id)
		return err
	})
	if err != nil {
		if !domain.IsNotFound(err) {
			span.SetStatus(codes.Error, err.Error())
			tr.logger.Error().Err(err).Str("task", id).Msg("update task")
		}
		return nil, err
	}
	return task, nil
}

func (tr *TaskSqlRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.SoftDelete")
	defer span.End()

	res, err := execBuilder(ctx, tr.db, tr.builder.Update("tasks").
		Set("deleted_at", utc(at)).
		Set("updated_at", utc(at)).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTaskNotFound()
	}
	return nil
}

func (tr *TaskSqlRepo) replaceTags(ctx context.Context, tx *sql.Tx, taskId string, tags []string) error {
	if _, err := execBuilder(ctx, tx, tr.builder.Delete("task_tags").Where(squirrel.Eq{"task_id": taskId})); err != nil {
		return err
	}
	seen := map[string]bool{}
	insert := tr.builder.Insert("task_tags").Columns("task_id", "tag", "position")
	n := 0
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		insert = insert.Values(taskId, tag, n)
		n++
	}
	if n == 0 {
		return nil
	}
	_, err := execBuilder(ctx, tx, insert)
	return err
}

func (tr *TaskSqlRepo) loadTags(ctx context.Context, tasks domain.Tasks) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.Id)
	}
	tags, err := tr.tagsOf(ctx, tr.db, ids)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		t.Tags = tags[t.Id]
		if t.Tags == nil {
			t.Tags = []string{}
		}
	}
	return nil
}

func (tr *TaskSqlRepo) tagsOf(ctx context.Context, db queryer, ids []string) (map[string][]string, error) {
	query, args, err := tr.builder.Select("task_id", "tag").
		From("task_tags").
		Where(squirrel.Eq{"task_id": ids}).
		OrderBy("task_id", "position").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := map[string][]string{}
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, err
		}
		tags[id] = append(tags[id], tag)
	}
	return tags, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t         domain.Task
		status    string
		priority  string
		dueDate   sql.NullTime
		assignee  sql.NullString
		deletedAt sql.NullTime
	)
	err := row.Scan(&t.Id, &t.Title, &t.Description, &status, &priority, &dueDate,
		&t.OwnerId, &assignee, &t.CreatedAt, &t.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	t.Status = domain.Status(status)
	t.Priority = domain.Priority(priority)
	t.DueDate = timePtr(dueDate)
	t.AssigneeId = stringPtr(assignee)
	t.DeletedAt = timePtr(deletedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}
