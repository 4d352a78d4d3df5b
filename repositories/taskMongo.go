package repositories

import (
	"context"
	"errors"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type TaskMongoRepo struct {
	cli    *mongo.Client
	dbName string
	logger zerolog.Logger
	tracer trace.Tracer
}

// taskDocument stores the priority weight next to the task so that the
// database can sort by it.
type taskDocument struct {
	domain.Task    `bson:",inline"`
	PriorityWeight int `bson:"priorityWeight"`
}

func newTaskDocument(t *domain.Task) taskDocument {
	return taskDocument{Task: *t, PriorityWeight: t.Priority.Weight()}
}

func NewTaskMongoRepo(cli *mongo.Client, dbName string, logger zerolog.Logger, tracer trace.Tracer) *TaskMongoRepo {
	return &TaskMongoRepo{
		cli:    cli,
		dbName: dbName,
		logger: logger,
		tracer: tracer,
	}
}

func (tr *TaskMongoRepo) getCollection() *mongo.Collection {
	return tr.cli.Database(tr.dbName).Collection("tasks")
}

func (tr *TaskMongoRepo) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, tr.getCollection(),
		index(false, "userId", "deletedAt", "createdAt"),
		index(false, "userId", "tags"),
	)
}

func (tr *TaskMongoRepo) Find(ctx context.Context, filter domain.TaskFilter, sort domain.TaskSort, skip, take int) (domain.Tasks, error) {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.Find")
	defer span.End()

	opts := options.Find().SetSort(taskSortBson(sort)).SetSkip(int64(skip))
	if take > 0 {
		opts.SetLimit(int64(take))
	}

	cursor, err := tr.getCollection().Find(ctx, taskFilterBson(filter), opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		tr.logger.Error().Err(err).Msg("find tasks")
		return nil, err
	}

	var docs []taskDocument
	if err = cursor.All(ctx, &docs); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	tasks := make(domain.Tasks, 0, len(docs))
	for i := range docs {
		tasks = append(tasks, normalizeTask(&docs[i].Task))
	}
	return tasks, nil
}

func (tr *TaskMongoRepo) Count(ctx context.Context, filter domain.TaskFilter) (int64, error) {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.Count")
	defer span.End()

	n, err := tr.getCollection().CountDocuments(ctx, taskFilterBson(filter))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return n, nil
}

func (tr *TaskMongoRepo) FindById(ctx context.Context, id string) (*domain.Task, error) {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.FindById")
	defer span.End()

	var doc taskDocument
	err := tr.getCollection().FindOne(ctx, bson.M{"_id": id, "deletedAt": nil}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound()
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return normalizeTask(&doc.Task), nil
}

func (tr *TaskMongoRepo) Create(ctx context.Context, tasks ...*domain.Task) error {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.Create")
	defer span.End()

	if len(tasks) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(tasks))
	for _, t := range tasks {
		docs = append(docs, newTaskDocument(t))
	}

	if _, err := tr.getCollection().InsertMany(ctx, docs); err != nil {
		span.SetStatus(codes.Error, err.Error())
		tr.logger.Error().Err(err).Int("count", len(tasks)).Msg("insert tasks")
		return err
	}
	return nil
}

func (tr *TaskMongoRepo) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.Update")
	defer span.End()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err := tr.getCollection().
		FindOneAndUpdate(ctx, bson.M{"_id": id, "deletedAt": nil}, taskUpdateBson(patch), opts).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound()
		}
		span.SetStatus(codes.Error, err.Error())
		tr.logger.Error().Err(err).Str("task", id).Msg("update task")
		return nil, err
	}
	return normalizeTask(&doc.Task), nil
}

func (tr *TaskMongoRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	ctx, span := tr.tracer.Start(ctx, "TaskRepo.SoftDelete")
	defer span.End()

	res, err := tr.getCollection().UpdateOne(ctx,
		bson.M{"_id": id, "deletedAt": nil},
		bson.M{"$set": bson.M{"deletedAt": at, "updatedAt": at}},
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrTaskNotFound()
	}
	return nil
}

// normalizeTask copies t with times in UTC and a non-nil tag list.
func normalizeTask(t *domain.Task) *domain.Task {
	out := *t
	if out.Tags == nil {
		out.Tags = []string{}
	}
	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()
	if out.DueDate != nil {
		d := out.DueDate.UTC()
		out.DueDate = &d
	}
	if out.DeletedAt != nil {
		d := out.DeletedAt.UTC()
		out.DeletedAt = &d
	}
	return &out
}
