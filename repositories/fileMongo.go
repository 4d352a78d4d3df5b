package repositories

import (
	"context"
	"errors"

	"task-management-app/tasks-service/domain"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type FileMongoRepo struct {
	cli    *mongo.Client
	dbName string
	logger zerolog.Logger
	tracer trace.Tracer
}

func NewFileMongoRepo(cli *mongo.Client, dbName string, logger zerolog.Logger, tracer trace.Tracer) *FileMongoRepo {
	return &FileMongoRepo{cli: cli, dbName: dbName, logger: logger, tracer: tracer}
}

func (fr *FileMongoRepo) getCollection() *mongo.Collection {
	return fr.cli.Database(fr.dbName).Collection("files")
}

func (fr *FileMongoRepo) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, fr.getCollection(), index(false, "taskId"))
}

func (fr *FileMongoRepo) Create(ctx context.Context, files ...*domain.File) error {
	ctx, span := fr.tracer.Start(ctx, "FileRepo.Create")
	defer span.End()

	if len(files) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(files))
	for _, f := range files {
		docs = append(docs, f)
	}
	if _, err := fr.getCollection().InsertMany(ctx, docs); err != nil {
		span.SetStatus(codes.Error, err.Error())
		fr.logger.Error().Err(err).Msg("insert files")
		return err
	}
	return nil
}

func (fr *FileMongoRepo) FindById(ctx context.Context, id string) (*domain.File, error) {
	ctx, span := fr.tracer.Start(ctx, "FileRepo.FindById")
	defer span.End()

	var file domain.File
	if err := fr.getCollection().FindOne(ctx, bson.M{"_id": id}).Decode(&file); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrFileNotFound()
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	file.CreatedAt = file.CreatedAt.UTC()
	return &file, nil
}

func (fr *FileMongoRepo) FindByTask(ctx context.Context, taskId string) (domain.Files, error) {
	ctx, span := fr.tracer.Start(ctx, "FileRepo.FindByTask")
	defer span.End()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetProjection(bson.M{"data": 0})
	cursor, err := fr.getCollection().Find(ctx, bson.M{"taskId": taskId}, opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	files := domain.Files{}
	if err := cursor.All(ctx, &files); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return files, nil
}

func (fr *FileMongoRepo) Delete(ctx context.Context, id string) error {
	ctx, span := fr.tracer.Start(ctx, "FileRepo.Delete")
	defer span.End()

	res, err := fr.getCollection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrFileNotFound()
	}
	return nil
}
