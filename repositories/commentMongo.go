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

type CommentMongoRepo struct {
	cli    *mongo.Client
	dbName string
	logger zerolog.Logger
	tracer trace.Tracer
}

func NewCommentMongoRepo(cli *mongo.Client, dbName string, logger zerolog.Logger, tracer trace.Tracer) *CommentMongoRepo {
	return &CommentMongoRepo{cli: cli, dbName: dbName, logger: logger, tracer: tracer}
}

func (cr *CommentMongoRepo) getCollection() *mongo.Collection {
	return cr.cli.Database(cr.dbName).Collection("comments")
}

func (cr *CommentMongoRepo) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, cr.getCollection(), index(false, "taskId", "createdAt"))
}

func (cr *CommentMongoRepo) Create(ctx context.Context, comment *domain.Comment) error {
	ctx, span := cr.tracer.Start(ctx, "CommentRepo.Create")
	defer span.End()

	if _, err := cr.getCollection().InsertOne(ctx, comment); err != nil {
		span.SetStatus(codes.Error, err.Error())
		cr.logger.Error().Err(err).Msg("insert comment")
		return err
	}
	return nil
}

func (cr *CommentMongoRepo) FindById(ctx context.Context, id string) (*domain.Comment, error) {
	ctx, span := cr.tracer.Start(ctx, "CommentRepo.FindById")
	defer span.End()

	var comment domain.Comment
	if err := cr.getCollection().FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCommentNotFound()
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	comment.CreatedAt = comment.CreatedAt.UTC()
	return &comment, nil
}

func (cr *CommentMongoRepo) FindByTask(ctx context.Context, taskId string) (domain.Comments, error) {
	ctx, span := cr.tracer.Start(ctx, "CommentRepo.FindByTask")
	defer span.End()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := cr.getCollection().Find(ctx, bson.M{"taskId": taskId}, opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	comments := domain.Comments{}
	if err := cursor.All(ctx, &comments); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for _, c := range comments {
		c.CreatedAt = c.CreatedAt.UTC()
	}
	return comments, nil
}

func (cr *CommentMongoRepo) UpdateContent(ctx context.Context, id, content string) (*domain.Comment, error) {
	ctx, span := cr.tracer.Start(ctx, "CommentRepo.UpdateContent")
	defer span.End()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var comment domain.Comment
	err := cr.getCollection().
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"content": content}}, opts).
		Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCommentNotFound()
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	comment.CreatedAt = comment.CreatedAt.UTC()
	return &comment, nil
}

func (cr *CommentMongoRepo) Delete(ctx context.Context, id string) error {
	ctx, span := cr.tracer.Start(ctx, "CommentRepo.Delete")
	defer span.End()

	res, err := cr.getCollection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrCommentNotFound()
	}
	return nil
}
