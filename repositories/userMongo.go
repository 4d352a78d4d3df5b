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

type UserMongoRepo struct {
	cli    *mongo.Client
	dbName string
	logger zerolog.Logger
	tracer trace.Tracer
}

func NewUserMongoRepo(cli *mongo.Client, dbName string, logger zerolog.Logger, tracer trace.Tracer) *UserMongoRepo {
	return &UserMongoRepo{cli: cli, dbName: dbName, logger: logger, tracer: tracer}
}

func (ur *UserMongoRepo) getCollection() *mongo.Collection {
	return ur.cli.Database(ur.dbName).Collection("users")
}

func (ur *UserMongoRepo) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, ur.getCollection(), index(true, "email"))
}

func (ur *UserMongoRepo) Create(ctx context.Context, user *domain.User) error {
	ctx, span := ur.tracer.Start(ctx, "UserRepo.Create")
	defer span.End()

	if _, err := ur.getCollection().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserAlreadyExists()
		}
		span.SetStatus(codes.Error, err.Error())
		ur.logger.Error().Err(err).Msg("insert user")
		return err
	}
	return nil
}

func (ur *UserMongoRepo) FindById(ctx context.Context, id string) (*domain.User, error) {
	return ur.findOne(ctx, "UserRepo.FindById", bson.M{"_id": id})
}

func (ur *UserMongoRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return ur.findOne(ctx, "UserRepo.FindByEmail", bson.M{"email": email})
}

func (ur *UserMongoRepo) findOne(ctx context.Context, spanName string, filter bson.M) (*domain.User, error) {
	ctx, span := ur.tracer.Start(ctx, spanName)
	defer span.End()

	var user domain.User
	if err := ur.getCollection().FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound()
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (ur *UserMongoRepo) FindAll(ctx context.Context) (domain.Users, error) {
	ctx, span := ur.tracer.Start(ctx, "UserRepo.FindAll")
	defer span.End()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetProjection(bson.M{"password": 0})
	cursor, err := ur.getCollection().Find(ctx, bson.M{}, opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	users := domain.Users{}
	if err := cursor.All(ctx, &users); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return users, nil
}
