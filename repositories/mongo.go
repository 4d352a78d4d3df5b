package repositories

import (
	"context"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultStoreTimeout = 5 * time.Second

// NewMongoClient connects to uri and waits for the primary to answer a ping.
// timeout bounds each ping and every operation issued through the client.
func NewMongoClient(ctx context.Context, uri string, timeout time.Duration, logger zerolog.Logger) (*mongo.Client, error) {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, err
	}

	r := retrier.New(retrier.ConstantBackoff(5, 2*time.Second), nil)
	err = r.RunCtx(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			logger.Warn().Err(err).Msg("mongo not reachable yet")
			return err
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info().Msg("connected to mongo")
	return client, nil
}

func ensureIndexes(ctx context.Context, coll *mongo.Collection, models ...mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func index(unique bool, keys ...string) mongo.IndexModel {
	d := bson.D{}
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: 1})
	}
	m := mongo.IndexModel{Keys: d}
	if unique {
		m.Options = options.Index().SetUnique(true)
	}
	return m
}
