package adapters

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"igoserver/internal/bootstrap"
)

// AdapterMongo owns the optional MongoDB connection backing the finished-
// game archive (§4.G). A nil Database means MONGO_URI was unset and
// archiving is disabled for this process.
type AdapterMongo struct {
	Client   *mongo.Client
	Database *mongo.Database
	cfg      *bootstrap.Config
	log      *zap.SugaredLogger
}

func NewAdapterMongo(cfg *bootstrap.Config, log *zap.SugaredLogger) *AdapterMongo {
	return &AdapterMongo{cfg: cfg, log: log}
}

// Init connects to MongoDB, or is a no-op if MongoUri is unset.
func (a *AdapterMongo) Init(ctx context.Context) error {
	if a.cfg.MongoUri == "" {
		return nil
	}

	ctxConnect, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctxConnect, options.Client().ApplyURI(a.cfg.MongoUri))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctxConnect, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	a.Client = client
	a.Database = client.Database("igoserver")
	a.log.Info("Connected to MongoDB")
	return nil
}

func (a *AdapterMongo) Close(ctx context.Context) error {
	if a.Client != nil {
		return a.Client.Disconnect(ctx)
	}
	return nil
}
