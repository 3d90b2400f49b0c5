package database

import (
	"context"
	"fmt"
	"time"

	"github.com/platterhub/service-booking/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectMongo connects to MongoDB and returns the configured database.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig, log *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	clientOptions := options.Client().ApplyURI(cfg.URL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	log.Info("connected to MongoDB", zap.String("database", cfg.DBName))
	return client, client.Database(cfg.DBName), nil
}
