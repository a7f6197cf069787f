// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	registrationstore "github.com/dalemusser/splereg/internal/app/store/registrations"
	"github.com/dalemusser/splereg/internal/app/system/indexes"
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"github.com/dalemusser/splereg/internal/app/system/validators"
	"github.com/dalemusser/splereg/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// ConnectDB opens the MongoDB client, verifies it with a ping and builds
// the registry feed over the registrations collection. The feed is not
// started until Startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().
		ApplyURI(appCfg.MongoURI).
		SetAppName("splereg"))
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	db := client.Database(appCfg.MongoDatabase)
	feed := workers.NewRegistryFeed(registrationstore.New(db), logger, appCfg.FeedPollInterval)
	sessions := registry.NewSessions(appCfg.SessionCacheSize, appCfg.SessionCacheTTL, feed, registry.FullReplace{})

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Feed:          feed,
		Sessions:      sessions,
	}, nil
}

// EnsureSchema creates indexes and installs the collection validators.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	logger.Info("schema ensured")
	return nil
}
