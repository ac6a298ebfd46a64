package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/helloworld/todo-service/internal/config"
	"github.com/helloworld/todo-service/internal/database"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// Migrator is implemented by stores that own a schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Open builds the Store selected by cfg.Database.Driver. The caller owns the
// returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.Retry(ctx, cfg.Database.Driver, connectAttempts, connectBackoff, func(ctx context.Context) (*gorm.DB, error) {
			return database.OpenSQL(ctx, cfg.Database)
		})
		if err != nil {
			return nil, fmt.Errorf("could not connect to %s after %d attempts: %w", cfg.Database.Driver, connectAttempts, err)
		}
		return NewGormStore(db), nil
	case config.DriverMongo:
		client, err := database.Retry(ctx, "mongodb", connectAttempts, connectBackoff, func(ctx context.Context) (*mongo.Client, error) {
			return database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		})
		if err != nil {
			return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", connectAttempts, err)
		}
		store, err := NewMongoStore(ctx, client, cfg.MongoDB.Database)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
