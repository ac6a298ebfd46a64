// Command migrate creates the todos schema for the configured driver and exits.
package main

import (
	"context"
	"os"
	"time"

	"github.com/helloworld/todo-service/internal/config"
	"github.com/helloworld/todo-service/internal/todo/repository"
	"github.com/helloworld/todo-service/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open storage: %v", err)
	}
	defer store.Close()

	m, ok := store.(repository.Migrator)
	if !ok {
		logger.Infof("driver %s has no schema to create", cfg.Database.Driver)
		return
	}
	logger.Info("Creating tables..")
	if err := m.Migrate(ctx); err != nil {
		logger.Errorf("failed to create tables: %v", err)
		store.Close()
		os.Exit(1)
	}
	logger.Infof("todos table ready (driver=%s)", cfg.Database.Driver)
}
