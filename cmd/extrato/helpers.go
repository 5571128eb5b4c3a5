package main

import (
	"context"
	"fmt"

	"github.com/lbarros/extratoflow/internal/blob"
	"github.com/lbarros/extratoflow/internal/config"
	"github.com/lbarros/extratoflow/internal/service"
	"github.com/lbarros/extratoflow/internal/storage"
)

// initStorage opens the configured database and brings its schema current.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initBlobStore opens the configured statement file store.
func initBlobStore() service.BlobStore {
	return blob.NewFileStore(config.BlobRoot())
}
