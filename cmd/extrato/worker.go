package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lbarros/extratoflow/internal/common"
	"github.com/lbarros/extratoflow/internal/config"
	"github.com/lbarros/extratoflow/internal/engine"
	"github.com/lbarros/extratoflow/internal/jobs"
	"github.com/lbarros/extratoflow/internal/model"
	"github.com/lbarros/extratoflow/internal/storage"
	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process uploaded statements continuously",
		Long: `Worker polls for uploaded import batches and processes each one,
firing alert and forecast follow-up jobs as imports complete. It runs
until interrupted.`,
		RunE: runWorker,
	}

	cmd.Flags().Duration("interval", 30*time.Second, "Poll interval between batch scans")
	cmd.Flags().Int("batch-size", 20, "Maximum imports claimed per scan")

	return cmd
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	interval, _ := cmd.Flags().GetDuration("interval")
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	queue := jobs.NewQueue(4*batchSize, common.SystemClock{})
	eng := newEngine(store, queue)

	worker := jobs.NewWorker(queue, slog.Default())
	registerTriggerHandlers(worker)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = worker.Run(ctx)
	}()

	slog.Info("Worker started", "interval", interval, "batch_size", batchSize)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := processPending(ctx, store, eng, batchSize); err != nil {
			if ctx.Err() != nil {
				break
			}
			common.LogError(err, "batch scan failed", nil)
		}

		select {
		case <-ctx.Done():
			queue.Close()
			<-workerDone
			slog.Info("Worker stopped")
			return nil
		case <-ticker.C:
		}
	}

	queue.Close()
	<-workerDone
	return nil
}

func processPending(ctx context.Context, store *storage.SQLiteStorage, eng *engine.ImportEngine, batchSize int) error {
	ids, err := store.ListImportBatchIDsByStatus(ctx, model.ImportStatusUploaded, batchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending imports: %w", err)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := eng.ProcessImport(ctx, id); err != nil {
			common.LogError(err, "import processing failed", common.Fields{"import_id": id})
			continue
		}
		slog.Info("Import processed", "import_id", id)
	}
	return nil
}
