package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lbarros/extratoflow/internal/common"
	"github.com/lbarros/extratoflow/internal/config"
	"github.com/lbarros/extratoflow/internal/engine"
	"github.com/lbarros/extratoflow/internal/extract"
	"github.com/lbarros/extratoflow/internal/jobs"
	"github.com/lbarros/extratoflow/internal/service"
)

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <import-id> [import-id...]",
		Short: "Process uploaded import batches",
		Long: `Runs the import pipeline for each given batch: extract text, parse the
statement, deduplicate by fingerprint, categorize by rule and store the
transactions. Re-processing a finished batch is a no-op.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProcess,
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	queue := jobs.NewQueue(2*len(args)+4, common.SystemClock{})
	eng := newEngine(store, queue)

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Processing imports..."),
	)

	var failed int
	for _, importID := range args {
		if err := eng.ProcessImport(ctx, importID); err != nil {
			failed++
			common.LogError(err, "import failed", common.Fields{"import_id": importID})
		} else {
			printSummary(ctx, cmd, store, importID)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	cmd.Println()

	// Drain the follow-up triggers before exiting.
	queue.Close()
	worker := jobs.NewWorker(queue, slog.Default())
	registerTriggerHandlers(worker)
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(args))
	}
	return nil
}

func printSummary(ctx context.Context, cmd *cobra.Command, store service.Storage, importID string) {
	batch, err := store.GetImportBatch(ctx, importID)
	if err != nil || batch.Summary == nil {
		return
	}
	doc, err := json.Marshal(batch.Summary)
	if err != nil {
		return
	}
	cmd.Printf("%s: %s\n", importID, doc)
}

// newEngine wires the import engine the same way for process and worker.
func newEngine(store service.Storage, queue *jobs.Queue) *engine.ImportEngine {
	return engine.NewWithConfig(
		store,
		initBlobStore(),
		extract.NewPDFExtractor(),
		queue,
		common.SystemClock{},
		engine.Config{
			Keywords:     config.LoadKeywords(),
			RegexTimeout: config.RegexTimeout(),
		},
	)
}

// registerTriggerHandlers attaches the handlers for post-import triggers.
// Alert and forecast recomputation happen in the dashboard backend; here the
// triggers are acknowledged and logged for it to pick up.
func registerTriggerHandlers(worker *jobs.Worker) {
	worker.Register(jobs.KindGenerateAlerts, jobs.HandlerFunc(func(_ context.Context, job jobs.Job) error {
		slog.Info("alert generation requested", "user_id", job.UserID, "year", job.Year, "month", int(job.Month))
		return nil
	}))
	worker.Register(jobs.KindComputeForecast, jobs.HandlerFunc(func(_ context.Context, job jobs.Job) error {
		slog.Info("forecast recomputation requested", "user_id", job.UserID, "year", job.Year, "month", int(job.Month))
		return nil
	}))
}
