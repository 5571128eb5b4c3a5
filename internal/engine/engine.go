// Package engine orchestrates the processing of one import batch: extract,
// parse, fingerprint, categorize, persist, trigger follow-up jobs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lbarros/extratoflow/internal/common"
	"github.com/lbarros/extratoflow/internal/fingerprint"
	"github.com/lbarros/extratoflow/internal/model"
	"github.com/lbarros/extratoflow/internal/pattern"
	"github.com/lbarros/extratoflow/internal/service"
	"github.com/lbarros/extratoflow/internal/statement"
)

// ImportEngine processes import batches. One call handles one batch
// start-to-finish; concurrent batches rely on the storage uniqueness
// constraint, not in-process locking.
type ImportEngine struct {
	storage   service.Storage
	blobs     service.BlobStore
	extractor service.TextExtractor
	jobs      service.JobPublisher
	clock     service.Clock
	logger    *slog.Logger
	config    Config
}

// Config holds engine tunables.
type Config struct {
	Keywords     statement.Keywords
	RegexTimeout time.Duration
}

// DefaultConfig returns the stock keyword vocabularies and regex timeout.
func DefaultConfig() Config {
	return Config{
		Keywords:     statement.DefaultKeywords(),
		RegexTimeout: pattern.DefaultRegexTimeout,
	}
}

// New creates an engine with default configuration.
func New(storage service.Storage, blobs service.BlobStore, extractor service.TextExtractor, jobs service.JobPublisher, clock service.Clock) *ImportEngine {
	return NewWithConfig(storage, blobs, extractor, jobs, clock, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(storage service.Storage, blobs service.BlobStore, extractor service.TextExtractor, jobs service.JobPublisher, clock service.Clock, config Config) *ImportEngine {
	return &ImportEngine{
		storage:   storage,
		blobs:     blobs,
		extractor: extractor,
		jobs:      jobs,
		clock:     clock,
		logger:    slog.Default(),
		config:    config,
	}
}

// stagedTransaction pairs a candidate with its fingerprints through staging,
// so the retry path can re-filter by fingerprint.
type stagedTransaction struct {
	candidate model.ParsedCandidate
	prints    fingerprint.Result
}

// ProcessImport runs the full pipeline for one batch. Re-delivery of an
// already-Done batch is a successful no-op. Any terminal failure marks the
// batch Failed with the error message; it never stays stuck in Processing.
func (e *ImportEngine) ProcessImport(ctx context.Context, importID string) error {
	batch, err := e.storage.GetImportBatch(ctx, importID)
	if err != nil {
		return fmt.Errorf("failed to load import batch: %w", err)
	}

	if batch.Status == model.ImportStatusDone {
		e.logger.Info("import already processed, skipping", "import_id", batch.ID)
		return nil
	}

	// Account checks run before the batch transitions to Processing.
	account, err := e.storage.GetAccount(ctx, batch.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			err = fmt.Errorf("%w: account %s does not exist", common.ErrValidation, batch.AccountID)
		}
		return e.fail(ctx, batch, err)
	}
	if account.UserID != batch.UserID {
		return e.fail(ctx, batch, fmt.Errorf("%w: account %s does not belong to user %s",
			common.ErrForbidden, batch.AccountID, batch.UserID))
	}

	batch.Status = model.ImportStatusProcessing
	batch.Summary = nil
	batch.ErrorMessage = ""
	batch.ProcessedAt = nil
	if err := e.storage.UpdateImportBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to mark import processing: %w", err)
	}

	e.logger.Info("processing import", "import_id", batch.ID, "user_id", batch.UserID)

	if err := e.run(ctx, batch); err != nil {
		return e.fail(ctx, batch, err)
	}
	return nil
}

// run executes the pipeline against a batch already in Processing. Returning
// an error leaves the Failed transition to the caller.
func (e *ImportEngine) run(ctx context.Context, batch *model.ImportBatch) error {
	data, err := e.readFile(ctx, batch.FileKey)
	if err != nil {
		return err
	}

	pages, err := e.extractor.ExtractPages(ctx, data)
	if err != nil {
		return fmt.Errorf("text extraction failed: %w", err)
	}

	layout := statement.DetectLayout(statement.AllLines(pages), e.config.Keywords)
	if layout == statement.LayoutUnknown {
		return fmt.Errorf("%w: statement layout not recognized for import %s",
			common.ErrUnknownLayout, batch.ID)
	}

	candidates, audits := statement.Parse(layout, pages, e.config.Keywords)
	e.logger.Info("parsed statement", "import_id", batch.ID, "layout", layout,
		"candidates", len(candidates), "lines", len(audits))

	// Within-run dedup: the first occurrence of a fingerprint wins.
	staged := make([]stagedTransaction, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		prints := fingerprint.Build(batch.UserID, batch.AccountID, c.OccurredAt, c.Amount, c.Description, c.SourceLine)
		if _, dup := seen[prints.Primary]; dup {
			continue
		}
		seen[prints.Primary] = struct{}{}
		staged = append(staged, stagedTransaction{candidate: c, prints: prints})
	}

	existing, err := e.storage.GetUserFingerprints(ctx, batch.UserID)
	if err != nil {
		return fmt.Errorf("failed to load existing fingerprints: %w", err)
	}

	for i := range audits {
		audits[i].ImportID = batch.ID
	}
	if err := e.storage.ReplaceRowAudits(ctx, batch.ID, audits); err != nil {
		return fmt.Errorf("failed to store row audits: %w", err)
	}

	rules, err := e.storage.GetActiveRules(ctx, batch.UserID)
	if err != nil {
		return fmt.Errorf("failed to load category rules: %w", err)
	}
	matcher := pattern.Compile(rules, e.config.RegexTimeout, e.logger)

	toInsert := make([]model.Transaction, 0, len(staged))
	for _, st := range staged {
		if fingerprintKnown(existing, st.prints) {
			continue
		}
		toInsert = append(toInsert, e.buildTransaction(batch, matcher, st))
	}

	inserted, err := e.insertWithRetry(ctx, batch, toInsert)
	if err != nil {
		return err
	}

	batch.Summary = buildSummary(layout, candidates, audits, inserted)
	batch.Status = model.ImportStatusDone
	now := e.clock.Now()
	batch.ProcessedAt = &now
	batch.ErrorMessage = ""
	if err := e.storage.UpdateImportBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to mark import done: %w", err)
	}

	e.logger.Info("import done", "import_id", batch.ID,
		"inserted", inserted, "deduped", len(candidates)-inserted)

	e.triggerFollowUps(ctx, batch, candidates)
	return nil
}

func (e *ImportEngine) readFile(ctx context.Context, fileKey string) ([]byte, error) {
	rc, err := e.blobs.Open(ctx, fileKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}
	return data, nil
}

func (e *ImportEngine) buildTransaction(batch *model.ImportBatch, matcher *pattern.Matcher, st stagedTransaction) model.Transaction {
	txn := model.Transaction{
		ID:                uuid.NewString(),
		UserID:            batch.UserID,
		AccountID:         batch.AccountID,
		ImportID:          batch.ID,
		OccurredAt:        st.candidate.OccurredAt,
		Description:       st.candidate.Description,
		Amount:            st.candidate.Amount,
		Currency:          st.candidate.Currency,
		Fingerprint:       st.prints.Primary,
		LegacyFingerprint: st.prints.Legacy,
	}
	if categoryID, ok := matcher.Match(batch.AccountID, st.prints.NormalizedDescription, st.candidate.Amount); ok {
		txn.CategoryID = &categoryID
	}
	return txn
}

// insertWithRetry persists the staged rows. A uniqueness violation means a
// concurrent run inserted one of our fingerprints first: re-query, drop the
// now-conflicting rows and retry exactly once.
func (e *ImportEngine) insertWithRetry(ctx context.Context, batch *model.ImportBatch, toInsert []model.Transaction) (int, error) {
	result, err := e.storage.InsertTransactions(ctx, toInsert)
	if err == nil {
		return result.Inserted, nil
	}

	var unique *service.ErrUniqueViolation
	if !errors.As(err, &unique) {
		return 0, fmt.Errorf("failed to insert transactions: %w", err)
	}

	e.logger.Warn("fingerprint conflict during insert, refiltering and retrying",
		"import_id", batch.ID, "staged", len(toInsert))

	refreshed, err := e.storage.GetUserFingerprints(ctx, batch.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to reload fingerprints after conflict: %w", err)
	}

	surviving := make([]model.Transaction, 0, len(toInsert))
	for _, txn := range toInsert {
		if _, dup := refreshed[txn.Fingerprint]; dup {
			continue
		}
		if txn.LegacyFingerprint != "" {
			if _, dup := refreshed[txn.LegacyFingerprint]; dup {
				continue
			}
		}
		surviving = append(surviving, txn)
	}

	result, err = e.storage.InsertTransactions(ctx, surviving)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transactions after retry: %w", err)
	}
	return result.Inserted, nil
}

// fail marks the batch Failed with the error message. The original error is
// returned either way; a batch is never left stuck in Processing.
func (e *ImportEngine) fail(ctx context.Context, batch *model.ImportBatch, cause error) error {
	batch.Status = model.ImportStatusFailed
	batch.ErrorMessage = cause.Error()
	batch.Summary = nil
	batch.ProcessedAt = nil
	if err := e.storage.UpdateImportBatch(ctx, batch); err != nil {
		e.logger.Error("failed to mark import failed", "import_id", batch.ID, "error", err)
	}
	e.logger.Error("import failed", "import_id", batch.ID, "error", cause)
	return cause
}

// triggerFollowUps fires the post-processing jobs for the candidates'
// earliest month. Both are fire-and-forget: enqueue failures are logged, not
// surfaced.
func (e *ImportEngine) triggerFollowUps(ctx context.Context, batch *model.ImportBatch, candidates []model.ParsedCandidate) {
	if len(candidates) == 0 {
		return
	}

	earliest := candidates[0].OccurredAt
	for _, c := range candidates[1:] {
		if c.OccurredAt.Before(earliest) {
			earliest = c.OccurredAt
		}
	}

	year, month := earliest.Year(), earliest.Month()
	if err := e.jobs.EnqueueGenerateAlerts(ctx, batch.UserID, year, month); err != nil {
		e.logger.Warn("failed to enqueue alert generation", "import_id", batch.ID, "error", err)
	}
	if err := e.jobs.EnqueueComputeForecast(ctx, batch.UserID, year, month); err != nil {
		e.logger.Warn("failed to enqueue forecast recomputation", "import_id", batch.ID, "error", err)
	}
}

func fingerprintKnown(existing map[string]struct{}, prints fingerprint.Result) bool {
	if _, ok := existing[prints.Primary]; ok {
		return true
	}
	if prints.Legacy != "" {
		if _, ok := existing[prints.Legacy]; ok {
			return true
		}
	}
	return false
}

// buildSummary assembles the structured result stored on the batch. Totals
// are computed over everything parsed, so the document reflects the statement
// itself rather than what happened to be new this run.
func buildSummary(layout statement.Layout, candidates []model.ParsedCandidate, audits []model.RowAudit, inserted int) *model.ImportSummary {
	summary := &model.ImportSummary{
		Layout: string(layout),
		Counts: model.SummaryCounts{
			Parsed:   len(candidates),
			Inserted: inserted,
			Deduped:  len(candidates) - inserted,
		},
	}

	for _, a := range audits {
		if a.Status == model.AuditError {
			summary.Counts.Errors++
		}
	}

	if len(candidates) == 0 {
		return summary
	}

	start, end := candidates[0].OccurredAt, candidates[0].OccurredAt
	in, out := decimal.Zero, decimal.Zero
	for _, c := range candidates {
		if c.OccurredAt.Before(start) {
			start = c.OccurredAt
		}
		if c.OccurredAt.After(end) {
			end = c.OccurredAt
		}
		if c.Amount.IsPositive() {
			in = in.Add(c.Amount)
		} else {
			out = out.Add(c.Amount)
		}
	}

	summary.Period = model.SummaryPeriod{
		Start: start.Format("2006-01-02"),
		End:   end.Format("2006-01-02"),
	}
	summary.Totals.InAmount = in
	if layout == statement.LayoutCreditCard {
		summary.Totals.CardSpend = out
		summary.Totals.OutAmount = decimal.Zero
	} else {
		summary.Totals.OutAmount = out
		summary.Totals.CardSpend = decimal.Zero
	}
	return summary
}
