// Package service defines the interfaces the import core consumes.
package service

import (
	"context"
	"io"
	"time"

	"github.com/lbarros/extratoflow/internal/model"
)

// Page is one PDF page worth of extracted text. The extractor's page and line
// segmentation is authoritative; parsers never re-split it.
type Page struct {
	RawText string
	Lines   []string
	Number  int
}

// TextExtractor turns raw PDF bytes into per-page cleaned text lines.
type TextExtractor interface {
	ExtractPages(ctx context.Context, pdfData []byte) ([]Page, error)
}

// BlobStore stores uploaded statement files. The core only reads; writes
// happen upstream at upload time.
type BlobStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Clock abstracts time for deterministic processed-at and month-boundary logic.
type Clock interface {
	Now() time.Time
}

// JobPublisher enqueues the post-processing triggers fired after a successful
// run. Fire-and-forget; the core never consumes a result.
type JobPublisher interface {
	EnqueueGenerateAlerts(ctx context.Context, userID string, year int, month time.Month) error
	EnqueueComputeForecast(ctx context.Context, userID string, year int, month time.Month) error
}

// InsertResult reports the outcome of a staged transaction insert.
type InsertResult struct {
	Inserted int
}

// Storage defines the persistence operations the import core needs.
type Storage interface {
	// Accounts
	GetAccount(ctx context.Context, accountID string) (*model.Account, error)

	// Import batches
	GetImportBatch(ctx context.Context, importID string) (*model.ImportBatch, error)
	CreateImportBatch(ctx context.Context, batch *model.ImportBatch) error
	UpdateImportBatch(ctx context.Context, batch *model.ImportBatch) error

	// Row audits: the set for an import is derived, not additive.
	ReplaceRowAudits(ctx context.Context, importID string, audits []model.RowAudit) error

	// Transactions
	InsertTransactions(ctx context.Context, transactions []model.Transaction) (InsertResult, error)
	GetUserFingerprints(ctx context.Context, userID string) (map[string]struct{}, error)

	// Rules and categories
	GetActiveRules(ctx context.Context, userID string) ([]model.CategoryRule, error)
	CreateRule(ctx context.Context, rule *model.CategoryRule) error
	ListRules(ctx context.Context, userID string) ([]model.CategoryRule, error)
	GetCategories(ctx context.Context, userID string) ([]model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	CreateAccount(ctx context.Context, account *model.Account) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ErrUniqueViolation is returned by InsertTransactions when a fingerprint
// uniqueness constraint fired; the caller re-filters and retries once.
type ErrUniqueViolation struct {
	Err error
}

func (e *ErrUniqueViolation) Error() string {
	return "fingerprint uniqueness violation: " + e.Err.Error()
}

func (e *ErrUniqueViolation) Unwrap() error {
	return e.Err
}
