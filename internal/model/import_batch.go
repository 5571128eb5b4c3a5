package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportStatus represents the lifecycle state of an import batch.
type ImportStatus string

const (
	// ImportStatusUploaded means the file is stored but processing has not started.
	ImportStatusUploaded ImportStatus = "uploaded"
	// ImportStatusProcessing means a processing run is in flight.
	ImportStatusProcessing ImportStatus = "processing"
	// ImportStatusDone is terminal: the batch was processed successfully.
	ImportStatusDone ImportStatus = "done"
	// ImportStatusFailed is terminal: processing hit a fatal error.
	ImportStatusFailed ImportStatus = "failed"
)

// ImportBatch tracks one uploaded statement file through processing.
type ImportBatch struct {
	CreatedAt    time.Time
	ProcessedAt  *time.Time
	Summary      *ImportSummary
	ID           string
	UserID       string
	AccountID    string
	Status       ImportStatus
	FileName     string
	FileKey      string
	ContentType  string
	ErrorMessage string
	FileSize     int64
}

// ImportSummary is the structured result document stored on a completed batch.
type ImportSummary struct {
	Layout string        `json:"layout"`
	Period SummaryPeriod `json:"period"`
	Counts SummaryCounts `json:"counts"`
	Totals SummaryTotals `json:"totals"`
}

// SummaryPeriod is the date range covered by the parsed candidates.
type SummaryPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SummaryCounts tallies per-run outcomes.
type SummaryCounts struct {
	Parsed   int `json:"parsed"`
	Inserted int `json:"inserted"`
	Deduped  int `json:"deduped"`
	Errors   int `json:"errors"`
}

// SummaryTotals holds signed amount totals per direction.
type SummaryTotals struct {
	InAmount  decimal.Decimal `json:"inAmount"`
	OutAmount decimal.Decimal `json:"outAmount"`
	CardSpend decimal.Decimal `json:"cardSpend"`
}
