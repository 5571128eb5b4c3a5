// Package model defines the core data structures for the extrato application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a stored financial transaction produced by an import.
type Transaction struct {
	OccurredAt        time.Time
	CreatedAt         time.Time
	ID                string
	UserID            string
	AccountID         string
	Description       string
	Currency          string
	Fingerprint       string
	LegacyFingerprint string
	ImportID          string
	Amount            decimal.Decimal
	CategoryID        *int64
}

// ParsedCandidate is a transaction candidate produced by a statement parser.
// It is immutable once emitted; the fingerprint builder and the orchestrator
// consume it as-is.
type ParsedCandidate struct {
	OccurredAt  time.Time
	Description string
	Currency    string
	SourceLine  string
	Amount      decimal.Decimal
	Page        int
	LineIndex   int
}
