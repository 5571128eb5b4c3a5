package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/lbarros/extratoflow/internal/model"
	"github.com/lbarros/extratoflow/internal/service"
)

// InsertTransactions inserts the staged rows in one transaction. A
// fingerprint uniqueness violation rolls back the whole batch and surfaces as
// service.ErrUniqueViolation so the caller can re-filter and retry.
func (s *SQLiteStorage) InsertTransactions(ctx context.Context, transactions []model.Transaction) (service.InsertResult, error) {
	if err := validateContext(ctx); err != nil {
		return service.InsertResult{}, err
	}
	if len(transactions) == 0 {
		return service.InsertResult{}, nil
	}
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return service.InsertResult{}, fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return service.InsertResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions
			(id, user_id, account_id, import_id, category_id, occurred_at,
			 description, amount, currency, fingerprint, legacy_fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return service.InsertResult{}, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		t := &transactions[i]
		_, err := stmt.ExecContext(ctx, t.ID, t.UserID, t.AccountID,
			nullString(t.ImportID), t.CategoryID, t.OccurredAt.UTC(),
			t.Description, t.Amount.String(), t.Currency,
			t.Fingerprint, nullString(t.LegacyFingerprint))
		if err != nil {
			if isUniqueViolation(err) {
				return service.InsertResult{}, &service.ErrUniqueViolation{Err: err}
			}
			return service.InsertResult{}, fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return service.InsertResult{}, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return service.InsertResult{Inserted: len(transactions)}, nil
}

// GetUserFingerprints returns every fingerprint known for a user, primary and
// legacy alike, as one membership set.
func (s *SQLiteStorage) GetUserFingerprints(ctx context.Context, userID string) (map[string]struct{}, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, COALESCE(legacy_fingerprint, '')
		FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	fingerprints := make(map[string]struct{})
	for rows.Next() {
		var primary, legacy string
		if err := rows.Scan(&primary, &legacy); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		fingerprints[primary] = struct{}{}
		if legacy != "" {
			fingerprints[legacy] = struct{}{}
		}
	}
	return fingerprints, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
