package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lbarros/extratoflow/internal/common"
	"github.com/lbarros/extratoflow/internal/model"
)

// GetImportBatch loads one import batch by ID.
func (s *SQLiteStorage) GetImportBatch(ctx context.Context, importID string) (*model.ImportBatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(importID, "importID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, account_id, status, file_name, file_key,
		       COALESCE(content_type, ''), file_size, summary,
		       COALESCE(error_message, ''), processed_at, created_at
		FROM import_batches WHERE id = ?`, importID)

	var batch model.ImportBatch
	var summary sql.NullString
	var processedAt sql.NullTime
	err := row.Scan(&batch.ID, &batch.UserID, &batch.AccountID, &batch.Status,
		&batch.FileName, &batch.FileKey, &batch.ContentType, &batch.FileSize,
		&summary, &batch.ErrorMessage, &processedAt, &batch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: import batch %s", common.ErrNotFound, importID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import batch: %w", err)
	}

	if processedAt.Valid {
		t := processedAt.Time
		batch.ProcessedAt = &t
	}
	if summary.Valid && summary.String != "" {
		var doc model.ImportSummary
		if err := json.Unmarshal([]byte(summary.String), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode import summary: %w", err)
		}
		batch.Summary = &doc
	}

	return &batch, nil
}

// CreateImportBatch persists a freshly uploaded batch.
func (s *SQLiteStorage) CreateImportBatch(ctx context.Context, batch *model.ImportBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateImportBatch(batch); err != nil {
		return err
	}

	summary, err := encodeSummary(batch.Summary)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_batches
			(id, user_id, account_id, status, file_name, file_key, content_type,
			 file_size, summary, error_message, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.UserID, batch.AccountID, batch.Status, batch.FileName,
		batch.FileKey, batch.ContentType, batch.FileSize, summary,
		batch.ErrorMessage, batch.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to create import batch: %w", err)
	}
	return nil
}

// UpdateImportBatch writes back the batch's mutable fields: status, summary,
// error message and processed-at.
func (s *SQLiteStorage) UpdateImportBatch(ctx context.Context, batch *model.ImportBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateImportBatch(batch); err != nil {
		return err
	}

	summary, err := encodeSummary(batch.Summary)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE import_batches
		SET status = ?, summary = ?, error_message = ?, processed_at = ?
		WHERE id = ?`,
		batch.Status, summary, batch.ErrorMessage, batch.ProcessedAt, batch.ID)
	if err != nil {
		return fmt.Errorf("failed to update import batch: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: import batch %s", common.ErrNotFound, batch.ID)
	}
	return nil
}

// ListImportBatchIDsByStatus returns up to limit batch IDs in the given
// status, oldest first. The worker polls this for uploaded batches.
func (s *SQLiteStorage) ListImportBatchIDsByStatus(ctx context.Context, status model.ImportStatus, limit int) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM import_batches
		WHERE status = ? ORDER BY created_at, id LIMIT ?`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan import batch id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceRowAudits replaces the audit set for an import in one transaction.
// Audits are a derived record: every run deletes the previous set and writes
// the fresh one.
func (s *SQLiteStorage) ReplaceRowAudits(ctx context.Context, importID string, audits []model.RowAudit) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(importID, "importID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM row_audits WHERE import_id = ?`, importID); err != nil {
		return fmt.Errorf("failed to delete previous audits: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO row_audits (import_id, page, line_index, raw_line, status, reason, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare audit insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range audits {
		if _, err := stmt.ExecContext(ctx, importID, a.Page, a.LineIndex,
			a.RawLine, a.Status, a.Reason, a.Message); err != nil {
			return fmt.Errorf("failed to insert audit (page %d, line %d): %w", a.Page, a.LineIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audits: %w", err)
	}
	return nil
}

// GetRowAudits returns the stored audit set for an import, in page and line
// order.
func (s *SQLiteStorage) GetRowAudits(ctx context.Context, importID string) ([]model.RowAudit, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT import_id, page, line_index, raw_line, status,
		       COALESCE(reason, ''), COALESCE(message, '')
		FROM row_audits WHERE import_id = ?
		ORDER BY page, line_index`, importID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var audits []model.RowAudit
	for rows.Next() {
		var a model.RowAudit
		if err := rows.Scan(&a.ImportID, &a.Page, &a.LineIndex, &a.RawLine,
			&a.Status, &a.Reason, &a.Message); err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

func encodeSummary(summary *model.ImportSummary) (any, error) {
	if summary == nil {
		return nil, nil
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode import summary: %w", err)
	}
	return string(data), nil
}
