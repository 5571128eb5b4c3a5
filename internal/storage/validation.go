package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lbarros/extratoflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateImportBatch(batch *model.ImportBatch) error {
	if batch == nil {
		return fmt.Errorf("%w: batch", ErrNilParameter)
	}
	if err := validateString(batch.ID, "batch.ID"); err != nil {
		return err
	}
	if err := validateString(batch.UserID, "batch.UserID"); err != nil {
		return err
	}
	return validateString(batch.AccountID, "batch.AccountID")
}

func validateTransaction(txn *model.Transaction) error {
	if err := validateString(txn.ID, "transaction.ID"); err != nil {
		return err
	}
	if err := validateString(txn.UserID, "transaction.UserID"); err != nil {
		return err
	}
	if err := validateString(txn.Fingerprint, "transaction.Fingerprint"); err != nil {
		return err
	}
	return validateString(txn.Currency, "transaction.Currency")
}
