package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lbarros/extratoflow/internal/common"
	"github.com/lbarros/extratoflow/internal/model"
)

func uploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <statement.pdf>",
		Short: "Store a statement file and register it for processing",
		Long: `Reads a statement PDF, stores it in the file store and creates an
import batch in the Uploaded state. Run "extrato process" (or the worker) to
turn it into transactions.`,
		Args: cobra.ExactArgs(1),
		RunE: runUpload,
	}
	cmd.Flags().String("user", "", "owning user ID (required)")
	cmd.Flags().String("account", "", "target account ID (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user")
	accountID, _ := cmd.Flags().GetString("account")
	filePath := args[0]

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// The account must exist and belong to the user before anything is stored.
	account, err := store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account.UserID != userID {
		return common.NewUserError(
			fmt.Sprintf("account %s does not belong to user %s", accountID, userID),
			common.ErrForbidden)
	}

	importID := uuid.NewString()
	fileKey := fmt.Sprintf("%s/%s.pdf", userID, importID)
	blobs := initBlobStore()
	if err := blobs.Save(ctx, fileKey, data, "application/pdf"); err != nil {
		return fmt.Errorf("failed to store file: %w", err)
	}

	batch := &model.ImportBatch{
		ID:          importID,
		UserID:      userID,
		AccountID:   accountID,
		Status:      model.ImportStatusUploaded,
		FileName:    filepath.Base(filePath),
		FileKey:     fileKey,
		ContentType: "application/pdf",
		FileSize:    int64(len(data)),
	}
	if err := store.CreateImportBatch(ctx, batch); err != nil {
		// Don't leave an orphaned blob behind.
		_ = blobs.Delete(ctx, fileKey)
		return fmt.Errorf("failed to create import batch: %w", err)
	}

	cmd.Printf("Uploaded %s as import %s\n", batch.FileName, batch.ID)
	return nil
}
