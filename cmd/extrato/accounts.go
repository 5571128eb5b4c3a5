package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lbarros/extratoflow/internal/model"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage bank accounts",
	}
	cmd.AddCommand(accountsAddCmd())
	cmd.AddCommand(accountsShowCmd())
	return cmd
}

func accountsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a bank account",
		RunE:  runAccountsAdd,
	}
	cmd.Flags().String("user", "", "owning user ID (required)")
	cmd.Flags().String("name", "", "account display name (required)")
	cmd.Flags().String("currency", "BRL", "account currency code")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runAccountsAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	userID, _ := cmd.Flags().GetString("user")
	name, _ := cmd.Flags().GetString("name")
	currency, _ := cmd.Flags().GetString("currency")

	account := &model.Account{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     name,
		Currency: currency,
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	cmd.Printf("Created account %s (%s)\n", account.ID, account.Name)
	return nil
}

func accountsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <account-id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			account, err := store.GetAccount(ctx, args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s\t%s\t%s\t(user %s)\n", account.ID, account.Name, account.Currency, account.UserID)
			return nil
		},
	}
}
