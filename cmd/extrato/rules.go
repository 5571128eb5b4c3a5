package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/lbarros/extratoflow/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
		Long: `Rules assign categories to imported transactions by matching their
normalized descriptions. Lower priority values win; ties go to the
newest rule.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesAddCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's categorization rules",
		RunE:  runRulesList,
	}

	cmd.Flags().String("user", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runRulesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rules, err := store.ListRules(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	if len(rules) == 0 {
		cmd.Println("No rules found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRIORITY\tTYPE\tPATTERN\tCATEGORY\tSCOPE\tACTIVE")
	for _, rule := range rules {
		scope := "all accounts"
		if rule.AccountID != nil {
			scope = *rule.AccountID
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%s\t%t\n",
			rule.ID, rule.Priority, rule.MatchType, rule.Pattern,
			rule.CategoryID, scope, rule.IsActive)
	}
	return w.Flush()
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a categorization rule",
		Example: `  extrato rules add --user u1 --category-id 3 --pattern uber --type contains --priority 10
  extrato rules add --user u1 --category-id 7 --pattern '^PIX ' --type regex --priority 5 --min -500`,
		RunE: runRulesAdd,
	}

	cmd.Flags().String("user", "", "User ID (required)")
	cmd.Flags().Int64("category-id", 0, "Category to assign on match (required)")
	cmd.Flags().String("pattern", "", "Pattern to match against descriptions (required)")
	cmd.Flags().String("type", "contains", "Match type: contains or regex")
	cmd.Flags().Int("priority", 100, "Rule priority, lower wins")
	cmd.Flags().String("account", "", "Restrict the rule to one account")
	cmd.Flags().String("min", "", "Minimum signed amount, e.g. -500.00")
	cmd.Flags().String("max", "", "Maximum signed amount")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("category-id")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user")
	categoryID, _ := cmd.Flags().GetInt64("category-id")
	pattern, _ := cmd.Flags().GetString("pattern")
	matchType, _ := cmd.Flags().GetString("type")
	priority, _ := cmd.Flags().GetInt("priority")
	account, _ := cmd.Flags().GetString("account")
	minRaw, _ := cmd.Flags().GetString("min")
	maxRaw, _ := cmd.Flags().GetString("max")

	switch model.RuleMatchType(matchType) {
	case model.MatchContains, model.MatchRegex:
	default:
		return fmt.Errorf("invalid match type %q: must be contains or regex", matchType)
	}

	rule := model.CategoryRule{
		UserID:     userID,
		CategoryID: categoryID,
		Pattern:    pattern,
		MatchType:  model.RuleMatchType(matchType),
		Priority:   priority,
		IsActive:   true,
	}
	if account != "" {
		rule.AccountID = &account
	}

	var err error
	if rule.MinAmount, err = parseAmountFlag("min", minRaw); err != nil {
		return err
	}
	if rule.MaxAmount, err = parseAmountFlag("max", maxRaw); err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.CreateRule(ctx, &rule); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	cmd.Printf("Created rule %d (priority %d, %s %q)\n",
		rule.ID, rule.Priority, rule.MatchType, rule.Pattern)
	return nil
}

func parseAmountFlag(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s amount %q: %w", name, raw, err)
	}
	return &amount, nil
}

func categoriesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List a user's categories",
		RunE:  runCategoriesList,
	}

	cmd.Flags().String("user", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runCategoriesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	categories, err := store.GetCategories(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	if len(categories) == 0 {
		cmd.Println("No categories found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tACTIVE")
	for _, category := range categories {
		fmt.Fprintf(w, "%d\t%s\t%t\n", category.ID, category.Name, category.IsActive)
	}
	return w.Flush()
}

func categoriesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-category",
		Short: "Create a category",
		RunE:  runCategoriesAdd,
	}

	cmd.Flags().String("user", "", "User ID (required)")
	cmd.Flags().String("name", "", "Category name (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runCategoriesAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user")
	name, _ := cmd.Flags().GetString("name")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	category := model.Category{UserID: userID, Name: name, IsActive: true}
	if err := store.CreateCategory(ctx, &category); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	cmd.Printf("Created category %d (%s)\n", category.ID, category.Name)
	return nil
}
