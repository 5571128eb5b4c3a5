package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lbarros/extratoflow/internal/common"
	"github.com/lbarros/extratoflow/internal/model"
)

// GetAccount loads one account by ID.
func (s *SQLiteStorage) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, currency, created_at
		FROM accounts WHERE id = ?`, accountID)

	var account model.Account
	err := row.Scan(&account.ID, &account.UserID, &account.Name, &account.Currency, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", common.ErrNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// CreateAccount persists a new account.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, currency) VALUES (?, ?, ?, ?)`,
		account.ID, account.UserID, account.Name, account.Currency)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// CreateCategory persists a new category and fills in its generated ID.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, is_active) VALUES (?, ?, ?)`,
		category.UserID, category.Name, category.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %q", common.ErrDuplicateEntry, category.Name)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	category.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read category id: %w", err)
	}
	return nil
}

// GetCategories returns a user's categories, active and inactive.
func (s *SQLiteStorage) GetCategories(ctx context.Context, userID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, is_active, created_at
		FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateRule persists a new category rule and fills in its generated ID.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.CategoryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if err := validateString(rule.Pattern, "rule.Pattern"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO category_rules
			(user_id, category_id, pattern, match_type, account_id,
			 min_amount, max_amount, priority, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.UserID, rule.CategoryID, rule.Pattern, rule.MatchType,
		rule.AccountID, nullDecimal(rule.MinAmount), nullDecimal(rule.MaxAmount),
		rule.Priority, rule.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	rule.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read rule id: %w", err)
	}
	return nil
}

// GetActiveRules returns the user's active rules in matching order: priority
// ascending, newer first within a priority.
func (s *SQLiteStorage) GetActiveRules(ctx context.Context, userID string) ([]model.CategoryRule, error) {
	return s.queryRules(ctx, userID, true)
}

// ListRules returns all of a user's rules, active or not, in matching order.
func (s *SQLiteStorage) ListRules(ctx context.Context, userID string) ([]model.CategoryRule, error) {
	return s.queryRules(ctx, userID, false)
}

func (s *SQLiteStorage) queryRules(ctx context.Context, userID string, activeOnly bool) ([]model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, category_id, pattern, match_type, account_id,
		       min_amount, max_amount, priority, is_active, created_at
		FROM category_rules WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY priority ASC, created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.CategoryRule
	for rows.Next() {
		var r model.CategoryRule
		var accountID sql.NullString
		var minAmount, maxAmount sql.NullString
		if err := rows.Scan(&r.ID, &r.UserID, &r.CategoryID, &r.Pattern,
			&r.MatchType, &accountID, &minAmount, &maxAmount,
			&r.Priority, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		if accountID.Valid {
			v := accountID.String
			r.AccountID = &v
		}
		if r.MinAmount, err = scanDecimal(minAmount); err != nil {
			return nil, fmt.Errorf("rule %d min amount: %w", r.ID, err)
		}
		if r.MaxAmount, err = scanDecimal(maxAmount); err != nil {
			return nil, fmt.Errorf("rule %d max amount: %w", r.ID, err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanDecimal(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
