package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleMatchType selects how a rule pattern is evaluated.
type RuleMatchType string

const (
	// MatchContains tests a normalized substring match.
	MatchContains RuleMatchType = "contains"
	// MatchRegex tests a compiled regular expression.
	MatchRegex RuleMatchType = "regex"
)

// CategoryRule assigns a category to transactions whose description matches a
// pattern. Lower priority wins; newer rules win priority ties.
type CategoryRule struct {
	CreatedAt  time.Time
	AccountID  *string
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	Pattern    string
	MatchType  RuleMatchType
	UserID     string
	ID         int64
	CategoryID int64
	Priority   int
	IsActive   bool
}
