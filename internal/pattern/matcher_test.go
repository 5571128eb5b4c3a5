package pattern

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbarros/extratoflow/internal/model"
)

func containsRule(id, categoryID int64, priority int, pattern string) model.CategoryRule {
	return model.CategoryRule{
		ID:         id,
		CategoryID: categoryID,
		Priority:   priority,
		Pattern:    pattern,
		MatchType:  model.MatchContains,
		IsActive:   true,
		CreatedAt:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMatcherPriorityOrder(t *testing.T) {
	rules := []model.CategoryRule{
		containsRule(1, 100, 50, "UBER"),
		containsRule(2, 200, 10, "UBER"),
	}

	m := Compile(rules, 0, nil)

	cat, ok := m.Match("acct-1", "uber trip sao paulo", decimal.RequireFromString("-15.90"))
	require.True(t, ok)
	assert.Equal(t, int64(200), cat, "lower priority number wins")
}

func TestMatcherTieBreakNewestWins(t *testing.T) {
	older := containsRule(1, 100, 10, "UBER")
	newer := containsRule(2, 200, 10, "UBER")
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	m := Compile([]model.CategoryRule{older, newer}, 0, nil)

	cat, ok := m.Match("acct-1", "uber trip", decimal.RequireFromString("-10"))
	require.True(t, ok)
	assert.Equal(t, int64(200), cat)
}

func TestMatcherContainsIsNormalized(t *testing.T) {
	m := Compile([]model.CategoryRule{
		containsRule(1, 100, 10, "  Transferência  "),
	}, 0, nil)

	cat, ok := m.Match("acct-1", "transferencia pix joao", decimal.RequireFromString("-250"))
	require.True(t, ok)
	assert.Equal(t, int64(100), cat)
}

func TestMatcherDropsBadRules(t *testing.T) {
	empty := containsRule(1, 100, 1, "   ")
	badRegex := containsRule(2, 200, 2, "(unclosed")
	badRegex.MatchType = model.MatchRegex
	inactive := containsRule(3, 300, 3, "uber")
	inactive.IsActive = false
	good := containsRule(4, 400, 4, "uber")

	m := Compile([]model.CategoryRule{empty, badRegex, inactive, good}, 0, nil)

	cat, ok := m.Match("acct-1", "uber trip", decimal.RequireFromString("-10"))
	require.True(t, ok)
	assert.Equal(t, int64(400), cat)
}

func TestMatcherRegexRules(t *testing.T) {
	re := containsRule(1, 100, 10, `^uber\s+\*?trip`)
	re.MatchType = model.MatchRegex

	m := Compile([]model.CategoryRule{re}, 0, nil)

	cat, ok := m.Match("acct-1", "uber *trip 99", decimal.RequireFromString("-15.90"))
	require.True(t, ok)
	assert.Equal(t, int64(100), cat)

	_, ok = m.Match("acct-1", "99 uber trip", decimal.RequireFromString("-15.90"))
	assert.False(t, ok)
}

func TestMatcherAccountScope(t *testing.T) {
	scoped := containsRule(1, 100, 10, "uber")
	acct := "acct-1"
	scoped.AccountID = &acct

	m := Compile([]model.CategoryRule{scoped}, 0, nil)

	_, ok := m.Match("acct-2", "uber trip", decimal.RequireFromString("-10"))
	assert.False(t, ok)

	cat, ok := m.Match("acct-1", "uber trip", decimal.RequireFromString("-10"))
	require.True(t, ok)
	assert.Equal(t, int64(100), cat)
}

func TestMatcherAmountBoundsUseMagnitude(t *testing.T) {
	bounded := containsRule(1, 100, 10, "uber")
	minAmt := decimal.RequireFromString("10")
	maxAmt := decimal.RequireFromString("100")
	bounded.MinAmount = &minAmt
	bounded.MaxAmount = &maxAmt

	m := Compile([]model.CategoryRule{bounded}, 0, nil)

	cat, ok := m.Match("acct-1", "uber trip", decimal.RequireFromString("-50"))
	require.True(t, ok, "negative amounts are bounded by magnitude")
	assert.Equal(t, int64(100), cat)

	_, ok = m.Match("acct-1", "uber trip", decimal.RequireFromString("-5"))
	assert.False(t, ok)

	_, ok = m.Match("acct-1", "uber trip", decimal.RequireFromString("-150"))
	assert.False(t, ok)
}

func TestMatcherNoRules(t *testing.T) {
	m := Compile(nil, 0, nil)
	_, ok := m.Match("acct-1", "anything", decimal.Zero)
	assert.False(t, ok)
}

func TestMatcherFallsThroughToLowerPriority(t *testing.T) {
	m := Compile([]model.CategoryRule{
		containsRule(1, 100, 1, "ifood"),
		containsRule(2, 200, 2, "uber"),
	}, 0, nil)

	cat, ok := m.Match("acct-1", "uber trip", decimal.RequireFromString("-10"))
	require.True(t, ok)
	assert.Equal(t, int64(200), cat)
}
