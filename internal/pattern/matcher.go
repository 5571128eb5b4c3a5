// Package pattern compiles a user's category rules and matches parsed
// transactions to categories.
package pattern

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lbarros/extratoflow/internal/model"
	"github.com/lbarros/extratoflow/internal/textutil"
)

// DefaultRegexTimeout bounds a single regex evaluation. A rule that exceeds
// it is treated as a non-match; it never stalls the line scan.
const DefaultRegexTimeout = 50 * time.Millisecond

type compiledRule struct {
	re       *regexp.Regexp
	contains string
	rule     model.CategoryRule
}

// Matcher holds a user's rules compiled for repeated matching. Compile once
// per run, then call Match per candidate.
type Matcher struct {
	logger       *slog.Logger
	rules        []compiledRule
	regexTimeout time.Duration
}

// Compile prepares the given rules for matching. Inactive rules are skipped;
// contains-patterns that normalize to empty are dropped as too broad; regex
// patterns that fail to compile are dropped. The surviving rules are ordered
// by priority ascending, newest first within a priority.
func Compile(rules []model.CategoryRule, regexTimeout time.Duration, logger *slog.Logger) *Matcher {
	if regexTimeout <= 0 {
		regexTimeout = DefaultRegexTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Matcher{
		logger:       logger,
		regexTimeout: regexTimeout,
	}

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}

		cr := compiledRule{rule: rule}
		switch rule.MatchType {
		case model.MatchContains:
			cr.contains = textutil.Normalize(rule.Pattern)
			if cr.contains == "" {
				logger.Warn("dropping rule with empty pattern", "rule_id", rule.ID)
				continue
			}
		case model.MatchRegex:
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				logger.Warn("dropping rule with invalid regex", "rule_id", rule.ID, "error", err)
				continue
			}
			cr.re = re
		default:
			logger.Warn("dropping rule with unknown match type", "rule_id", rule.ID, "match_type", rule.MatchType)
			continue
		}

		m.rules = append(m.rules, cr)
	}

	sort.SliceStable(m.rules, func(i, j int) bool {
		a, b := m.rules[i].rule, m.rules[j].rule
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return m
}

// Match returns the category of the first rule that matches, in priority
// order. The description must already be normalized; the amount bounds apply
// to the amount's magnitude.
func (m *Matcher) Match(accountID, normalizedDescription string, amount decimal.Decimal) (int64, bool) {
	magnitude := amount.Abs()

	for _, cr := range m.rules {
		if cr.rule.AccountID != nil && *cr.rule.AccountID != accountID {
			continue
		}
		if cr.rule.MinAmount != nil && magnitude.LessThan(*cr.rule.MinAmount) {
			continue
		}
		if cr.rule.MaxAmount != nil && magnitude.GreaterThan(*cr.rule.MaxAmount) {
			continue
		}
		if !m.patternMatches(cr, normalizedDescription) {
			continue
		}
		return cr.rule.CategoryID, true
	}

	return 0, false
}

func (m *Matcher) patternMatches(cr compiledRule, normalizedDescription string) bool {
	if cr.re == nil {
		return strings.Contains(normalizedDescription, cr.contains)
	}

	done := make(chan bool, 1)
	go func() {
		done <- cr.re.MatchString(normalizedDescription)
	}()

	select {
	case matched := <-done:
		return matched
	case <-time.After(m.regexTimeout):
		m.logger.Warn("regex rule timed out, treating as non-match",
			"rule_id", cr.rule.ID, "timeout", m.regexTimeout)
		return false
	}
}
