package statement

import (
	"strings"

	"github.com/lbarros/extratoflow/internal/textutil"
)

// Layout is the statement format family driving which parser runs.
type Layout string

const (
	// LayoutChecking is the single-line checking-account statement grammar.
	LayoutChecking Layout = "checking"
	// LayoutCreditCard is the multi-line credit-card invoice grammar.
	LayoutCreditCard Layout = "credit_card"
	// LayoutUnknown means neither vocabulary matched; the run cannot proceed.
	LayoutUnknown Layout = "unknown"
)

// DetectLayout classifies a statement's full line set. Checking markers take
// priority over card markers; anything else is unknown.
func DetectLayout(lines []string, kw Keywords) Layout {
	joined := textutil.Normalize(strings.Join(lines, "\n"))

	if containsAny(joined, kw.CheckingMarkers) {
		return LayoutChecking
	}
	if containsAny(joined, kw.CardMarkers) {
		return LayoutCreditCard
	}
	return LayoutUnknown
}
