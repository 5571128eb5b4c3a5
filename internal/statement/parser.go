package statement

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lbarros/extratoflow/internal/model"
	"github.com/lbarros/extratoflow/internal/service"
	"github.com/lbarros/extratoflow/internal/textutil"
)

// candidateCurrency is the currency the line grammars imply. Amounts are
// stored as printed; there is no conversion.
const candidateCurrency = "BRL"

// amountToken matches the raw amount forms banks print, including the
// trailing-minus and parenthesized negatives. Validation happens in the money
// parser; this only bounds the token.
const amountToken = `-?\(?\s*(?:R\$\s*)?\d[\d.,]*\s*\)?-?`

// dateToken matches both the numeric and textual date shapes, year optional.
const dateToken = `\d{1,2}/\d{1,2}(?:/\d{2,4})?|\d{1,2}\s+[A-Za-zç]{3,4}\.?(?:\s+\d{4})?`

var amountOnlyRe = regexp.MustCompile(`^(` + amountToken + `)$`)

// Parse runs the parser for the detected layout over the extracted pages. Both
// grammars emit exactly one audit per input line and preserve line order
// across pages.
func Parse(layout Layout, pages []service.Page, kw Keywords) ([]model.ParsedCandidate, []model.RowAudit) {
	switch layout {
	case LayoutChecking:
		return ParseChecking(pages, kw)
	case LayoutCreditCard:
		return ParseCreditCard(pages, kw)
	default:
		return nil, nil
	}
}

// AllLines flattens pages for layout detection and year inference.
func AllLines(pages []service.Page) []string {
	var lines []string
	for _, p := range pages {
		lines = append(lines, p.Lines...)
	}
	return lines
}

// resolveSign applies the shared sign heuristic: an explicit negative marker
// in the raw token always wins; otherwise credit keywords in the description
// force positive; everything else is an expense.
func resolveSign(amount decimal.Decimal, rawToken, description string, creditKeywords []string) decimal.Decimal {
	if hasExplicitNegative(rawToken) {
		return amount.Abs().Neg()
	}
	if containsAny(textutil.Normalize(description), creditKeywords) {
		return amount.Abs()
	}
	return amount.Abs().Neg()
}

func hasExplicitNegative(token string) bool {
	token = strings.TrimSpace(token)
	return strings.Contains(token, "-") ||
		(strings.HasPrefix(token, "(") && strings.HasSuffix(token, ")"))
}
