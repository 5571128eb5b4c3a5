// Package money parses locale-formatted currency text into fixed-point amounts.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseBRL parses a Brazilian-formatted amount ("." thousands, "," decimals)
// into a signed decimal. It accepts an optional leading "R$" marker and the
// negative notations banks actually print: a leading minus, a trailing minus
// ("10,00-"), or wrapping parentheses ("(10,00)"). Trailing or wrapping
// negative notation forces the sign negative regardless of any other sign.
func ParseBRL(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "-"))
	}

	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, s)

	// "." is a thousands separator here; "," carries the decimals.
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	if s == "" || s == "-" {
		return decimal.Zero, fmt.Errorf("no digits in amount %q", text)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", text, err)
	}

	if negative {
		amount = amount.Abs().Neg()
	}
	return amount, nil
}
