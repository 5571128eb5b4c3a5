// Package textutil provides text canonicalization shared by rule matching and
// fingerprint construction.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops combining marks, and recomposes. It turns
// "Transferência" into "Transferencia" without touching base letters.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes text for matching and hashing: diacritics stripped,
// lowercased, every whitespace run (including non-breaking variants) collapsed
// to one ASCII space, leading and trailing space trimmed. Two spellings of the
// same description that differ only in case, accents, or spacing normalize to
// the same string.
func Normalize(text string) string {
	stripped, _, err := transform.String(stripMarks, text)
	if err != nil {
		// Transform only fails on malformed input; fall back to the raw text so
		// the remaining steps still apply.
		stripped = text
	}

	lowered := strings.ToLower(stripped)

	var b strings.Builder
	b.Grow(len(lowered))
	inSpace := false
	for _, r := range lowered {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeLegacy applies the normalization rule used before diacritic
// stripping was introduced: lowercase and whitespace collapse only. Kept so
// fingerprints of historically inserted rows still dedupe.
func NormalizeLegacy(text string) string {
	lowered := strings.ToLower(text)
	return strings.Join(strings.Fields(lowered), " ")
}
