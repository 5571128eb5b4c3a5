// Package fingerprint derives the content hashes used to deduplicate
// transactions across runs and across near-duplicate statement exports.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lbarros/extratoflow/internal/textutil"
)

// Hash payload version tags. The tag is part of the hash input, so a change
// to the normalization or payload scheme never silently collides with rows
// hashed under an older scheme.
const (
	version       = "v2"
	legacyVersion = "v1"
)

// Result carries both hashes for one transaction candidate. Legacy is the
// hash historical rows were inserted under, before description normalization
// started stripping diacritics; it participates in dedup lookups only.
type Result struct {
	NormalizedDescription string
	Primary               string
	Legacy                string
}

// Build computes the fingerprints for one candidate. The primary hash covers
// (user, account, UTC date, amount in minor units, normalized description)
// plus a hash of the source line when one is given. Descriptions differing
// only by case, diacritics or whitespace runs hash identically.
func Build(userID, accountID string, occurredAt time.Time, amount decimal.Decimal, description, sourceLine string) Result {
	normalized := textutil.Normalize(description)
	date := occurredAt.UTC().Format("2006-01-02")
	minor := minorUnits(amount)

	parts := []string{version, userID, accountID, date, minor, normalized}
	if line := strings.TrimSpace(sourceLine); line != "" {
		parts = append(parts, hexDigest(line))
	}

	legacyParts := []string{legacyVersion, userID, accountID, date, minor, textutil.NormalizeLegacy(description)}

	return Result{
		NormalizedDescription: normalized,
		Primary:               hexDigest(strings.Join(parts, "|")),
		Legacy:                hexDigest(strings.Join(legacyParts, "|")),
	}
}

// minorUnits renders the amount in integer minor units, rounding half away
// from zero, so -15.905 and -15.90 stay distinct while float noise does not.
func minorUnits(amount decimal.Decimal) string {
	return amount.Shift(2).Round(0).String()
}

func hexDigest(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
