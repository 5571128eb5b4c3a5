// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lbarros/extratoflow/internal/statement"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DatabasePath resolves the SQLite path from configuration, defaulting under
// the user's data directory.
func DatabasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/extrato/extrato.db"
	}
	return ExpandPath(dbPath)
}

// BlobRoot resolves the directory uploaded statement files live under.
func BlobRoot() string {
	root := viper.GetString("blobs.path")
	if root == "" {
		root = "$HOME/.local/share/extrato/files"
	}
	return ExpandPath(root)
}

// RegexTimeout resolves the categorizer's per-rule regex evaluation bound.
// Zero means "use the built-in default".
func RegexTimeout() time.Duration {
	return viper.GetDuration("rules.regex_timeout")
}

// LoadKeywords builds the detector/parser vocabularies, starting from the
// stock Brazilian lists and letting configuration override each one. The
// lists are heuristic data: a deployment facing a new bank tunes them here
// instead of patching code.
func LoadKeywords() statement.Keywords {
	kw := statement.DefaultKeywords()

	override := func(key string, target *[]string) {
		if v := viper.GetStringSlice(key); len(v) > 0 {
			*target = v
		}
	}
	override("keywords.checking_markers", &kw.CheckingMarkers)
	override("keywords.card_markers", &kw.CardMarkers)
	override("keywords.checking_header_footer", &kw.CheckingHeaderFooter)
	override("keywords.card_summary", &kw.CardSummary)
	override("keywords.checking_credit", &kw.CheckingCredit)
	override("keywords.card_credit", &kw.CardCredit)
	return kw
}
