package statement

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date shapes accepted by both grammars: numeric with optional year, and the
// textual "dd MON [yyyy]" form. Month abbreviations cover the Brazilian set
// plus the English spellings that differ from it.
var monthAbbrevs = map[string]time.Month{
	"jan": time.January,
	"fev": time.February, "feb": time.February,
	"mar": time.March,
	"abr": time.April, "apr": time.April,
	"mai": time.May, "may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August, "aug": time.August,
	"set": time.September, "sep": time.September,
	"out": time.October, "oct": time.October,
	"nov": time.November,
	"dez": time.December, "dec": time.December,
}

var (
	numericDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
	textualDateRe = regexp.MustCompile(`(?i)^(\d{1,2})\s+([a-zç]{3,4})\.?(?:\s+(\d{4}))?$`)

	fullNumericYearRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/(\d{4})\b`)
	fullTextualYearRe = regexp.MustCompile(`(?i)\b\d{1,2}\s+[a-zç]{3,4}\.?\s+(\d{4})\b`)
	anyYearRe         = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

// errMissingYear marks a year-less date with no statement-wide default year to
// resolve it against.
var errMissingYear = fmt.Errorf("date has no year and no default year was inferred")

// inferDefaultYear resolves the statement-wide year used to complete year-less
// dates: the first 4-digit year in a full date wins, else the first 4-digit
// year anywhere in the text. Returns 0 when nothing resolves.
func inferDefaultYear(lines []string) int {
	joined := strings.Join(lines, "\n")

	if m := fullNumericYearRe.FindStringSubmatch(joined); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y
	}
	if m := fullTextualYearRe.FindStringSubmatch(joined); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return y
		}
	}
	if m := anyYearRe.FindStringSubmatch(joined); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y
	}
	return 0
}

// parseDateToken parses one date token into a midnight-UTC timestamp. A
// missing year resolves against defaultYear; defaultYear 0 means unresolvable
// and yields errMissingYear.
func parseDateToken(token string, defaultYear int) (time.Time, error) {
	token = strings.TrimSpace(token)

	if m := numericDateRe.FindStringSubmatch(token); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := defaultYear
		if m[3] != "" {
			y, _ := strconv.Atoi(m[3])
			if y < 100 {
				y += 2000
			}
			year = y
		} else if defaultYear == 0 {
			return time.Time{}, errMissingYear
		}
		return makeDate(year, time.Month(month), day)
	}

	if m := textualDateRe.FindStringSubmatch(token); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := monthAbbrevs[strings.ToLower(m[2])]
		if !ok {
			return time.Time{}, fmt.Errorf("unknown month %q", m[2])
		}
		year := defaultYear
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		} else if defaultYear == 0 {
			return time.Time{}, errMissingYear
		}
		return makeDate(year, month, day)
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", token)
}

// isDateToken reports whether token is a plausible date: numeric, or textual
// with a month abbreviation we actually know. "05 max" is not a date even
// though it matches the textual shape.
func isDateToken(token string) bool {
	token = strings.TrimSpace(token)
	if numericDateRe.MatchString(token) {
		return true
	}
	if m := textualDateRe.FindStringSubmatch(token); m != nil {
		_, ok := monthAbbrevs[strings.ToLower(m[2])]
		return ok
	}
	return false
}

// makeDate builds a midnight-UTC date, rejecting values time.Date would
// silently normalize (e.g. 31/02 rolling into March).
func makeDate(year int, month time.Month, day int) (time.Time, error) {
	if month < time.January || month > time.December {
		return time.Time{}, fmt.Errorf("invalid month %d", month)
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month || d.Year() != year {
		return time.Time{}, fmt.Errorf("invalid date %02d/%02d/%d", day, month, year)
	}
	return d, nil
}
