package statement

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lbarros/extratoflow/internal/model"
	"github.com/lbarros/extratoflow/internal/money"
	"github.com/lbarros/extratoflow/internal/service"
	"github.com/lbarros/extratoflow/internal/textutil"
)

// Credit-card invoices wrap transactions across physical lines, so the grammar
// recognizes three shapes: a full DATE DESCRIPTION AMOUNT line, a DATE with a
// partial description completed later by an amount-only line, and a bare DATE
// followed by free-text continuations and then the amount.
var (
	cardFullLineRe   = regexp.MustCompile(`^(` + dateToken + `)\s+(.+?)\s+(` + amountToken + `)$`)
	cardDatePrefixRe = regexp.MustCompile(`^(` + dateToken + `)(?:\s+(.*))?$`)
)

// pending is the one partially parsed entry the parser may hold between
// lines: a date plus the description accumulated so far, waiting for its
// amount. It is threaded explicitly through processLine, never mutated behind
// the caller's back.
type pending struct {
	date        time.Time
	description []string
	page        int
	lineIndex   int
	auditIdx    int
}

type cardParser struct {
	kw          Keywords
	candidates  []model.ParsedCandidate
	audits      []model.RowAudit
	defaultYear int
}

// ParseCreditCard parses a credit-card invoice. Summary lines are skipped even
// while a pending entry is open; a pending entry that never receives its
// amount becomes a dangling-transaction error for its originating line.
func ParseCreditCard(pages []service.Page, kw Keywords) ([]model.ParsedCandidate, []model.RowAudit) {
	cp := &cardParser{
		kw:          kw,
		defaultYear: inferDefaultYear(AllLines(pages)),
	}

	var st *pending
	for _, page := range pages {
		for i, raw := range page.Lines {
			st = cp.processLine(st, page.Number, i, raw)
		}
	}
	// End of input: a still-open entry stays dangling; its provisional audit
	// already says so.

	return cp.candidates, cp.audits
}

// processLine consumes one line and returns the new pending state. Exactly one
// audit is appended per call; a pending entry's own audit is provisional (a
// dangling-transaction error) until an amount line completes it.
func (cp *cardParser) processLine(st *pending, pageNum, idx int, raw string) *pending {
	line := strings.TrimSpace(raw)
	audit := model.RowAudit{
		Page:      pageNum,
		LineIndex: idx,
		RawLine:   raw,
	}

	// Summary lines never close or extend a pending entry.
	if containsAny(textutil.Normalize(line), cp.kw.CardSummary) {
		audit.Status = model.AuditSkipped
		audit.Reason = model.ReasonHeaderFooter
		cp.audits = append(cp.audits, audit)
		return st
	}

	if m := cardFullLineRe.FindStringSubmatch(line); m != nil && isDateToken(m[1]) {
		if next, handled := cp.parseFullLine(st, m, line, audit); handled {
			return next
		}
		// Fell through: the amount token did not survive parsing, and the
		// grammar below gets a chance at the date prefix.
	}

	if m := amountOnlyRe.FindStringSubmatch(line); m != nil {
		if amount, err := money.ParseBRL(m[1]); err == nil {
			return cp.completePending(st, amount, m[1], audit)
		}
	}

	if m := cardDatePrefixRe.FindStringSubmatch(line); m != nil && isDateToken(m[1]) {
		return cp.startPending(st, m, audit)
	}

	if st != nil {
		// Free-text continuation of the open entry.
		st.description = append(st.description, line)
		audit.Status = model.AuditSkipped
		audit.Reason = model.ReasonContinuation
		cp.audits = append(cp.audits, audit)
		return st
	}

	audit.Status = model.AuditSkipped
	audit.Reason = model.ReasonUnrecognized
	cp.audits = append(cp.audits, audit)
	return nil
}

// parseFullLine handles shape (a): everything on one line. Any open pending
// entry is abandoned as dangling.
func (cp *cardParser) parseFullLine(st *pending, m []string, line string, audit model.RowAudit) (*pending, bool) {
	dateTok, desc, amountTok := m[1], strings.TrimSpace(m[2]), m[3]

	amount, err := money.ParseBRL(amountTok)
	if err != nil {
		return st, false
	}

	occurredAt, err := parseDateToken(dateTok, cp.defaultYear)
	if err != nil {
		audit.Status = model.AuditError
		if err == errMissingYear {
			audit.Reason = model.ReasonMissingYear
		} else {
			audit.Reason = model.ReasonBadDate
		}
		audit.Message = err.Error()
		cp.audits = append(cp.audits, audit)
		return nil, true
	}

	// The previous entry never completed; its provisional audit stands.

	cp.candidates = append(cp.candidates, model.ParsedCandidate{
		OccurredAt:  occurredAt,
		Description: desc,
		Amount:      resolveSign(amount, amountTok, desc, cp.kw.CardCredit),
		Currency:    candidateCurrency,
		SourceLine:  line,
		Page:        audit.Page,
		LineIndex:   audit.LineIndex,
	})

	audit.Status = model.AuditParsed
	cp.audits = append(cp.audits, audit)
	return nil, true
}

// startPending handles shapes (b) and (c): a date-prefixed line without an
// amount. A previous pending entry becomes dangling.
func (cp *cardParser) startPending(_ *pending, m []string, audit model.RowAudit) *pending {
	dateTok := m[1]
	rest := strings.TrimSpace(m[2])

	occurredAt, err := parseDateToken(dateTok, cp.defaultYear)
	if err != nil {
		audit.Status = model.AuditError
		if err == errMissingYear {
			audit.Reason = model.ReasonMissingYear
		} else {
			audit.Reason = model.ReasonBadDate
		}
		audit.Message = err.Error()
		cp.audits = append(cp.audits, audit)
		return nil
	}

	// Provisional audit: stays a dangling-transaction error unless an amount
	// line completes the entry.
	audit.Status = model.AuditError
	audit.Reason = model.ReasonDanglingTransaction
	audit.Message = "entry never received an amount line"
	cp.audits = append(cp.audits, audit)

	next := &pending{
		date:      occurredAt,
		page:      audit.Page,
		lineIndex: audit.LineIndex,
		auditIdx:  len(cp.audits) - 1,
	}
	if rest != "" {
		next.description = append(next.description, rest)
	}
	return next
}

// completePending handles an amount-only line. It closes the open entry when
// one exists and has a description; an amount with nothing to attach to is an
// orphan.
func (cp *cardParser) completePending(st *pending, amount decimal.Decimal, rawToken string, audit model.RowAudit) *pending {
	if st == nil || len(st.description) == 0 {
		audit.Status = model.AuditSkipped
		audit.Reason = model.ReasonOrphanAmount
		cp.audits = append(cp.audits, audit)
		return st
	}

	desc := strings.Join(st.description, " ")
	cp.candidates = append(cp.candidates, model.ParsedCandidate{
		OccurredAt:  st.date,
		Description: desc,
		Amount:      resolveSign(amount, rawToken, desc, cp.kw.CardCredit),
		Currency:    candidateCurrency,
		SourceLine:  strings.TrimSpace(audit.RawLine),
		Page:        st.page,
		LineIndex:   st.lineIndex,
	})

	// The originating date line parsed after all.
	cp.audits[st.auditIdx].Status = model.AuditParsed
	cp.audits[st.auditIdx].Reason = ""
	cp.audits[st.auditIdx].Message = ""

	audit.Status = model.AuditSkipped
	audit.Reason = model.ReasonContinuation
	cp.audits = append(cp.audits, audit)
	return nil
}
