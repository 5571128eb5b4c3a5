package statement

import (
	"regexp"
	"strings"

	"github.com/lbarros/extratoflow/internal/model"
	"github.com/lbarros/extratoflow/internal/money"
	"github.com/lbarros/extratoflow/internal/service"
	"github.com/lbarros/extratoflow/internal/textutil"
)

// checkingLineRe is the single-line grammar: DATE DESCRIPTION AMOUNT.
var checkingLineRe = regexp.MustCompile(`^(` + dateToken + `)\s+(.+?)\s+(` + amountToken + `)$`)

// ParseChecking parses a checking-account statement. Every line gets exactly
// one audit: header/footer skips first, then the transaction grammar,
// everything else is an unrecognized skip.
func ParseChecking(pages []service.Page, kw Keywords) ([]model.ParsedCandidate, []model.RowAudit) {
	defaultYear := inferDefaultYear(AllLines(pages))

	var candidates []model.ParsedCandidate
	var audits []model.RowAudit

	for _, page := range pages {
		for i, raw := range page.Lines {
			line := strings.TrimSpace(raw)
			audit := model.RowAudit{
				Page:      page.Number,
				LineIndex: i,
				RawLine:   raw,
			}

			if containsAny(textutil.Normalize(line), kw.CheckingHeaderFooter) {
				audit.Status = model.AuditSkipped
				audit.Reason = model.ReasonHeaderFooter
				audits = append(audits, audit)
				continue
			}

			m := checkingLineRe.FindStringSubmatch(line)
			if m == nil {
				audit.Status = model.AuditSkipped
				audit.Reason = model.ReasonUnrecognized
				audits = append(audits, audit)
				continue
			}

			dateTok, desc, amountTok := m[1], strings.TrimSpace(m[2]), m[3]

			occurredAt, err := parseDateToken(dateTok, defaultYear)
			if err != nil {
				audit.Status = model.AuditError
				if err == errMissingYear {
					audit.Reason = model.ReasonMissingYear
				} else {
					audit.Reason = model.ReasonBadDate
				}
				audit.Message = err.Error()
				audits = append(audits, audit)
				continue
			}

			amount, err := money.ParseBRL(amountTok)
			if err != nil {
				audit.Status = model.AuditError
				audit.Reason = model.ReasonBadAmount
				audit.Message = err.Error()
				audits = append(audits, audit)
				continue
			}

			candidates = append(candidates, model.ParsedCandidate{
				OccurredAt:  occurredAt,
				Description: desc,
				Amount:      resolveSign(amount, amountTok, desc, kw.CheckingCredit),
				Currency:    candidateCurrency,
				SourceLine:  line,
				Page:        page.Number,
				LineIndex:   i,
			})

			audit.Status = model.AuditParsed
			audits = append(audits, audit)
		}
	}

	return candidates, audits
}
