package model

// AuditStatus is the per-line parse outcome.
type AuditStatus string

const (
	// AuditParsed means the line produced a transaction candidate.
	AuditParsed AuditStatus = "parsed"
	// AuditSkipped means the line was intentionally ignored.
	AuditSkipped AuditStatus = "skipped"
	// AuditError means the line looked transactional but could not be parsed.
	AuditError AuditStatus = "error"
)

// Audit reason codes. Skips and errors always carry one.
const (
	ReasonHeaderFooter        = "header_footer"
	ReasonUnrecognized        = "unrecognized"
	ReasonBadDate             = "bad_date"
	ReasonBadAmount           = "bad_amount"
	ReasonMissingYear         = "missing_year"
	ReasonDanglingTransaction = "dangling_transaction"
	ReasonOrphanAmount        = "orphan_amount"
	ReasonContinuation        = "continuation"
)

// RowAudit records the outcome for exactly one input line. Every line of every
// page gets one, whether or not it produced a transaction; the set is replaced
// wholesale on each processing run.
type RowAudit struct {
	ImportID  string
	RawLine   string
	Status    AuditStatus
	Reason    string
	Message   string
	Page      int
	LineIndex int
}
