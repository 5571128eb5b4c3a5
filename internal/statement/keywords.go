// Package statement classifies statement text into a known layout and parses
// it into transaction candidates with a full per-line audit.
package statement

import "strings"

// Keywords holds the heuristic vocabularies the detector and parsers consult.
// They are data, not logic: a false-positive skip silently drops a real
// transaction, so deployments tune these lists through configuration instead
// of code changes. All entries are matched against normalized text (lowercase,
// diacritics stripped).
type Keywords struct {
	// CheckingMarkers identify a checking-account statement. Checked first;
	// they win over card markers.
	CheckingMarkers []string
	// CardMarkers identify a credit-card invoice.
	CardMarkers []string
	// CheckingHeaderFooter lines are skipped by the checking parser.
	CheckingHeaderFooter []string
	// CardSummary lines are skipped by the credit-card parser, even while a
	// pending entry is open.
	CardSummary []string
	// CheckingCredit marks descriptions of incoming funds on checking
	// statements; matches force a positive sign.
	CheckingCredit []string
	// CardCredit marks credits on card invoices; matches force a positive sign.
	CardCredit []string
}

// DefaultKeywords returns the stock vocabularies for the two supported
// Brazilian statement families.
func DefaultKeywords() Keywords {
	return Keywords{
		CheckingMarkers: []string{
			"extrato de conta",
			"extrato conta corrente",
			"saldo anterior",
			"saldo em conta",
			"saldo disponivel",
		},
		CardMarkers: []string{
			"fatura",
			"vencimento",
			"pagamento minimo",
			"limite de credito",
		},
		CheckingHeaderFooter: []string{
			"extrato de conta",
			"saldo anterior",
			"saldo final",
			"saldo do dia",
			"data descricao",
			"data lancamento",
			"agencia",
			"ouvidoria",
			"central de atendimento",
			"pagina",
		},
		CardSummary: []string{
			"fatura",
			"resumo",
			"vencimento",
			"pagamento minimo",
			"limite",
			"total desta fatura",
			"ouvidoria",
			"central de atendimento",
			"pagina",
		},
		CheckingCredit: []string{
			"recebimento",
			"recebida",
			"deposito",
			"salario",
			"cashback",
			"reembolso",
			"estorno",
		},
		CardCredit: []string{
			"estorno",
			"reembolso",
			"credito",
			"ajuste",
			"cancelamento",
		},
	}
}

func containsAny(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
