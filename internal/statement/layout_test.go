package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLayout(t *testing.T) {
	kw := DefaultKeywords()

	tests := []struct {
		name  string
		lines []string
		want  Layout
	}{
		{
			name:  "checking statement",
			lines: []string{"EXTRATO DE CONTA CORRENTE", "01/01/2025 PIX R$ 10,00"},
			want:  LayoutChecking,
		},
		{
			name:  "checking detected through diacritics",
			lines: []string{"Saldo Disponível: R$ 1.234,56"},
			want:  LayoutChecking,
		},
		{
			name:  "credit card invoice",
			lines: []string{"FATURA DO CARTAO", "Vencimento: 10/02/2025"},
			want:  LayoutCreditCard,
		},
		{
			name:  "checking wins over card markers",
			lines: []string{"EXTRATO DE CONTA", "Pagamento de fatura"},
			want:  LayoutChecking,
		},
		{
			name:  "neither vocabulary",
			lines: []string{"RELATORIO GERAL", "alguma coisa"},
			want:  LayoutUnknown,
		},
		{
			name: "empty input",
			want: LayoutUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLayout(tt.lines, kw))
		})
	}
}
