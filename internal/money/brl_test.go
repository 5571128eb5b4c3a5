package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBRL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "15,90", want: "15.9"},
		{name: "currency marker", input: "R$ 15,90", want: "15.9"},
		{name: "thousands separator", input: "1.234,56", want: "1234.56"},
		{name: "marker and thousands", input: "R$ 12.345.678,90", want: "12345678.9"},
		{name: "leading minus", input: "-10,00", want: "-10"},
		{name: "trailing minus", input: "10,00-", want: "-10"},
		{name: "parenthesized", input: "(1.500,00)", want: "-1500"},
		{name: "marker with trailing minus", input: "R$ 10,00-", want: "-10"},
		{name: "internal nbsp", input: "R$ 1.000,00", want: "1000"},
		{name: "integer only", input: "42", want: "42"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "non numeric", input: "saldo anterior", wantErr: true},
		{name: "lonely minus", input: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBRL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			want, err := decimal.NewFromString(tt.want)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "want %s got %s", want, got)
		})
	}
}

func TestParseBRLWhitespaceInsensitive(t *testing.T) {
	// Added internal whitespace never changes the parsed value.
	base, err := ParseBRL("R$ 1.234,56")
	require.NoError(t, err)

	variants := []string{"R$  1.234,56", "R$ 1.234,56 ", "  R$ 1.234,56", "R$ 1.234,56"}
	for _, v := range variants {
		got, err := ParseBRL(v)
		require.NoError(t, err)
		assert.True(t, base.Equal(got), "variant %q", v)
	}
}

func TestParseBRLTrailingMinusForcesNegative(t *testing.T) {
	// A doubled sign still resolves to a single negative.
	got, err := ParseBRL("-10,00-")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(-10)))
}
