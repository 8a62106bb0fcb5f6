package reconciliation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

func TestNormalizeSemicolonFile(t *testing.T) {
	raw := "12.345.678;1500,50\n23456789;2000,00\n"

	records := Normalize(raw)
	require.Len(t, records, 2)

	assert.Equal(t, shared.NationalID("12345678"), records[0].NationalID)
	assert.True(t, records[0].Amount.Equal(decimal.RequireFromString("1500.50")),
		"got %s", records[0].Amount)
	assert.Equal(t, 1, records[0].Line)

	assert.Equal(t, shared.NationalID("23456789"), records[1].NationalID)
	assert.True(t, records[1].Amount.Equal(decimal.RequireFromString("2000")))
}

func TestNormalizeCommaFile(t *testing.T) {
	raw := "12345678,1500.50\n23456789,78000"

	records := Normalize(raw)
	require.Len(t, records, 2)
	assert.True(t, records[0].Amount.Equal(decimal.RequireFromString("1500.50")))
	assert.True(t, records[1].Amount.Equal(decimal.RequireFromString("78000")))
}

func TestNormalizeSkipsHeader(t *testing.T) {
	raw := "DNI;MONTO\n12345678;1500\n"

	records := Normalize(raw)
	require.Len(t, records, 1)
	assert.Equal(t, shared.NationalID("12345678"), records[0].NationalID)
	assert.Equal(t, 2, records[0].Line)
}

func TestNormalizeDiscardsMalformedLines(t *testing.T) {
	raw := "12345678;1500\n" + // válida
		"123;1500\n" + // documento corto
		"23456789;no-es-monto\n" + // monto no numérico
		";;\n" + // vacía con separadores
		"\n" + // vacía
		"34567890;2500\n" // válida

	records := Normalize(raw)
	require.Len(t, records, 2)
	assert.Equal(t, shared.NationalID("12345678"), records[0].NationalID)
	assert.Equal(t, shared.NationalID("34567890"), records[1].NationalID)
}

func TestNormalizeHandlesCRLF(t *testing.T) {
	raw := "12345678;1500\r\n23456789;2000\r\n"
	records := Normalize(raw)
	assert.Len(t, records, 2)
}

func TestNormalizeEmptyInput(t *testing.T) {
	assert.Empty(t, Normalize(""))
	assert.Empty(t, Normalize("\n\n\n"))
}

func TestParseAmountSeparators(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1500,50", "1500.50"},
		{"1500.50", "1500.50"},
		{"1.500,50", "1500.50"},
		{"1,500.50", "1500.50"},
		{"$1500", "1500"},
		{"1.234.567", "1234567"},
		{"1,234,567", "1234567"},
		{"2000", "2000"},
	}
	for _, tt := range tests {
		got, ok := parseAmount(tt.raw)
		require.True(t, ok, "raw=%q", tt.raw)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
			"raw=%q got=%s want=%s", tt.raw, got, tt.want)
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "$"} {
		_, ok := parseAmount(raw)
		assert.False(t, ok, "raw=%q", raw)
	}
}
