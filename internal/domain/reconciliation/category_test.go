package reconciliation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/pem-hub/pem-payments-hub/internal/domain/pricing"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

func tutorConfig() *pricing.Configuration {
	return &pricing.Configuration{
		ID:              "cfg-1",
		EffectivePeriod: shared.Period{Month: 1, Year: 2024},
		CategoryAmounts: map[string]decimal.Decimal{
			"TUTOR_A": decimal.RequireFromString("1500.50"),
			"TUTOR_B": decimal.RequireFromString("2000"),
		},
	}
}

func TestCategoryTableExactMatch(t *testing.T) {
	table := NewCategoryTable(tutorConfig())

	result := table.Classify(decimal.RequireFromString("1500.50"))
	assert.True(t, result.OK())
	assert.Equal(t, "TUTOR_A", result.Category)

	result = table.Classify(decimal.RequireFromString("2000"))
	assert.True(t, result.OK())
	assert.Equal(t, "TUTOR_B", result.Category)
}

func TestCategoryTableAmountMismatch(t *testing.T) {
	table := NewCategoryTable(tutorConfig())

	// Sin tolerancia: 1500.51 no es 1500.50
	result := table.Classify(decimal.RequireFromString("1500.51"))
	assert.False(t, result.OK())
	assert.Equal(t, ReasonAmountMismatch, result.Reason)
	assert.Empty(t, result.Category)
}

func TestCategoryTableMissingConfig(t *testing.T) {
	table := NewCategoryTable(nil)

	result := table.Classify(decimal.RequireFromString("1500.50"))
	assert.False(t, result.OK())
	assert.Equal(t, ReasonConfigMissing, result.Reason)
}

func TestNoCategoriesAlwaysEmpty(t *testing.T) {
	table := NoCategories()

	result := table.Classify(decimal.RequireFromString("78000"))
	assert.True(t, result.OK())
	assert.Empty(t, result.Category)
	assert.Empty(t, result.Reason)
}
