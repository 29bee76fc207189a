package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string          `json:"name" validate:"required,max=5"`
	Amount decimal.Decimal `json:"amount" validate:"dpositive"`
}

func TestDecimalRules(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(&sample{Name: "ok", Amount: decimal.RequireFromString("0.01")}))

	err := v.Struct(&sample{Name: "toolong", Amount: decimal.NewFromInt(-1)})
	require.Error(t, err)
	msgs := FormatValidationError(err)
	assert.ElementsMatch(t, []string{
		"Name must have maximum length 5",
		"Amount must be greater than 0",
	}, msgs)

	err = v.Struct(&sample{Amount: decimal.Zero})
	require.Error(t, err)
	msgs = FormatValidationError(err)
	assert.Contains(t, msgs, "Name is required")
	assert.Contains(t, msgs, "Amount must be greater than 0")
}

func TestFormatNonValidationError(t *testing.T) {
	assert.Empty(t, FormatValidationError(assert.AnError))
}

func TestDecimalPositiveSmallestUnit(t *testing.T) {
	type wrapper struct {
		Amount decimal.Decimal `validate:"dpositive"`
	}
	v := New()
	assert.NoError(t, v.Struct(&wrapper{Amount: decimal.RequireFromString("0.00000001")}))
	assert.Equal(t, []string{"Amount must be greater than 0"}, FormatValidationError(v.Struct(&wrapper{Amount: decimal.NewFromInt(-3)})))
}
