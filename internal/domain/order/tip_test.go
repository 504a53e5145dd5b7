package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func groupWithSubtotal(amount int64) *PendingGroup {
	return &PendingGroup{
		Number: 1,
		Lines: []LineItem{{
			ID:         "l1",
			Quantity:   1,
			BasePrice:  decimal.NewFromInt(amount),
			FinalPrice: decimal.NewFromInt(amount),
		}},
	}
}

func TestDecideTip_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		subtotal int64
		want     int64
	}{
		{12345, 1235}, // 1234.5 rounds up
		{12344, 1234}, // 1234.4 rounds down
		{12346, 1235}, // 1234.6
		{9000, 900},
		{5, 1}, // 0.5
		{4, 0}, // 0.4
		{0, 0},
	}
	for _, tt := range tests {
		g := groupWithSubtotal(tt.subtotal)
		got := DecideTip(g, true)
		assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "subtotal %d: want %d got %s", tt.subtotal, tt.want, got)
		assert.True(t, got.Equal(g.TipAmount))
		assert.True(t, g.TipIncluded)
	}
}

func TestDecideTip_LastDecisionWins(t *testing.T) {
	g := groupWithSubtotal(10000)

	assert.True(t, decimal.NewFromInt(1000).Equal(DecideTip(g, true)))
	assert.True(t, DecideTip(g, false).IsZero())
	assert.True(t, g.TipAmount.IsZero())
	assert.False(t, g.TipIncluded)

	DecideTip(g, true)
	assert.True(t, decimal.NewFromInt(1000).Equal(g.TipAmount))
}
