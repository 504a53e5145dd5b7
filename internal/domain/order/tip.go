package order

import "github.com/shopspring/decimal"

// TipRate is the suggested tip applied to the subtotal on the customer copy.
var TipRate = decimal.RequireFromString("0.10")

// DecideTip records the customer's tip decision on g and returns the amount.
// The suggested tip is the subtotal times TipRate rounded to whole currency
// units, halves rounding up. The last decision replaces earlier ones.
func DecideTip(g *PendingGroup, include bool) decimal.Decimal {
	amount := decimal.Zero
	if include {
		amount = g.Subtotal().Mul(TipRate).Round(0)
	}
	g.TipAmount = amount
	g.TipIncluded = include
	return amount
}
