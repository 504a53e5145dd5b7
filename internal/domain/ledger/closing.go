package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// MethodTotal aggregates movements of one payment method.
type MethodTotal struct {
	Method string          `json:"method"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Closing is the cash-closing report of a period.
//
// Sales is the sum of sale movements, which record subtotals only. Delivery
// fees and tips are reported separately so that Collected (what actually
// entered the till) can be reconciled against Sales.
type Closing struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	SaleCount   int             `json:"sale_count"`
	Sales       decimal.Decimal `json:"sales"`
	DeliveryFee decimal.Decimal `json:"delivery_fees"`
	Tips        decimal.Decimal `json:"tips"`
	Adjustments decimal.Decimal `json:"adjustments"`
	Collected   decimal.Decimal `json:"collected"`
	ByMethod    []MethodTotal   `json:"by_method"`
}

// Summarize aggregates movements into a Closing for [from, to).
func Summarize(from, to time.Time, movements []Movement) Closing {
	c := Closing{
		From:        from,
		To:          to,
		Sales:       decimal.Zero,
		DeliveryFee: decimal.Zero,
		Tips:        decimal.Zero,
		Adjustments: decimal.Zero,
	}
	byMethod := make(map[string]*MethodTotal)

	for _, m := range movements {
		if m.CreatedAt.Before(from) || !m.CreatedAt.Before(to) {
			continue
		}
		switch m.Category {
		case CategorySale:
			c.SaleCount++
			c.Sales = c.Sales.Add(m.Amount)
			c.DeliveryFee = c.DeliveryFee.Add(m.DeliveryFee)
			c.Tips = c.Tips.Add(m.Tip)
		case CategoryAdjustment:
			c.Adjustments = c.Adjustments.Add(m.Amount)
		}

		mt, ok := byMethod[m.Method]
		if !ok {
			mt = &MethodTotal{Method: m.Method, Amount: decimal.Zero}
			byMethod[m.Method] = mt
		}
		mt.Count++
		mt.Amount = mt.Amount.Add(m.Amount).Add(m.DeliveryFee).Add(m.Tip)
	}

	c.Collected = c.Sales.Add(c.DeliveryFee).Add(c.Tips).Add(c.Adjustments)
	c.ByMethod = make([]MethodTotal, 0, len(byMethod))
	for _, mt := range byMethod {
		c.ByMethod = append(c.ByMethod, *mt)
	}
	sort.Slice(c.ByMethod, func(i, j int) bool { return c.ByMethod[i].Method < c.ByMethod[j].Method })

	return c
}

// DayBounds returns the start of day and the start of the next day for t in
// loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Close loads the movements of [from, to) from repo and summarizes them.
func Close(ctx context.Context, repo Repository, from, to time.Time) (Closing, error) {
	movements, err := repo.List(ctx, from, to)
	if err != nil {
		return Closing{}, errors.Wrap(err, "list movements")
	}
	return Summarize(from, to, movements), nil
}
