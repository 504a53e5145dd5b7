package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// AdvisoryKind classifies a non-fatal deduction outcome.
type AdvisoryKind string

const (
	// AdvisoryNegativeStock reports an item whose stock dropped below zero.
	AdvisoryNegativeStock AdvisoryKind = "negative_stock"
	// AdvisoryMissingTarget reports a rule target absent from the inventory.
	AdvisoryMissingTarget AdvisoryKind = "missing_target"
)

// Advisory is a data-integrity warning raised while deducting stock. It never
// blocks a sale.
type Advisory struct {
	Kind    AdvisoryKind `json:"kind"`
	Item    string       `json:"item"`
	Product string       `json:"product"`
	Stock   int          `json:"stock,omitempty"`
}

func (a Advisory) String() string {
	switch a.Kind {
	case AdvisoryNegativeStock:
		return fmt.Sprintf("stock of %q is %d after selling %q", a.Item, a.Stock, a.Product)
	default:
		return fmt.Sprintf("inventory item %q for %q not found", a.Item, a.Product)
	}
}

// Sold describes a settled order line for deduction purposes.
type Sold struct {
	Category string
	Name     string
	Quantity int
}

// Deductor applies the rule table to sold lines.
type Deductor struct {
	rules *RuleTable
	stock *Stock
	lg    *zap.Logger
}

// NewDeductor creates a Deductor over stock using rules.
func NewDeductor(rules *RuleTable, stock *Stock, lg *zap.Logger) *Deductor {
	return &Deductor{rules: rules, stock: stock, lg: lg}
}

// Deduct decrements stock for one sold line: stock -= quantity × multiplier
// for every target of the matching rule. Missing targets are reported and
// skipped; the remaining targets are still applied.
func (d *Deductor) Deduct(_ context.Context, s Sold) []Advisory {
	var advisories []Advisory
	for _, tg := range d.rules.Lookup(s.Category, s.Name) {
		item, ok := d.stock.decrement(tg.Item, s.Quantity*tg.Multiplier)
		if !ok {
			a := Advisory{Kind: AdvisoryMissingTarget, Item: tg.Item, Product: s.Name}
			d.lg.Warn("Deduction target missing",
				zap.String("item", tg.Item),
				zap.String("product", s.Name),
				zap.String("category", s.Category),
			)
			advisories = append(advisories, a)
			continue
		}
		if item.Stock < 0 {
			a := Advisory{Kind: AdvisoryNegativeStock, Item: item.Name, Product: s.Name, Stock: item.Stock}
			d.lg.Warn("Negative stock",
				zap.String("item", item.Name),
				zap.Int("stock", item.Stock),
				zap.String("product", s.Name),
			)
			advisories = append(advisories, a)
		}
	}
	return advisories
}

// Stock returns the stock the Deductor operates on.
func (d *Deductor) Stock() *Stock {
	return d.stock
}
