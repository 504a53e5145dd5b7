package order

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/conejoswing/restoeasy/internal/domain/menu"
)

// ErrLineNotFound is returned when a line ID is not part of the current order.
var ErrLineNotFound = errors.New("order line not found")

// UnknownModificationError indicates a modification the menu item does not offer.
type UnknownModificationError struct {
	MenuItemID   int
	Modification string
}

func (e *UnknownModificationError) Error() string {
	return fmt.Sprintf("menu item %d does not offer modification %q", e.MenuItemID, e.Modification)
}

// LineItem is one line of an order: a menu item with a set of modifications,
// an optional observation and a quantity.
type LineItem struct {
	ID            string          `json:"id"`
	MenuItemID    int             `json:"menu_item_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Quantity      int             `json:"quantity"`
	Modifications []string        `json:"modifications,omitempty"`
	BasePrice     decimal.Decimal `json:"base_price"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	Observation   string          `json:"observation,omitempty"`
	OrderNumber   int             `json:"order_number,omitempty"`
}

// Amount returns FinalPrice × Quantity.
func (l LineItem) Amount() decimal.Decimal {
	return l.FinalPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l LineItem) clone() LineItem {
	l.Modifications = slices.Clone(l.Modifications)
	return l
}

// Subtotal returns the sum of FinalPrice × Quantity over lines.
func Subtotal(lines []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount())
	}
	return sum
}

// Builder accumulates the current, uncommitted order of a channel.
type Builder struct {
	lines []LineItem
	newID func() string
}

// NewBuilder returns a Builder seeded with lines, typically restored from
// session storage. The lines are copied.
func NewBuilder(lines []LineItem) *Builder {
	return &Builder{
		lines: cloneLines(lines),
		newID: func() string { return uuid.New().String() },
	}
}

// Add adds one unit of item with the given modifications and observation.
// A line with the same item, modification set and observation has its
// quantity incremented instead of a new line being appended.
func (b *Builder) Add(item menu.Item, modifications []string, observation string) (LineItem, error) {
	if err := item.Validate(); err != nil {
		return LineItem{}, err
	}

	mods := normalizeMods(modifications)
	surcharge := decimal.Zero
	for _, m := range mods {
		if !item.Offers(m) {
			return LineItem{}, &UnknownModificationError{MenuItemID: item.ID, Modification: m}
		}
		surcharge = surcharge.Add(item.Surcharge(m))
	}

	for i := range b.lines {
		l := &b.lines[i]
		if l.MenuItemID == item.ID && slices.Equal(l.Modifications, mods) && l.Observation == observation {
			l.Quantity++
			return l.clone(), nil
		}
	}

	l := LineItem{
		ID:            b.newID(),
		MenuItemID:    item.ID,
		Name:          item.Name,
		Category:      item.Category,
		Quantity:      1,
		Modifications: mods,
		BasePrice:     item.Price,
		FinalPrice:    item.Price.Add(surcharge),
		Observation:   observation,
	}
	b.lines = append(b.lines, l)
	return l.clone(), nil
}

// Remove deletes the line with the given ID.
func (b *Builder) Remove(lineID string) error {
	i := b.index(lineID)
	if i < 0 {
		return ErrLineNotFound
	}
	b.lines = slices.Delete(b.lines, i, i+1)
	return nil
}

// ChangeQuantity adds delta to the line's quantity. The result never drops
// below 1; removing a line is done with Remove.
func (b *Builder) ChangeQuantity(lineID string, delta int) (LineItem, error) {
	i := b.index(lineID)
	if i < 0 {
		return LineItem{}, ErrLineNotFound
	}
	l := &b.lines[i]
	switch {
	case delta > 0 && l.Quantity > math.MaxInt-delta:
		l.Quantity = math.MaxInt
	default:
		l.Quantity = max(l.Quantity+delta, 1)
	}
	return l.clone(), nil
}

// Total returns the current order total, recomputed from the lines.
func (b *Builder) Total() decimal.Decimal {
	return Subtotal(b.lines)
}

// Lines returns a copy of the current lines.
func (b *Builder) Lines() []LineItem {
	return cloneLines(b.lines)
}

// Empty reports whether the current order has no lines.
func (b *Builder) Empty() bool {
	return len(b.lines) == 0
}

// Reset discards the current order.
func (b *Builder) Reset() {
	b.lines = nil
}

func (b *Builder) index(lineID string) int {
	return slices.IndexFunc(b.lines, func(l LineItem) bool { return l.ID == lineID })
}

// normalizeMods returns a sorted copy of mods without duplicates, so that
// modification sets compare independently of selection order.
func normalizeMods(mods []string) []string {
	if len(mods) == 0 {
		return nil
	}
	out := slices.Clone(mods)
	slices.Sort(out)
	return slices.Compact(out)
}

func cloneLines(lines []LineItem) []LineItem {
	if lines == nil {
		return nil
	}
	out := make([]LineItem, len(lines))
	for i, l := range lines {
		out[i] = l.clone()
	}
	return out
}
