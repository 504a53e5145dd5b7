package menu

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested menu item does not exist.
	ErrNotFound = errors.New("menu item not found")
	// ErrInvalidPrice is returned for negative prices or surcharges.
	ErrInvalidPrice = errors.New("price must not be negative")
)

// Item is a dish or product offered on the menu.
type Item struct {
	ID            int                        `json:"id"`
	Name          string                     `json:"name"`
	Price         decimal.Decimal            `json:"price"`
	Category      string                     `json:"category"`
	Modifications []string                   `json:"modifications,omitempty"`
	Surcharges    map[string]decimal.Decimal `json:"surcharges,omitempty"`
	Ingredients   []string                   `json:"ingredients,omitempty"`
}

// Surcharge returns the extra cost of a modification, zero when it has none.
func (i Item) Surcharge(mod string) decimal.Decimal {
	if s, ok := i.Surcharges[mod]; ok {
		return s
	}
	return decimal.Zero
}

// Offers reports whether mod is a modification the item accepts.
func (i Item) Offers(mod string) bool {
	for _, m := range i.Modifications {
		if m == mod {
			return true
		}
	}
	_, ok := i.Surcharges[mod]
	return ok
}

// Validate checks the item's prices.
func (i Item) Validate() error {
	if i.Price.IsNegative() {
		return errors.Wrapf(ErrInvalidPrice, "item %d", i.ID)
	}
	for mod, s := range i.Surcharges {
		if s.IsNegative() {
			return errors.Wrapf(ErrInvalidPrice, "item %d modification %q", i.ID, mod)
		}
	}
	return nil
}

// DuplicateItemError indicates two catalog entries share an ID.
type DuplicateItemError struct {
	ID int
}

func (e *DuplicateItemError) Error() string {
	return fmt.Sprintf("duplicate menu item id %d", e.ID)
}

// Repository defines read operations for the menu catalog.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
}
