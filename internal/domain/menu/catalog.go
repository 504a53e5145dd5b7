package menu

import (
	"context"

	"github.com/go-faster/errors"
)

// Catalog is an immutable, validated snapshot of the menu indexed by item ID.
type Catalog struct {
	items []Item
	byID  map[int]int
}

// NewCatalog validates items and builds a Catalog. Item order is preserved.
func NewCatalog(items []Item) (*Catalog, error) {
	c := &Catalog{
		items: make([]Item, len(items)),
		byID:  make(map[int]int, len(items)),
	}
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.byID[it.ID]; ok {
			return nil, &DuplicateItemError{ID: it.ID}
		}
		c.byID[it.ID] = i
		c.items[i] = it
	}
	return c, nil
}

// LoadCatalog reads the menu from repo and builds a Catalog.
func LoadCatalog(ctx context.Context, repo Repository) (*Catalog, error) {
	items, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list menu")
	}
	return NewCatalog(items)
}

// Get returns the item with the given ID.
func (c *Catalog) Get(id int) (Item, error) {
	idx, ok := c.byID[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return c.items[idx], nil
}

// Items returns a copy of all items in catalog order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}
