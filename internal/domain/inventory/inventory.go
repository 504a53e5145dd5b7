package inventory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Item is a raw stock item. Stock may go negative: a negative value is a
// reconciliation signal, not an error.
type Item struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int             `json:"stock"`
}

// Repository loads and stores inventory snapshots.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// Stock is the in-memory inventory. It is the source of truth between saves:
// a failed Save leaves the in-memory values in place and the next Save writes
// them again.
type Stock struct {
	repo Repository
	// saveMu orders saves so that a later snapshot is never overwritten by
	// an earlier one.
	saveMu sync.Mutex

	mu    sync.Mutex
	items []Item
	index map[string]int
}

// LoadStock reads the inventory from repo.
func LoadStock(ctx context.Context, repo Repository) (*Stock, error) {
	items, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list inventory")
	}
	return NewStock(repo, items), nil
}

// NewStock builds a Stock from items. Later duplicates of a key win.
func NewStock(repo Repository, items []Item) *Stock {
	s := &Stock{repo: repo, index: make(map[string]int, len(items))}
	for _, it := range items {
		k := Key(it.Name)
		if i, ok := s.index[k]; ok {
			s.items[i] = it
			continue
		}
		s.index[k] = len(s.items)
		s.items = append(s.items, it)
	}
	return s
}

// Snapshot returns a copy of every item.
func (s *Stock) Snapshot() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Get looks an item up by name, ignoring case and accents.
func (s *Stock) Get(name string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[Key(name)]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

// decrement subtracts n from the named item and returns the new stock.
func (s *Stock) decrement(name string, n int) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[Key(name)]
	if !ok {
		return Item{}, false
	}
	s.items[i].Stock -= n
	return s.items[i], true
}

// Save writes the current snapshot to the repository.
func (s *Stock) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.repo.Save(ctx, s.Snapshot()); err != nil {
		return errors.Wrap(err, "save inventory")
	}
	return nil
}
