package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/conejoswing/restoeasy/internal/domain/auth"
	"github.com/conejoswing/restoeasy/internal/domain/inventory"
	"github.com/conejoswing/restoeasy/internal/domain/ledger"
	"github.com/conejoswing/restoeasy/internal/domain/menu"
	"github.com/conejoswing/restoeasy/internal/domain/order"
)

var (
	_ order.NumberSource       = (*Counter)(nil)
	_ menu.Repository          = (*MenuRepository)(nil)
	_ inventory.Repository     = (*InventoryRepository)(nil)
	_ inventory.RuleRepository = (*RuleRepository)(nil)
	_ ledger.Repository        = (*LedgerRepository)(nil)
	_ auth.Repository          = (*APIKeyRepository)(nil)
)

// Counter issues order numbers from memory.
type Counter struct {
	mu   sync.Mutex
	last int
}

// NewCounter returns a Counter whose next number follows last.
func NewCounter(last int) *Counter {
	return &Counter{last: last}
}

func (c *Counter) Next(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = order.NextNumber(c.last)
	return c.last, nil
}

// MenuRepository serves a fixed menu.
type MenuRepository struct {
	items []menu.Item
}

// NewMenuRepository returns a MenuRepository serving items.
func NewMenuRepository(items []menu.Item) *MenuRepository {
	return &MenuRepository{items: slices.Clone(items)}
}

func (r *MenuRepository) List(_ context.Context) ([]menu.Item, error) {
	return slices.Clone(r.items), nil
}

// InventoryRepository keeps the last saved inventory snapshot.
type InventoryRepository struct {
	mu    sync.Mutex
	items []inventory.Item
}

// NewInventoryRepository returns an InventoryRepository holding items.
func NewInventoryRepository(items []inventory.Item) *InventoryRepository {
	return &InventoryRepository{items: slices.Clone(items)}
}

func (r *InventoryRepository) List(_ context.Context) ([]inventory.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items), nil
}

func (r *InventoryRepository) Save(_ context.Context, items []inventory.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = slices.Clone(items)
	return nil
}

// RuleRepository serves a fixed deduction rule table.
type RuleRepository struct {
	rules []inventory.Rule
}

// NewRuleRepository returns a RuleRepository serving rules.
func NewRuleRepository(rules []inventory.Rule) *RuleRepository {
	return &RuleRepository{rules: slices.Clone(rules)}
}

func (r *RuleRepository) ListRules(_ context.Context) ([]inventory.Rule, error) {
	return slices.Clone(r.rules), nil
}

// LedgerRepository is an append-only in-memory ledger.
type LedgerRepository struct {
	mu        sync.RWMutex
	movements []ledger.Movement
}

// NewLedgerRepository returns an empty LedgerRepository.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

func (r *LedgerRepository) Append(_ context.Context, m ledger.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, m)
	return nil
}

func (r *LedgerRepository) List(_ context.Context, from, to time.Time) ([]ledger.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ledger.Movement
	for _, m := range r.movements {
		if !m.CreatedAt.Before(from) && m.CreatedAt.Before(to) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b ledger.Movement) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// APIKeyRepository holds API keys by hash.
type APIKeyRepository struct {
	mu   sync.RWMutex
	keys map[string]auth.APIKeyInfo
}

// NewAPIKeyRepository returns an empty APIKeyRepository.
func NewAPIKeyRepository() *APIKeyRepository {
	return &APIKeyRepository{keys: make(map[string]auth.APIKeyInfo)}
}

// Add stores info under its hash.
func (r *APIKeyRepository) Add(info auth.APIKeyInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[info.KeyHash] = info
}

func (r *APIKeyRepository) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.keys[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	return &info, nil
}
