package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock implementations ---

type mockRepo struct {
	items   []Item
	saved   []Item
	saveErr error
}

func (m *mockRepo) List(_ context.Context) ([]Item, error) {
	return m.items, nil
}

func (m *mockRepo) Save(_ context.Context, items []Item) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = items
	return nil
}

// blockingRepo blocks its first Save until release is closed.
type blockingRepo struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
	saved   []Item
}

func (m *blockingRepo) List(_ context.Context) ([]Item, error) {
	return nil, nil
}

func (m *blockingRepo) Save(_ context.Context, items []Item) error {
	m.mu.Lock()
	m.calls++
	first := m.calls == 1
	m.mu.Unlock()
	if first {
		close(m.entered)
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = items
	return nil
}

// --- Helpers ---

func newTestDeductor(t *testing.T, items ...Item) (*Deductor, *mockRepo) {
	t.Helper()
	table, err := NewRuleTable(testRules())
	require.NoError(t, err)
	repo := &mockRepo{items: items}
	stock, err := LoadStock(context.Background(), repo)
	require.NoError(t, err)
	return NewDeductor(table, stock, zap.NewNop()), repo
}

func stockOf(t *testing.T, d *Deductor, name string) int {
	t.Helper()
	it, ok := d.Stock().Get(name)
	require.True(t, ok, "item %q", name)
	return it.Stock
}

// --- Tests ---

func TestDeduct_MultipliesByQuantity(t *testing.T) {
	d, _ := newTestDeductor(t,
		Item{Name: "Pan de Completo", UnitPrice: decimal.NewFromInt(200), Stock: 50},
		Item{Name: "Vienesa", UnitPrice: decimal.NewFromInt(300), Stock: 50},
	)

	adv := d.Deduct(context.Background(), Sold{Category: "Completos", Name: "Completo Doble", Quantity: 3})

	assert.Empty(t, adv)
	assert.Equal(t, 47, stockOf(t, d, "pan de completo"))
	assert.Equal(t, 44, stockOf(t, d, "VIENESA"))
}

func TestDeduct_MissingTargetContinues(t *testing.T) {
	d, _ := newTestDeductor(t,
		Item{Name: "Pan de completo", Stock: 10},
	)

	adv := d.Deduct(context.Background(), Sold{Category: "Promociones", Name: "Combo Completo", Quantity: 2})

	require.Len(t, adv, 1)
	assert.Equal(t, AdvisoryMissingTarget, adv[0].Kind)
	assert.Equal(t, "Coca-Cola lata", adv[0].Item)
	assert.Equal(t, 6, stockOf(t, d, "Pan de completo"))
}

func TestDeduct_NegativeStockIsAdvisory(t *testing.T) {
	d, _ := newTestDeductor(t,
		Item{Name: "Fanta", Stock: 1},
	)

	adv := d.Deduct(context.Background(), Sold{Category: "Bebidas", Name: "Fanta", Quantity: 3})

	require.Len(t, adv, 1)
	assert.Equal(t, AdvisoryNegativeStock, adv[0].Kind)
	assert.Equal(t, -2, adv[0].Stock)
	assert.Equal(t, -2, stockOf(t, d, "fanta"))
	assert.Contains(t, adv[0].String(), "-2")
}

func TestDeduct_UnmappedProduct(t *testing.T) {
	d, _ := newTestDeductor(t, Item{Name: "Helado", Stock: 5})

	adv := d.Deduct(context.Background(), Sold{Category: "Postres", Name: "Helado", Quantity: 1})

	assert.Empty(t, adv)
	assert.Equal(t, 5, stockOf(t, d, "Helado"))
}

func TestStock_Save(t *testing.T) {
	d, repo := newTestDeductor(t, Item{Name: "Fanta", Stock: 4})
	d.Deduct(context.Background(), Sold{Category: "Bebidas", Name: "Fanta", Quantity: 1})

	require.NoError(t, d.Stock().Save(context.Background()))
	require.Len(t, repo.saved, 1)
	assert.Equal(t, 3, repo.saved[0].Stock)

	repo.saveErr = errors.New("disk full")
	d.Deduct(context.Background(), Sold{Category: "Bebidas", Name: "Fanta", Quantity: 1})
	require.Error(t, d.Stock().Save(context.Background()))
	assert.Equal(t, 2, stockOf(t, d, "Fanta"), "memory stays authoritative")
}

func TestStock_SaveKeepsLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := &blockingRepo{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewStock(repo, []Item{{Name: "Vienesa", Stock: 10}})

	_, ok := s.decrement("Vienesa", 1)
	require.True(t, ok)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Save(ctx))
	}()
	<-repo.entered

	_, ok = s.decrement("Vienesa", 1)
	require.True(t, ok)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Save(ctx))
	}()

	// Give the second save a chance to race the first one.
	time.Sleep(20 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	it, ok := s.Get("Vienesa")
	require.True(t, ok)
	assert.Equal(t, 8, it.Stock)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, it.Stock, repo.saved[0].Stock)
}
