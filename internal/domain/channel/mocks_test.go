package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/conejoswing/restoeasy/internal/domain/inventory"
	"github.com/conejoswing/restoeasy/internal/domain/ledger"
	"github.com/conejoswing/restoeasy/internal/domain/menu"
	"github.com/conejoswing/restoeasy/internal/domain/order"
	"github.com/conejoswing/restoeasy/internal/domain/payment"
	"github.com/conejoswing/restoeasy/internal/domain/receipt"
)

// --- Mock implementations ---

type mockStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	statuses map[string]Status
	saves    int
	saveErr  error
}

func newMockStore() *mockStore {
	return &mockStore{sessions: map[string]Session{}, statuses: map[string]Status{}}
}

func (m *mockStore) Load(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sessions[id]
	s.Status = m.statuses[id]
	return s, nil
}

func (m *mockStore) Save(_ context.Context, id string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.sessions[id] = s
	return nil
}

func (m *mockStore) SaveStatus(_ context.Context, id string, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[id] = st
	return nil
}

type mockNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (m *mockNotifier) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *mockNotifier) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type mockPrinter struct {
	mu   sync.Mutex
	jobs []receipt.Job
}

func (m *mockPrinter) Print(_ context.Context, job receipt.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *mockPrinter) kinds() []receipt.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]receipt.Kind, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = j.Kind
	}
	return out
}

type mockNumbers struct {
	mu   sync.Mutex
	last int
}

func (m *mockNumbers) Next(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = order.NextNumber(m.last)
	return m.last, nil
}

type mockLedger struct {
	mu        sync.Mutex
	movements []ledger.Movement
	err       error
}

func (m *mockLedger) Append(_ context.Context, mv ledger.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.movements = append(m.movements, mv)
	return nil
}

func (m *mockLedger) List(_ context.Context, _, _ time.Time) ([]ledger.Movement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.movements, nil
}

type mockInventory struct {
	items []inventory.Item
}

func (m *mockInventory) List(_ context.Context) ([]inventory.Item, error) {
	return m.items, nil
}

func (m *mockInventory) Save(_ context.Context, items []inventory.Item) error {
	m.items = items
	return nil
}

// --- Helpers ---

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

const (
	itemItaliano = 1
	itemBebida   = 2
)

type fixture struct {
	deps     Deps
	store    *mockStore
	notifier *mockNotifier
	printer  *mockPrinter
	ledger   *mockLedger
	stock    *inventory.Stock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	catalog, err := menu.NewCatalog([]menu.Item{
		{
			ID: itemItaliano, Name: "Completo Italiano", Category: "Completos", Price: dec(4000),
			Modifications: []string{"Sin mayo"},
			Surcharges:    map[string]decimal.Decimal{"Cheese": dec(1000)},
		},
		{ID: itemBebida, Name: "Coca-Cola lata", Category: "Bebidas", Price: dec(1500)},
	})
	require.NoError(t, err)

	rules, err := inventory.NewRuleTable([]inventory.Rule{
		{Category: "Completos", Product: inventory.Wildcard, Targets: []inventory.Target{
			{Item: "Pan de completo", Multiplier: 1},
			{Item: "Vienesa", Multiplier: 1},
		}},
		{Category: "Bebidas", Product: inventory.Wildcard, Targets: []inventory.Target{
			{Item: inventory.Wildcard, Multiplier: 1},
		}},
	})
	require.NoError(t, err)
	stock, err := inventory.LoadStock(ctx, &mockInventory{items: []inventory.Item{
		{Name: "Pan de completo", UnitPrice: dec(200), Stock: 20},
		{Name: "Vienesa", UnitPrice: dec(300), Stock: 20},
		{Name: "Coca-Cola lata", UnitPrice: dec(700), Stock: 10},
	}})
	require.NoError(t, err)

	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	f := &fixture{
		store:    newMockStore(),
		notifier: &mockNotifier{},
		printer:  &mockPrinter{},
		ledger:   &mockLedger{},
		stock:    stock,
	}
	formatter := receipt.TextFormatter{Restaurant: "Test"}
	f.deps = Deps{
		Catalog:   catalog,
		Committer: order.NewCommitter(&mockNumbers{}),
		Payments: payment.NewService(f.ledger, inventory.NewDeductor(rules, stock, zap.NewNop()),
			formatter, f.printer, zap.NewNop()),
		Formatter: formatter,
		Printer:   f.printer,
		Store:     f.store,
		Notifier:  f.notifier,
		Metrics:   metrics,
		Logger:    zap.NewNop(),
	}
	return f
}

func (f *fixture) open(t *testing.T, id string, kind Kind) *Controller {
	t.Helper()
	c, err := Open(context.Background(), id, kind, f.deps)
	require.NoError(t, err)
	return c
}

func stockOf(t *testing.T, s *inventory.Stock, name string) int {
	t.Helper()
	it, ok := s.Get(name)
	require.True(t, ok)
	return it.Stock
}
