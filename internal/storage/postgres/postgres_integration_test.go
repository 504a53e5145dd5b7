//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/conejoswing/restoeasy/internal/domain/auth"
	"github.com/conejoswing/restoeasy/internal/domain/inventory"
	"github.com/conejoswing/restoeasy/internal/domain/ledger"
	"github.com/conejoswing/restoeasy/internal/domain/menu"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "pos",
				"POSTGRES_PASSWORD": "pos",
				"POSTGRES_DB":       "pos",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = ctr.Terminate(context.Background()) }()

	host, err := ctr.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	testPool, err = NewPool(ctx, fmt.Sprintf("postgres://pos:pos@%s:%s/pos?sslmode=disable", host, port.Port()))
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	// Migrations are idempotent.
	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations again: %v", err)
	}

	return m.Run()
}

func TestOrderCounter_ConcurrentNext(t *testing.T) {
	ctx := context.Background()
	_, err := testPool.Exec(ctx, `UPDATE order_counter SET last_number = 990`)
	require.NoError(t, err)

	c := NewOrderCounter(testPool)
	var (
		mu   sync.Mutex
		seen = map[int]bool{}
		wg   sync.WaitGroup
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.Next(ctx)
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 20)
	for n := range seen {
		assert.True(t, n >= 1 && n <= 999, n)
	}
	assert.True(t, seen[999])
	assert.True(t, seen[1])
}

func TestMenuRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMenuRepository(testPool)

	items := []menu.Item{
		{
			ID: 1, Name: "Completo Italiano", Price: decimal.NewFromInt(4000), Category: "Completos",
			Modifications: []string{"Sin mayo"},
			Surcharges:    map[string]decimal.Decimal{"Cheese": decimal.NewFromInt(1000)},
			Ingredients:   []string{"Pan", "Vienesa"},
		},
		{ID: 2, Name: "Coca-Cola lata", Price: decimal.NewFromInt(1500), Category: "Bebidas"},
	}
	require.NoError(t, r.Upsert(ctx, items))
	items[1].Price = decimal.NewFromInt(1600)
	require.NoError(t, r.Upsert(ctx, items[1:]))

	got, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Completo Italiano", got[0].Name)
	assert.True(t, got[0].Surcharge("Cheese").Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, []string{"Sin mayo"}, got[0].Modifications)
	assert.True(t, got[1].Price.Equal(decimal.NewFromInt(1600)))
	assert.Nil(t, got[1].Surcharges)
}

func TestInventoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewInventoryRepository(testPool)

	require.NoError(t, r.Save(ctx, []inventory.Item{
		{Name: "Pan de completo", UnitPrice: decimal.NewFromInt(200), Stock: 10},
		{Name: "Vienesa", UnitPrice: decimal.NewFromInt(300), Stock: 5},
	}))
	require.NoError(t, r.Save(ctx, []inventory.Item{
		{Name: "Vienesa", UnitPrice: decimal.NewFromInt(300), Stock: -1},
	}))

	got, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[0].Stock)
	assert.Equal(t, -1, got[1].Stock)

	rules := []inventory.Rule{
		{Category: "Completos", Product: inventory.Wildcard, Targets: []inventory.Target{{Item: "Vienesa", Multiplier: 1}}},
	}
	require.NoError(t, r.ReplaceRules(ctx, rules))
	gotRules, err := r.ListRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, rules, gotRules)

	err = r.ReplaceRules(ctx, []inventory.Rule{{Category: "X", Product: "Y"}})
	require.Error(t, err)
	gotRules, err = r.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, gotRules, 1)
}

func TestLedgerRepository(t *testing.T) {
	ctx := context.Background()
	r := NewLedgerRepository(testPool)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mv := ledger.Movement{
		ID: "m1", CreatedAt: day.Add(13 * time.Hour), Category: ledger.CategorySale,
		Description: "Order #1 - Table 7", Amount: decimal.NewFromInt(9000), Method: "cash",
		DeliveryFee: decimal.Zero, Tip: decimal.NewFromInt(900), ChannelID: "7", OrderNumber: 1,
	}
	require.NoError(t, r.Append(ctx, mv))
	require.NoError(t, r.Append(ctx, ledger.Movement{
		ID: "m2", CreatedAt: day.Add(25 * time.Hour), Category: ledger.CategoryAdjustment,
		Description: "next day", Amount: decimal.NewFromInt(-500), DeliveryFee: decimal.Zero, Tip: decimal.Zero,
	}))

	got, err := r.List(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
	assert.True(t, got[0].Amount.Equal(mv.Amount))
	assert.True(t, got[0].Tip.Equal(mv.Tip))
	assert.Equal(t, 1, got[0].OrderNumber)
	assert.True(t, got[0].CreatedAt.Equal(mv.CreatedAt))
}

func TestAPIKeyRepository(t *testing.T) {
	ctx := context.Background()
	r := NewAPIKeyRepository(testPool)
	hash := auth.Hash([]byte("pepper"), "secret")

	require.NoError(t, r.Upsert(ctx, auth.APIKeyInfo{ID: "k1", KeyHash: hash, Name: "front", Role: auth.RoleCashier}))

	info, err := r.FindByHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleCashier, info.Role)

	_, err = r.FindByHash(ctx, "missing")
	assert.ErrorIs(t, err, auth.ErrKeyNotFound)
}
