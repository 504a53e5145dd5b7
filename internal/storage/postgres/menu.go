package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/conejoswing/restoeasy/internal/domain/menu"
)

const (
	listMenuSQL = `SELECT id, name, price, category, modifications, surcharges, ingredients
		FROM menu_items ORDER BY id`

	upsertMenuItemSQL = `INSERT INTO menu_items (id, name, price, category, modifications, surcharges, ingredients)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			modifications = EXCLUDED.modifications,
			surcharges = EXCLUDED.surcharges,
			ingredients = EXCLUDED.ingredients`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns the menu ordered by item ID.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// Upsert inserts or replaces items in one batch.
func (r *MenuRepository) Upsert(ctx context.Context, items []menu.Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		surcharges, err := json.Marshal(it.Surcharges)
		if err != nil {
			return fmt.Errorf("marshaling surcharges of item %d: %w", it.ID, err)
		}
		batch.Queue(upsertMenuItemSQL,
			it.ID, it.Name, it.Price, it.Category,
			nonNil(it.Modifications), surcharges, nonNil(it.Ingredients),
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting menu: %w", err)
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var (
		it         menu.Item
		surcharges []byte
	)
	if err := row.Scan(
		&it.ID, &it.Name, &it.Price, &it.Category,
		&it.Modifications, &surcharges, &it.Ingredients,
	); err != nil {
		return menu.Item{}, err
	}
	if len(surcharges) > 0 {
		var m map[string]decimal.Decimal
		if err := json.Unmarshal(surcharges, &m); err != nil {
			return menu.Item{}, fmt.Errorf("decoding surcharges of item %d: %w", it.ID, err)
		}
		if len(m) > 0 {
			it.Surcharges = m
		}
	}
	return it, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
