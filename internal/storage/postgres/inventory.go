package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conejoswing/restoeasy/internal/domain/inventory"
)

const (
	listInventorySQL = `SELECT name, unit_price, stock FROM inventory_items ORDER BY name`

	upsertInventorySQL = `INSERT INTO inventory_items (key, name, unit_price, stock)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			unit_price = EXCLUDED.unit_price,
			stock = EXCLUDED.stock,
			updated_at = now()`

	listRulesSQL = `SELECT category, product, targets FROM deduction_rules ORDER BY category, product`

	deleteRulesSQL = `DELETE FROM deduction_rules`

	insertRuleSQL = `INSERT INTO deduction_rules (category, product, targets) VALUES ($1, $2, $3)`
)

var (
	_ inventory.Repository     = (*InventoryRepository)(nil)
	_ inventory.RuleRepository = (*InventoryRepository)(nil)
)

// InventoryRepository stores stock levels and deduction rules.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository returns an InventoryRepository that uses the given pool.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// List returns every inventory item ordered by name.
func (r *InventoryRepository) List(ctx context.Context) ([]inventory.Item, error) {
	rows, err := r.pool.Query(ctx, listInventorySQL)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (inventory.Item, error) {
		var it inventory.Item
		err := row.Scan(&it.Name, &it.UnitPrice, &it.Stock)
		return it, err
	})
}

// Save writes the snapshot in a single transaction. Items are matched by
// their normalized name.
func (r *InventoryRepository) Save(ctx context.Context, items []inventory.Item) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, it := range items {
			batch.Queue(upsertInventorySQL, inventory.Key(it.Name), it.Name, it.UnitPrice, it.Stock)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("saving inventory: %w", err)
		}
		return nil
	})
}

// ListRules returns the deduction rule table.
func (r *InventoryRepository) ListRules(ctx context.Context) ([]inventory.Rule, error) {
	rows, err := r.pool.Query(ctx, listRulesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing deduction rules: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (inventory.Rule, error) {
		var (
			rule    inventory.Rule
			targets []byte
		)
		if err := row.Scan(&rule.Category, &rule.Product, &targets); err != nil {
			return rule, err
		}
		if err := json.Unmarshal(targets, &rule.Targets); err != nil {
			return rule, fmt.Errorf("decoding targets of %s/%s: %w", rule.Category, rule.Product, err)
		}
		return rule, nil
	})
}

// ReplaceRules swaps the whole rule table atomically. Rules are validated
// before anything is written.
func (r *InventoryRepository) ReplaceRules(ctx context.Context, rules []inventory.Rule) error {
	if _, err := inventory.NewRuleTable(rules); err != nil {
		return fmt.Errorf("validating deduction rules: %w", err)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteRulesSQL); err != nil {
			return fmt.Errorf("clearing deduction rules: %w", err)
		}
		batch := &pgx.Batch{}
		for _, rule := range rules {
			targets, err := json.Marshal(rule.Targets)
			if err != nil {
				return fmt.Errorf("marshaling targets: %w", err)
			}
			batch.Queue(insertRuleSQL, rule.Category, rule.Product, targets)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting deduction rules: %w", err)
		}
		return nil
	})
}
