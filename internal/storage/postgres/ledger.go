package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conejoswing/restoeasy/internal/domain/ledger"
)

const (
	insertMovementSQL = `INSERT INTO cash_movements
		(id, created_at, category, description, amount, method, delivery_fee, tip, channel_id, order_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	listMovementsSQL = `SELECT id, created_at, category, description, amount, method, delivery_fee, tip, channel_id, order_number
		FROM cash_movements
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at, id`
)

var _ ledger.Repository = (*LedgerRepository)(nil)

// LedgerRepository implements ledger.Repository backed by PostgreSQL.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository returns a LedgerRepository that uses the given pool.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Append inserts m.
func (r *LedgerRepository) Append(ctx context.Context, m ledger.Movement) error {
	_, err := r.pool.Exec(ctx, insertMovementSQL,
		m.ID, m.CreatedAt, string(m.Category), m.Description, m.Amount, m.Method,
		m.DeliveryFee, m.Tip, m.ChannelID, m.OrderNumber,
	)
	if err != nil {
		return fmt.Errorf("appending movement %q: %w", m.ID, err)
	}
	return nil
}

// List returns movements created in [from, to).
func (r *LedgerRepository) List(ctx context.Context, from, to time.Time) ([]ledger.Movement, error) {
	rows, err := r.pool.Query(ctx, listMovementsSQL, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}
	return pgx.CollectRows(rows, scanMovement)
}

func scanMovement(row pgx.CollectableRow) (ledger.Movement, error) {
	var (
		m        ledger.Movement
		category string
	)
	err := row.Scan(
		&m.ID, &m.CreatedAt, &category, &m.Description, &m.Amount, &m.Method,
		&m.DeliveryFee, &m.Tip, &m.ChannelID, &m.OrderNumber,
	)
	m.Category = ledger.Category(category)
	return m, err
}
