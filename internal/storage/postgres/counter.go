package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conejoswing/restoeasy/internal/domain/order"
)

// The increment runs in one statement so concurrent commits never draw the
// same number.
const nextOrderNumberSQL = `UPDATE order_counter
	SET last_number = last_number % $1 + 1
	WHERE id = 1
	RETURNING last_number`

var _ order.NumberSource = (*OrderCounter)(nil)

// OrderCounter issues order numbers from the order_counter row.
type OrderCounter struct {
	pool *pgxpool.Pool
}

// NewOrderCounter returns an OrderCounter that uses the given pool.
func NewOrderCounter(pool *pgxpool.Pool) *OrderCounter {
	return &OrderCounter{pool: pool}
}

// Next advances the counter, wrapping after order.MaxOrderNumber.
func (c *OrderCounter) Next(ctx context.Context) (int, error) {
	var n int
	if err := c.pool.QueryRow(ctx, nextOrderNumberSQL, order.MaxOrderNumber).Scan(&n); err != nil {
		return 0, fmt.Errorf("next order number: %w", err)
	}
	return n, nil
}
