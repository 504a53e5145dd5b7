package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Category tags a cash movement.
type Category string

const (
	// CategorySale is recorded by payment settlement.
	CategorySale Category = "sale"
	// CategoryAdjustment is a manual correction entered by staff.
	CategoryAdjustment Category = "adjustment"
)

var (
	// ErrInvalidAdjustment is returned for adjustments without a description
	// or with a zero amount.
	ErrInvalidAdjustment = errors.New("invalid adjustment")
)

// Movement is an append-only cash ledger entry.
type Movement struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tip         decimal.Decimal `json:"tip"`
	ChannelID   string          `json:"channel_id,omitempty"`
	OrderNumber int             `json:"order_number,omitempty"`
}

// Repository stores movements. Movements are never updated or deleted.
type Repository interface {
	Append(ctx context.Context, m Movement) error
	// List returns movements created in [from, to) ordered by creation time.
	List(ctx context.Context, from, to time.Time) ([]Movement, error)
}

// Adjustment is the input of a manual ledger correction.
type Adjustment struct {
	Description string
	Amount      decimal.Decimal
	Method      string
}

// Validate checks the adjustment has a description and a non-zero amount.
func (a Adjustment) Validate() error {
	if strings.TrimSpace(a.Description) == "" {
		return errors.Wrap(ErrInvalidAdjustment, "description required")
	}
	if a.Amount.IsZero() {
		return errors.Wrap(ErrInvalidAdjustment, "amount must not be zero")
	}
	return nil
}

// Movement converts the adjustment into a ledger entry.
func (a Adjustment) Movement(id string, at time.Time) Movement {
	return Movement{
		ID:          id,
		CreatedAt:   at,
		Category:    CategoryAdjustment,
		Description: strings.TrimSpace(a.Description),
		Amount:      a.Amount,
		Method:      a.Method,
		DeliveryFee: decimal.Zero,
		Tip:         decimal.Zero,
	}
}
