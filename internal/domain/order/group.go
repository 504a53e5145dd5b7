package order

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// MaxOrderNumber is the last order number before the counter wraps to 1.
const MaxOrderNumber = 999

var (
	// ErrEmptyOrder is returned when committing an order without lines.
	ErrEmptyOrder = errors.New("order is empty")
	// ErrDeliveryInfoRequired is returned when a delivery order is committed
	// before the customer's delivery details are known.
	ErrDeliveryInfoRequired = errors.New("delivery info required")
	// ErrInvalidDeliveryInfo is returned for incomplete delivery details or a
	// negative delivery fee.
	ErrInvalidDeliveryInfo = errors.New("invalid delivery info")
	// ErrNumbersExhausted is returned when every order number is held by a
	// pending group of the channel.
	ErrNumbersExhausted = errors.New("no free order number")
)

// PendingNotFoundError indicates no pending group carries the order number.
type PendingNotFoundError struct {
	Number int
}

func (e *PendingNotFoundError) Error() string {
	return fmt.Sprintf("pending order #%d not found", e.Number)
}

// DeliveryInfo holds the customer details of a delivery order.
type DeliveryInfo struct {
	Name    string          `json:"name"`
	Address string          `json:"address"`
	Phone   string          `json:"phone,omitempty"`
	Fee     decimal.Decimal `json:"fee"`
}

// Validate checks that the customer name and address are present and the fee
// is not negative.
func (d DeliveryInfo) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.Wrap(ErrInvalidDeliveryInfo, "name required")
	}
	if strings.TrimSpace(d.Address) == "" {
		return errors.Wrap(ErrInvalidDeliveryInfo, "address required")
	}
	if d.Fee.IsNegative() {
		return errors.Wrap(ErrInvalidDeliveryInfo, "fee must not be negative")
	}
	return nil
}

// PendingGroup is a committed, numbered order awaiting payment.
type PendingGroup struct {
	Number      int             `json:"number"`
	Lines       []LineItem      `json:"lines"`
	Delivery    *DeliveryInfo   `json:"delivery,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Observation string          `json:"observation,omitempty"`
	TipAmount   decimal.Decimal `json:"tip_amount"`
	TipIncluded bool            `json:"tip_included"`
}

// Subtotal returns Σ FinalPrice × Quantity over the group's lines.
func (g PendingGroup) Subtotal() decimal.Decimal {
	return Subtotal(g.Lines)
}

// Clone returns a deep copy of the group.
func (g PendingGroup) Clone() PendingGroup {
	g.Lines = cloneLines(g.Lines)
	if g.Delivery != nil {
		d := *g.Delivery
		g.Delivery = &d
	}
	return g
}

// NumberSource hands out order numbers. Implementations persist the last
// issued number durably; numbers are shared by every channel of the restaurant.
type NumberSource interface {
	Next(ctx context.Context) (int, error)
}

// NextNumber returns the number following last, wrapping after MaxOrderNumber.
func NextNumber(last int) int {
	return last%MaxOrderNumber + 1
}

// CommitOptions carries the per-channel context of a commit.
type CommitOptions struct {
	// Delivery marks the committing channel as a delivery channel.
	Delivery bool
	// DeliveryInfo is the remembered delivery info of the channel.
	DeliveryInfo *DeliveryInfo
	Observation  string
}

// Committer turns current orders into numbered pending groups.
type Committer struct {
	numbers NumberSource
	now     func() time.Time
}

// NewCommitter creates a Committer that draws numbers from numbers.
func NewCommitter(numbers NumberSource) *Committer {
	return &Committer{numbers: numbers, now: time.Now}
}

// Commit freezes lines into a new PendingGroup and returns it together with
// pending extended by the group, sorted by creation time. Neither lines nor
// pending are modified.
func (c *Committer) Commit(ctx context.Context, lines []LineItem, pending []PendingGroup, opts CommitOptions) (PendingGroup, []PendingGroup, error) {
	if len(lines) == 0 {
		return PendingGroup{}, nil, ErrEmptyOrder
	}
	if opts.Delivery && opts.DeliveryInfo == nil {
		return PendingGroup{}, nil, ErrDeliveryInfoRequired
	}

	number, err := c.nextFree(ctx, pending)
	if err != nil {
		return PendingGroup{}, nil, err
	}

	frozen := cloneLines(lines)
	for i := range frozen {
		frozen[i].OrderNumber = number
	}

	g := PendingGroup{
		Number:      number,
		Lines:       frozen,
		CreatedAt:   c.now(),
		Observation: strings.TrimSpace(opts.Observation),
		TipAmount:   decimal.Zero,
	}
	if opts.DeliveryInfo != nil {
		d := *opts.DeliveryInfo
		g.Delivery = &d
	}

	out := make([]PendingGroup, 0, len(pending)+1)
	out = append(out, pending...)
	out = append(out, g)
	slices.SortStableFunc(out, func(a, b PendingGroup) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return g.Clone(), out, nil
}

// nextFree draws numbers until one is not held by a pending group.
func (c *Committer) nextFree(ctx context.Context, pending []PendingGroup) (int, error) {
	held := make(map[int]struct{}, len(pending))
	for _, g := range pending {
		held[g.Number] = struct{}{}
	}
	for range MaxOrderNumber {
		n, err := c.numbers.Next(ctx)
		if err != nil {
			return 0, errors.Wrap(err, "next order number")
		}
		if _, ok := held[n]; !ok {
			return n, nil
		}
	}
	return 0, ErrNumbersExhausted
}

// FindPending returns the index of the group numbered n in pending.
func FindPending(pending []PendingGroup, n int) (int, error) {
	i := slices.IndexFunc(pending, func(g PendingGroup) bool { return g.Number == n })
	if i < 0 {
		return -1, &PendingNotFoundError{Number: n}
	}
	return i, nil
}
