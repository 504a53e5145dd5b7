package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/conejoswing/restoeasy/internal/domain/inventory"
	"github.com/conejoswing/restoeasy/internal/domain/ledger"
	"github.com/conejoswing/restoeasy/internal/domain/receipt"
)

// ErrNotConfirmed is returned when settling a settlement that was not confirmed.
var ErrNotConfirmed = errors.New("settlement not confirmed")

// Result summarizes a completed settlement.
type Result struct {
	Movement   ledger.Movement      `json:"movement"`
	Paid       decimal.Decimal      `json:"paid"`
	Advisories []inventory.Advisory `json:"advisories,omitempty"`
	// InventoryUnsaved is set when the inventory could not be written; the
	// deduction is kept in memory and written by the next save.
	InventoryUnsaved bool `json:"inventory_unsaved,omitempty"`
}

// Service applies the effects of confirmed settlements.
type Service struct {
	ledger    ledger.Repository
	deductor  *inventory.Deductor
	formatter receipt.Formatter
	printer   receipt.Printer
	lg        *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a payment Service.
func NewService(
	ledgerRepo ledger.Repository,
	deductor *inventory.Deductor,
	formatter receipt.Formatter,
	printer receipt.Printer,
	lg *zap.Logger,
) *Service {
	return &Service{
		ledger:    ledgerRepo,
		deductor:  deductor,
		formatter: formatter,
		printer:   printer,
		lg:        lg,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// Settle records a confirmed settlement: it appends the sale to the cash
// ledger, deducts inventory for every line and prints the final receipt.
//
// The ledger entry amount is the subtotal; delivery fee and tip are stored
// in their own fields. If the ledger append fails nothing else is applied.
func (s *Service) Settle(ctx context.Context, st *Settlement) (*Result, error) {
	if st.State != StateConfirmed {
		return nil, ErrNotConfirmed
	}

	now := s.now()
	mv := ledger.Movement{
		ID:          s.newID(),
		CreatedAt:   now,
		Category:    ledger.CategorySale,
		Description: fmt.Sprintf("Order #%d - %s", st.Group.Number, st.Channel.Label),
		Amount:      st.Subtotal,
		Method:      string(st.Method),
		DeliveryFee: st.DeliveryFee,
		Tip:         st.Tip,
		ChannelID:   st.Channel.ID,
		OrderNumber: st.Group.Number,
	}
	if err := s.ledger.Append(ctx, mv); err != nil {
		return nil, errors.Wrap(err, "append ledger movement")
	}

	res := &Result{Movement: mv, Paid: st.Total}
	for _, l := range st.Group.Lines {
		res.Advisories = append(res.Advisories, s.deductor.Deduct(ctx, inventory.Sold{
			Category: l.Category,
			Name:     l.Name,
			Quantity: l.Quantity,
		})...)
	}
	if err := s.deductor.Stock().Save(ctx); err != nil {
		s.lg.Error("Inventory not saved", zap.Error(err), zap.Int("order", st.Group.Number))
		res.InventoryUnsaved = true
	}

	tk := receipt.TicketFor(st.Channel.ID, st.Channel.Label, st.Group)
	s.printer.Print(ctx, receipt.Job{
		Kind:        receipt.KindFinalReceipt,
		ChannelID:   st.Channel.ID,
		OrderNumber: st.Group.Number,
		Markup: s.formatter.FinalReceipt(tk, receipt.Payment{
			Paid:        st.Total,
			Method:      string(st.Method),
			DeliveryFee: st.DeliveryFee,
			Tip:         st.Tip,
			PaidAt:      now,
		}),
	})

	s.lg.Info("Order settled",
		zap.Int("order", st.Group.Number),
		zap.String("channel", st.Channel.ID),
		zap.String("method", string(st.Method)),
		zap.String("subtotal", st.Subtotal.String()),
		zap.String("total", st.Total.String()),
		zap.Int("advisories", len(res.Advisories)),
	)

	return res, nil
}
