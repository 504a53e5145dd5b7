// Package receipt defines the printable artifacts of an order: kitchen
// tickets, customer copies and final receipts.
package receipt

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/conejoswing/restoeasy/internal/domain/order"
)

// Kind identifies a printed artifact.
type Kind string

const (
	KindKitchenTicket Kind = "kitchen_ticket"
	KindCustomerCopy  Kind = "customer_copy"
	KindFinalReceipt  Kind = "final_receipt"
)

// Ticket is an immutable snapshot of a pending group for formatting.
type Ticket struct {
	ChannelID    string
	ChannelLabel string
	OrderNumber  int
	Lines        []order.LineItem
	Delivery     *order.DeliveryInfo
	Observation  string
	CreatedAt    time.Time
}

// TicketFor snapshots g for the given channel.
func TicketFor(channelID, label string, g order.PendingGroup) Ticket {
	g = g.Clone()
	return Ticket{
		ChannelID:    channelID,
		ChannelLabel: label,
		OrderNumber:  g.Number,
		Lines:        g.Lines,
		Delivery:     g.Delivery,
		Observation:  g.Observation,
		CreatedAt:    g.CreatedAt,
	}
}

// Payment holds the settled amounts printed on the final receipt.
type Payment struct {
	Paid        decimal.Decimal
	Method      string
	DeliveryFee decimal.Decimal
	Tip         decimal.Decimal
	PaidAt      time.Time
}

// Formatter renders tickets to printable markup. Implementations are pure.
type Formatter interface {
	KitchenTicket(t Ticket) string
	CustomerCopy(t Ticket, tipIncluded bool, tip decimal.Decimal) string
	FinalReceipt(t Ticket, p Payment) string
}

// Job is a unit of work for the print subsystem.
type Job struct {
	Kind        Kind   `json:"kind"`
	ChannelID   string `json:"channel_id"`
	OrderNumber int    `json:"order_number"`
	Markup      string `json:"markup"`
}

// Printer sends jobs to a printer. Printing is fire-and-forget: failures are
// handled (logged) by the implementation and never reported to the caller.
type Printer interface {
	Print(ctx context.Context, job Job)
}
