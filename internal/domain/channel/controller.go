package channel

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/conejoswing/restoeasy/internal/domain/menu"
	"github.com/conejoswing/restoeasy/internal/domain/order"
	"github.com/conejoswing/restoeasy/internal/domain/payment"
	"github.com/conejoswing/restoeasy/internal/domain/receipt"
)

// Deps holds the collaborators shared by every controller.
type Deps struct {
	Catalog   *menu.Catalog
	Committer *order.Committer
	Payments  *payment.Service
	Formatter receipt.Formatter
	Printer   receipt.Printer
	Store     SessionStore
	Notifier  Notifier
	Metrics   *Metrics
	Logger    *zap.Logger
}

// PendingView is a pending group with its computed subtotal.
type PendingView struct {
	order.PendingGroup
	Subtotal decimal.Decimal `json:"subtotal"`
}

// View is a read-only snapshot of a channel.
type View struct {
	ID           string              `json:"id"`
	Kind         Kind                `json:"kind"`
	Label        string              `json:"label"`
	Status       Status              `json:"status"`
	Current      []order.LineItem    `json:"current"`
	CurrentTotal decimal.Decimal     `json:"current_total"`
	Pending      []PendingView       `json:"pending"`
	Delivery     *order.DeliveryInfo `json:"delivery,omitempty"`
	// Unsaved is set while the last session write failed.
	Unsaved bool `json:"unsaved,omitempty"`
}

// Controller owns the state of one channel. Operations are serialized; every
// mutation is written to the session store and followed by a status
// recomputation.
type Controller struct {
	id    string
	kind  Kind
	label string
	deps  Deps
	lg    *zap.Logger

	mu       sync.Mutex
	builder  *order.Builder
	pending  []order.PendingGroup
	delivery *order.DeliveryInfo
	status   Status
	unsaved  bool
}

// Open restores the controller of channel id from the session store.
func Open(ctx context.Context, id string, kind Kind, deps Deps) (*Controller, error) {
	s, err := deps.Store.Load(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "load session %q", id)
	}
	c := &Controller{
		id:       id,
		kind:     kind,
		label:    Label(kind, id),
		deps:     deps,
		lg:       deps.Logger.With(zap.String("channel", id)),
		builder:  order.NewBuilder(s.Current),
		pending:  s.Pending,
		delivery: s.Delivery,
		status:   s.Status,
	}
	if c.status == "" {
		c.status = StatusAvailable
	}
	// A stale stored status is corrected on load.
	c.propagate(ctx)
	return c, nil
}

// ID returns the channel ID.
func (c *Controller) ID() string { return c.id }

// Kind returns the channel kind.
func (c *Controller) Kind() Kind { return c.kind }

// Label returns the channel label.
func (c *Controller) Label() string { return c.label }

// Status returns the last propagated status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// View returns a snapshot of the channel.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		ID:           c.id,
		Kind:         c.kind,
		Label:        c.label,
		Status:       c.status,
		Current:      c.builder.Lines(),
		CurrentTotal: c.builder.Total(),
		Pending:      make([]PendingView, 0, len(c.pending)),
		Unsaved:      c.unsaved,
	}
	for _, g := range c.pending {
		v.Pending = append(v.Pending, PendingView{PendingGroup: g.Clone(), Subtotal: g.Subtotal()})
	}
	if c.delivery != nil {
		d := *c.delivery
		v.Delivery = &d
	}
	return v
}

// AddItem adds one unit of a menu item to the current order.
func (c *Controller) AddItem(ctx context.Context, menuItemID int, modifications []string, observation string) (order.LineItem, error) {
	item, err := c.deps.Catalog.Get(menuItemID)
	if err != nil {
		return order.LineItem{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := c.builder.Add(item, modifications, observation)
	if err != nil {
		return order.LineItem{}, err
	}
	c.changed(ctx)
	return line, nil
}

// RemoveItem deletes a line of the current order.
func (c *Controller) RemoveItem(ctx context.Context, lineID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.builder.Remove(lineID); err != nil {
		return err
	}
	c.changed(ctx)
	return nil
}

// ChangeQuantity adjusts the quantity of a line, never below one.
func (c *Controller) ChangeQuantity(ctx context.Context, lineID string, delta int) (order.LineItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := c.builder.ChangeQuantity(lineID, delta)
	if err != nil {
		return order.LineItem{}, err
	}
	c.changed(ctx)
	return line, nil
}

// DiscardCurrent empties the current order. Pending groups are kept.
func (c *Controller) DiscardCurrent(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.builder.Reset()
	c.changed(ctx)
}

// SetDelivery remembers the customer details used by the next commit of a
// delivery channel.
func (c *Controller) SetDelivery(ctx context.Context, info order.DeliveryInfo) error {
	if c.kind != KindDelivery {
		return ErrNotDelivery
	}
	if err := info.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.delivery = &info
	c.changed(ctx)
	return nil
}

// Commit turns the current order into a numbered pending group and sends
// the kitchen ticket to the printer.
func (c *Controller) Commit(ctx context.Context, observation string) (order.PendingGroup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, pending, err := c.deps.Committer.Commit(ctx, c.builder.Lines(), c.pending, order.CommitOptions{
		Delivery:     c.kind == KindDelivery,
		DeliveryInfo: c.delivery,
		Observation:  observation,
	})
	if err != nil {
		return order.PendingGroup{}, err
	}
	c.pending = pending
	c.builder.Reset()
	c.changed(ctx)

	c.print(ctx, receipt.KindKitchenTicket, g, c.deps.Formatter.KitchenTicket(receipt.TicketFor(c.id, c.label, g)))
	c.deps.Metrics.orderCommitted(ctx, c.kind)
	c.lg.Info("Order committed",
		zap.Int("order", g.Number),
		zap.Int("lines", len(g.Lines)),
		zap.String("subtotal", g.Subtotal().String()),
	)
	return g.Clone(), nil
}

// ReprintKitchenTicket prints the kitchen ticket of a pending group again.
func (c *Controller) ReprintKitchenTicket(ctx context.Context, number int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := order.FindPending(c.pending, number)
	if err != nil {
		return err
	}
	g := c.pending[i]
	c.print(ctx, receipt.KindKitchenTicket, g, c.deps.Formatter.KitchenTicket(receipt.TicketFor(c.id, c.label, g)))
	return nil
}

// PrintCustomerCopy records the tip decision on a pending group and prints
// the customer copy.
func (c *Controller) PrintCustomerCopy(ctx context.Context, number int, includeTip bool) (order.PendingGroup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := order.FindPending(c.pending, number)
	if err != nil {
		return order.PendingGroup{}, err
	}
	tip := order.DecideTip(&c.pending[i], includeTip)
	c.changed(ctx)

	g := c.pending[i].Clone()
	c.print(ctx, receipt.KindCustomerCopy, g, c.deps.Formatter.CustomerCopy(receipt.TicketFor(c.id, c.label, g), includeTip, tip))
	return g, nil
}

// OpenPayment selects a pending group for payment and returns the amounts due.
func (c *Controller) OpenPayment(_ context.Context, number int) (*payment.Settlement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := order.FindPending(c.pending, number)
	if err != nil {
		return nil, err
	}
	return payment.Open(c.pending[i], c.channelInfo()), nil
}

// Settle confirms the payment of a pending group. On success the group is
// removed; the sale is recorded, stock is deducted and the final receipt is
// printed by the payment service.
func (c *Controller) Settle(ctx context.Context, number int, method payment.Method, total decimal.Decimal) (*payment.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := order.FindPending(c.pending, number)
	if err != nil {
		return nil, err
	}
	st := payment.Open(c.pending[i], c.channelInfo())
	if err := st.Confirm(method, total); err != nil {
		return nil, err
	}
	res, err := c.deps.Payments.Settle(ctx, st)
	if err != nil {
		return nil, errors.Wrapf(err, "settle order %d", number)
	}

	c.removePending(i)
	c.changed(ctx)

	amount, _ := res.Paid.Float64()
	c.deps.Metrics.orderSettled(ctx, c.kind, string(st.Method), amount, len(res.Advisories))
	return res, nil
}

// DeletePending drops a pending group without recording a sale.
func (c *Controller) DeletePending(ctx context.Context, number int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := order.FindPending(c.pending, number)
	if err != nil {
		return err
	}
	c.removePending(i)
	c.changed(ctx)
	c.lg.Info("Pending order deleted", zap.Int("order", number))
	return nil
}

func (c *Controller) channelInfo() payment.ChannelInfo {
	return payment.ChannelInfo{ID: c.id, Label: c.label, Delivery: c.kind == KindDelivery}
}

// removePending drops pending group i and forgets the remembered delivery
// details once nothing refers to them anymore.
func (c *Controller) removePending(i int) {
	c.pending = slices.Delete(c.pending, i, i+1)
	if len(c.pending) == 0 {
		c.pending = nil
	}
	if c.delivery == nil || !c.builder.Empty() {
		return
	}
	if !slices.ContainsFunc(c.pending, func(g order.PendingGroup) bool { return g.Delivery != nil }) {
		c.delivery = nil
	}
}

// changed persists the session and propagates the status. Must be called
// with mu held.
func (c *Controller) changed(ctx context.Context) {
	c.persist(ctx)
	c.propagate(ctx)
}

func (c *Controller) persist(ctx context.Context) {
	err := c.deps.Store.Save(ctx, c.id, Session{
		Current:  c.builder.Lines(),
		Pending:  c.pending,
		Delivery: c.delivery,
	})
	if err != nil {
		// In-memory state stays authoritative; the next mutation writes again.
		c.lg.Error("Save session", zap.Error(err))
		c.deps.Metrics.sessionSaveFailed(ctx)
		c.unsaved = true
		return
	}
	c.unsaved = false
}

func (c *Controller) propagate(ctx context.Context) {
	status := Recompute(c.kind == KindDelivery, !c.builder.Empty(), c.pending)
	if status == c.status {
		return
	}
	c.status = status
	if err := c.deps.Store.SaveStatus(ctx, c.id, status); err != nil {
		c.lg.Error("Save status", zap.Error(err))
	}
	if err := c.deps.Notifier.Publish(ctx, Event{ChannelID: c.id, Status: status}); err != nil {
		c.lg.Error("Publish status", zap.Error(err))
	}
}

func (c *Controller) print(ctx context.Context, kind receipt.Kind, g order.PendingGroup, markup string) {
	c.deps.Printer.Print(ctx, receipt.Job{
		Kind:        kind,
		ChannelID:   c.id,
		OrderNumber: g.Number,
		Markup:      markup,
	})
}
