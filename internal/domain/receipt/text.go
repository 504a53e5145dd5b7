package receipt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DefaultWidth fits 58mm thermal printers.
const DefaultWidth = 32

// TextFormatter renders fixed-width plain text for thermal printers.
type TextFormatter struct {
	Width      int
	Restaurant string
}

var _ Formatter = TextFormatter{}

// KitchenTicket lists quantities, items, modifications and observations
// without prices.
func (f TextFormatter) KitchenTicket(t Ticket) string {
	var b strings.Builder
	f.rule(&b, '=')
	f.center(&b, "KITCHEN")
	f.header(&b, t)
	f.rule(&b, '-')
	for _, l := range t.Lines {
		fmt.Fprintf(&b, "%dx %s\n", l.Quantity, l.Name)
		for _, m := range l.Modifications {
			fmt.Fprintf(&b, "   + %s\n", m)
		}
		if l.Observation != "" {
			fmt.Fprintf(&b, "   * %s\n", l.Observation)
		}
	}
	if t.Observation != "" {
		f.rule(&b, '-')
		fmt.Fprintf(&b, "NOTE: %s\n", t.Observation)
	}
	f.delivery(&b, t, false)
	f.rule(&b, '=')
	return b.String()
}

// CustomerCopy lists priced lines, the optional suggested tip and the total.
func (f TextFormatter) CustomerCopy(t Ticket, tipIncluded bool, tip decimal.Decimal) string {
	var b strings.Builder
	f.rule(&b, '=')
	f.center(&b, f.Restaurant)
	f.center(&b, "CUSTOMER COPY")
	f.header(&b, t)
	f.rule(&b, '-')
	subtotal := f.lines(&b, t)
	f.rule(&b, '-')
	f.amount(&b, "Subtotal", subtotal)
	total := subtotal
	if fee := deliveryFee(t); fee.IsPositive() {
		f.amount(&b, "Delivery", fee)
		total = total.Add(fee)
	}
	if tipIncluded {
		f.amount(&b, "Tip (10%)", tip)
		total = total.Add(tip)
	}
	f.amount(&b, "TOTAL", total)
	f.delivery(&b, t, true)
	f.rule(&b, '=')
	return b.String()
}

// FinalReceipt lists priced lines and the settled amounts.
func (f TextFormatter) FinalReceipt(t Ticket, p Payment) string {
	var b strings.Builder
	f.rule(&b, '=')
	f.center(&b, f.Restaurant)
	f.center(&b, "RECEIPT")
	f.header(&b, t)
	f.rule(&b, '-')
	subtotal := f.lines(&b, t)
	f.rule(&b, '-')
	f.amount(&b, "Subtotal", subtotal)
	if p.DeliveryFee.IsPositive() {
		f.amount(&b, "Delivery", p.DeliveryFee)
	}
	if p.Tip.IsPositive() {
		f.amount(&b, "Tip", p.Tip)
	}
	f.amount(&b, "PAID", p.Paid)
	fmt.Fprintf(&b, "Method: %s\n", p.Method)
	if !p.PaidAt.IsZero() {
		fmt.Fprintf(&b, "%s\n", p.PaidAt.Format("2006-01-02 15:04"))
	}
	f.delivery(&b, t, true)
	f.rule(&b, '=')
	return b.String()
}

func (f TextFormatter) width() int {
	if f.Width <= 0 {
		return DefaultWidth
	}
	return f.Width
}

func (f TextFormatter) header(b *strings.Builder, t Ticket) {
	fmt.Fprintf(b, "%s  #%03d\n", t.ChannelLabel, t.OrderNumber)
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(b, "%s\n", t.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func (f TextFormatter) lines(b *strings.Builder, t Ticket) decimal.Decimal {
	subtotal := decimal.Zero
	for _, l := range t.Lines {
		amount := l.Amount()
		subtotal = subtotal.Add(amount)
		f.amount(b, fmt.Sprintf("%dx %s", l.Quantity, l.Name), amount)
		for _, m := range l.Modifications {
			fmt.Fprintf(b, "   + %s\n", m)
		}
	}
	return subtotal
}

func (f TextFormatter) delivery(b *strings.Builder, t Ticket, withFee bool) {
	if t.Delivery == nil {
		return
	}
	f.rule(b, '-')
	fmt.Fprintf(b, "Deliver to: %s\n", t.Delivery.Name)
	fmt.Fprintf(b, "%s\n", t.Delivery.Address)
	if t.Delivery.Phone != "" {
		fmt.Fprintf(b, "Tel: %s\n", t.Delivery.Phone)
	}
	if withFee && t.Delivery.Fee.IsPositive() {
		fmt.Fprintf(b, "Fee: %s\n", money(t.Delivery.Fee))
	}
}

// amount writes label and value on one line, value right-aligned.
func (f TextFormatter) amount(b *strings.Builder, label string, v decimal.Decimal) {
	value := money(v)
	pad := f.width() - utf8.RuneCountInString(label) - utf8.RuneCountInString(value)
	if pad < 1 {
		fmt.Fprintf(b, "%s\n%*s\n", label, f.width(), value)
		return
	}
	fmt.Fprintf(b, "%s%s%s\n", label, strings.Repeat(" ", pad), value)
}

func (f TextFormatter) center(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	pad := (f.width() - utf8.RuneCountInString(s)) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(b, "%s%s\n", strings.Repeat(" ", pad), s)
}

func (f TextFormatter) rule(b *strings.Builder, r rune) {
	b.WriteString(strings.Repeat(string(r), f.width()))
	b.WriteByte('\n')
}

func deliveryFee(t Ticket) decimal.Decimal {
	if t.Delivery == nil {
		return decimal.Zero
	}
	return t.Delivery.Fee
}

// money formats whole currency units with thousands separators: $12.345.
func money(v decimal.Decimal) string {
	s := v.Round(0).Abs().String()
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if v.IsNegative() {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
