package payment

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/conejoswing/restoeasy/internal/domain/order"
)

// Method is a payment method accepted by the restaurant.
type Method string

const (
	MethodCash       Method = "cash"
	MethodDebitCard  Method = "debit_card"
	MethodCreditCard Method = "credit_card"
	MethodTransfer   Method = "transfer"
)

// Methods lists every accepted payment method.
var Methods = []Method{MethodCash, MethodDebitCard, MethodCreditCard, MethodTransfer}

var (
	// ErrMethodRequired is returned when no payment method was selected.
	ErrMethodRequired = errors.New("payment method required")
	// ErrAlreadyConfirmed is returned when confirming a settlement twice.
	ErrAlreadyConfirmed = errors.New("settlement already confirmed")
)

// UnknownMethodError indicates a payment method outside Methods.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown payment method %q", e.Method)
}

// TotalMismatchError indicates the confirmed total differs from the computed one.
type TotalMismatchError struct {
	Expected decimal.Decimal
	Got      decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("total %s does not match computed total %s", e.Got, e.Expected)
}

// ParseMethod validates s as a payment method.
func ParseMethod(s string) (Method, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMethodRequired
	}
	for _, m := range Methods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", &UnknownMethodError{Method: s}
}

// State is the settlement state.
type State int

const (
	StateSelected State = iota
	StateAmountComputed
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateSelected:
		return "selected"
	case StateAmountComputed:
		return "amount_computed"
	case StateConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ChannelInfo describes the channel a group is settled on.
type ChannelInfo struct {
	ID       string
	Label    string
	Delivery bool
}

// Settlement is the payment of one pending group.
type Settlement struct {
	Group   order.PendingGroup
	Channel ChannelInfo

	State       State
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tip         decimal.Decimal
	Total       decimal.Decimal
	Method      Method
}

// Open selects group for payment and computes the amounts due.
func Open(group order.PendingGroup, ch ChannelInfo) *Settlement {
	s := &Settlement{Group: group.Clone(), Channel: ch, State: StateSelected}
	s.compute()
	return s
}

func (s *Settlement) compute() {
	s.Subtotal = s.Group.Subtotal()
	s.DeliveryFee = decimal.Zero
	if s.Channel.Delivery && s.Group.Delivery != nil && s.Group.Delivery.Fee.IsPositive() {
		s.DeliveryFee = s.Group.Delivery.Fee
	}
	s.Tip = s.Group.TipAmount
	s.Total = s.Subtotal.Add(s.DeliveryFee).Add(s.Tip)
	s.State = StateAmountComputed
}

// Confirm validates the method and the total. The total is recomputed from
// the group and must match the confirmed one exactly.
func (s *Settlement) Confirm(method Method, total decimal.Decimal) error {
	if s.State == StateConfirmed {
		return ErrAlreadyConfirmed
	}
	m, err := ParseMethod(string(method))
	if err != nil {
		return err
	}
	s.compute()
	if !s.Total.Equal(total) {
		return &TotalMismatchError{Expected: s.Total, Got: total}
	}
	s.Method = m
	s.State = StateConfirmed
	return nil
}
