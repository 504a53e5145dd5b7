// Package channel hosts the per-channel order state: the current order, the
// pending groups awaiting payment and the remembered delivery details of a
// table, counter or delivery channel.
package channel

import (
	"context"
	"slices"
	"strconv"

	"github.com/go-faster/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conejoswing/restoeasy/internal/domain/order"
)

var (
	// ErrUnknownChannel is returned for channel IDs outside the directory.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrNotDelivery is returned when delivery details are set on a
	// non-delivery channel.
	ErrNotDelivery = errors.New("channel does not take delivery orders")
)

// Kind classifies a channel.
type Kind string

const (
	KindTable    Kind = "table"
	KindCounter  Kind = "counter"
	KindDelivery Kind = "delivery"
)

// Status is the occupancy of a channel shown on the overview page.
type Status string

const (
	StatusAvailable Status = "available"
	StatusOccupied  Status = "occupied"
)

// Recompute derives the status of a channel. A channel is occupied when its
// current order is not empty, when it has pending groups or, for delivery
// channels, when any pending group carries delivery details.
func Recompute(delivery, currentNonEmpty bool, pending []order.PendingGroup) Status {
	if currentNonEmpty || len(pending) > 0 {
		return StatusOccupied
	}
	if delivery && slices.ContainsFunc(pending, func(g order.PendingGroup) bool { return g.Delivery != nil }) {
		return StatusOccupied
	}
	return StatusAvailable
}

// Session is the session-scoped state of one channel.
type Session struct {
	Current  []order.LineItem     `json:"current"`
	Pending  []order.PendingGroup `json:"pending"`
	Delivery *order.DeliveryInfo  `json:"delivery,omitempty"`
	Status   Status               `json:"status,omitempty"`
}

// SessionStore keeps channel sessions for the duration of a service day.
type SessionStore interface {
	// Load returns the stored session, or an empty one if none exists.
	Load(ctx context.Context, channelID string) (Session, error)
	// Save writes the orders and delivery details; Status is written by
	// SaveStatus only.
	Save(ctx context.Context, channelID string, s Session) error
	SaveStatus(ctx context.Context, channelID string, status Status) error
}

// Event announces a status change.
type Event struct {
	ChannelID string `json:"channel_id"`
	Status    Status `json:"status"`
}

// Notifier fans status changes out to listeners, such as the table overview
// page. Publishing never waits for listeners.
type Notifier interface {
	Publish(ctx context.Context, e Event) error
	// Subscribe returns a channel of events closed when ctx is done.
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Directory lists the channels of the restaurant: numbered tables plus named
// counter and delivery channels.
type Directory struct {
	Tables   int
	Counter  []string
	Delivery []string
}

// Lookup returns the kind of channel id.
func (d Directory) Lookup(id string) (Kind, bool) {
	if slices.Contains(d.Delivery, id) {
		return KindDelivery, true
	}
	if slices.Contains(d.Counter, id) {
		return KindCounter, true
	}
	if n, err := strconv.Atoi(id); err == nil && n >= 1 && n <= d.Tables && strconv.Itoa(n) == id {
		return KindTable, true
	}
	return "", false
}

// IDs returns every channel ID: tables first, then counters and delivery.
func (d Directory) IDs() []string {
	ids := make([]string, 0, d.Tables+len(d.Counter)+len(d.Delivery))
	for n := 1; n <= d.Tables; n++ {
		ids = append(ids, strconv.Itoa(n))
	}
	ids = append(ids, d.Counter...)
	return append(ids, d.Delivery...)
}

// Label is the name printed on tickets for channel id.
func Label(kind Kind, id string) string {
	if kind == KindTable {
		return "Table " + id
	}
	return cases.Title(language.Und).String(id)
}
