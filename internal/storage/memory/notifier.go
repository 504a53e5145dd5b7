package memory

import (
	"context"
	"sync"

	"github.com/conejoswing/restoeasy/internal/domain/channel"
)

var _ channel.Notifier = (*Notifier)(nil)

// subscriberBuffer bounds the events queued for a slow subscriber; further
// events are dropped for that subscriber.
const subscriberBuffer = 64

// Notifier fans events out to in-process subscribers.
type Notifier struct {
	mu   sync.Mutex
	subs map[chan channel.Event]struct{}
}

// NewNotifier returns a Notifier without subscribers.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan channel.Event]struct{})}
}

// Publish delivers e to every subscriber without blocking.
func (n *Notifier) Publish(_ context.Context, e channel.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan channel.Event, error) {
	ch := make(chan channel.Event, subscriberBuffer)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs, ch)
		n.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}
