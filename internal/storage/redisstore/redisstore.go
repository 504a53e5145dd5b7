// Package redisstore keeps channel sessions in Redis and distributes status
// changes over Redis pub/sub.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/conejoswing/restoeasy/internal/domain/channel"
)

// DefaultPrefix namespaces every key and pub/sub channel.
const DefaultPrefix = "pos"

// NewClient connects to the Redis server at url and checks the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

var _ channel.SessionStore = (*SessionStore)(nil)

// SessionStore stores each channel session as a JSON value that expires
// after the session TTL, so a new service day starts clean.
type SessionStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewSessionStore returns a SessionStore writing keys with ttl.
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl, prefix: DefaultPrefix}
}

func (s *SessionStore) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

func (s *SessionStore) statusKey(id string) string {
	return fmt.Sprintf("%s:status:%s", s.prefix, id)
}

func (s *SessionStore) Load(ctx context.Context, channelID string) (channel.Session, error) {
	vals, err := s.rdb.MGet(ctx, s.sessionKey(channelID), s.statusKey(channelID)).Result()
	if err != nil {
		return channel.Session{}, fmt.Errorf("loading session %q: %w", channelID, err)
	}

	var out channel.Session
	if raw, ok := vals[0].(string); ok {
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return channel.Session{}, fmt.Errorf("decoding session %q: %w", channelID, err)
		}
	}
	if raw, ok := vals[1].(string); ok {
		out.Status = channel.Status(raw)
	}
	return out, nil
}

func (s *SessionStore) Save(ctx context.Context, channelID string, sess channel.Session) error {
	sess.Status = ""
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session %q: %w", channelID, err)
	}

	// Refresh the status TTL together with the session.
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.sessionKey(channelID), data, s.ttl)
	pipe.Expire(ctx, s.statusKey(channelID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving session %q: %w", channelID, err)
	}
	return nil
}

func (s *SessionStore) SaveStatus(ctx context.Context, channelID string, status channel.Status) error {
	if err := s.rdb.Set(ctx, s.statusKey(channelID), string(status), s.ttl).Err(); err != nil {
		return fmt.Errorf("saving status %q: %w", channelID, err)
	}
	return nil
}

var _ channel.Notifier = (*Notifier)(nil)

// Notifier publishes status events on a Redis pub/sub channel, so every
// server instance and every open overview page sees them.
type Notifier struct {
	rdb   *redis.Client
	topic string
}

// NewNotifier returns a Notifier on the default topic.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, topic: DefaultPrefix + ":status-events"}
}

func (n *Notifier) Publish(ctx context.Context, e channel.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	if err := n.rdb.Publish(ctx, n.topic, data).Err(); err != nil {
		return errors.Wrap(err, "publish event")
	}
	return nil
}

// Subscribe streams events until ctx is done. Malformed messages are skipped.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan channel.Event, error) {
	sub := n.rdb.Subscribe(ctx, n.topic)
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, errors.Wrap(err, "subscribe")
	}

	out := make(chan channel.Event)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e channel.Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
