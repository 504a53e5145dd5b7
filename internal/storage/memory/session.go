// Package memory provides in-process implementations of the storage and
// notification interfaces, used for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/conejoswing/restoeasy/internal/domain/channel"
)

var _ channel.SessionStore = (*SessionStore)(nil)

// SessionStore keeps channel sessions in a map. Sessions are stored as JSON
// copies so callers never share memory with the store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	statuses map[string]channel.Status
}

// NewSessionStore returns an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string][]byte),
		statuses: make(map[string]channel.Status),
	}
}

func (s *SessionStore) Load(_ context.Context, channelID string) (channel.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out channel.Session
	if data, ok := s.sessions[channelID]; ok {
		if err := decodeSession(data, &out); err != nil {
			return channel.Session{}, err
		}
	}
	out.Status = s.statuses[channelID]
	return out, nil
}

func (s *SessionStore) Save(_ context.Context, channelID string, sess channel.Session) error {
	data, err := encodeSession(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[channelID] = data
	return nil
}

func (s *SessionStore) SaveStatus(_ context.Context, channelID string, status channel.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[channelID] = status
	return nil
}
