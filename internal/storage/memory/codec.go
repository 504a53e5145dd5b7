package memory

import (
	"encoding/json"
	"fmt"

	"github.com/conejoswing/restoeasy/internal/domain/channel"
)

func encodeSession(s channel.Session) ([]byte, error) {
	s.Status = ""
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	return data, nil
}

func decodeSession(data []byte, s *channel.Session) error {
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("decoding session: %w", err)
	}
	return nil
}
