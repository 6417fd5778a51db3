package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the persisted representation of a Session.
type Snapshot struct {
	// ID is the client identifier.
	ID string `json:"id"`

	// CreatedAt is when the client was first seen.
	CreatedAt time.Time `json:"created_at"`

	// LastActive is when the session was last saved.
	LastActive time.Time `json:"last_active"`

	// Values holds the stored key/value pairs.
	Values map[string]json.RawMessage `json:"values,omitempty"`

	// Version is the serialization format version.
	Version int `json:"version"`
}

// CurrentSerializationVersion is the current version of the format.
// Increment when making breaking changes.
const CurrentSerializationVersion = 1

// Serialize converts a Snapshot to bytes.
func Serialize(s *Snapshot) ([]byte, error) {
	s.Version = CurrentSerializationVersion
	return json.Marshal(s)
}

// Deserialize converts bytes back to a Snapshot. Snapshots written by a
// newer format version are rejected.
func Deserialize(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Version > CurrentSerializationVersion {
		return nil, fmt.Errorf("session: unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}
