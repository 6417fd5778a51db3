package session

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Session is the key/value storage of one client. It is safe for
// concurrent use.
type Session struct {
	id        string
	createdAt time.Time

	mu         sync.RWMutex
	values     map[string]json.RawMessage
	lastActive time.Time
	dirty      bool
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		id:         id,
		createdAt:  now,
		lastActive: now,
		values:     make(map[string]json.RawMessage),
	}
}

func fromSnapshot(s *Snapshot) *Session {
	values := s.Values
	if values == nil {
		values = make(map[string]json.RawMessage)
	}
	return &Session{
		id:         s.ID,
		createdAt:  s.CreatedAt,
		lastActive: s.LastActive,
		values:     values,
	}
}

// ID returns the client identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the client was first seen.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Get returns the raw JSON stored under key.
func (s *Session) Get(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Decode unmarshals the value stored under key into v. It reports whether
// the key was present.
func (s *Session) Decode(key string, v any) (bool, error) {
	raw, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// Set stores v under key as JSON.
func (s *Session) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = raw
	s.dirty = true
	s.mu.Unlock()
	return nil
}

// GetString returns the string stored under key, or "" when missing or
// not a string.
func (s *Session) GetString(key string) string {
	var v string
	if ok, err := s.Decode(key, &v); !ok || err != nil {
		return ""
	}
	return v
}

// SetString stores a string under key.
func (s *Session) SetString(key, v string) {
	// Marshaling a string cannot fail.
	_ = s.Set(key, v)
}

// GetBool returns the bool stored under key, or false.
func (s *Session) GetBool(key string) bool {
	var v bool
	if ok, err := s.Decode(key, &v); !ok || err != nil {
		return false
	}
	return v
}

// Delete removes key.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// Keys returns the stored keys in sorted order.
func (s *Session) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear removes every key.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) > 0 {
		s.values = make(map[string]json.RawMessage)
		s.dirty = true
	}
}

// Dirty reports whether the session changed since it was last saved.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Session) snapshot(now time.Time) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = now
	values := make(map[string]json.RawMessage, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return &Snapshot{
		ID:         s.id,
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
		Values:     values,
	}
}

func (s *Session) markClean() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}
