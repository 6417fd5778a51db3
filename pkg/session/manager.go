package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long client storage survives without activity.
const DefaultTTL = 30 * 24 * time.Hour

// Manager opens and persists client sessions through a Store.
type Manager struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTTL sets the inactivity TTL. Default: DefaultTTL.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a session manager over store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	return m
}

// NewID returns a fresh client identifier.
func NewID() string {
	return uuid.NewString()
}

// Open loads the session for id. An empty, malformed or unknown id yields a
// new session with a fresh ID; callers must hand that ID back to the client.
// A corrupt stored snapshot is discarded and replaced.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return m.create(), nil
	}

	data, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}
	if data == nil {
		s := newSession(id, m.now())
		m.logger.Debug("session created", "session_id", id, "reason", "unknown id")
		return s, nil
	}

	snap, err := Deserialize(data)
	if err != nil || snap.ID != id {
		m.logger.Warn("discarding corrupt session", "session_id", id, "error", err)
		return newSession(id, m.now()), nil
	}

	if err := m.store.Touch(ctx, id, m.now().Add(m.ttl)); err != nil {
		m.logger.Warn("session touch failed", "session_id", id, "error", err)
	}
	return fromSnapshot(snap), nil
}

func (m *Manager) create() *Session {
	s := newSession(NewID(), m.now())
	m.logger.Debug("session created", "session_id", s.id)
	return s
}

// Save persists s.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	now := m.now()
	data, err := Serialize(s.snapshot(now))
	if err != nil {
		return fmt.Errorf("session: serialize %s: %w", s.id, err)
	}
	if err := m.store.Save(ctx, s.id, data, now.Add(m.ttl)); err != nil {
		return fmt.Errorf("session: save %s: %w", s.id, err)
	}
	s.markClean()
	return nil
}

// TTL returns how long a saved session outlives its last save.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Drop deletes the stored session for id.
func (m *Manager) Drop(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
