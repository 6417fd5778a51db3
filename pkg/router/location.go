package router

import (
	"sort"
	"sync"

	"github.com/storyapp/storyapp/pkg/loop"
)

// EventKind is the kind of location notification.
type EventKind int

const (
	// EventLoad is emitted once, when the document first loads.
	EventLoad EventKind = iota

	// EventChange is emitted after every write to the fragment, including
	// history traversal.
	EventChange
)

// String returns the browser event name for the kind.
func (k EventKind) String() string {
	if k == EventLoad {
		return "load"
	}
	return "hashchange"
}

// Location provides the current hash fragment and reports changes to it.
type Location interface {
	// Fragment returns the current fragment, e.g. "#/story/42".
	Fragment() string

	// SetFragment writes the fragment. Listeners are notified
	// asynchronously, never from within SetFragment. With replace set the
	// current history entry is overwritten instead of pushed.
	SetFragment(fragment string, replace bool)

	// Subscribe registers fn for load and change notifications.
	Subscribe(fn func(EventKind)) (unsubscribe func())
}

// MemoryLocation is an in-process Location with its own history stack.
// Notifications are posted to a scheduler, the way a browser queues
// hashchange events behind the running task.
type MemoryLocation struct {
	mu        sync.Mutex
	sched     loop.Scheduler
	history   []string
	pos       int
	listeners map[int]func(EventKind)
	nextID    int
}

// NewMemoryLocation creates a location showing initial.
func NewMemoryLocation(sched loop.Scheduler, initial string) *MemoryLocation {
	return &MemoryLocation{
		sched:     sched,
		history:   []string{initial},
		listeners: make(map[int]func(EventKind)),
	}
}

// Fragment implements Location.
func (m *MemoryLocation) Fragment() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[m.pos]
}

// SetFragment implements Location.
func (m *MemoryLocation) SetFragment(fragment string, replace bool) {
	m.mu.Lock()
	if replace {
		m.history[m.pos] = fragment
	} else {
		m.history = append(m.history[:m.pos+1], fragment)
		m.pos++
	}
	m.mu.Unlock()
	m.emit(EventChange)
}

// Load emits the initial load notification.
func (m *MemoryLocation) Load() {
	m.emit(EventLoad)
}

// Back moves one entry back in history, if possible.
func (m *MemoryLocation) Back() bool {
	m.mu.Lock()
	if m.pos == 0 {
		m.mu.Unlock()
		return false
	}
	m.pos--
	m.mu.Unlock()
	m.emit(EventChange)
	return true
}

// Forward moves one entry forward in history, if possible.
func (m *MemoryLocation) Forward() bool {
	m.mu.Lock()
	if m.pos >= len(m.history)-1 {
		m.mu.Unlock()
		return false
	}
	m.pos++
	m.mu.Unlock()
	m.emit(EventChange)
	return true
}

// History returns a copy of the history entries.
func (m *MemoryLocation) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.history))
	copy(out, m.history)
	return out
}

// Subscribe implements Location.
func (m *MemoryLocation) Subscribe(fn func(EventKind)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *MemoryLocation) emit(kind EventKind) {
	m.sched.Post(func() {
		m.mu.Lock()
		ids := make([]int, 0, len(m.listeners))
		for id := range m.listeners {
			ids = append(ids, id)
		}
		m.mu.Unlock()

		sort.Ints(ids)
		for _, id := range ids {
			m.mu.Lock()
			fn, ok := m.listeners[id]
			m.mu.Unlock()
			if ok {
				fn(kind)
			}
		}
	})
}
