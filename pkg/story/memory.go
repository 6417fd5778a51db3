package story

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the offline store in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	owners map[string]*ownerData
	now    func() time.Time
}

type ownerData struct {
	cached    []Story
	favorites map[string]favorite
	queue     map[string]Pending
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		owners: make(map[string]*ownerData),
		now:    time.Now,
	}
}

func (m *MemoryStore) owner(id string) *ownerData {
	d, ok := m.owners[id]
	if !ok {
		d = &ownerData{
			favorites: make(map[string]favorite),
			queue:     make(map[string]Pending),
		}
		m.owners[id] = d
	}
	return d
}

// CacheStories implements Store.
func (m *MemoryStore) CacheStories(ctx context.Context, owner string, stories []Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owner(owner).cached = append([]Story(nil), stories...)
	return nil
}

// CachedStories implements Store.
func (m *MemoryStore) CachedStories(ctx context.Context, owner string) ([]Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.owners[owner]
	if !ok {
		return nil, nil
	}
	return append([]Story(nil), d.cached...), nil
}

// CachedStory implements Store.
func (m *MemoryStore) CachedStory(ctx context.Context, owner, id string) (Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.owners[owner]
	if !ok {
		return Story{}, ErrNotFound
	}
	for _, s := range d.cached {
		if s.ID == id {
			return s, nil
		}
	}
	if f, ok := d.favorites[id]; ok {
		return f.Story, nil
	}
	return Story{}, ErrNotFound
}

// AddFavorite implements Store.
func (m *MemoryStore) AddFavorite(ctx context.Context, owner string, s Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owner(owner).favorites[s.ID] = favorite{Story: s, AddedAt: m.now()}
	return nil
}

// RemoveFavorite implements Store.
func (m *MemoryStore) RemoveFavorite(ctx context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.owners[owner]; ok {
		delete(d.favorites, id)
	}
	return nil
}

// Favorites implements Store.
func (m *MemoryStore) Favorites(ctx context.Context, owner string) ([]Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.owners[owner]
	if !ok {
		return nil, nil
	}
	favs := make([]favorite, 0, len(d.favorites))
	for _, f := range d.favorites {
		favs = append(favs, f)
	}
	return sortFavorites(favs), nil
}

// IsFavorite implements Store.
func (m *MemoryStore) IsFavorite(ctx context.Context, owner, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.owners[owner]
	if !ok {
		return false, nil
	}
	_, fav := d.favorites[id]
	return fav, nil
}

// Enqueue implements Store.
func (m *MemoryStore) Enqueue(ctx context.Context, owner string, p Pending) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owner(owner).queue[p.ID] = p
	return nil
}

// Pending implements Store.
func (m *MemoryStore) Pending(ctx context.Context, owner string) ([]Pending, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.owners[owner]
	if !ok {
		return nil, nil
	}
	out := make([]Pending, 0, len(d.queue))
	for _, p := range d.queue {
		out = append(out, p)
	}
	sortPending(out)
	return out, nil
}

// Dequeue implements Store.
func (m *MemoryStore) Dequeue(ctx context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.owners[owner]; ok {
		delete(d.queue, id)
	}
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(ctx context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.owners, owner)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
