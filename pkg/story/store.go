package story

import (
	"context"
	"sort"
	"time"
)

// Store is the offline store of one deployment, partitioned by owner (the
// client ID). Implementations must be safe for concurrent use.
type Store interface {
	// CacheStories replaces the owner's cached story list.
	CacheStories(ctx context.Context, owner string, stories []Story) error

	// CachedStories returns the cached list in the order it was cached.
	CachedStories(ctx context.Context, owner string) ([]Story, error)

	// CachedStory finds one story among the cached list and favorites.
	// Returns ErrNotFound when absent.
	CachedStory(ctx context.Context, owner, id string) (Story, error)

	// AddFavorite saves a story as a favorite. Re-adding refreshes it.
	AddFavorite(ctx context.Context, owner string, s Story) error

	// RemoveFavorite removes a favorite. Missing ids are not an error.
	RemoveFavorite(ctx context.Context, owner, id string) error

	// Favorites lists favorites, most recently added first.
	Favorites(ctx context.Context, owner string) ([]Story, error)

	// IsFavorite reports whether id is a favorite.
	IsFavorite(ctx context.Context, owner, id string) (bool, error)

	// Enqueue appends a submission to the offline queue.
	Enqueue(ctx context.Context, owner string, p Pending) error

	// Pending lists queued submissions, oldest first.
	Pending(ctx context.Context, owner string) ([]Pending, error)

	// Dequeue removes a queued submission. Missing ids are not an error.
	Dequeue(ctx context.Context, owner, id string) error

	// Clear removes everything stored for owner.
	Clear(ctx context.Context, owner string) error

	// Close releases the store's resources.
	Close() error
}

type favorite struct {
	Story   Story     `json:"story"`
	AddedAt time.Time `json:"addedAt"`
}

func sortFavorites(favs []favorite) []Story {
	sort.Slice(favs, func(i, j int) bool {
		if !favs[i].AddedAt.Equal(favs[j].AddedAt) {
			return favs[i].AddedAt.After(favs[j].AddedAt)
		}
		return favs[i].Story.ID < favs[j].Story.ID
	})
	out := make([]Story, len(favs))
	for i, f := range favs {
		out[i] = f.Story
	}
	return out
}

func sortPending(p []Pending) {
	sort.Slice(p, func(i, j int) bool {
		if !p[i].CreatedAt.Equal(p[j].CreatedAt) {
			return p[i].CreatedAt.Before(p[j].CreatedAt)
		}
		return p[i].ID < p[j].ID
	})
}
