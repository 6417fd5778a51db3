package story

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps the offline store in Redis. Per owner it uses a string
// key for the cached list and hashes for favorites and the queue.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a store over client. An empty prefix uses
// "storyapp:stories:". The store owns the client.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "storyapp:stories:"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisStore) cachedKey(owner string) string    { return r.prefix + owner + ":cached" }
func (r *RedisStore) favoritesKey(owner string) string { return r.prefix + owner + ":favorites" }
func (r *RedisStore) queueKey(owner string) string     { return r.prefix + owner + ":queue" }

// CacheStories implements Store.
func (r *RedisStore) CacheStories(ctx context.Context, owner string, stories []Story) error {
	data, err := json.Marshal(stories)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.cachedKey(owner), data, 0).Err()
}

// CachedStories implements Store.
func (r *RedisStore) CachedStories(ctx context.Context, owner string) ([]Story, error) {
	data, err := r.client.Get(ctx, r.cachedKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stories []Story
	if err := json.Unmarshal(data, &stories); err != nil {
		return nil, fmt.Errorf("story: decode cached stories: %w", err)
	}
	return stories, nil
}

// CachedStory implements Store.
func (r *RedisStore) CachedStory(ctx context.Context, owner, id string) (Story, error) {
	stories, err := r.CachedStories(ctx, owner)
	if err != nil {
		return Story{}, err
	}
	for _, s := range stories {
		if s.ID == id {
			return s, nil
		}
	}

	data, err := r.client.HGet(ctx, r.favoritesKey(owner), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Story{}, ErrNotFound
	}
	if err != nil {
		return Story{}, err
	}
	var f favorite
	if err := json.Unmarshal(data, &f); err != nil {
		return Story{}, fmt.Errorf("story: decode favorite: %w", err)
	}
	return f.Story, nil
}

// AddFavorite implements Store.
func (r *RedisStore) AddFavorite(ctx context.Context, owner string, s Story) error {
	data, err := json.Marshal(favorite{Story: s, AddedAt: r.now()})
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.favoritesKey(owner), s.ID, data).Err()
}

// RemoveFavorite implements Store.
func (r *RedisStore) RemoveFavorite(ctx context.Context, owner, id string) error {
	return r.client.HDel(ctx, r.favoritesKey(owner), id).Err()
}

// Favorites implements Store.
func (r *RedisStore) Favorites(ctx context.Context, owner string) ([]Story, error) {
	all, err := r.client.HGetAll(ctx, r.favoritesKey(owner)).Result()
	if err != nil {
		return nil, err
	}
	favs := make([]favorite, 0, len(all))
	for id, raw := range all {
		var f favorite
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return nil, fmt.Errorf("story: decode favorite %s: %w", id, err)
		}
		favs = append(favs, f)
	}
	return sortFavorites(favs), nil
}

// IsFavorite implements Store.
func (r *RedisStore) IsFavorite(ctx context.Context, owner, id string) (bool, error) {
	return r.client.HExists(ctx, r.favoritesKey(owner), id).Result()
}

// Enqueue implements Store.
func (r *RedisStore) Enqueue(ctx context.Context, owner string, p Pending) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.queueKey(owner), p.ID, data).Err()
}

// Pending implements Store.
func (r *RedisStore) Pending(ctx context.Context, owner string) ([]Pending, error) {
	all, err := r.client.HGetAll(ctx, r.queueKey(owner)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Pending, 0, len(all))
	for id, raw := range all {
		var p Pending
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("story: decode pending %s: %w", id, err)
		}
		out = append(out, p)
	}
	sortPending(out)
	return out, nil
}

// Dequeue implements Store.
func (r *RedisStore) Dequeue(ctx context.Context, owner, id string) error {
	return r.client.HDel(ctx, r.queueKey(owner), id).Err()
}

// Clear implements Store.
func (r *RedisStore) Clear(ctx context.Context, owner string) error {
	return r.client.Del(ctx, r.cachedKey(owner), r.favoritesKey(owner), r.queueKey(owner)).Err()
}

// Close implements Store.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
