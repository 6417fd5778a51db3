package story

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storyapp/storyapp/pkg/auth"
)

// API is the subset of the story API the service needs. *Client
// implements it.
type API interface {
	Stories(ctx context.Context, token string, opts ListOptions) ([]Story, error)
	Story(ctx context.Context, token, id string) (Story, error)
	AddStory(ctx context.Context, token string, n NewStory) error
}

// Source tells where a result came from.
type Source int

const (
	// FromAPI means the result is fresh.
	FromAPI Source = iota

	// FromCache means the API failed and the offline store answered.
	FromCache
)

// SubmitResult is the outcome of Submit.
type SubmitResult struct {
	// Queued is set when the story was stored for a later sync instead of
	// being published.
	Queued bool

	// PendingID identifies the queued submission.
	PendingID string
}

// SyncResult is the outcome of draining the offline queue.
type SyncResult struct {
	Synced int
	Failed int
	Errors []error
}

// SyncObserver receives sync outcomes, typically to record metrics.
type SyncObserver interface {
	StorySynced(err error)
}

// Service combines the API and the offline store for one client.
type Service struct {
	api      API
	store    Store
	observer SyncObserver
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSyncObserver sets the sync observer.
func WithSyncObserver(o SyncObserver) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a service.
func NewService(api API, store Store, opts ...ServiceOption) *Service {
	s := &Service{
		api:    api,
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "story")
	return s
}

// Store returns the offline store.
func (s *Service) Store() Store { return s.store }

// List loads a page of stories and caches it for owner. When the API
// fails for any reason other than an expired token, the cached list is
// returned instead; the API error is returned only when the cache is empty
// too.
func (s *Service) List(ctx context.Context, owner, token string, opts ListOptions) ([]Story, Source, error) {
	stories, err := s.api.Stories(ctx, token, opts)
	if err == nil {
		if cerr := s.store.CacheStories(ctx, owner, stories); cerr != nil {
			s.logger.Warn("caching stories failed", "session_id", owner, "error", cerr)
		}
		return stories, FromAPI, nil
	}
	if !IsTransient(err) {
		return nil, FromAPI, err
	}

	cached, cerr := s.store.CachedStories(ctx, owner)
	if cerr != nil || len(cached) == 0 {
		return nil, FromAPI, err
	}
	s.logger.Info("serving cached stories", "session_id", owner, "count", len(cached), "error", err)
	return cached, FromCache, nil
}

// Get loads one story, falling back to the offline store.
func (s *Service) Get(ctx context.Context, owner, token, id string) (Story, Source, error) {
	st, err := s.api.Story(ctx, token, id)
	if err == nil {
		return st, FromAPI, nil
	}
	if !IsTransient(err) && !errors.Is(err, ErrNotFound) {
		return Story{}, FromAPI, err
	}
	cached, cerr := s.store.CachedStory(ctx, owner, id)
	if cerr != nil {
		return Story{}, FromAPI, err
	}
	return cached, FromCache, nil
}

// Submit publishes n. A transient failure queues it in the offline store
// and is not an error.
func (s *Service) Submit(ctx context.Context, owner, token string, n NewStory) (SubmitResult, error) {
	if err := n.Validate(); err != nil {
		return SubmitResult{}, err
	}
	err := s.api.AddStory(ctx, token, n)
	if err == nil {
		return SubmitResult{}, nil
	}
	if !IsTransient(err) {
		return SubmitResult{}, err
	}

	p := Pending{ID: uuid.NewString(), Story: n, CreatedAt: s.now()}
	if qerr := s.store.Enqueue(ctx, owner, p); qerr != nil {
		return SubmitResult{}, fmt.Errorf("story: queue after %v: %w", err, qerr)
	}
	s.logger.Info("story queued for sync", "session_id", owner, "pending_id", p.ID, "error", err)
	return SubmitResult{Queued: true, PendingID: p.ID}, nil
}

// Sync publishes every queued submission of owner, oldest first.
// Published and permanently rejected items leave the queue; items that
// fail transiently stay for the next sync. A rejected token stops the sync
// and leaves the remaining items queued.
func (s *Service) Sync(ctx context.Context, owner, token string) (SyncResult, error) {
	pending, err := s.store.Pending(ctx, owner)
	if err != nil {
		return SyncResult{}, err
	}

	var res SyncResult
	for _, p := range pending {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		err := s.api.AddStory(ctx, token, p.Story)
		if s.observer != nil {
			s.observer.StorySynced(err)
		}
		if errors.Is(err, auth.ErrUnauthorized) {
			return res, err
		}
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, err)
			s.logger.Warn("sync failed", "session_id", owner, "pending_id", p.ID, "error", err)
			if IsTransient(err) {
				continue
			}
		} else {
			res.Synced++
		}
		if derr := s.store.Dequeue(ctx, owner, p.ID); derr != nil {
			return res, derr
		}
	}
	if len(pending) > 0 {
		s.logger.Info("offline queue synced", "session_id", owner, "synced", res.Synced, "failed", res.Failed)
	}
	return res, nil
}

// ToggleFavorite flips the favorite state of st and returns the new state.
func (s *Service) ToggleFavorite(ctx context.Context, owner string, st Story) (bool, error) {
	fav, err := s.store.IsFavorite(ctx, owner, st.ID)
	if err != nil {
		return false, err
	}
	if fav {
		return false, s.store.RemoveFavorite(ctx, owner, st.ID)
	}
	return true, s.store.AddFavorite(ctx, owner, st)
}
