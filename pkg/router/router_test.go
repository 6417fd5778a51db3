package router

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/storyapp/storyapp/pkg/loop"
)

// recordingSurface records styles and, optionally, offers grouped transitions.
type recordingSurface struct {
	events  *[]string
	grouped bool
}

func (s *recordingSurface) SetStyle(style Style) {
	if style.Opacity == 0 {
		*s.events = append(*s.events, "opacity:0")
	} else {
		*s.events = append(*s.events, "opacity:1")
	}
}

type groupingSurface struct {
	recordingSurface
}

func (s *groupingSurface) ViewTransitions() bool { return s.grouped }

func (s *groupingSurface) StartViewTransition(fn func() error) error {
	*s.events = append(*s.events, "group:start")
	err := fn()
	*s.events = append(*s.events, "group:end")
	return err
}

type countingObserver struct {
	outcomes []Outcome
}

func (o *countingObserver) RouteHandled(pattern string, outcome Outcome, elapsed time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

func newTestRouter(t *testing.T, initial string, surface Surface) (*Router, *MemoryLocation, *loop.Manual) {
	t.Helper()
	sched := loop.NewManual()
	loc := NewMemoryLocation(sched, initial)
	r := New(Config{
		Location:  loc,
		Scheduler: sched,
		Surface:   surface,
	})
	return r, loc, sched
}

func TestRouterDispatchesParams(t *testing.T) {
	r, loc, sched := newTestRouter(t, "", nil)

	var got Params
	r.AddRoute("/home", func(ctx context.Context, p Params) error { return nil })
	r.AddRoute("/story/:id", func(ctx context.Context, p Params) error {
		got = p
		return nil
	})
	r.Init(context.Background())

	r.Navigate("/story/42")
	if loc.Fragment() != "#/story/42" {
		t.Fatalf("Fragment() = %q, want #/story/42", loc.Fragment())
	}
	sched.Advance(DefaultTransitionDelay)

	if !reflect.DeepEqual(got, Params{"42"}) {
		t.Errorf("params = %v, want [42]", got)
	}
	if r.CurrentRoute() != "/story/42" {
		t.Errorf("CurrentRoute() = %q, want /story/42", r.CurrentRoute())
	}
}

func TestRouterNavigateIsNotSynchronous(t *testing.T) {
	r, _, sched := newTestRouter(t, "", nil)

	calls := 0
	r.AddRoute("/home", func(ctx context.Context, p Params) error {
		calls++
		return nil
	})
	r.Init(context.Background())

	r.Navigate("/home")
	if calls != 0 {
		t.Fatal("handler ran inside Navigate")
	}
	sched.RunPending()
	if calls != 0 {
		t.Fatal("handler ran before the transition delay")
	}
	sched.Advance(DefaultTransitionDelay)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRouterUnknownPathFallsBackToHome(t *testing.T) {
	observer := &countingObserver{}
	sched := loop.NewManual()
	loc := NewMemoryLocation(sched, "#/unknown/path")
	r := New(Config{Location: loc, Scheduler: sched, Observer: observer})

	homeCalls := 0
	r.AddRoute("/home", func(ctx context.Context, p Params) error {
		homeCalls++
		return nil
	})
	r.Init(context.Background())

	loc.Load()
	sched.Advance(time.Second)

	if loc.Fragment() != "#/home" {
		t.Errorf("Fragment() = %q, want #/home", loc.Fragment())
	}
	if homeCalls != 1 {
		t.Errorf("home handler calls = %d, want 1", homeCalls)
	}
	want := []Outcome{OutcomeFallback, OutcomeMatched}
	if !reflect.DeepEqual(observer.outcomes, want) {
		t.Errorf("outcomes = %v, want %v", observer.outcomes, want)
	}
}

func TestRouterUnparseableLocationFallsBack(t *testing.T) {
	r, loc, sched := newTestRouter(t, "#/story/%GG", nil)
	r.AddRoute("/home", func(ctx context.Context, p Params) error { return nil })
	r.Init(context.Background())

	loc.Load()
	sched.Advance(time.Second)

	if loc.Fragment() != "#/home" {
		t.Errorf("Fragment() = %q, want #/home", loc.Fragment())
	}
}

func TestRouterFallbackTransitionOrder(t *testing.T) {
	var events []string
	surface := &recordingSurface{events: &events}
	r, _, sched := newTestRouter(t, "", surface)

	r.AddRoute("/map", func(ctx context.Context, p Params) error {
		events = append(events, "handler")
		return nil
	})
	r.Init(context.Background())

	r.Navigate("/map")
	sched.RunPending()
	if !reflect.DeepEqual(events, []string{"opacity:0"}) {
		t.Fatalf("events before delay = %v, want [opacity:0]", events)
	}

	sched.Advance(DefaultTransitionDelay - time.Millisecond)
	if len(events) != 1 {
		t.Fatalf("handler ran before delay: %v", events)
	}

	sched.Advance(time.Millisecond)
	want := []string{"opacity:0", "handler", "opacity:1"}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestRouterGroupedTransition(t *testing.T) {
	var events []string
	surface := &groupingSurface{recordingSurface{events: &events, grouped: true}}
	r, _, sched := newTestRouter(t, "", surface)

	r.AddRoute("/map", func(ctx context.Context, p Params) error {
		events = append(events, "handler")
		return nil
	})
	r.Init(context.Background())

	r.Navigate("/map")
	sched.RunPending()

	want := []string{"group:start", "handler", "group:end"}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestRouterGroupingUnavailableUsesFallback(t *testing.T) {
	var events []string
	surface := &groupingSurface{recordingSurface{events: &events, grouped: false}}
	r, _, sched := newTestRouter(t, "", surface)

	r.AddRoute("/map", func(ctx context.Context, p Params) error {
		events = append(events, "handler")
		return nil
	})
	r.Init(context.Background())
	r.Navigate("/map")
	sched.Advance(DefaultTransitionDelay)

	want := []string{"opacity:0", "handler", "opacity:1"}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestRouterHandlerErrorsAreReportedNotRetried(t *testing.T) {
	boom := errors.New("boom")

	t.Run("grouped", func(t *testing.T) {
		var events []string
		surface := &groupingSurface{recordingSurface{events: &events, grouped: true}}
		sched := loop.NewManual()
		loc := NewMemoryLocation(sched, "#/map")
		var reported []error
		r := New(Config{
			Location:  loc,
			Scheduler: sched,
			Surface:   surface,
			OnError:   func(path string, err error) { reported = append(reported, err) },
		})
		calls := 0
		r.AddRoute("/map", func(ctx context.Context, p Params) error {
			calls++
			return boom
		})

		if err := r.HandleRoute(context.Background()); !errors.Is(err, boom) {
			t.Errorf("HandleRoute() = %v, want boom", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
		if len(reported) != 1 {
			t.Errorf("reported = %v, want one error", reported)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		sched := loop.NewManual()
		loc := NewMemoryLocation(sched, "#/map")
		var reported []error
		r := New(Config{
			Location:  loc,
			Scheduler: sched,
			OnError:   func(path string, err error) { reported = append(reported, err) },
		})
		calls := 0
		r.AddRoute("/map", func(ctx context.Context, p Params) error {
			calls++
			return boom
		})

		if err := r.HandleRoute(context.Background()); err != nil {
			t.Errorf("HandleRoute() = %v, want nil before delay", err)
		}
		sched.Advance(time.Second)
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
		if len(reported) != 1 || !errors.Is(reported[0], boom) {
			t.Errorf("reported = %v, want [boom]", reported)
		}
	})
}

func TestRouterObservesEachNavigationOnce(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		grouped bool
		err     error
		want    []Outcome
	}{
		{"fallback ok", false, nil, []Outcome{OutcomeMatched}},
		{"fallback error", false, boom, []Outcome{OutcomeError}},
		{"grouped ok", true, nil, []Outcome{OutcomeMatched}},
		{"grouped error", true, boom, []Outcome{OutcomeError}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []string
			surface := &groupingSurface{recordingSurface{events: &events, grouped: tt.grouped}}
			observer := &countingObserver{}
			sched := loop.NewManual()
			loc := NewMemoryLocation(sched, "#/map")
			r := New(Config{Location: loc, Scheduler: sched, Surface: surface, Observer: observer})
			r.AddRoute("/map", func(ctx context.Context, p Params) error { return tt.err })

			r.HandleRoute(context.Background())
			if !tt.grouped && len(observer.outcomes) != 0 {
				t.Errorf("outcomes before the handler ran = %v, want none", observer.outcomes)
			}
			sched.Advance(time.Second)

			if !reflect.DeepEqual(observer.outcomes, tt.want) {
				t.Errorf("outcomes = %v, want %v", observer.outcomes, tt.want)
			}
		})
	}
}

func TestRouterRejectsAbsoluteNavigation(t *testing.T) {
	r, loc, _ := newTestRouter(t, "#/home", nil)
	r.Navigate("https://evil.example")
	if loc.Fragment() != "#/home" {
		t.Errorf("Fragment() = %q, want unchanged #/home", loc.Fragment())
	}
}

func TestRouterCloseStopsListening(t *testing.T) {
	r, _, sched := newTestRouter(t, "", nil)
	calls := 0
	r.AddRoute("/home", func(ctx context.Context, p Params) error {
		calls++
		return nil
	})
	r.Init(context.Background())
	r.Close()

	r.Navigate("/home")
	sched.Advance(time.Second)
	if calls != 0 {
		t.Errorf("calls = %d after Close, want 0", calls)
	}
}

func TestRouterBackReDispatches(t *testing.T) {
	r, loc, sched := newTestRouter(t, "#/home", nil)
	var seen []string
	r.AddRoute("/home", func(ctx context.Context, p Params) error {
		seen = append(seen, "home")
		return nil
	})
	r.AddRoute("/map", func(ctx context.Context, p Params) error {
		seen = append(seen, "map")
		return nil
	})
	r.Init(context.Background())

	r.Navigate("/map")
	sched.Advance(time.Second)
	if !loc.Back() {
		t.Fatal("Back() = false")
	}
	sched.Advance(time.Second)

	want := []string{"map", "home"}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("seen = %v, want %v", seen, want)
	}
}
