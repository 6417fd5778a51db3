package router

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/storyapp/storyapp/pkg/loop"
	"github.com/storyapp/storyapp/pkg/routepath"
)

// DefaultRoute is where unmatched locations are sent.
const DefaultRoute = "/home"

const tracerName = "storyapp/router"

// Config configures a Router.
type Config struct {
	// Location is the hash fragment provider. Required.
	Location Location

	// Scheduler runs deferred transition phases. Required.
	Scheduler loop.Scheduler

	// Surface receives transition styles. Optional; when it also implements
	// ViewTransitioner, grouped transitions are used.
	Surface Surface

	// DefaultRoute is the fallback for unmatched locations (default: "/home").
	DefaultRoute string

	// TransitionDelay is the fallback transition delay (default: 150ms).
	TransitionDelay time.Duration

	// Observer receives routing outcomes. Optional.
	Observer Observer

	// OnError receives handler errors that cannot be returned to a caller,
	// i.e. those raised after a fallback transition delay. Optional; errors
	// are always logged.
	OnError func(path string, err error)

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger

	// Tracer is the OpenTelemetry tracer (default: global provider).
	Tracer trace.Tracer
}

// Router matches the current location against its table and dispatches
// the matched handler inside a transition.
type Router struct {
	table    *Table
	location Location
	sched    loop.Scheduler
	surface  Surface
	fallback string
	delay    time.Duration
	observer Observer
	onError  func(string, error)
	logger   *slog.Logger
	tracer   trace.Tracer

	mu          sync.Mutex
	current     string
	unsubscribe func()
}

// New creates a router.
func New(cfg Config) *Router {
	if cfg.DefaultRoute == "" {
		cfg.DefaultRoute = DefaultRoute
	}
	if cfg.TransitionDelay <= 0 {
		cfg.TransitionDelay = DefaultTransitionDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}

	return &Router{
		table:    NewTable(),
		location: cfg.Location,
		sched:    cfg.Scheduler,
		surface:  cfg.Surface,
		fallback: cfg.DefaultRoute,
		delay:    cfg.TransitionDelay,
		observer: cfg.Observer,
		onError:  cfg.OnError,
		logger:   cfg.Logger.With("component", "router"),
		tracer:   cfg.Tracer,
	}
}

// AddRoute registers a handler for a pattern.
func (r *Router) AddRoute(pattern string, handler Handler) {
	r.table.Register(pattern, handler)
}

// Table returns the router's route table.
func (r *Router) Table() *Table {
	return r.table
}

// Init subscribes to the location's load and change notifications; each
// one runs HandleRoute with ctx. Calling Init again is a no-op.
func (r *Router) Init(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe != nil {
		return
	}
	r.unsubscribe = r.location.Subscribe(func(kind EventKind) {
		if ctx.Err() != nil {
			return
		}
		r.logger.Debug("location event", "event", kind.String())
		// Handler errors are already logged and reported by HandleRoute.
		_ = r.HandleRoute(ctx)
	})
}

// Close stops listening to the location.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

// CurrentRoute returns the path of the last matched location.
func (r *Router) CurrentRoute() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// HandleRoute dispatches the current location. A location that matches
// nothing, or cannot be parsed, navigates to the default route and returns
// nil. A matched handler runs inside a transition; its error is returned
// when the transition runs it synchronously.
func (r *Router) HandleRoute(ctx context.Context) error {
	start := time.Now()
	fragment := r.location.Fragment()

	ctx, span := r.tracer.Start(ctx, "router.HandleRoute",
		trace.WithAttributes(attribute.String("route.fragment", fragment)))
	defer span.End()

	loc, err := routepath.ParseFragment(fragment)
	if err != nil {
		r.logger.Debug("unparseable location", "fragment", fragment, "error", err)
		r.fallbackTo(span, fragment, start)
		return nil
	}

	match, ok := r.table.MatchSegments(loc.Segments)
	if !ok {
		r.fallbackTo(span, loc.Path, start)
		return nil
	}

	pattern := match.Route.Pattern.String()
	span.SetAttributes(attribute.String("route.pattern", pattern))

	r.mu.Lock()
	r.current = loc.Path
	r.mu.Unlock()

	r.logger.Debug("route matched", "path", loc.Path, "route", pattern, "params", []string(match.Params))

	handler := func() error {
		return match.Route.Handler(ctx, match.Params)
	}
	// Each navigation is observed once, after its handler has returned.
	finish := func(err error) {
		if err != nil {
			r.handlerFailed(loc.Path, pattern, err, start)
			return
		}
		r.observe(pattern, OutcomeMatched, start)
	}

	deferred, err := runTransition(r.surface, r.sched, r.delay, handler, finish)
	if deferred {
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	finish(err)
	return err
}

// Navigate writes path to the location. The matching handler runs when the
// location reports the change, not during this call.
func (r *Router) Navigate(path string, opts ...NavigateOption) {
	var options NavigateOptions
	for _, opt := range opts {
		opt(&options)
	}

	if err := routepath.ValidateNavPath(path); err != nil {
		r.logger.Warn("navigation rejected", "path", path, "error", err)
		return
	}
	r.location.SetFragment(routepath.Fragment(path), options.Replace)
}

func (r *Router) fallbackTo(span trace.Span, path string, start time.Time) {
	span.SetAttributes(attribute.Bool("route.fallback", true))
	r.logger.Debug("no route matched", "path", path, "fallback", r.fallback)
	r.observe("", OutcomeFallback, start)
	r.Navigate(r.fallback, WithReplace())
}

func (r *Router) handlerFailed(path, pattern string, err error, start time.Time) {
	r.logger.Error("route handler error", "path", path, "route", pattern, "error", err)
	r.observe(pattern, OutcomeError, start)
	if r.onError != nil {
		r.onError(path, err)
	}
}

func (r *Router) observe(pattern string, outcome Outcome, start time.Time) {
	if r.observer != nil {
		r.observer.RouteHandled(pattern, outcome, time.Since(start))
	}
}
