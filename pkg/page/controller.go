package page

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/storyapp/storyapp/pkg/auth"
)

// DefaultLoginPath is where protected pages redirect unauthenticated users.
const DefaultLoginPath = "/login"

const tracerName = "storyapp/page"

// Observer receives page lifecycle events, typically to record metrics.
type Observer interface {
	PageRendered(name string, elapsed time.Duration, err error)
	AuthRedirected(name string)
}

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	// Navigator is handed to every page and used for auth redirects. Required.
	Navigator Navigator

	// Gate decides whether protected pages may be shown. Required.
	Gate auth.Gate

	// LoginPath is the redirect target for denied pages (default: "/login").
	LoginPath string

	// Observer receives lifecycle events. Optional.
	Observer Observer

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger

	// Tracer is the OpenTelemetry tracer (default: global provider).
	Tracer trace.Tracer
}

// Controller owns the current page. Only the Controller writes the current
// page reference.
type Controller struct {
	nav       Navigator
	gate      auth.Gate
	loginPath string
	observer  Observer
	logger    *slog.Logger
	tracer    trace.Tracer

	mu        sync.Mutex
	current   Page
	name      string
	gen       uint64
	destroyed bool
}

// NewController creates a page controller.
func NewController(cfg ControllerConfig) *Controller {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}
	return &Controller{
		nav:       cfg.Navigator,
		gate:      cfg.Gate,
		loginPath: cfg.LoginPath,
		observer:  cfg.Observer,
		logger:    cfg.Logger.With("component", "page"),
		tracer:    cfg.Tracer,
	}
}

// ShowPage switches to a new page built from desc.
//
// A protected page with a closed gate navigates to the login path and
// returns nil without building or destroying anything. Otherwise the
// current page is destroyed (once, if it is a Destroyer), the new page is
// constructed with the navigator and args, becomes current, and is
// rendered. The render error is returned unchanged; the new page stays
// current either way.
//
// A panic in Destroy is not recovered: the navigation is abandoned and the
// previous page stays current.
func (c *Controller) ShowPage(ctx context.Context, desc Descriptor, args ...string) error {
	ctx, span := c.tracer.Start(ctx, "page.ShowPage", trace.WithAttributes(
		attribute.String("page.name", desc.Name),
		attribute.Bool("page.requires_auth", desc.RequiresAuth),
	))
	defer span.End()

	if desc.RequiresAuth && !c.gate.IsAuthenticated() {
		c.logger.Info("page requires auth, redirecting", "page", desc.Name, "to", c.loginPath)
		span.SetAttributes(attribute.Bool("page.auth_redirect", true))
		if c.observer != nil {
			c.observer.AuthRedirected(desc.Name)
		}
		c.nav.Navigate(c.loginPath)
		return nil
	}

	c.destroyCurrent()

	next := desc.New(c.nav, args...)

	c.mu.Lock()
	c.current = next
	c.name = desc.Name
	c.gen++
	c.destroyed = false
	c.mu.Unlock()

	start := time.Now()
	err := next.Render(ctx)
	elapsed := time.Since(start)

	if c.observer != nil {
		c.observer.PageRendered(desc.Name, elapsed, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("page render failed", "page", desc.Name, "error", err, "duration", elapsed)
		return err
	}

	c.logger.Debug("page rendered", "page", desc.Name, "duration", elapsed)
	return nil
}

// Current returns the current page and its descriptor name.
func (c *Controller) Current() (Page, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.name
}

// Shutdown destroys the current page, if any, and clears the reference.
func (c *Controller) Shutdown() {
	c.destroyCurrent()

	c.mu.Lock()
	c.current = nil
	c.name = ""
	c.gen++
	c.mu.Unlock()
}

// destroyCurrent invokes Destroy on the current page unless it already ran
// to completion.
func (c *Controller) destroyCurrent() {
	c.mu.Lock()
	cur, gen, done := c.current, c.gen, c.destroyed
	c.mu.Unlock()

	d, ok := cur.(Destroyer)
	if !ok || done {
		return
	}

	d.Destroy()

	c.mu.Lock()
	if c.gen == gen {
		c.destroyed = true
	}
	c.mu.Unlock()
}
