// Package app is the application shell of one client: the fixed route
// table, the page controller, navigation state and the connectivity
// handling that the browser relays.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/storyapp/storyapp/internal/markup"
	"github.com/storyapp/storyapp/pkg/auth"
	"github.com/storyapp/storyapp/pkg/loop"
	"github.com/storyapp/storyapp/pkg/page"
	"github.com/storyapp/storyapp/pkg/pages"
	"github.com/storyapp/storyapp/pkg/routepath"
	"github.com/storyapp/storyapp/pkg/router"
	"github.com/storyapp/storyapp/pkg/story"
	"github.com/storyapp/storyapp/pkg/toast"
	"github.com/storyapp/storyapp/pkg/upload"
)

// FrameNav is the frame that tells the client which navigation links to
// show.
const FrameNav = "nav"

// Nav is the payload of the nav frame.
type Nav struct {
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user,omitempty"`
}

// Client is the browser side of a shell.
type Client interface {
	pages.Screen
	toast.Emitter
}

// Config configures a Shell.
type Config struct {
	// Location is the client's hash fragment. Required.
	Location router.Location

	// Scheduler is the shell's task queue. Required.
	Scheduler loop.Scheduler

	// Surface receives transition styles. Optional.
	Surface router.Surface

	// Client receives markup and frames. Required.
	Client Client

	// Stories serves story data. Required.
	Stories *story.Service

	// Auth holds the client's identity. Required.
	Auth *auth.Model

	// Owner partitions the offline store, normally the client ID.
	Owner string

	// Photos holds uploaded photos. Optional.
	Photos upload.Store

	// Prefs stores client preferences. Optional.
	Prefs pages.Prefs

	// Markup renders story descriptions (default: markup.New()).
	Markup *markup.Renderer

	// TransitionDelay is the fallback transition delay (default: 150ms).
	TransitionDelay time.Duration

	// RouteObserver and PageObserver receive routing and page events.
	RouteObserver router.Observer
	PageObserver  page.Observer

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger

	// Tracer is the OpenTelemetry tracer (default: global provider).
	Tracer trace.Tracer
}

// Shell is one running application.
type Shell struct {
	router   *router.Router
	ctrl     *page.Controller
	env      *pages.Env
	location router.Location
	auth     *auth.Model
	client   Client
	logger   *slog.Logger
}

// New builds a shell and registers the route table. Nothing is shown until
// Start.
func New(cfg Config) *Shell {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "app", "session_id", cfg.Owner)

	s := &Shell{
		location: cfg.Location,
		auth:     cfg.Auth,
		client:   cfg.Client,
		logger:   logger,
	}

	s.router = router.New(router.Config{
		Location:        cfg.Location,
		Scheduler:       cfg.Scheduler,
		Surface:         cfg.Surface,
		TransitionDelay: cfg.TransitionDelay,
		Observer:        cfg.RouteObserver,
		Logger:          cfg.Logger,
		Tracer:          cfg.Tracer,
	})
	s.ctrl = page.NewController(page.ControllerConfig{
		Navigator: s.router,
		Gate:      cfg.Auth,
		Observer:  cfg.PageObserver,
		Logger:    cfg.Logger,
		Tracer:    cfg.Tracer,
	})
	s.env = &pages.Env{
		Stories:       cfg.Stories,
		Auth:          cfg.Auth,
		Owner:         cfg.Owner,
		Screen:        cfg.Client,
		Events:        cfg.Client,
		Photos:        cfg.Photos,
		Markup:        cfg.Markup,
		Prefs:         cfg.Prefs,
		OnAuthChanged: s.updateNavigation,
		Logger:        cfg.Logger,
	}

	s.setupRoutes()
	return s
}

func (s *Shell) setupRoutes() {
	s.router.AddRoute("/", func(ctx context.Context, _ router.Params) error {
		s.router.Navigate("/home")
		return nil
	})
	s.show("/home", pages.Home(s.env))
	s.show("/login", pages.Login(s.env, false))
	s.show("/register", pages.Login(s.env, true))
	s.show("/add-story", pages.AddStory(s.env))
	s.show("/map", pages.Map(s.env))
	s.show("/settings", pages.Settings(s.env))
	s.show("/favorites", pages.Favorites(s.env))
	s.show("/story/:id", pages.StoryDetail(s.env))
}

// show routes pattern to desc, forwarding the route parameters as page
// arguments.
func (s *Shell) show(pattern string, desc page.Descriptor) {
	s.router.AddRoute(pattern, func(ctx context.Context, params router.Params) error {
		return s.ctrl.ShowPage(ctx, desc, params...)
	})
}

// Start applies stored preferences, sends the client to the login page
// when it is not authenticated, and starts routing. Routing begins with
// the location's next load or change notification.
func (s *Shell) Start(ctx context.Context) {
	s.applyTheme()
	s.checkAuthState()
	s.router.Init(ctx)
}

// Router returns the shell's router.
func (s *Shell) Router() *router.Router { return s.router }

// Controller returns the shell's page controller.
func (s *Shell) Controller() *page.Controller { return s.ctrl }

func (s *Shell) checkAuthState() {
	s.updateNavigation()
	if s.auth.IsAuthenticated() {
		return
	}
	if loc, err := routepath.ParseFragment(s.location.Fragment()); err == nil {
		if loc.Path == "/login" || loc.Path == "/register" {
			return
		}
	}
	s.router.Navigate("/login")
}

func (s *Shell) updateNavigation() {
	p, ok := s.auth.Principal()
	s.client.Emit(FrameNav, Nav{Authenticated: ok, User: p.Name})
}

func (s *Shell) applyTheme() {
	if s.env.Prefs != nil && s.env.Prefs.GetBool(pages.PrefDarkMode) {
		s.client.Emit(pages.FrameTheme, pages.Theme{Dark: true})
	}
}

// Logout forgets the client's identity and shows the login page.
func (s *Shell) Logout() {
	s.auth.Logout()
	s.updateNavigation()
	s.router.Navigate("/login")
}

// HandleAction runs a client action: "logout" is handled by the shell,
// anything else by the current page.
func (s *Shell) HandleAction(ctx context.Context, a pages.Action) error {
	if a.Name == "logout" {
		s.Logout()
		return nil
	}
	cur, name := s.ctrl.Current()
	h, ok := cur.(pages.ActionHandler)
	if !ok {
		return fmt.Errorf("%w: %s on page %q", pages.ErrUnknownAction, a.Name, name)
	}
	return h.HandleAction(ctx, a)
}

// Online reports restored connectivity and publishes the offline queue.
func (s *Shell) Online(ctx context.Context) (story.SyncResult, error) {
	toast.Success(s.client, "You're back online! Syncing data...")
	return s.Sync(ctx)
}

// Sync publishes the offline queue, as on a background-sync request.
func (s *Shell) Sync(ctx context.Context) (story.SyncResult, error) {
	if !s.auth.IsAuthenticated() {
		return story.SyncResult{}, nil
	}
	res, err := s.env.Stories.Sync(ctx, s.env.Owner, s.auth.Token())
	if err != nil {
		s.logger.Error("offline sync failed", "error", err, "synced", res.Synced)
	}
	if res.Synced > 0 {
		toast.Success(s.client, fmt.Sprintf("%d offline stories synced successfully!", res.Synced))
	}
	return res, err
}

// Offline reports lost connectivity.
func (s *Shell) Offline() {
	toast.Warning(s.client, "You're offline. Some features may be limited.")
}

// UpdateAvailable offers to load a new client version.
func (s *Shell) UpdateAvailable() {
	toast.WithAction(s.client, toast.TypeInfo, "🔄 A new version is available!", "Update Now", "reload")
}

// Installed confirms that the client was installed as an app.
func (s *Shell) Installed() {
	toast.Success(s.client, "App installed successfully!")
}

// Shutdown stops routing and destroys the current page.
func (s *Shell) Shutdown() {
	s.router.Close()
	s.ctrl.Shutdown()
}
