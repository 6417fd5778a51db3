package server

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/storyapp/storyapp/internal/markup"
	"github.com/storyapp/storyapp/pkg/auth"
	"github.com/storyapp/storyapp/pkg/middleware"
	"github.com/storyapp/storyapp/pkg/session"
	"github.com/storyapp/storyapp/pkg/story"
	"github.com/storyapp/storyapp/pkg/upload"
)

// Deps are the services shared by every client.
type Deps struct {
	// Sessions persists client preferences and identity. Required.
	Sessions *session.Manager

	// Stories serves story data. Required.
	Stories *story.Service

	// Accounts logs clients in and registers them. Required.
	Accounts auth.Authenticator

	// Photos holds uploads until a story claims them. Optional; without it
	// the upload endpoint is not mounted.
	Photos upload.Store

	// Upload configures the upload endpoint (default: upload.DefaultConfig()).
	Upload *upload.Config

	// Markup renders story descriptions (default: markup.New()).
	Markup *markup.Renderer

	// Metrics records requests and shell events. Optional; without it
	// /metrics is not mounted.
	Metrics *middleware.Metrics

	// Public holds static files served under /static/ and the service
	// worker served as /sw.js. Optional.
	Public fs.FS
}

// Server is the HTTP and WebSocket host of the application shells.
type Server struct {
	cfg      *Config
	deps     Deps
	upgrader websocket.Upgrader
	handler  http.Handler
	logger   *slog.Logger
	public   *publicFiles

	httpServer *http.Server

	mu      sync.Mutex
	clients map[*conn]struct{}
	wg      sync.WaitGroup
}

// New creates a server.
func New(cfg *Config, deps Deps) *Server {
	cfg = cfg.withDefaults()
	if deps.Markup == nil {
		deps.Markup = markup.New()
	}
	if deps.Upload == nil {
		deps.Upload = upload.DefaultConfig()
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: slog.Default().With("component", "server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
		clients: make(map[*conn]struct{}),
	}
	if s.upgrader.CheckOrigin == nil {
		s.upgrader.CheckOrigin = sameOrigin
	}
	if deps.Public != nil {
		public, err := newPublicFiles(deps.Public)
		if err != nil {
			s.logger.Error("public files disabled", "error", err)
		} else {
			s.public = public
		}
	}
	s.handler = s.routes()
	return s
}

// SetLogger replaces the server's logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger.With("component", "server")
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Tracing(middleware.WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
	})))
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Instrument)
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	r.Get("/", s.serveShell)
	r.Get("/client.js", s.serveClient)
	r.Head("/client.js", s.serveClient)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Get("/ws", s.HandleWebSocket)
	if s.public != nil {
		r.Get(StaticPrefix+"*", s.serveStatic)
		r.Head(StaticPrefix+"*", s.serveStatic)
		if s.public.exists(staticServiceWorker) {
			r.Get("/"+staticServiceWorker, s.serveServiceWorker)
		}
	}
	if s.deps.Photos != nil {
		r.Method(http.MethodPost, "/uploads", upload.HandlerWithConfig(s.deps.Photos, s.deps.Upload))
	}
	return r
}

// Run serves on the configured address until ctx is done or the process
// receives SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.cfg.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-shutdown:
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	sctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(sctx)
}

// Shutdown stops accepting requests, disconnects every client and waits
// for their shells to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.mu.Lock()
	for c := range s.clients {
		c.goingAway()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// ActiveClients returns the number of connected tabs.
func (s *Server) ActiveClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) track(c *conn) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.wg.Add(1)
	if s.deps.Metrics != nil {
		s.deps.Metrics.SessionOpened()
	}
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	s.wg.Done()
	if s.deps.Metrics != nil {
		s.deps.Metrics.SessionClosed()
	}
}

// sameOrigin accepts upgrades without an Origin header or whose Origin
// host equals the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// clientID returns the client ID cookie value, if any.
func (s *Server) clientID(r *http.Request) string {
	c, err := r.Cookie(s.cfg.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) cookieTTL() time.Duration {
	if s.deps.Sessions != nil {
		return s.deps.Sessions.TTL()
	}
	return session.DefaultTTL
}

func (s *Server) clientCookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cookieTTL() / time.Second),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
