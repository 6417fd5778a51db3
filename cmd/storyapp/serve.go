package main

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/storyapp/storyapp/internal/config"
	"github.com/storyapp/storyapp/internal/errors"
	"github.com/storyapp/storyapp/internal/markup"
	"github.com/storyapp/storyapp/pkg/middleware"
	"github.com/storyapp/storyapp/pkg/server"
	"github.com/storyapp/storyapp/pkg/session"
	"github.com/storyapp/storyapp/pkg/story"
	"github.com/storyapp/storyapp/pkg/upload"
)

type serveOptions struct {
	dir       string
	port      int
	host      string
	api       string
	store     string
	redisAddr string
	dsn       string
	photos    string
	logLevel  string
	logFormat string
	metrics   bool
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		Long: `Start the HTTP and WebSocket server.

Settings come from storyapp.json in --dir when present, otherwise
from defaults. Flags override individual settings.

Examples:
  storyapp serve
  storyapp serve --port=9000 --metrics
  storyapp serve --store=redis --redis=localhost:6379
  storyapp serve --store=postgres --postgres=postgres://localhost/storyapp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.dir, "dir", "d", ".", "Directory containing storyapp.json")
	f.IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from storyapp.json)")
	f.StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from storyapp.json)")
	f.StringVar(&opts.api, "api", "", "Story API base URL")
	f.StringVar(&opts.store, "store", "", "Offline store backend (memory, redis, postgres)")
	f.StringVar(&opts.redisAddr, "redis", "", "Redis address")
	f.StringVar(&opts.dsn, "postgres", "", "Postgres connection string")
	f.StringVar(&opts.photos, "photos", "", "Photo backend (disk, s3)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "", "Log format (text, json)")
	f.BoolVar(&opts.metrics, "metrics", false, "Serve Prometheus metrics on /metrics")

	return cmd
}

// apply copies set flags over cfg.
func (o serveOptions) apply(cfg *config.Config) {
	if o.port > 0 {
		cfg.Server.Port = o.port
	}
	if o.host != "" {
		cfg.Server.Host = o.host
	}
	if o.api != "" {
		cfg.API.BaseURL = o.api
	}
	if o.store != "" {
		cfg.Store.Backend = o.store
	}
	if o.redisAddr != "" {
		cfg.Store.RedisAddr = o.redisAddr
	}
	if o.dsn != "" {
		cfg.Store.PostgresDSN = o.dsn
	}
	if o.photos != "" {
		cfg.Photos.Backend = o.photos
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.metrics {
		cfg.Server.Metrics = true
	}
}

func runServe(ctx context.Context, opts serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadOrDefault(opts.dir)
	if err != nil {
		return err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close(logger)

	var metrics *middleware.Metrics
	if cfg.Server.Metrics {
		metrics = middleware.NewMetrics()
	}

	client := story.NewClient(cfg.API.BaseURL,
		story.WithTimeout(cfg.APITimeout()),
		story.WithClientLogger(logger))
	serviceOpts := []story.ServiceOption{story.WithLogger(logger)}
	if metrics != nil {
		serviceOpts = append(serviceOpts, story.WithSyncObserver(metrics))
	}

	srv := server.New(&server.Config{
		Address:         cfg.Address(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
		TransitionDelay: cfg.TransitionDelay(),
		CookieSecure:    cfg.Server.SecureCookies,
		Title:           cfg.Name,
	}, server.Deps{
		Sessions: session.NewManager(b.sessions,
			session.WithTTL(cfg.SessionTTL()),
			session.WithLogger(logger)),
		Stories:  story.NewService(client, b.stories, serviceOpts...),
		Accounts: client,
		Photos:   b.photos,
		Upload: &upload.Config{
			MaxFileSize: cfg.Photos.MaxSize,
			Logger:      logger,
		},
		Markup:  markup.New(),
		Metrics: metrics,
		Public:  publicFiles(cfg, logger),
	})
	srv.SetLogger(logger)

	go sweepPhotos(ctx, b.photos, cfg.PhotoMaxAge(), logger)

	logger.Info("storyapp starting",
		"version", version,
		"address", cfg.Address(),
		"api", cfg.API.BaseURL,
		"store", cfg.Store.Backend,
		"photos", cfg.Photos.Backend,
		"metrics", cfg.Server.Metrics)
	if err := srv.Run(ctx); err != nil {
		return errors.New("S301").Wrap(err)
	}
	logger.Info("storyapp stopped")
	return nil
}

// publicFiles returns the public directory, or nil when it does not exist.
func publicFiles(cfg *config.Config, logger *slog.Logger) fs.FS {
	dir := cfg.PublicPath()
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logger.Debug("no public directory", "dir", dir)
		return nil
	}
	return os.DirFS(dir)
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// sweepPhotos removes unclaimed uploads older than maxAge until ctx is done.
func sweepPhotos(ctx context.Context, photos upload.Store, maxAge time.Duration, logger *slog.Logger) {
	if maxAge <= 0 {
		return
	}
	interval := maxAge / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := photos.Cleanup(ctx, maxAge); err != nil {
				logger.Warn("photo cleanup failed", "error", err)
			}
		}
	}
}

// backends are the storage services selected by the configuration.
type backends struct {
	sessions session.Store
	stories  story.Store
	photos   upload.Store
}

func openBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}
	var err error

	switch cfg.Store.Backend {
	case config.StoreRedis:
		if b.sessions, err = redisSessions(ctx, cfg); err != nil {
			return nil, err
		}
		stories, err := redisClient(ctx, cfg.Store.RedisAddr)
		if err != nil {
			b.sessions.Close()
			return nil, err
		}
		b.stories = story.NewRedisStore(stories, cfg.Store.RedisPrefix+"stories:")

	case config.StorePostgres:
		b.stories, err = story.NewPostgresStore(ctx, story.PostgresConfig{DSN: cfg.Store.PostgresDSN})
		if err != nil {
			return nil, errors.FromError(err, "S202")
		}
		if cfg.Store.RedisAddr != "" {
			if b.sessions, err = redisSessions(ctx, cfg); err != nil {
				b.stories.Close()
				return nil, err
			}
		} else {
			b.sessions = session.NewMemoryStore()
		}

	default:
		b.sessions = session.NewMemoryStore()
		b.stories = story.NewMemoryStore()
	}

	switch cfg.Photos.Backend {
	case config.PhotosS3:
		b.photos, err = upload.NewS3StoreFromEnv(ctx, cfg.Photos.Region, cfg.Photos.Bucket, cfg.Photos.Prefix, cfg.Photos.MaxSize)
	default:
		b.photos, err = upload.NewDiskStore(cfg.PhotosPath(), cfg.Photos.MaxSize)
	}
	if err != nil {
		b.close(logger)
		return nil, errors.FromError(err, "S203")
	}
	return b, nil
}

func redisSessions(ctx context.Context, cfg *config.Config) (session.Store, error) {
	client, err := redisClient(ctx, cfg.Store.RedisAddr)
	if err != nil {
		return nil, err
	}
	return session.NewRedisStore(client, session.WithRedisPrefix(cfg.Store.RedisPrefix+"client:")), nil
}

func redisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.New("S201").WithDetail("Could not reach Redis at " + addr).Wrap(err)
	}
	return client, nil
}

func (b *backends) close(logger *slog.Logger) {
	if b.sessions != nil {
		if err := b.sessions.Close(); err != nil {
			logger.Warn("session store close failed", "error", err)
		}
	}
	if b.stories != nil {
		if err := b.stories.Close(); err != nil {
			logger.Warn("story store close failed", "error", err)
		}
	}
}
