// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/orbit/internal/api"
	"github.com/starford/orbit/internal/codec"
	"github.com/starford/orbit/internal/index"
	"github.com/starford/orbit/internal/mcpserver"
	"github.com/starford/orbit/internal/preview"
	"github.com/starford/orbit/internal/sessionservice"
	"github.com/starford/orbit/internal/sse"
	"github.com/starford/orbit/internal/storage"
)

// components are the pieces every command shares.
type components struct {
	cfg    *Config
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	source index.Source
	svc    *sessionservice.Service
}

func (c *components) Close() error {
	return c.db.Close()
}

// bootstrap applies opts and opens the vault, the index and the session
// service. The caller must Close the result.
func bootstrap(opts []Option) (*application, *components, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	loc, err := cfg.Vault.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("load timezone: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}

	c := codec.New(loc)
	svcOpts := []sessionservice.Option{sessionservice.WithPattern(cfg.Vault.Pattern)}
	if cfg.Cache.TTL > 0 {
		svcOpts = append(svcOpts, sessionservice.WithCache(cfg.Cache.TTL, cfg.Cache.Cleanup))
	}

	return app, &components{
		cfg:    cfg,
		logger: logger,
		store:  store,
		db:     db,
		source: index.Source{Store: store, Codec: c, Pattern: cfg.Vault.Pattern},
		svc:    sessionservice.New(store, db, c, svcOpts...),
	}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	_, c, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	cfg, logger := c.cfg, c.logger
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("vault_pattern", cfg.Vault.Pattern),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := index.Sync(c.db, c.source, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	apiRouter := api.NewRouter(c.svc, preview.New(), cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if _, _, err := c.svc.List(req.Context(), index.ListQuery{Limit: 1}); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := index.Watch(gCtx, c.db, c.source, c.store.Root(), logger, broker.PublishSessionEvent)
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout.
func RunMCP(_ context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, c, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := index.Sync(c.db, c.source, c.logger); err != nil {
		c.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return mcpserver.New(c.svc, app.version).ServeStdio()
}

// ImportFiles copies session documents from outside the vault into it in
// canonical form. Files that fail are reported and skipped; the returned
// error covers the failures.
func ImportFiles(ctx context.Context, w io.Writer, files []string, opts ...Option) error {
	_, c, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	var errs []error
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d, err := c.svc.Import(ctx, filepath.Base(f), data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		fmt.Fprintf(w, "%s -> %s (%d items)\n", f, d.Path, len(d.Session.Items))
	}
	return errors.Join(errs...)
}

// Show renders a session file for the terminal. The file is parsed first so
// that legacy documents print in the current layout.
func Show(w io.Writer, file string, width int, style string, loc *time.Location) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	c := codec.New(loc)
	sess, err := c.ParseFile(filepath.Base(file), string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	_, err = io.WriteString(w, preview.Terminal(c.Render(sess), width, style))
	return err
}
