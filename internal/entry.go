// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
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

	"github.com/starford/merely/internal/api"
	"github.com/starford/merely/internal/index"
	"github.com/starford/merely/internal/mcpserver"
	"github.com/starford/merely/internal/reconciler"
	"github.com/starford/merely/internal/sse"
	"github.com/starford/merely/internal/storage"
)

// components are the long-lived objects shared by every command.
type components struct {
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	rec    *reconciler.Reconciler
}

func (c *components) Close() {
	if err := c.db.Close(); err != nil {
		c.logger.Warn("close index failed", slog.String("error", err.Error()))
	}
}

// setup applies opts, builds the logger and opens the vault and index.
// Extra reconciler options (e.g. a notifier) are appended.
func setup(opts []Option, recOpts ...reconciler.Option) (*application, *components, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("vault_watch", cfg.Vault.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault and database directories exist.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create vault dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	// The schema is created lazily on first use.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}

	recOpts = append([]reconciler.Option{reconciler.WithLogger(logger)}, recOpts...)
	rec := reconciler.New(store, db, recOpts...)

	return app, &components{logger: logger, store: store, db: db, rec: rec}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	app, c, err := setup(opts, reconciler.WithNotifier(broker.PublishNoteEvent))
	if err != nil {
		return err
	}
	defer c.Close()

	cfg := app.config
	logger := c.logger

	// Bring the index in line with the vault before serving.
	if stats, err := c.rec.Rebuild(ctx); err != nil {
		logger.Warn("initial rebuild failed", slog.String("error", err.Error()))
	} else {
		logger.Info("Index rebuilt", slog.Int("added", stats.Added), slog.Int("removed", stats.Removed))
	}

	if cfg.Vault.SeedWelcome {
		if created, err := c.rec.SeedWelcome(ctx); err != nil {
			logger.Warn("seed welcome note failed", slog.String("error", err.Error()))
		} else if created {
			logger.Info("Welcome note created")
		}
	}

	apiRouter := api.NewRouter(c.rec, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Mirror external edits when enabled.
	if cfg.Vault.Watch {
		g.Go(func() error {
			if err := c.rec.Watch(gCtx); err != nil {
				logger.Error("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
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

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, c, err := setup(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.rec.Rebuild(ctx); err != nil {
		c.logger.Warn("initial rebuild failed", slog.String("error", err.Error()))
	}

	c.logger.Info("Starting MCP server on stdio")
	return mcpserver.New(c.rec, app.version).ServeStdio()
}

// RunRebuild reconciles the index with the vault once and reports the result.
func RunRebuild(ctx context.Context, opts ...Option) (reconciler.RebuildStats, error) {
	_, c, err := setup(opts)
	if err != nil {
		return reconciler.RebuildStats{}, err
	}
	defer c.Close()

	stats, err := c.rec.Rebuild(ctx)
	if err != nil {
		return stats, fmt.Errorf("rebuild: %w", err)
	}
	c.logger.Info("Index rebuilt", slog.Int("added", stats.Added), slog.Int("removed", stats.Removed))
	return stats, nil
}

// RunImport copies the external file at src into the vault.
func RunImport(ctx context.Context, src string, opts ...Option) (string, error) {
	_, c, err := setup(opts)
	if err != nil {
		return "", err
	}
	defer c.Close()

	note, err := c.rec.OpenAs(ctx, src)
	if err != nil {
		return "", fmt.Errorf("import %s: %w", src, err)
	}
	c.logger.Info("Note imported", slog.String("source", src), slog.String("path", note.FilePath))
	return note.FilePath, nil
}
