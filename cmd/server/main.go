package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/dataset"
	"github.com/JonMunkholm/gridview/internal/format"
	"github.com/JonMunkholm/gridview/internal/logging"
	"github.com/JonMunkholm/gridview/internal/session"
	"github.com/JonMunkholm/gridview/internal/source"
	"github.com/JonMunkholm/gridview/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"source_driver", cfg.Source.Driver,
		"datasets_path", cfg.Datasets.Path,
		"datasets_watch", cfg.Datasets.Watch,
		"session_ttl", cfg.Session.TTL,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	defs, err := dataset.LoadFile(cfg.Datasets.Path)
	if err != nil {
		slog.Error("failed to load datasets", "error", err)
		os.Exit(1)
	}
	if err := dataset.RegisterAll(defs); err != nil {
		slog.Error("failed to register datasets", "error", err)
		os.Exit(1)
	}
	slog.Info("datasets registered", "count", dataset.Count())

	formatter, err := format.New(cfg.Format.Locale, cfg.Format.Currency, cfg.Format.DateLayout)
	if err != nil {
		slog.Error("invalid format settings", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	src, err := source.Open(ctx, cfg.Source)
	if err != nil {
		slog.Error("failed to open record source", "error", err)
		os.Exit(1)
	}
	defer src.Close()

	sessions := session.NewStore(session.Config{
		TTL:          cfg.Session.TTL,
		MaxInstances: cfg.Session.MaxInstances,
	})

	server := web.NewServer(src, sessions, formatter, cfg)

	// The HTTP server and its background jobs share one lifetime; a signal
	// or the first failure stops them all.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sessions.Run(gctx, cfg.Session.SweepInterval)
		return nil
	})

	if cfg.Datasets.Watch {
		g.Go(func() error {
			return dataset.Watch(gctx, cfg.Datasets.Path, cfg.Datasets.WatchDebounce)
		})
	}

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		src.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}
