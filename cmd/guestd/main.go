package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rayarayu/checkin/internal/config"
	"github.com/rayarayu/checkin/internal/database"
	"github.com/rayarayu/checkin/internal/guestd"
	"github.com/rayarayu/checkin/internal/kiosk"
	"github.com/rayarayu/checkin/internal/migrations"
	"github.com/rayarayu/checkin/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.LoadGuestd()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	store := guestd.NewStore(db)

	// --- Seed ---
	if cfg.AdminUsername != "" {
		if err := store.EnsureOperator(ctx, cfg.AdminUsername, cfg.AdminPassword, kiosk.RoleClient); err != nil {
			return fmt.Errorf("creating admin operator: %w", err)
		}
	}
	if cfg.SeedFile != "" {
		seed, err := guestd.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		if err := store.Apply(ctx, logger, seed); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, guestd.NewAPI(logger, store).Mount)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
