package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rayarayu/checkin/internal/clock"
	"github.com/rayarayu/checkin/internal/config"
	"github.com/rayarayu/checkin/internal/decoder"
	"github.com/rayarayu/checkin/internal/directory"
	"github.com/rayarayu/checkin/internal/handler/health"
	"github.com/rayarayu/checkin/internal/kiosk"
	"github.com/rayarayu/checkin/internal/server"
	"github.com/rayarayu/checkin/internal/station"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.LoadKiosk()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Directory ---
	dir := directory.New(cfg.DirectoryURL, cfg.DirectoryToken, cfg.CheckInTimeout)
	session := kiosk.Session{
		Operator: cfg.OperatorName,
		Role:     cfg.OperatorRole,
		Token:    cfg.DirectoryToken,
	}
	if cfg.DirectoryUsername != "" {
		session, err = dir.Login(ctx, cfg.DirectoryUsername, cfg.DirectoryPassword, cfg.OperatorRole)
		if err != nil {
			return err
		}
		logger.Info("logged in to directory", "operator", session.Operator, "role", session.Role)
	}

	// --- Station ---
	st, err := station.New(dir, session, clock.Real{}, station.Config{
		CheckInTimeout:    cfg.CheckInTimeout,
		SearchQuietPeriod: cfg.SearchQuietPeriod,
		SummaryTimeout:    cfg.CheckInTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("building station: %w", err)
	}
	defer st.Wait()

	feed := decoder.NewHub(logger.With("component", "decoder"))
	defer st.Attach(feed)()

	// --- HTTP Server ---
	k := server.NewKiosk(logger, server.Deps{
		Station: st,
		Feed:    feed,
		Checks:  map[string]health.Checker{"directory": dir},
		SPADir:  cfg.SPADir,
	})
	srv := server.New(cfg.HTTPAddr, logger, k.Mount)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	if err := st.Start(gctx, cfg.SummaryPollSchedule); err != nil {
		return fmt.Errorf("starting summary polling: %w", err)
	}

	if cfg.StdinScanner {
		lines := decoder.NewLineSource(stdin)
		defer st.Attach(lines)()
		// Not part of the group: a blocked stdin read must not hold up shutdown.
		go func() {
			if err := lines.Run(gctx); err != nil {
				logger.Error("scanner input failed", "error", err)
			}
		}()
	}

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "operator", session.Operator)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		k.Close()
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
