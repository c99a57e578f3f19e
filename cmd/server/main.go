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

	"github.com/hucube/timesboard/internal/board"
	"github.com/hucube/timesboard/internal/config"
	"github.com/hucube/timesboard/internal/database"
	"github.com/hucube/timesboard/internal/migrations"
	"github.com/hucube/timesboard/internal/server"
	"github.com/hucube/timesboard/internal/wcif"
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
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	store := server.NewSQLiteStore(db)

	if err := server.SeedOfficial(ctx, logger, store, cfg.SeedEmail, cfg.SeedPassword, cfg.CompetitionID); err != nil {
		return fmt.Errorf("seeding official: %w", err)
	}

	// --- Upstream registry client ---
	client := wcif.NewClient(cfg.WCABaseURL, cfg.WCATimeout)
	logger.Info("using upstream registry", "url", cfg.WCABaseURL)

	boards := server.NewBoardRegistry(client, store, logger, cfg.BoardCacheTTL)
	edits := server.NewEditRegistry()
	committer := board.NewCommitter(client, logger)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		DB:        db,
		Store:     store,
		Boards:    boards,
		Edits:     edits,
		Committer: committer,
		SPADir:    cfg.SPADir,
		MaxAge:    cfg.SessionMaxAge,
	})

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
