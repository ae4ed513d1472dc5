package main

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/streetrep/internal/config"
	"github.com/playperu/streetrep/internal/database"
	"github.com/playperu/streetrep/internal/handler/health"
	"github.com/playperu/streetrep/internal/leaderboard"
	"github.com/playperu/streetrep/internal/migrations"
	"github.com/playperu/streetrep/internal/mission"
	"github.com/playperu/streetrep/internal/scoring"
	"github.com/playperu/streetrep/internal/server"
	"github.com/playperu/streetrep/internal/store"
	"github.com/playperu/streetrep/internal/surface"
	"github.com/playperu/streetrep/internal/worldevent"
)

const (
	leaderboardKey  = "streetrep:leaderboard"
	leaderboardSeed = 1000
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

	if err := migrations.Run(ctx, db, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	version, err := migrations.Version(ctx, db)
	if err != nil {
		return err
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "schema_version", version)

	st := store.New(db)
	checks := map[string]health.Checker{
		"sqlite": database.Checker{DB: db},
	}

	// --- Redis (optional) ---
	var board leaderboard.Board
	if cfg.RedisURL != "" {
		rdb, err := leaderboard.Open(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		rb := leaderboard.NewRedis(rdb, leaderboardKey)
		if err := seedBoard(ctx, st, rb); err != nil {
			return fmt.Errorf("seeding leaderboard: %w", err)
		}
		board = rb
		checks["redis"] = rb
		logger.Info("connected to redis")
	}

	// --- Game engines ---
	engine, err := scoring.New(scoring.Config{
		ProximityRadius: cfg.Scoring.ProximityRadius,
		ProximityBonus:  cfg.Scoring.ProximityBonus,
		StreakPerDay:    cfg.Scoring.StreakPerDay,
		StreakCap:       cfg.Scoring.StreakCap,
	}, surface.Default())
	if err != nil {
		return fmt.Errorf("configuring scoring: %w", err)
	}

	blackoutCfg := worldevent.DefaultConfig()
	blackoutCfg.Probability = cfg.Blackout.Probability
	blackoutCfg.Radius = cfg.Blackout.Radius
	sched, err := worldevent.New(blackoutCfg)
	if err != nil {
		return fmt.Errorf("configuring blackouts: %w", err)
	}

	svc := &server.Services{
		Store:     st,
		Scoring:   engine,
		Missions:  mission.Default(),
		Blackouts: sched,
		Board:     board,
		Logger:    logger,
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, svc, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})
	loop := server.NewBlackoutLoop(svc, cfg.BlackoutInterval, cfg.PositionMaxAge, newRand())

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

	g.Go(func() error {
		logger.Info("starting blackout loop", "interval", cfg.BlackoutInterval)
		return loop.Run(gctx)
	})

	return g.Wait()
}

// seedBoard copies the current standings into the cache so a fresh Redis
// starts in sync with the database.
func seedBoard(ctx context.Context, st *store.Store, board leaderboard.Board) error {
	top, err := st.TopPlayers(ctx, leaderboardSeed)
	if err != nil {
		return err
	}
	for _, s := range top {
		if err := board.Record(ctx, s.PlayerID, s.Name, s.Rep); err != nil {
			return err
		}
	}
	return nil
}

func newRand() *rand.Rand {
	var seed [16]byte
	crand.Read(seed[:])
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:])))
}
