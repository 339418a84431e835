package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/owe/internal/api"
	"github.com/talgya/owe/internal/engine"
	"github.com/talgya/owe/internal/persistence"
)

var (
	flagPort     int
	flagMaxTicks uint64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation and serve the HTTP API",
	Long: `Run the simulation until interrupted or until the tick limit.

Events and per-sweep commodity balances are journaled to SQLite when the
journal is enabled. The HTTP API serves observation endpoints; POST
/api/v1/speed needs the admin key and the event streams need the relay
key, both read from the environment variables named in the configuration.

Examples:
  owesim run
  owesim run --port 9090
  OWE_ADMIN_KEY=secret owesim run --max-ticks 10000`,
	Args: cobra.NoArgs,
	RunE: runSimulation,
}

func init() {
	runCmd.Flags().IntVar(&flagPort, "port", 0, "HTTP API port (overrides the configuration)")
	runCmd.Flags().Uint64Var(&flagMaxTicks, "max-ticks", 0, "Stop after this many ticks (overrides the configuration)")
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	if flagPort != 0 {
		cfg.API.Port = flagPort
	}
	if flagMaxTicks != 0 {
		cfg.Engine.MaxTicks = flagMaxTicks
	}

	sim, seed, err := buildSimulation(cfg)
	if err != nil {
		return err
	}
	eng := newEngine(cfg, sim)

	// ── Journal ───────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Journal.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
			return fmt.Errorf("create journal directory: %w", err)
		}
		db, err = persistence.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Info("journal opened", "path", cfg.Journal.Path)

		if err := db.SaveMeta("seed", strconv.FormatInt(seed, 10)); err != nil {
			return fmt.Errorf("save seed: %w", err)
		}
		sim.OnEvent = db.SaveEvent
		eng.OnSweep = func(tick uint64) {
			sim.TickSweep(tick)
			if err := db.SaveSweep(sim); err != nil {
				slog.Error("failed to journal sweep", "tick", tick, "error", err)
			}
		}
	}

	// A cursor off the grid never recovers.
	eng.OnTick = func(tick uint64) {
		var gridErr *engine.GridTickError
		if err := sim.TickCell(tick); errors.As(err, &gridErr) {
			eng.Stop()
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var server *api.Server
	if cfg.API.Enabled {
		server = &api.Server{
			Sim:         sim,
			Eng:         eng,
			DB:          db,
			Port:        cfg.API.Port,
			AdminKey:    cfg.AdminKey(),
			RelayKey:    cfg.RelayKey(),
			PathLimiter: api.NewRateLimiter(cfg.API.PathLimit, cfg.API.PathWindow),
		}
		server.Start()
	}

	// ── Engine ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("simulation running",
		"seed", seed,
		"interval", cfg.Engine.Interval,
		"speed", cfg.Engine.Speed,
		"sweep_every", eng.SweepEvery,
		"max_ticks", cfg.Engine.MaxTicks,
	)
	eng.Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP shutdown failed", "error", err)
		}
	}

	st := sim.Status()
	slog.Info("simulation finished", "tick", st.Tick, "sweeps", st.Sweeps)
	return nil
}
