package main

import (
	"fmt"
	"log/slog"

	"github.com/talgya/owe/internal/config"
	"github.com/talgya/owe/internal/economy"
	"github.com/talgya/owe/internal/engine"
	"github.com/talgya/owe/internal/rules"
	"github.com/talgya/owe/internal/world"
)

// buildSimulation generates the world, settles it and wires the cursor.
// Returns the seed actually used.
func buildSimulation(c config.Config) (*engine.Simulation, int64, error) {
	gen := c.GenConfig()
	gen.Producers = rules.Extractors(c.World.Extract)
	grid, seed := world.Generate(gen)
	slog.Info("world generated", "seed", seed, "size", gen.Size, "kinds", world.KindCounts(grid))

	exchange := economy.NewExchange(grid)
	if c.Settlement.Enabled {
		town, err := rules.Settle(grid, exchange, c.Plan(seed))
		if err != nil {
			return nil, seed, fmt.Errorf("settle world %d: %w", seed, err)
		}
		for _, b := range town.Buildings {
			slog.Debug("building placed", "name", b.Name, "site", b.Site, "at", b.At)
		}
		slog.Info("settlement laid out",
			"buildings", len(town.Buildings),
			"roads", town.Roads,
			"deposits", town.Deposits,
		)
	}

	if !grid.IsCellInGrid(c.Cursor.Start) {
		return nil, seed, fmt.Errorf("cursor start %v outside the %dx%d grid", c.Cursor.Start, grid.Width(), grid.Height())
	}
	cursor := engine.NewCursor(c.Cursor.Range, c.Direction(), c.Cursor.Start)
	return engine.NewSimulation(grid, exchange, cursor), seed, nil
}

// newEngine builds a tick loop driving sim, with OnSweep once per full
// cursor cycle.
func newEngine(c config.Config, sim *engine.Simulation) *engine.Engine {
	st := sim.Status()
	eng := engine.NewEngine()
	eng.Interval = c.Engine.Interval
	eng.MaxTicks = c.Engine.MaxTicks
	eng.SweepEvery = uint64(st.Width * st.Height)
	eng.SetSpeed(c.Engine.Speed)
	eng.OnTick = func(tick uint64) {
		// Failures are logged and recorded by the simulation.
		_ = sim.TickCell(tick)
	}
	eng.OnSweep = sim.TickSweep
	return eng
}
