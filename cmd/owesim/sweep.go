package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/owe/internal/engine"
)

var (
	flagCount    int
	flagShowGrid bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run whole sweeps offline and print a report",
	Long: `Generate and settle a world, advance it by whole cursor sweeps as
fast as possible and print the resulting exchange balances.

Examples:
  owesim sweep
  owesim sweep --count 10 --seed 7 --grid`,
	Args: cobra.NoArgs,
	RunE: runSweeps,
}

func init() {
	sweepCmd.Flags().IntVar(&flagCount, "count", 1, "Number of sweeps to run")
	sweepCmd.Flags().BoolVar(&flagShowGrid, "grid", false, "Print the grid after the last sweep")
}

func runSweeps(cmd *cobra.Command, _ []string) error {
	if flagCount < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", flagCount)
	}
	sim, seed, err := buildSimulation(cfg)
	if err != nil {
		return err
	}
	eng := newEngine(cfg, sim)

	ticks := uint64(flagCount) * eng.SweepEvery
	for eng.Tick < ticks {
		eng.Step()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "seed %d\n", seed)
	report(out, sim)
	if flagShowGrid {
		fmt.Fprintln(out)
		for _, row := range sim.Grid().Rows {
			fmt.Fprintln(out, row)
		}
	}
	return nil
}

// report prints the status line, the entity census and the balances.
func report(w io.Writer, sim *engine.Simulation) {
	st := sim.Status()
	stats := sim.Stats()
	fmt.Fprintf(w, "tick %s, %d sweeps, %d entities on %dx%d, %d walkers requested, %d exchange failures\n\n",
		humanize.Comma(int64(st.Tick)), st.Sweeps, st.Entities, st.Width, st.Height,
		stats.WalkersRequested, stats.ExchangeFailures)

	kinds := make([]string, 0, len(stats.Census))
	for kind := range stats.Census {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(w, "  %-10s %d\n", kind, stats.Census[kind])
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "commodity\trequired\tavailable\tin transit\tused\tlost\tpressure\t")
	for _, b := range sim.Balances() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t\n",
			b.Commodity,
			humanize.Comma(int64(b.Required)),
			humanize.Comma(int64(b.Available)),
			humanize.Comma(int64(b.InTransit)),
			humanize.Comma(int64(b.Used)),
			humanize.Comma(int64(b.Lost)),
			b.Pressure(),
		)
	}
	tw.Flush()
}
