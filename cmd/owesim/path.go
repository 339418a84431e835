package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talgya/owe/internal/world"
)

var pathCmd = &cobra.Command{
	Use:   "path <from> <to>",
	Short: "Find a walking route on a freshly generated world",
	Long: `Generate and settle a world, then find the cheapest walking route
between two cells given as x,y.

Examples:
  owesim path 0,0 12,9 --seed 42`,
	Args: cobra.ExactArgs(2),
	RunE: runPath,
}

func runPath(cmd *cobra.Command, args []string) error {
	from, err := world.ParseCoord(args[0])
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	to, err := world.ParseCoord(args[1])
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	sim, seed, err := buildSimulation(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	path, cost, ok := sim.Path(from, to)
	if !ok {
		return fmt.Errorf("no route from %v to %v on world %d", from, to, seed)
	}

	steps := make([]string, len(path))
	for i, c := range path {
		steps[i] = c.String()
	}
	fmt.Fprintf(out, "%d steps: %s\n", cost, strings.Join(steps, " → "))
	return nil
}
