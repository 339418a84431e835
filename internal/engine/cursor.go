package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/talgya/owe/internal/economy"
	"github.com/talgya/owe/internal/entities"
	"github.com/talgya/owe/internal/world"
)

// Direction is the primary axis and sense of a cursor sweep.
type Direction uint8

const (
	Up    Direction = iota // Column by column, bottom to top, right to left
	Down                   // Column by column, top to bottom, left to right
	Left                   // Row by row, right to left, bottom to top
	Right                  // Row by row, left to right, top to bottom
)

var directionNames = [...]string{"up", "down", "left", "right"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "unknown"
}

// ParseDirection reads a direction name, ignoring case.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ExchangeTickError reports every exchange update that failed during one
// tick. The tick itself still completed.
type ExchangeTickError struct {
	At   world.Coord
	Errs []error
}

func (e *ExchangeTickError) Error() string {
	return fmt.Sprintf("tick at %v: %d exchange update(s) failed: %v", e.At, len(e.Errs), errors.Join(e.Errs...))
}

func (e *ExchangeTickError) Unwrap() []error { return e.Errs }

// GridTickError reports a tick that could not run because of the grid.
type GridTickError struct {
	At  world.Coord
	Err error
}

func (e *GridTickError) Error() string {
	return fmt.Sprintf("tick at %v: %v", e.At, e.Err)
}

func (e *GridTickError) Unwrap() error { return e.Err }

// Ledger receives commodity updates produced during a tick.
// *economy.Exchange implements it.
type Ledger interface {
	UpdateState(e entities.Entity, id entities.ID, commodity entities.Commodity, state economy.CommodityState) error
}

// WalkerRequest is a walker a structure asked to emit. Walkers are not
// placed on the grid by the cursor.
type WalkerRequest struct {
	From  world.Coord
	Owner entities.ID
	Props entities.WalkerProperties
}

// Cursor visits one cell per tick in a closed boustrophedon cycle. At each
// cell it applies the cell's effects around it, runs production for the
// entities anchored there, and once per full cycle applies the global effects.
type Cursor struct {
	cell      world.Coord
	direction Direction
	radius    int

	processed int // cells processed since the last global sweep
	sweeps    uint64

	// OnWalker, if set, receives walker emission requests.
	OnWalker func(WalkerRequest)
}

// NewCursor creates a cursor at start. radius is the reach of cell effects.
func NewCursor(radius int, direction Direction, start world.Coord) *Cursor {
	if radius < 0 {
		radius = 0
	}
	return &Cursor{cell: start, direction: direction, radius: radius}
}

// Position returns the cell the next tick will process.
func (c *Cursor) Position() world.Coord { return c.cell }

// Direction returns the sweep direction.
func (c *Cursor) Direction() Direction { return c.direction }

// Range returns the reach of cell effects.
func (c *Cursor) Range() int { return c.radius }

// Sweeps returns how many global sweeps have completed.
func (c *Cursor) Sweeps() uint64 { return c.sweeps }

// ProcessAndAdvance runs one tick at the current cell and moves on.
//
// Exchange failures are collected into an *ExchangeTickError; the tick's
// other side effects are kept and the cursor still advances. A cursor
// positioned off the grid returns a *GridTickError and does not move.
func (c *Cursor) ProcessAndAdvance(g *world.Grid, ledger Ledger) error {
	if !g.IsCellInGrid(c.cell) {
		return &GridTickError{At: c.cell, Err: fmt.Errorf("cursor off grid: %w", world.ErrCellUnavailable)}
	}

	at := c.cell
	c.applyCellEffects(g)
	c.countAndSweep(g)
	failures := c.produce(g, ledger, at)
	c.cell = next(c.cell, g.Width(), g.Height(), c.direction)

	if len(failures) > 0 {
		return &ExchangeTickError{At: at, Errs: failures}
	}
	return nil
}

// applyCellEffects applies the current cell's effects to every entity in the
// clamped square window around it. An entity covering several window cells
// is affected once per effect.
func (c *Cursor) applyCellEffects(g *world.Grid) {
	active := g.CellEffects(c.cell)
	if len(active) == 0 {
		return
	}

	from := world.C(c.cell.X-c.radius, c.cell.Y-c.radius)
	to := world.C(c.cell.X+c.radius+1, c.cell.Y+c.radius+1)
	ids := g.EntitiesWithin(from, to)

	for _, effect := range active {
		for _, id := range ids {
			g.Mutate(id, effect.Apply)
		}
	}
}

// countAndSweep fires the global effects on the last cell of every full cycle.
func (c *Cursor) countAndSweep(g *world.Grid) {
	c.processed++
	if c.processed < g.CellCount() {
		return
	}
	c.processed = 0
	c.sweeps++

	active := g.GlobalEffects()
	if len(active) == 0 {
		return
	}
	ids := g.EntitiesWithin(world.C(0, 0), world.C(g.Width(), g.Height()))
	for _, effect := range active {
		for _, id := range ids {
			g.Mutate(id, effect.Apply)
		}
	}
}

type ledgerUpdate struct {
	commodity entities.Commodity
	state     economy.CommodityState
}

// produce runs the producers of entities anchored at the cell. Producers see
// the entity as it was before this step; their own state changes and the
// stock changes are installed through a fresh clone.
func (c *Cursor) produce(g *world.Grid, ledger Ledger, at world.Coord) []error {
	var failures []error

	for _, id := range g.EntitiesAt(at) {
		if parent, _ := g.Parent(id); parent != at {
			continue
		}
		snapshot, _ := g.Lookup(id)
		if !hasProducer(snapshot) {
			continue
		}

		var (
			updates []ledgerUpdate
			walkers []entities.WalkerProperties
		)
		updated, _ := g.Mutate(id, func(e entities.Entity) {
			switch v := e.(type) {
			case *entities.Resource:
				var extracted uint32
				if stage, ok := v.Producer.ProduceCommodity(snapshot); ok {
					extracted = stage.Commodity.Amount
					updates = append(updates, ledgerUpdate{stage.Commodity, economy.Available})
				}
				v.Extract(extracted)

			case *entities.Structure:
				if stage, ok := v.Producer.ProduceCommodity(snapshot); ok {
					if v.State.Commodities == nil {
						v.State.Commodities = make(map[string]uint32)
					}
					v.State.Commodities[stage.Commodity.Name] += stage.Commodity.Amount
					updates = append(updates, stageUpdates(stage)...)
				}
				if props, ok := v.Producer.ProduceWalker(snapshot); ok {
					walkers = append(walkers, props)
				}
			}
		})

		for _, u := range updates {
			if err := ledger.UpdateState(updated, id, u.commodity, u.state); err != nil {
				failures = append(failures, err)
			}
		}
		if c.OnWalker != nil {
			for _, props := range walkers {
				c.OnWalker(WalkerRequest{From: at, Owner: id, Props: props})
			}
		}
	}

	return failures
}

func hasProducer(e entities.Entity) bool {
	switch v := e.(type) {
	case *entities.Resource:
		return v.Producer != nil
	case *entities.Structure:
		return v.Producer != nil
	}
	return false
}

// stageUpdates orders a structure's stage as required inputs, used inputs,
// then the produced commodity.
func stageUpdates(stage entities.ProductionStage) []ledgerUpdate {
	updates := make([]ledgerUpdate, 0, len(stage.Required)+len(stage.Used)+1)
	for _, r := range stage.Required {
		updates = append(updates, ledgerUpdate{r, economy.Required})
	}
	for _, u := range stage.Used {
		updates = append(updates, ledgerUpdate{u, economy.Used})
	}
	return append(updates, ledgerUpdate{stage.Commodity, economy.Available})
}

// next returns the cell after cell on a width×height grid.
func next(cell world.Coord, width, height int, d Direction) world.Coord {
	x, y := cell.X, cell.Y
	switch d {
	case Up:
		if y == 0 {
			if x == 0 {
				x = width - 1
			} else {
				x--
			}
			y = height - 1
		} else {
			y--
		}
	case Down:
		if y+1 == height {
			if x+1 == width {
				x = 0
			} else {
				x++
			}
			y = 0
		} else {
			y++
		}
	case Left:
		if x == 0 {
			if y == 0 {
				y = height - 1
			} else {
				y--
			}
			x = width - 1
		} else {
			x--
		}
	default: // Right
		if x+1 == width {
			if y+1 == height {
				y = 0
			} else {
				y++
			}
			x = 0
		} else {
			x++
		}
	}
	return world.C(x, y)
}
