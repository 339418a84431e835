package world

import (
	"errors"
	"fmt"
	"slices"

	"github.com/talgya/owe/internal/effects"
	"github.com/talgya/owe/internal/entities"
)

// Grid errors. Returned wrapped; compare with errors.Is.
var (
	ErrCellUnavailable = errors.New("cell unavailable")
	ErrEntityMissing   = errors.New("entity missing")
	ErrEffectPresent   = errors.New("effect already present")
	ErrEffectMissing   = errors.New("effect missing")
)

// CellState classifies a cell for placement and traversal.
type CellState uint8

const (
	OutOfBounds         CellState = iota
	AvailableEmpty                // No occupants
	AvailableOccupied             // Only non-blocking occupants (roads, roadblocks, walkers)
	UnavailableOccupied           // At least one blocking occupant
)

func (s CellState) String() string {
	switch s {
	case AvailableEmpty:
		return "available-empty"
	case AvailableOccupied:
		return "available-occupied"
	case UnavailableOccupied:
		return "unavailable-occupied"
	default:
		return "out-of-bounds"
	}
}

// Available reports whether something may still be placed in the cell.
func (s CellState) Available() bool {
	return s == AvailableEmpty || s == AvailableOccupied
}

// Cell is one tile. It maps the IDs of its occupants to their anchor cell.
type Cell struct {
	entities     map[entities.ID]Coord
	desirability int8
	effects      []effects.Effect
}

func emptyCell() Cell {
	return Cell{entities: make(map[entities.ID]Coord)}
}

// ids returns the occupant IDs in a stable order.
func (c *Cell) ids() []entities.ID {
	ids := make([]entities.ID, 0, len(c.entities))
	for id := range c.entities {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, entities.CompareIDs)
	return ids
}

// placement is the arena slot for one entity.
type placement struct {
	entity entities.Entity
	parent Coord
}

// Grid holds a width×height array of cells and the entities placed on them.
// The grid is the only owner of entity values: cells refer to entities by ID
// and every update replaces the arena slot with a new value.
//
// A Grid is not safe for concurrent use.
type Grid struct {
	width   int
	height  int
	cells   []Cell
	arena   map[entities.ID]*placement
	effects []effects.Effect
}

// New creates an empty size×size grid.
func New(size int) *Grid {
	if size < 0 {
		size = 0
	}
	g := &Grid{
		width:  size,
		height: size,
		cells:  make([]Cell, size*size),
		arena:  make(map[entities.ID]*placement),
	}
	for i := range g.cells {
		g.cells[i] = emptyCell()
	}
	return g
}

// NewWithGlobalEffects creates an empty grid with the given effects already active globally.
// Duplicate effects are registered once; effects rejected by
// effects.CheckIdentity are skipped.
func NewWithGlobalEffects(size int, list ...effects.Effect) *Grid {
	g := New(size)
	for _, e := range list {
		_ = g.AddGlobalEffect(e)
	}
	return g
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// CellCount returns width×height.
func (g *Grid) CellCount() int { return g.width * g.height }

// IsCellInGrid reports whether the coordinate lies within the grid.
func (g *Grid) IsCellInGrid(at Coord) bool {
	return at.X >= 0 && at.Y >= 0 && at.X < g.width && at.Y < g.height
}

func (g *Grid) cell(at Coord) *Cell {
	if !g.IsCellInGrid(at) {
		return nil
	}
	return &g.cells[at.Y*g.width+at.X]
}

// footprint returns the cells an entity covers when anchored at parent.
func footprint(e entities.Entity, parent Coord) []Coord {
	s, ok := e.(*entities.Structure)
	if !ok {
		return []Coord{parent}
	}
	size := s.Footprint()
	cells := make([]Coord, 0, size.Cells())
	for x := parent.X; x < parent.X+int(size.Width); x++ {
		for y := parent.Y; y < parent.Y+int(size.Height); y++ {
			cells = append(cells, Coord{X: x, Y: y})
		}
	}
	return cells
}

// AddEntity places e with its anchor at `at` and returns its new ID together
// with the state of `at` before placement. A structure covers its whole
// footprint; every footprint cell must be available or nothing is placed.
// The grid takes ownership of e.
func (g *Grid) AddEntity(at Coord, e entities.Entity) (entities.ID, CellState, error) {
	if e == nil {
		return entities.ID{}, OutOfBounds, fmt.Errorf("add entity at %v: nil entity", at)
	}

	state := g.CellState(at)
	if !state.Available() {
		return entities.ID{}, state, fmt.Errorf("add %s at %v: %w", e.Kind(), at, ErrCellUnavailable)
	}

	cells := footprint(e, at)
	for _, c := range cells {
		if !g.CellState(c).Available() {
			return entities.ID{}, state, fmt.Errorf("add %s at %v: footprint cell %v: %w", e.Kind(), at, c, ErrCellUnavailable)
		}
	}

	id := entities.NewID()
	g.arena[id] = &placement{entity: e, parent: at}
	for _, c := range cells {
		g.cell(c).entities[id] = at
	}

	return id, state, nil
}

// RemoveEntity removes the entity with the given ID from `at` and from every
// other cell of its footprint. Returns the state of `at` before removal.
func (g *Grid) RemoveEntity(at Coord, id entities.ID) (CellState, error) {
	state := g.CellState(at)
	if state != AvailableOccupied && state != UnavailableOccupied {
		return state, fmt.Errorf("remove %s at %v: %w", id, at, ErrCellUnavailable)
	}

	parent, ok := g.cell(at).entities[id]
	if !ok {
		return state, fmt.Errorf("remove %s at %v: %w", id, at, ErrEntityMissing)
	}

	p := g.arena[id]
	for _, c := range footprint(p.entity, parent) {
		if cell := g.cell(c); cell != nil {
			delete(cell.entities, id)
		}
	}
	delete(g.arena, id)

	return state, nil
}

// CellState classifies the cell at `at`.
func (g *Grid) CellState(at Coord) CellState {
	cell := g.cell(at)
	if cell == nil {
		return OutOfBounds
	}
	if len(cell.entities) == 0 {
		return AvailableEmpty
	}
	for id := range cell.entities {
		if entities.IsBlocking(g.arena[id].entity) {
			return UnavailableOccupied
		}
	}
	return AvailableOccupied
}

// IsCellPassable reports whether a walker could stand on the cell.
func (g *Grid) IsCellPassable(at Coord) bool {
	return g.CellState(at).Available()
}

// PassableNeighboursOf returns the in-bounds, non-blocked neighbours of cell, corners included.
func (g *Grid) PassableNeighboursOf(cell Coord) []Coord {
	raw := NeighboursOf(cell, true)
	result := raw[:0]
	for _, n := range raw {
		if g.IsCellPassable(n) {
			result = append(result, n)
		}
	}
	return result
}

// Entity returns the entity with the given ID if it occupies `at`.
func (g *Grid) Entity(at Coord, id entities.ID) (entities.Entity, bool) {
	cell := g.cell(at)
	if cell == nil {
		return nil, false
	}
	if _, ok := cell.entities[id]; !ok {
		return nil, false
	}
	return g.arena[id].entity, true
}

// Lookup returns the current value of a placed entity, wherever it is.
// An entity that was removed no longer resolves.
func (g *Grid) Lookup(id entities.ID) (entities.Entity, bool) {
	p, ok := g.arena[id]
	if !ok {
		return nil, false
	}
	return p.entity, true
}

// Parent returns the anchor cell of a placed entity.
func (g *Grid) Parent(id entities.ID) (Coord, bool) {
	p, ok := g.arena[id]
	if !ok {
		return Coord{}, false
	}
	return p.parent, true
}

// Mutate clones the entity, lets fn change the clone, and installs the clone
// as the entity's new value. Values handed out earlier remain unchanged
// snapshots. A structure's footprint cannot be changed this way; size
// changes made by fn are discarded.
func (g *Grid) Mutate(id entities.ID, fn func(entities.Entity)) (entities.Entity, bool) {
	p, ok := g.arena[id]
	if !ok {
		return nil, false
	}

	updated := p.entity.Clone()
	fn(updated)

	if before, ok := p.entity.(*entities.Structure); ok {
		updated.(*entities.Structure).Props.Size = before.Props.Size
	}

	p.entity = updated
	return updated, true
}

// EntitiesAt returns the IDs of every entity occupying `at`, in stable order.
func (g *Grid) EntitiesAt(at Coord) []entities.ID {
	cell := g.cell(at)
	if cell == nil {
		return nil
	}
	return cell.ids()
}

// EntitiesWithin returns the IDs of entities occupying any cell of the
// rectangle [from, to), clamped to the grid. Each entity appears once, in
// row-major order of the first cell it was found in.
func (g *Grid) EntitiesWithin(from, to Coord) []entities.ID {
	minX, minY := max(from.X, 0), max(from.Y, 0)
	maxX, maxY := min(to.X, g.width), min(to.Y, g.height)

	var result []entities.ID
	seen := make(map[entities.ID]bool)
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			for _, id := range g.cell(Coord{X: x, Y: y}).ids() {
				if !seen[id] {
					seen[id] = true
					result = append(result, id)
				}
			}
		}
	}
	return result
}

// Len returns the number of placed entities.
func (g *Grid) Len() int {
	return len(g.arena)
}

// Census counts placed entities by kind.
func (g *Grid) Census() map[entities.Kind]int {
	counts := make(map[entities.Kind]int)
	for _, p := range g.arena {
		counts[p.entity.Kind()]++
	}
	return counts
}

// Desirability returns the desirability of a cell.
func (g *Grid) Desirability(at Coord) (int8, bool) {
	cell := g.cell(at)
	if cell == nil {
		return 0, false
	}
	return cell.desirability, true
}

// SetDesirability sets the desirability of a cell.
func (g *Grid) SetDesirability(at Coord, value int8) error {
	cell := g.cell(at)
	if cell == nil {
		return fmt.Errorf("set desirability at %v: %w", at, ErrCellUnavailable)
	}
	cell.desirability = value
	return nil
}
