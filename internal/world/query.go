package world

import (
	"slices"

	"github.com/talgya/owe/internal/entities"
)

// FindNamedEntities returns the anchor cell of every entity of the given kind
// and name. Cells are scanned row by row; a multi-cell structure is reported
// once, at its anchor.
func (g *Grid) FindNamedEntities(kind entities.Kind, name string) []Coord {
	var found []Coord
	g.scanNamed(kind, name, func(parent Coord) bool {
		found = append(found, parent)
		return true
	})
	return found
}

// FindClosestNamedEntity returns the anchor of the matching entity nearest
// to `from` by Euclidean distance, along with that distance. Ties go to the
// entity met first in scan order.
func (g *Grid) FindClosestNamedEntity(kind entities.Kind, name string, from Coord) (Coord, float64, bool) {
	var (
		best     Coord
		bestDist float64
		found    bool
	)
	g.scanNamed(kind, name, func(parent Coord) bool {
		d := DistanceBetween(from, parent)
		if !found || d < bestDist {
			best, bestDist, found = parent, d, true
		}
		return true
	})
	return best, bestDist, found
}

func (g *Grid) scanNamed(kind entities.Kind, name string, visit func(parent Coord) bool) {
	seen := make(map[entities.ID]bool)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			cell := g.cell(Coord{X: x, Y: y})
			for _, id := range cell.ids() {
				if seen[id] {
					continue
				}
				seen[id] = true

				p := g.arena[id]
				if p.entity.Kind() != kind {
					continue
				}
				if n, ok := entities.Name(p.entity); !ok || n != name {
					continue
				}
				if !visit(p.parent) {
					return
				}
			}
		}
	}
}

// FindFirstAdjacentRoad returns the first road cell touching the footprint of
// the structure with the given ID. `nextTo` is any cell the structure covers.
// Candidates are the orthogonal neighbours of the footprint, checked in
// (y, x) order. Only structures have adjacent roads.
func (g *Grid) FindFirstAdjacentRoad(nextTo Coord, id entities.ID) (Coord, bool) {
	e, ok := g.Entity(nextTo, id)
	if !ok {
		return Coord{}, false
	}
	if _, ok := e.(*entities.Structure); !ok {
		return Coord{}, false
	}

	parent := g.arena[id].parent
	covered := footprint(e, parent)

	var candidates []Coord
	for _, c := range covered {
		for _, n := range NeighboursOf(c, false) {
			if !slices.Contains(covered, n) {
				candidates = append(candidates, n)
			}
		}
	}
	slices.SortFunc(candidates, func(a, b Coord) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	candidates = slices.Compact(candidates)

	for _, c := range candidates {
		cell := g.cell(c)
		if cell == nil {
			continue
		}
		for _, rid := range cell.ids() {
			if g.arena[rid].entity.Kind() == entities.KindRoad {
				return c, true
			}
		}
	}
	return Coord{}, false
}
