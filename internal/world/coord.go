// Package world provides the settlement grid: cells, entity placement,
// effect membership, spatial queries and path search.
// Coordinates are (x, y) with x growing right and y growing down.
package world

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coord is a cell position on the grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// C is shorthand for Coord{X: x, Y: y}.
func C(x, y int) Coord {
	return Coord{X: x, Y: y}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// ParseCoord reads "x,y", allowing spaces and optional parentheses.
func ParseCoord(s string) (Coord, error) {
	trimmed := strings.Trim(strings.TrimSpace(s), "()")
	xs, ys, ok := strings.Cut(trimmed, ",")
	if !ok {
		return Coord{}, fmt.Errorf("coordinate %q: want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Coord{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Coord{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	return Coord{X: x, Y: y}, nil
}

// neighbourOffsets lists the eight neighbours in scan order:
// top row left to right, middle left and right, bottom row left to right.
var neighbourOffsets = [8]struct {
	dx, dy int
	corner bool
}{
	{-1, -1, true},
	{0, -1, false},
	{1, -1, true},
	{-1, 0, false},
	{1, 0, false},
	{-1, 1, true},
	{0, 1, false},
	{1, 1, true},
}

// NeighboursOf returns the raw neighbour coordinates of cell, in scan order.
// Neighbours that would fall below zero are omitted; neighbours past the far
// edges are not, since the grid size is unknown here. Without corners at most
// four neighbours are returned.
func NeighboursOf(cell Coord, withCorners bool) []Coord {
	result := make([]Coord, 0, 8)
	for _, off := range neighbourOffsets {
		if off.corner && !withCorners {
			continue
		}
		n := Coord{X: cell.X + off.dx, Y: cell.Y + off.dy}
		if n.X < 0 || n.Y < 0 {
			continue
		}
		result = append(result, n)
	}
	return result
}

// DistanceBetween returns the Euclidean distance between two cells.
func DistanceBetween(a, b Coord) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
