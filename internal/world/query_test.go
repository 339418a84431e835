package world

import (
	"math"
	"slices"
	"testing"

	"github.com/talgya/owe/internal/entities"
)

func TestNeighboursOf(t *testing.T) {
	tests := []struct {
		name        string
		cell        Coord
		withCorners bool
		want        []Coord
	}{
		{"origin with corners", C(0, 0), true, []Coord{C(1, 0), C(0, 1), C(1, 1)}},
		{"origin without corners", C(0, 0), false, []Coord{C(1, 0), C(0, 1)}},
		{"interior without corners", C(1, 1), false, []Coord{C(1, 0), C(0, 1), C(2, 1), C(1, 2)}},
		{"interior with corners", C(1, 1), true, []Coord{
			C(0, 0), C(1, 0), C(2, 0),
			C(0, 1), C(2, 1),
			C(0, 2), C(1, 2), C(2, 2),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NeighboursOf(tt.cell, tt.withCorners)
			if !slices.Equal(got, tt.want) {
				t.Errorf("NeighboursOf(%v, %v) = %v, want %v", tt.cell, tt.withCorners, got, tt.want)
			}
		})
	}
}

func TestPassableNeighboursOf(t *testing.T) {
	g := New(3)
	_, _, _ = g.AddEntity(C(1, 0), doodad("d0"))
	_, _, _ = g.AddEntity(C(0, 1), &entities.Road{})

	got := g.PassableNeighboursOf(C(0, 0))
	want := []Coord{C(0, 1), C(1, 1)}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// Far-edge neighbours are dropped.
	if got := g.PassableNeighboursOf(C(2, 2)); len(got) != 3 {
		t.Errorf("expected 3 neighbours at the corner, got %v", got)
	}
}

func TestDistanceBetween(t *testing.T) {
	if d := DistanceBetween(C(0, 0), C(3, 4)); d != 5 {
		t.Errorf("expected 5, got %v", d)
	}
	if d := DistanceBetween(C(1, 1), C(2, 2)); math.Abs(d-math.Sqrt2) > 1e-9 {
		t.Errorf("expected sqrt(2), got %v", d)
	}
}

func TestPathBetween(t *testing.T) {
	g := New(3)

	path, cost, ok := g.PathBetween(C(0, 0), C(0, 0))
	if !ok || cost != 0 || !slices.Equal(path, []Coord{C(0, 0)}) {
		t.Errorf("same cell: got %v %d %v", path, cost, ok)
	}

	path, cost, ok = g.PathBetween(C(0, 0), C(1, 1))
	if !ok || cost != 1 || !slices.Equal(path, []Coord{C(0, 0), C(1, 1)}) {
		t.Errorf("diagonal: got %v %d %v", path, cost, ok)
	}

	path, cost, ok = g.PathBetween(C(0, 0), C(2, 2))
	if !ok || cost != 2 || len(path) != 3 {
		t.Errorf("corner to corner: got %v %d %v", path, cost, ok)
	}

	if _, _, ok := g.PathBetween(C(0, 0), C(3, 3)); ok {
		t.Error("expected no path to an out-of-bounds cell")
	}
}

func TestPathBetweenDetours(t *testing.T) {
	g := New(3)
	// Wall off the middle column except the bottom cell.
	_, _, _ = g.AddEntity(C(1, 0), doodad("d0"))
	_, _, _ = g.AddEntity(C(1, 1), doodad("d1"))

	path, cost, ok := g.PathBetween(C(0, 0), C(2, 0))
	if !ok {
		t.Fatal("expected a path")
	}
	if cost != 4 {
		t.Errorf("expected cost 4, got %d via %v", cost, path)
	}
	if path[0] != C(0, 0) || path[len(path)-1] != C(2, 0) {
		t.Errorf("path does not include both endpoints: %v", path)
	}
	for i := 1; i < len(path); i++ {
		if !g.IsCellPassable(path[i]) {
			t.Errorf("path crosses blocked cell %v", path[i])
		}
	}

	_, _, _ = g.AddEntity(C(1, 2), doodad("d2"))
	if _, _, ok := g.PathBetween(C(0, 0), C(2, 0)); ok {
		t.Error("expected no path once the wall is closed")
	}
}

func TestFindNamedEntities(t *testing.T) {
	g := New(4)
	_, _, _ = g.AddEntity(C(2, 0), doodad("tree"))
	_, _, _ = g.AddEntity(C(0, 1), structure("tree", 2, 2))
	_, _, _ = g.AddEntity(C(3, 3), doodad("tree"))
	_, _, _ = g.AddEntity(C(3, 0), doodad("rock"))

	got := g.FindNamedEntities(entities.KindDoodad, "tree")
	if !slices.Equal(got, []Coord{C(2, 0), C(3, 3)}) {
		t.Errorf("doodads: got %v", got)
	}

	got = g.FindNamedEntities(entities.KindStructure, "tree")
	if !slices.Equal(got, []Coord{C(0, 1)}) {
		t.Errorf("structure should be reported once at its anchor, got %v", got)
	}

	if got := g.FindNamedEntities(entities.KindWalker, "tree"); len(got) != 0 {
		t.Errorf("expected no walkers, got %v", got)
	}
}

func TestFindClosestNamedEntity(t *testing.T) {
	g := New(5)
	_, _, _ = g.AddEntity(C(0, 2), doodad("tree"))
	_, _, _ = g.AddEntity(C(4, 2), doodad("tree"))
	_, _, _ = g.AddEntity(C(4, 4), doodad("tree"))

	at, dist, ok := g.FindClosestNamedEntity(entities.KindDoodad, "tree", C(2, 2))
	if !ok {
		t.Fatal("expected a match")
	}
	// (0, 2) and (4, 2) tie; (0, 2) is scanned first.
	if at != C(0, 2) || dist != 2 {
		t.Errorf("got %v at %v", at, dist)
	}

	at, _, _ = g.FindClosestNamedEntity(entities.KindDoodad, "tree", C(4, 3))
	if at != C(4, 2) {
		t.Errorf("expected (4, 2), got %v", at)
	}

	if _, _, ok := g.FindClosestNamedEntity(entities.KindDoodad, "rock", C(0, 0)); ok {
		t.Error("expected no match")
	}
}

func TestFindFirstAdjacentRoad(t *testing.T) {
	g := New(5)
	id, _, _ := g.AddEntity(C(1, 1), structure("s0", 2, 2))
	_, _, _ = g.AddEntity(C(3, 2), &entities.Road{})
	_, _, _ = g.AddEntity(C(0, 1), &entities.Road{})
	_, _, _ = g.AddEntity(C(0, 0), &entities.Road{}) // diagonal only

	at, ok := g.FindFirstAdjacentRoad(C(2, 2), id)
	if !ok {
		t.Fatal("expected a road")
	}
	// (0, 1) comes before (3, 2) in (y, x) order.
	if at != C(0, 1) {
		t.Errorf("expected (0, 1), got %v", at)
	}

	d, _, _ := g.AddEntity(C(4, 4), doodad("d0"))
	if _, ok := g.FindFirstAdjacentRoad(C(4, 4), d); ok {
		t.Error("doodads have no adjacent road")
	}
	if _, ok := g.FindFirstAdjacentRoad(C(4, 0), id); ok {
		t.Error("structure does not occupy (4, 0)")
	}
}

func TestFindFirstAdjacentRoadNone(t *testing.T) {
	g := New(3)
	id, _, _ := g.AddEntity(C(1, 1), structure("s0", 1, 1))
	_, _, _ = g.AddEntity(C(0, 0), &entities.Road{})

	if _, ok := g.FindFirstAdjacentRoad(C(1, 1), id); ok {
		t.Error("corner roads do not count")
	}
}

func TestParseCoord(t *testing.T) {
	tests := []struct {
		in      string
		want    Coord
		wantErr bool
	}{
		{"3,4", C(3, 4), false},
		{" (10, 2) ", C(10, 2), false},
		{"-1,0", C(-1, 0), false},
		{"3", Coord{}, true},
		{"a,1", Coord{}, true},
		{"1,b", Coord{}, true},
	}
	for _, tt := range tests {
		got, err := ParseCoord(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCoord(%q) = %v, %v, want %v, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
