package engine

import (
	"slices"
	"strings"

	"github.com/talgya/owe/internal/entities"
	"github.com/talgya/owe/internal/world"
)

// EntityView is the read-only form of an entity for observers.
type EntityView struct {
	ID     entities.ID     `json:"id"`
	Kind   string          `json:"kind"`
	Name   string          `json:"name,omitempty"`
	Parent world.Coord     `json:"parent"`
	Entity entities.Entity `json:"entity"`
}

// CellView describes one cell.
type CellView struct {
	At           world.Coord  `json:"at"`
	State        string       `json:"state"`
	Passable     bool         `json:"passable"`
	Desirability int8         `json:"desirability"`
	Effects      int          `json:"effects"`
	Cursor       bool         `json:"cursor"`
	Entities     []EntityView `json:"entities"`
}

// GridView is a one-character-per-cell map of the grid, row by row.
type GridView struct {
	Width  int               `json:"width"`
	Height int               `json:"height"`
	Cursor world.Coord       `json:"cursor"`
	Rows   []string          `json:"rows"`
	Legend map[string]string `json:"legend"`
}

// glyphs, strongest first: a cell shows the first kind it holds.
var glyphs = []struct {
	kind  entities.Kind
	glyph byte
}{
	{entities.KindStructure, 'S'},
	{entities.KindResource, 'R'},
	{entities.KindDoodad, 'd'},
	{entities.KindWalker, 'w'},
	{entities.KindRoadblock, '#'},
	{entities.KindRoad, '='},
}

// Cell returns the view of one cell, or false if it is outside the grid.
func (s *Simulation) Cell(at world.Coord) (CellView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.grid.IsCellInGrid(at) {
		return CellView{}, false
	}

	desirability, _ := s.grid.Desirability(at)
	view := CellView{
		At:           at,
		State:        s.grid.CellState(at).String(),
		Passable:     s.grid.IsCellPassable(at),
		Desirability: desirability,
		Effects:      len(s.grid.CellEffects(at)),
		Cursor:       s.cursor.Position() == at,
		Entities:     []EntityView{},
	}
	for _, id := range s.grid.EntitiesAt(at) {
		e, _ := s.grid.Lookup(id)
		parent, _ := s.grid.Parent(id)
		name, _ := entities.Name(e)
		view.Entities = append(view.Entities, EntityView{
			ID:     id,
			Kind:   e.Kind().String(),
			Name:   name,
			Parent: parent,
			Entity: e.Clone(),
		})
	}
	return view, true
}

// Grid renders the grid. The cursor cell is marked with '@'.
func (s *Simulation) Grid() GridView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, h := s.grid.Width(), s.grid.Height()
	cursor := s.cursor.Position()
	rows := make([]string, 0, h)
	var b strings.Builder
	for y := 0; y < h; y++ {
		b.Reset()
		for x := 0; x < w; x++ {
			at := world.C(x, y)
			if at == cursor {
				b.WriteByte('@')
				continue
			}
			b.WriteByte(s.glyphAt(at))
		}
		rows = append(rows, b.String())
	}

	legend := map[string]string{".": "empty", "@": "cursor"}
	for _, g := range glyphs {
		legend[string(g.glyph)] = g.kind.String()
	}
	return GridView{Width: w, Height: h, Cursor: cursor, Rows: rows, Legend: legend}
}

func (s *Simulation) glyphAt(at world.Coord) byte {
	var kinds []entities.Kind
	for _, id := range s.grid.EntitiesAt(at) {
		if e, ok := s.grid.Lookup(id); ok {
			kinds = append(kinds, e.Kind())
		}
	}
	for _, g := range glyphs {
		if slices.Contains(kinds, g.kind) {
			return g.glyph
		}
	}
	return '.'
}
