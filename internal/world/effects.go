package world

import (
	"fmt"
	"slices"

	"github.com/talgya/owe/internal/effects"
)

// AddCellEffect activates effect on a single cell.
func (g *Grid) AddCellEffect(at Coord, effect effects.Effect) (CellState, error) {
	cell := g.cell(at)
	if cell == nil {
		return OutOfBounds, fmt.Errorf("add cell effect at %v: %w", at, ErrCellUnavailable)
	}
	state := g.CellState(at)
	if err := effects.CheckIdentity(effect); err != nil {
		return state, fmt.Errorf("add cell effect at %v: %w", at, err)
	}
	if effects.Contains(cell.effects, effect) {
		return state, fmt.Errorf("add cell effect at %v: %w", at, ErrEffectPresent)
	}
	cell.effects = append(cell.effects, effect)
	return state, nil
}

// RemoveCellEffect deactivates effect on a single cell.
func (g *Grid) RemoveCellEffect(at Coord, effect effects.Effect) (CellState, error) {
	cell := g.cell(at)
	if cell == nil {
		return OutOfBounds, fmt.Errorf("remove cell effect at %v: %w", at, ErrCellUnavailable)
	}
	state := g.CellState(at)
	i := effects.IndexOf(cell.effects, effect)
	if i < 0 {
		return state, fmt.Errorf("remove cell effect at %v: %w", at, ErrEffectMissing)
	}
	cell.effects = slices.Delete(cell.effects, i, i+1)
	return state, nil
}

// ClearCellEffects deactivates every effect on a cell.
func (g *Grid) ClearCellEffects(at Coord) (CellState, error) {
	cell := g.cell(at)
	if cell == nil {
		return OutOfBounds, fmt.Errorf("clear cell effects at %v: %w", at, ErrCellUnavailable)
	}
	cell.effects = nil
	return g.CellState(at), nil
}

// CellEffects returns a copy of the effects active on a cell.
func (g *Grid) CellEffects(at Coord) []effects.Effect {
	cell := g.cell(at)
	if cell == nil {
		return nil
	}
	return slices.Clone(cell.effects)
}

// IsEffectInCell reports whether effect is active on the cell.
func (g *Grid) IsEffectInCell(at Coord, effect effects.Effect) bool {
	cell := g.cell(at)
	return cell != nil && effects.Contains(cell.effects, effect)
}

// AddGlobalEffect activates effect on the whole grid.
func (g *Grid) AddGlobalEffect(effect effects.Effect) error {
	if err := effects.CheckIdentity(effect); err != nil {
		return fmt.Errorf("add global effect: %w", err)
	}
	if effects.Contains(g.effects, effect) {
		return fmt.Errorf("add global effect: %w", ErrEffectPresent)
	}
	g.effects = append(g.effects, effect)
	return nil
}

// RemoveGlobalEffect deactivates a global effect.
func (g *Grid) RemoveGlobalEffect(effect effects.Effect) error {
	i := effects.IndexOf(g.effects, effect)
	if i < 0 {
		return fmt.Errorf("remove global effect: %w", ErrEffectMissing)
	}
	g.effects = slices.Delete(g.effects, i, i+1)
	return nil
}

// ClearGlobalEffects deactivates every global effect.
func (g *Grid) ClearGlobalEffects() {
	g.effects = nil
}

// GlobalEffects returns a copy of the globally active effects.
func (g *Grid) GlobalEffects() []effects.Effect {
	return slices.Clone(g.effects)
}

// IsEffectGlobal reports whether effect is active globally.
func (g *Grid) IsEffectGlobal(effect effects.Effect) bool {
	return effects.Contains(g.effects, effect)
}
