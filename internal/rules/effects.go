// Package rules holds ready-made effects and producers, plus Settle, which
// lays out a small working settlement on a generated grid.
//
// Every effect saturates: values stop at their type's bounds or at the
// entity's own maximum instead of wrapping.
package rules

import (
	"math"

	"github.com/talgya/owe/internal/effects"
	"github.com/talgya/owe/internal/entities"
)

// Blaze raises a structure's fire risk by fire and, as the building dries
// out, lowers its damage risk by relief.
func Blaze(fire, relief uint8) *effects.Func {
	return &effects.Func{Fn: func(target entities.Entity) {
		s, ok := target.(*entities.Structure)
		if !ok {
			return
		}
		s.State.Risk.Fire = addUint8(s.State.Risk.Fire, fire)
		s.State.Risk.Damage = subUint8(s.State.Risk.Damage, relief)
	}}
}

// Renovation raises a structure's cost and hires up to hires employees,
// never beyond MaxEmployees.
func Renovation(cost uint32, hires uint8) *effects.Func {
	return &effects.Func{Fn: func(target entities.Entity) {
		s, ok := target.(*entities.Structure)
		if !ok {
			return
		}
		s.Props.Cost = addUint32(s.Props.Cost, cost)
		s.State.CurrentEmployees = min(addUint8(s.State.CurrentEmployees, hires), s.Props.MaxEmployees)
	}}
}

// Drain lowers resource stock by stock and walker life by life. A walker
// whose life is not yet tracked starts from its MaxLife; immortal walkers
// are left alone.
func Drain(stock uint32, life uint16) *effects.Func {
	return &effects.Func{Fn: func(target entities.Entity) {
		switch v := target.(type) {
		case *entities.Resource:
			v.State.CurrentAmount = subUint32(v.State.CurrentAmount, stock)
		case *entities.Walker:
			current, tracked := v.Life()
			if !tracked {
				if v.Props.MaxLife == 0 {
					return
				}
				current = v.Props.MaxLife
			}
			v.SetLife(subUint16(current, life))
		}
	}}
}

// Renamer gives every entity of kind the name to. Roads and roadblocks
// have no name and are never touched.
func Renamer(kind entities.Kind, to string) *effects.Func {
	return &effects.Func{Fn: func(target entities.Entity) {
		if target.Kind() != kind {
			return
		}
		switch v := target.(type) {
		case *entities.Doodad:
			v.Props.Name = to
		case *entities.Resource:
			v.Props.Name = to
		case *entities.Structure:
			v.Props.Name = to
		case *entities.Walker:
			v.Props.Name = to
		}
	}}
}

func addUint8(a, b uint8) uint8 {
	if a > math.MaxUint8-b {
		return math.MaxUint8
	}
	return a + b
}

func subUint8(a, b uint8) uint8 {
	if a < b {
		return 0
	}
	return a - b
}

func subUint16(a, b uint16) uint16 {
	if a < b {
		return 0
	}
	return a - b
}

func addUint32(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

func subUint32(a, b uint32) uint32 {
	if a < b {
		return 0
	}
	return a - b
}
