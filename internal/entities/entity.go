// Package entities provides the closed set of placeable things on the grid.
// Entities are plain values: the grid owns them, and every state change
// installs a fresh clone instead of mutating a shared one.
package entities

import (
	"bytes"

	"github.com/google/uuid"
)

// ID identifies one placed entity. Assigned by the grid at placement.
type ID = uuid.UUID

// NewID returns a fresh, globally unique entity ID.
func NewID() ID {
	return uuid.New()
}

// CompareIDs orders IDs bytewise; used wherever iteration order must be stable.
func CompareIDs(a, b ID) int {
	return bytes.Compare(a[:], b[:])
}

// Kind enumerates the entity variants.
type Kind uint8

const (
	KindRoad      Kind = iota // Traversable, never blocks
	KindRoadblock             // Stops walkers, not placement
	KindDoodad                // Scenery: trees, rocks
	KindResource              // Harvestable deposit
	KindStructure             // Building, possibly multi-cell
	KindWalker                // Mobile agent
)

var kindNames = [...]string{"road", "roadblock", "doodad", "resource", "structure", "walker"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Blocking reports whether entities of this kind occupy a cell exclusively.
func (k Kind) Blocking() bool {
	return k == KindDoodad || k == KindResource || k == KindStructure
}

// Entity is implemented by *Road, *Roadblock, *Doodad, *Resource, *Structure and *Walker.
type Entity interface {
	Kind() Kind
	// Clone returns a deep copy that shares no mutable state with the receiver.
	Clone() Entity
}

// Road is a traversable tile.
type Road struct{}

// Roadblock is a tile walkers cannot pass.
type Roadblock struct{}

func (*Road) Kind() Kind         { return KindRoad }
func (*Road) Clone() Entity      { return &Road{} }
func (*Roadblock) Kind() Kind    { return KindRoadblock }
func (*Roadblock) Clone() Entity { return &Roadblock{} }

// DoodadProperties are the immutable attributes of scenery.
type DoodadProperties struct {
	Name        string `json:"name"`
	IsRemovable bool   `json:"is_removable"`
}

// Doodad is scenery; it blocks placement but produces nothing.
type Doodad struct {
	Props DoodadProperties `json:"props"`
}

func (*Doodad) Kind() Kind { return KindDoodad }

func (d *Doodad) Clone() Entity {
	c := *d
	return &c
}

// Name returns the name of a named entity. Roads and roadblocks have none.
func Name(e Entity) (string, bool) {
	switch v := e.(type) {
	case *Doodad:
		return v.Props.Name, true
	case *Resource:
		return v.Props.Name, true
	case *Structure:
		return v.Props.Name, true
	case *Walker:
		return v.Props.Name, true
	}
	return "", false
}

// IsBlocking reports whether e occupies its cells exclusively.
func IsBlocking(e Entity) bool {
	return e != nil && e.Kind().Blocking()
}

func cloneCommodities(src map[string]uint32) map[string]uint32 {
	if src == nil {
		return nil
	}
	dst := make(map[string]uint32, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
