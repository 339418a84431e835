package entities

// WalkerProperties are the immutable attributes of a walker.
// Producers return them to describe walkers a structure wants to emit.
type WalkerProperties struct {
	Name    string `json:"name"`
	Patrol  uint16 `json:"patrol"`   // 0 = no patrol route
	MaxLife uint16 `json:"max_life"` // 0 = lives forever
}

// WalkerState is the mutable part of a walker.
type WalkerState struct {
	CurrentLife *uint16           `json:"current_life,omitempty"`
	Commodities map[string]uint32 `json:"commodities"`
}

// Walker is a mobile agent. It never blocks a cell.
type Walker struct {
	Props WalkerProperties `json:"props"`
	State WalkerState      `json:"state"`
}

func (*Walker) Kind() Kind { return KindWalker }

func (w *Walker) Clone() Entity {
	c := *w
	if w.State.CurrentLife != nil {
		life := *w.State.CurrentLife
		c.State.CurrentLife = &life
	}
	c.State.Commodities = cloneCommodities(w.State.Commodities)
	return &c
}

// Life returns the walker's current life and whether it is tracked at all.
func (w *Walker) Life() (uint16, bool) {
	if w.State.CurrentLife == nil {
		return 0, false
	}
	return *w.State.CurrentLife, true
}

// SetLife sets the current life, starting to track it if needed.
func (w *Walker) SetLife(life uint16) {
	w.State.CurrentLife = &life
}
