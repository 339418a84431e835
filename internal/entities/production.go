package entities

// Commodity is an amount of a named good.
type Commodity struct {
	Name   string `json:"name"`
	Amount uint32 `json:"amount"`
}

// ProductionStage describes one production event: the commodity produced,
// the inputs it still requires, and the inputs it consumed.
type ProductionStage struct {
	Commodity Commodity   `json:"commodity"`
	Required  []Commodity `json:"required"`
	Used      []Commodity `json:"used"`
}

// Producer is the production capability carried by structures and resources.
// Implementations may keep progress state; the cursor invokes them on a
// fresh clone of the owning entity, so state changes survive only through
// the replaced entity.
type Producer interface {
	// ProduceCommodity is called with the pre-tick snapshot of the owner.
	ProduceCommodity(owner Entity) (ProductionStage, bool)
	// ProduceWalker is only called for structures.
	ProduceWalker(owner Entity) (WalkerProperties, bool)
	Clone() Producer
}
