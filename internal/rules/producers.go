package rules

import (
	"github.com/talgya/owe/internal/entities"
	"github.com/talgya/owe/internal/world"
)

// Extractor pulls a raw commodity out of a resource deposit. It yields at
// most what the deposit holds and nothing once it is empty.
type Extractor struct {
	Commodity string
	Amount    uint32
}

func (p *Extractor) ProduceCommodity(owner entities.Entity) (entities.ProductionStage, bool) {
	r, ok := owner.(*entities.Resource)
	if !ok || r.State.CurrentAmount == 0 || p.Amount == 0 {
		return entities.ProductionStage{}, false
	}
	amount := min(p.Amount, r.State.CurrentAmount)
	return entities.ProductionStage{
		Commodity: entities.Commodity{Name: p.Commodity, Amount: amount},
	}, true
}

func (p *Extractor) ProduceWalker(entities.Entity) (entities.WalkerProperties, bool) {
	return entities.WalkerProperties{}, false
}

func (p *Extractor) Clone() entities.Producer {
	c := *p
	return &c
}

// Extractors returns a generation factory that gives every deposit an
// Extractor of amount per visit, named after the deposit.
func Extractors(amount uint32) world.ProducerFactory {
	return func(resource string) entities.Producer {
		return &Extractor{Commodity: resource, Amount: amount}
	}
}

// Workshop turns inputs into an output while its structure is fully staffed.
// An understaffed workshop produces nothing but still reports its inputs as
// required. Every WalkerEvery productive runs it asks for a walker.
type Workshop struct {
	Output      entities.Commodity
	Inputs      []entities.Commodity
	WalkerEvery int
	Walker      entities.WalkerProperties

	runs    int
	emitted int // run that last asked for a walker
}

// Runs returns how many times the workshop has produced.
func (p *Workshop) Runs() int { return p.runs }

func (p *Workshop) ProduceCommodity(owner entities.Entity) (entities.ProductionStage, bool) {
	s, ok := owner.(*entities.Structure)
	if !ok {
		return entities.ProductionStage{}, false
	}

	if !s.Staffed() {
		if len(p.Inputs) == 0 {
			return entities.ProductionStage{}, false
		}
		return entities.ProductionStage{
			Commodity: entities.Commodity{Name: p.Output.Name},
			Required:  p.Inputs,
		}, true
	}

	p.runs++
	return entities.ProductionStage{
		Commodity: p.Output,
		Used:      p.Inputs,
	}, true
}

func (p *Workshop) ProduceWalker(owner entities.Entity) (entities.WalkerProperties, bool) {
	if p.WalkerEvery <= 0 || p.runs == 0 || p.runs == p.emitted || p.runs%p.WalkerEvery != 0 {
		return entities.WalkerProperties{}, false
	}
	p.emitted = p.runs
	return p.Walker, true
}

func (p *Workshop) Clone() entities.Producer {
	c := *p
	c.Inputs = append([]entities.Commodity(nil), p.Inputs...)
	return &c
}
