// Package economy provides the commodity exchange: a ledger of which entities
// need, hold, carry, produce and consume each commodity.
package economy

import (
	"errors"
	"fmt"
	"slices"

	"github.com/talgya/owe/internal/entities"
)

// Exchange errors.
var (
	ErrUnexpectedEntity = errors.New("unexpected entity supplied")
	ErrProducerExists   = errors.New("producer already added")
	ErrConsumerExists   = errors.New("consumer already added")
)

// CommodityState selects which ledger an update goes to.
type CommodityState uint8

const (
	Required  CommodityState = iota // Demand, upserted per entity
	Available                       // Stock, upserted per entity
	InTransit                       // Carried by walkers, upserted per entity
	Used                            // Consumed, accumulated per commodity
	Lost                            // Destroyed, accumulated per commodity
)

var stateNames = [...]string{"required", "available", "in_transit", "used", "lost"}

func (s CommodityState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Lookup resolves entity IDs to their current values. An ID that no longer
// resolves marks the entity as gone.
type Lookup interface {
	Lookup(id entities.ID) (entities.Entity, bool)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(id entities.ID) (entities.Entity, bool)

func (f LookupFunc) Lookup(id entities.ID) (entities.Entity, bool) { return f(id) }

type amounts map[string]map[entities.ID]uint32

type members map[string]map[entities.ID]struct{}

// Exchange is the commodity ledger. It never owns entities; it stores their
// IDs and checks liveness through its Lookup on every read.
//
// An Exchange is not safe for concurrent use.
type Exchange struct {
	lookup Lookup

	required  amounts
	available amounts
	inTransit amounts

	producers members
	consumers members

	used map[string]uint64
	lost map[string]uint64
}

// NewExchange creates an empty exchange resolving entities through lookup.
func NewExchange(lookup Lookup) *Exchange {
	return &Exchange{
		lookup:    lookup,
		required:  make(amounts),
		available: make(amounts),
		inTransit: make(amounts),
		producers: make(members),
		consumers: make(members),
		used:      make(map[string]uint64),
		lost:      make(map[string]uint64),
	}
}

func (x *Exchange) alive(id entities.ID) bool {
	if x.lookup == nil {
		return false
	}
	_, ok := x.lookup.Lookup(id)
	return ok
}

// AddProducer registers id as a producer of commodity. Only structures and
// resources produce. Dead producers of the commodity are pruned first.
func (x *Exchange) AddProducer(e entities.Entity, id entities.ID, commodity string) error {
	switch e.(type) {
	case *entities.Structure, *entities.Resource:
	default:
		return fmt.Errorf("add producer of %s: %w", commodity, ErrUnexpectedEntity)
	}
	if !x.register(x.producers, id, commodity) {
		return fmt.Errorf("add producer %s of %s: %w", id, commodity, ErrProducerExists)
	}
	return nil
}

// AddConsumer registers id as a consumer of commodity. Only structures consume.
// Dead consumers of the commodity are pruned first.
func (x *Exchange) AddConsumer(e entities.Entity, id entities.ID, commodity string) error {
	if _, ok := e.(*entities.Structure); !ok {
		return fmt.Errorf("add consumer of %s: %w", commodity, ErrUnexpectedEntity)
	}
	if !x.register(x.consumers, id, commodity) {
		return fmt.Errorf("add consumer %s of %s: %w", id, commodity, ErrConsumerExists)
	}
	return nil
}

// register returns false if id is already a live member.
func (x *Exchange) register(m members, id entities.ID, commodity string) bool {
	set, ok := m[commodity]
	if !ok {
		set = make(map[entities.ID]struct{})
		m[commodity] = set
	}
	for member := range set {
		if !x.alive(member) {
			delete(set, member)
		}
	}
	if _, exists := set[id]; exists {
		return false
	}
	set[id] = struct{}{}
	return true
}

// UpdateState records commodity for the entity in the ledger chosen by state.
// Required, Available and InTransit replace the entity's previous amount;
// Used and Lost add to a running total. Only structures, walkers and
// resources take part in the exchange.
func (x *Exchange) UpdateState(e entities.Entity, id entities.ID, commodity entities.Commodity, state CommodityState) error {
	switch e.(type) {
	case *entities.Structure, *entities.Walker, *entities.Resource:
	default:
		return fmt.Errorf("update %s %s: %w", state, commodity.Name, ErrUnexpectedEntity)
	}

	switch state {
	case Required:
		x.upsert(x.required, id, commodity)
	case Available:
		x.upsert(x.available, id, commodity)
	case InTransit:
		x.upsert(x.inTransit, id, commodity)
	case Used:
		x.used[commodity.Name] += uint64(commodity.Amount)
	case Lost:
		x.lost[commodity.Name] += uint64(commodity.Amount)
	default:
		return fmt.Errorf("update %s: unknown commodity state %d", commodity.Name, state)
	}
	return nil
}

func (x *Exchange) upsert(m amounts, id entities.ID, commodity entities.Commodity) {
	entries, ok := m[commodity.Name]
	if !ok {
		entries = make(map[entities.ID]uint32)
		m[commodity.Name] = entries
	}
	entries[id] = commodity.Amount
	for other := range entries {
		if !x.alive(other) {
			delete(entries, other)
		}
	}
}

// EntitiesThatNeed returns the live entities with a non-zero requirement for commodity.
func (x *Exchange) EntitiesThatNeed(commodity string) []entities.ID {
	return x.collect(x.required, commodity)
}

// EntitiesThatHave returns the live entities with non-zero stock of commodity.
func (x *Exchange) EntitiesThatHave(commodity string) []entities.ID {
	return x.collect(x.available, commodity)
}

// EntitiesTransporting returns the live entities carrying a non-zero amount of commodity.
func (x *Exchange) EntitiesTransporting(commodity string) []entities.ID {
	return x.collect(x.inTransit, commodity)
}

func (x *Exchange) collect(m amounts, commodity string) []entities.ID {
	var ids []entities.ID
	for id, amount := range m[commodity] {
		if amount > 0 && x.alive(id) {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, entities.CompareIDs)
	return ids
}

// ProducersOf returns the live producers of commodity.
func (x *Exchange) ProducersOf(commodity string) []entities.ID {
	return x.liveMembers(x.producers, commodity)
}

// ConsumersOf returns the live consumers of commodity.
func (x *Exchange) ConsumersOf(commodity string) []entities.ID {
	return x.liveMembers(x.consumers, commodity)
}

func (x *Exchange) liveMembers(m members, commodity string) []entities.ID {
	var ids []entities.ID
	for id := range m[commodity] {
		if x.alive(id) {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, entities.CompareIDs)
	return ids
}

// AmountRequiredOf sums the live requirements for commodity.
func (x *Exchange) AmountRequiredOf(commodity string) uint64 {
	return x.fold(x.required, commodity)
}

// AmountAvailableOf sums the live stock of commodity.
func (x *Exchange) AmountAvailableOf(commodity string) uint64 {
	return x.fold(x.available, commodity)
}

// AmountInTransitOf sums the live amounts of commodity being carried.
func (x *Exchange) AmountInTransitOf(commodity string) uint64 {
	return x.fold(x.inTransit, commodity)
}

// AmountUsedOf returns the total amount of commodity consumed so far.
func (x *Exchange) AmountUsedOf(commodity string) uint64 {
	return x.used[commodity]
}

// AmountLostOf returns the total amount of commodity destroyed so far.
func (x *Exchange) AmountLostOf(commodity string) uint64 {
	return x.lost[commodity]
}

func (x *Exchange) fold(m amounts, commodity string) uint64 {
	var total uint64
	for id, amount := range m[commodity] {
		if x.alive(id) {
			total += uint64(amount)
		}
	}
	return total
}

// Commodities returns every commodity name the exchange has seen, sorted.
func (x *Exchange) Commodities() []string {
	seen := make(map[string]bool)
	for _, m := range []amounts{x.required, x.available, x.inTransit} {
		for name := range m {
			seen[name] = true
		}
	}
	for _, m := range []members{x.producers, x.consumers} {
		for name := range m {
			seen[name] = true
		}
	}
	for _, m := range []map[string]uint64{x.used, x.lost} {
		for name := range m {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
