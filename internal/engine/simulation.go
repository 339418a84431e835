// Simulation ties the grid, the exchange and the cursor together and runs
// them each tick.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/owe/internal/economy"
	"github.com/talgya/owe/internal/world"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// subscriberBuffer is the channel depth of each stream subscriber. Slow
// subscribers lose events rather than stall the tick.
const subscriberBuffer = 64

// Event categories.
const (
	CategoryWalker   = "walker"
	CategoryExchange = "exchange"
	CategoryGrid     = "grid"
	CategorySweep    = "sweep"
)

// Event is a notable occurrence in the world.
type Event struct {
	Seq         uint64      `json:"seq"` // Position in the event log, from 1
	Tick        uint64      `json:"tick"`
	At          world.Coord `json:"at"`
	Description string      `json:"description"`
	Category    string      `json:"category"` // "walker", "exchange", "grid", "sweep"
}

// SimStats tracks aggregate world statistics, refreshed every sweep.
type SimStats struct {
	Sweeps           uint64         `json:"sweeps"`
	Entities         int            `json:"entities"`
	Census           map[string]int `json:"census"`
	Commodities      int            `json:"commodities"`
	WalkersRequested uint64         `json:"walkers_requested"`
	ExchangeFailures uint64         `json:"exchange_failures"`
}

// Status is a snapshot of where the simulation stands.
type Status struct {
	Tick      uint64      `json:"tick"`
	Cursor    world.Coord `json:"cursor"`
	Direction string      `json:"direction"`
	Range     int         `json:"range"`
	Sweeps    uint64      `json:"sweeps"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Entities  int         `json:"entities"`
}

// Simulation holds the complete world state and wires systems together.
// All methods are safe for concurrent use; ticks take the write lock and
// observers take the read lock.
type Simulation struct {
	mu       sync.RWMutex
	grid     *world.Grid
	exchange *economy.Exchange
	cursor   *Cursor
	events   []Event // Recent events, oldest first
	pending  []Event // Raised during the current tick
	lastTick uint64
	lastSeq  uint64
	stats    SimStats

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int

	// OnEvent, if set, receives every event after it is logged, outside the
	// simulation lock. Used by the journal.
	OnEvent func(Event)
}

// NewSimulation creates a Simulation from generated components. It takes
// over the cursor's walker callback.
func NewSimulation(g *world.Grid, x *economy.Exchange, c *Cursor) *Simulation {
	sim := &Simulation{
		grid:     g,
		exchange: x,
		cursor:   c,
		subs:     make(map[int]chan Event),
	}
	c.OnWalker = sim.recordWalker
	sim.updateStats()
	return sim
}

// recordWalker runs inside TickCell with the write lock held.
func (s *Simulation) recordWalker(req WalkerRequest) {
	s.stats.WalkersRequested++
	s.pending = append(s.pending, Event{
		Tick:        s.lastTick,
		At:          req.From,
		Description: fmt.Sprintf("%s sent out by %s", req.Props.Name, req.Owner),
		Category:    CategoryWalker,
	})
}

// TickCell runs one cursor tick. Exchange failures are logged and recorded
// as events; the returned error is the cursor's own.
func (s *Simulation) TickCell(tick uint64) error {
	s.mu.Lock()
	s.lastTick = tick
	at := s.cursor.Position()
	err := s.cursor.ProcessAndAdvance(s.grid, s.exchange)

	var (
		exchangeErr *ExchangeTickError
		gridErr     *GridTickError
	)
	switch {
	case errors.As(err, &exchangeErr):
		s.stats.ExchangeFailures += uint64(len(exchangeErr.Errs))
		for _, e := range exchangeErr.Errs {
			s.pending = append(s.pending, Event{Tick: tick, At: at, Description: e.Error(), Category: CategoryExchange})
		}
		slog.Warn("exchange updates failed", "tick", tick, "at", at, "failures", len(exchangeErr.Errs))
	case errors.As(err, &gridErr):
		s.pending = append(s.pending, Event{Tick: tick, At: at, Description: gridErr.Error(), Category: CategoryGrid})
		slog.Error("tick failed", "tick", tick, "at", at, "error", gridErr.Err)
	}

	slog.Debug("tick", "tick", tick, "at", at, "next", s.cursor.Position())
	emitted := s.flush()
	s.mu.Unlock()

	s.publish(emitted)
	return err
}

// TickSweep refreshes statistics once per full cursor cycle.
func (s *Simulation) TickSweep(tick uint64) {
	s.mu.Lock()
	s.updateStats()
	s.pending = append(s.pending, Event{
		Tick:        tick,
		At:          s.cursor.Position(),
		Description: fmt.Sprintf("sweep %d complete", s.stats.Sweeps),
		Category:    CategorySweep,
	})
	slog.Info("sweep complete",
		"tick", tick,
		"sweep", s.stats.Sweeps,
		"entities", s.stats.Entities,
		"commodities", s.stats.Commodities,
	)
	emitted := s.flush()
	s.mu.Unlock()

	s.publish(emitted)
}

func (s *Simulation) updateStats() {
	census := make(map[string]int)
	for kind, n := range s.grid.Census() {
		census[kind.String()] = n
	}
	s.stats.Sweeps = s.cursor.Sweeps()
	s.stats.Entities = s.grid.Len()
	s.stats.Census = census
	s.stats.Commodities = len(s.exchange.Commodities())
}

// flush moves pending events into the bounded log. Caller holds the write lock.
func (s *Simulation) flush() []Event {
	if len(s.pending) == 0 {
		return nil
	}
	emitted := s.pending
	s.pending = nil
	for i := range emitted {
		s.lastSeq++
		emitted[i].Seq = s.lastSeq
	}

	s.events = append(s.events, emitted...)
	if over := len(s.events) - maxEvents; over > 0 {
		s.events = append(s.events[:0:0], s.events[over:]...)
	}
	return emitted
}

func (s *Simulation) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	if s.OnEvent != nil {
		for _, e := range events {
			s.OnEvent(e)
		}
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		for _, e := range events {
			select {
			case ch <- e:
			default:
			}
		}
	}
}

// Subscribe registers a stream subscriber. The channel is closed by Unsubscribe.
func (s *Simulation) Subscribe() (int, <-chan Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	ch := make(chan Event, subscriberBuffer)
	s.subs[s.nextSub] = ch
	return s.nextSub, ch
}

// Unsubscribe removes a stream subscriber and closes its channel.
func (s *Simulation) Unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick
}

// Status returns the cursor position and grid dimensions.
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Tick:      s.lastTick,
		Cursor:    s.cursor.Position(),
		Direction: s.cursor.Direction().String(),
		Range:     s.cursor.Range(),
		Sweeps:    s.cursor.Sweeps(),
		Width:     s.grid.Width(),
		Height:    s.grid.Height(),
		Entities:  s.grid.Len(),
	}
}

// Stats returns the statistics as of the last sweep.
func (s *Simulation) Stats() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := s.stats
	stats.Census = make(map[string]int, len(s.stats.Census))
	for k, v := range s.stats.Census {
		stats.Census[k] = v
	}
	return stats
}

// RecentEvents returns up to limit of the newest events, oldest first.
// A limit of zero or less returns all of them.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.events) > limit {
		start = len(s.events) - limit
	}
	out := make([]Event, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

// Balances summarizes every commodity in the exchange.
func (s *Simulation) Balances() []economy.Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exchange.Balances()
}

// Path finds the cheapest walkable route between two cells.
func (s *Simulation) Path(from, to world.Coord) ([]world.Coord, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid.PathBetween(from, to)
}

// Update runs fn with exclusive access to the world state. Used for setup
// between ticks.
func (s *Simulation) Update(fn func(g *world.Grid, x *economy.Exchange)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.grid, s.exchange)
	s.updateStats()
}
