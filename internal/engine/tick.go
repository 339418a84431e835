// Package engine drives the cursor over the grid: the tick cursor itself, the
// interval loop that advances it, and the Simulation that owns the world
// state between ticks.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// pausePoll is how long a paused engine sleeps before checking again.
const pausePoll = 100 * time.Millisecond

// Engine drives the simulation forward.
type Engine struct {
	Tick       uint64        // Current tick counter (monotonic, never resets)
	Interval   time.Duration // Base tick interval (default 1 second)
	MaxTicks   uint64        // Stop after this many ticks, 0 = unbounded
	SweepEvery uint64        // Ticks per full cursor cycle, 0 = no OnSweep

	mu      sync.Mutex
	speed   float64 // Multiplier: 1.0 = real-time, 0 = paused
	running atomic.Bool
	stop    chan struct{}

	// Callbacks, populated during setup.
	OnTick  func(tick uint64) // Every tick
	OnSweep func(tick uint64) // Every SweepEvery ticks
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval: time.Second,
		speed:    1.0,
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Zero or less pauses the loop.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool { return e.running.Load() }

// Run starts the simulation loop. Blocks until ctx is done, Stop is called,
// or MaxTicks is reached.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()

	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for {
		if e.MaxTicks > 0 && e.Tick >= e.MaxTicks {
			break
		}

		wait := pausePoll
		if speed := e.Speed(); speed > 0 {
			start := time.Now()
			e.step()

			// Sleep for the remainder of the tick interval, adjusted for speed.
			wait = time.Duration(float64(e.Interval)/speed) - time.Since(start)
		}

		if !sleep(ctx, stop, wait) {
			break
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// sleep waits for d and returns false if the loop should end instead.
func sleep(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-stop:
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-stop:
		return false
	case <-timer.C:
		return true
	}
}

// Stop halts the simulation loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop == nil {
		return
	}
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
}

// Step advances the simulation by one tick without the loop.
func (e *Engine) Step() { e.step() }

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}

	// Once per full cursor cycle: sweep stats and journaling.
	if e.SweepEvery > 0 && e.Tick%e.SweepEvery == 0 && e.OnSweep != nil {
		e.OnSweep(e.Tick)
	}
}
