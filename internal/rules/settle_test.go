package rules

import (
	"errors"
	"testing"

	"github.com/talgya/owe/internal/economy"
	"github.com/talgya/owe/internal/engine"
	"github.com/talgya/owe/internal/entities"
	"github.com/talgya/owe/internal/world"
)

func TestSettle(t *testing.T) {
	g := world.New(8)
	clay, _, err := g.AddEntity(world.C(7, 7), &entities.Resource{
		Props:    entities.ResourceProperties{Name: "clay", MaxAmount: 20, Replenish: 1},
		State:    entities.ResourceState{CurrentAmount: 20},
		Producer: &Extractor{Commodity: "clay", Amount: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	x := economy.NewExchange(g)

	result, err := Settle(g, x, DefaultPlan(1))
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if len(result.Buildings) != 4 {
		t.Fatalf("placed %d buildings, want 4", len(result.Buildings))
	}
	byName := make(map[string]Placed)
	for _, p := range result.Buildings {
		e, ok := g.Entity(p.At, p.ID)
		if !ok {
			t.Fatalf("%s not found at %v", p.Name, p.At)
		}
		if name, _ := entities.Name(e); name != p.Name {
			t.Errorf("entity at %v named %q, want %q", p.At, name, p.Name)
		}
		if p.Site == "" {
			t.Errorf("%s has no site name", p.Name)
		}
		byName[p.Name] = p
	}

	// All land is equally desirable, so the first building takes the first free anchor.
	if got := byName["kiln"].At; got != world.C(0, 0) {
		t.Errorf("kiln at %v, want (0,0)", got)
	}
	if _, ok := g.FindFirstAdjacentRoad(byName["kiln"].At, byName["kiln"].ID); !ok {
		t.Error("kiln has no road")
	}
	if result.Roads == 0 {
		t.Error("no roads laid")
	}

	if got := x.ProducersOf("bricks"); len(got) != 1 || got[0] != byName["kiln"].ID {
		t.Errorf("bricks producers = %v", got)
	}
	if got := x.ConsumersOf("bricks"); len(got) != 1 || got[0] != byName["house"].ID {
		t.Errorf("bricks consumers = %v", got)
	}
	if got := x.ProducersOf("clay"); len(got) != 1 || got[0] != clay {
		t.Errorf("clay producers = %v", got)
	}
	if result.Deposits != 1 {
		t.Errorf("Deposits = %d, want 1", result.Deposits)
	}
	if len(g.GlobalEffects()) != 1 {
		t.Errorf("global effects = %d, want 1", len(g.GlobalEffects()))
	}
	if len(g.CellEffects(byName["mason"].At)) != 1 {
		t.Error("mason has no renovation effect")
	}
}

func TestSettleNoSite(t *testing.T) {
	g := world.New(1)
	plan := Plan{Buildings: []Building{{Name: "hall", Size: entities.Size{Width: 2, Height: 2}}}}
	if _, err := Settle(g, economy.NewExchange(g), plan); !errors.Is(err, ErrNoSite) {
		t.Errorf("Settle error = %v, want ErrNoSite", err)
	}
}

func TestSettledWorldRuns(t *testing.T) {
	cfg := world.SmallTestConfig()
	cfg.Producers = Extractors(1)
	g, _ := world.Generate(cfg)
	x := economy.NewExchange(g)

	result, err := Settle(g, x, DefaultPlan(cfg.Seed))
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	kiln := result.Buildings[0]

	c := engine.NewCursor(1, engine.Right, world.C(0, 0))
	var walkers []engine.WalkerRequest
	c.OnWalker = func(r engine.WalkerRequest) { walkers = append(walkers, r) }

	for i := 0; i < 3*g.CellCount(); i++ {
		if err := c.ProcessAndAdvance(g, x); err != nil {
			t.Fatalf("tick %d: %v", i+1, err)
		}
	}

	if c.Sweeps() != 3 {
		t.Errorf("Sweeps = %d, want 3", c.Sweeps())
	}
	if got := x.AmountAvailableOf("bricks"); got != 10 {
		t.Errorf("bricks available = %d, want 10", got)
	}
	if got := x.AmountUsedOf("clay"); got != 12 {
		t.Errorf("clay used = %d, want 12", got)
	}
	if len(walkers) != 1 || walkers[0].Owner != kiln.ID || walkers[0].Props.Name != "cartwright" {
		t.Errorf("walkers = %+v, want one cartwright from the kiln", walkers)
	}

	e, _ := g.Lookup(kiln.ID)
	s := e.(*entities.Structure)
	if s.State.Commodities["bricks"] != 30 {
		t.Errorf("kiln bricks = %d, want 30", s.State.Commodities["bricks"])
	}
	if s.State.Risk.Fire != 3 {
		t.Errorf("kiln fire risk = %d, want 3 after three sweeps", s.State.Risk.Fire)
	}
}
