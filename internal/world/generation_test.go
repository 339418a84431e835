package world

import (
	"testing"

	"github.com/talgya/owe/internal/entities"
)

type stubProducer struct{ resource string }

func (p *stubProducer) ProduceCommodity(entities.Entity) (entities.ProductionStage, bool) {
	return entities.ProductionStage{Commodity: entities.Commodity{Name: p.resource, Amount: 1}}, true
}

func (p *stubProducer) ProduceWalker(entities.Entity) (entities.WalkerProperties, bool) {
	return entities.WalkerProperties{}, false
}

func (p *stubProducer) Clone() entities.Producer {
	c := *p
	return &c
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := SmallTestConfig()
	a, seedA := Generate(cfg)
	b, seedB := Generate(cfg)

	if seedA != cfg.Seed || seedB != cfg.Seed {
		t.Fatalf("explicit seed not honoured: %d %d", seedA, seedB)
	}
	if a.Width() != cfg.Size || a.Height() != cfg.Size {
		t.Fatalf("expected %dx%d grid, got %dx%d", cfg.Size, cfg.Size, a.Width(), a.Height())
	}

	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			at := C(x, y)
			if a.CellState(at) != b.CellState(at) {
				t.Fatalf("%v: cell states differ between runs", at)
			}
			da, _ := a.Desirability(at)
			db, _ := b.Desirability(at)
			if da != db {
				t.Fatalf("%v: desirability differs between runs", at)
			}
			if da < -10 || da > 10 {
				t.Errorf("%v: desirability %d out of range", at, da)
			}
		}
	}
}

func TestGenerateAttachesProducers(t *testing.T) {
	cfg := SmallTestConfig()
	cfg.Size = 24
	cfg.DepositLevel = 0.5
	cfg.RockLevel = 0.99
	cfg.Producers = func(name string) entities.Producer {
		return &stubProducer{resource: name}
	}

	g, _ := Generate(cfg)
	resources := 0
	for _, id := range g.EntitiesWithin(C(0, 0), C(g.Width(), g.Height())) {
		e, _ := g.Lookup(id)
		r, ok := e.(*entities.Resource)
		if !ok {
			continue
		}
		resources++
		if r.Producer == nil {
			t.Errorf("resource %s has no producer", r.Props.Name)
		}
		if r.State.CurrentAmount != r.Props.MaxAmount || r.Props.MaxAmount == 0 {
			t.Errorf("resource %s starts at %d of %d", r.Props.Name, r.State.CurrentAmount, r.Props.MaxAmount)
		}
	}
	if resources == 0 {
		t.Error("expected at least one resource with a low deposit threshold")
	}
}

func TestFindSites(t *testing.T) {
	g := New(6)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			_ = g.SetDesirability(C(x, y), int8(x))
		}
	}
	_, _, _ = g.AddEntity(C(5, 5), doodad("d0"))

	sites := FindSites(g, SiteQuery{
		Size:        entities.Size{Width: 2, Height: 2},
		Count:       3,
		MinDistance: 2,
		Seed:        7,
	})
	if len(sites) != 3 {
		t.Fatalf("expected 3 sites, got %d", len(sites))
	}
	if sites[0].Coord != C(4, 0) {
		t.Errorf("expected best site at (4, 0), got %v", sites[0].Coord)
	}
	for i, s := range sites {
		if s.Name == "" {
			t.Errorf("site %d has no name", i)
		}
		for _, o := range sites[:i] {
			if DistanceBetween(s.Coord, o.Coord) < 2 {
				t.Errorf("sites %v and %v are too close", s.Coord, o.Coord)
			}
		}
		if s.Coord == C(4, 4) {
			t.Error("site overlapping the doodad was chosen")
		}
	}
}
