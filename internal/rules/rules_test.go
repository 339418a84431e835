package rules

import (
	"math"
	"testing"

	"github.com/talgya/owe/internal/entities"
)

func TestBlazeSaturates(t *testing.T) {
	tests := []struct {
		name       string
		fire, dmg  uint8
		wantFire   uint8
		wantDamage uint8
	}{
		{"ordinary", 3, 10, 8, 8},
		{"fire ceiling", 253, 10, math.MaxUint8, 8},
		{"damage floor", 0, 1, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &entities.Structure{State: entities.StructureState{Risk: entities.Risk{Fire: tt.fire, Damage: tt.dmg}}}
			Blaze(5, 2).Apply(s)
			if s.State.Risk.Fire != tt.wantFire || s.State.Risk.Damage != tt.wantDamage {
				t.Errorf("risk = %+v, want fire %d damage %d", s.State.Risk, tt.wantFire, tt.wantDamage)
			}
		})
	}
}

func TestRenovation(t *testing.T) {
	s := &entities.Structure{
		Props: entities.StructureProperties{Cost: math.MaxUint32 - 10, MaxEmployees: 3},
		State: entities.StructureState{CurrentEmployees: 2},
	}
	r := Renovation(50, 2)
	r.Apply(s)
	if s.Props.Cost != math.MaxUint32 {
		t.Errorf("Cost = %d, want saturated", s.Props.Cost)
	}
	if s.State.CurrentEmployees != 3 {
		t.Errorf("CurrentEmployees = %d, want capped at 3", s.State.CurrentEmployees)
	}

	w := &entities.Walker{Props: entities.WalkerProperties{Name: "w"}}
	r.Apply(w) // ignored
	if w.Props.Name != "w" {
		t.Error("Renovation touched a walker")
	}
}

func TestDrain(t *testing.T) {
	d := Drain(3, 2)

	r := &entities.Resource{State: entities.ResourceState{CurrentAmount: 2}}
	d.Apply(r)
	if r.State.CurrentAmount != 0 {
		t.Errorf("resource amount = %d, want 0", r.State.CurrentAmount)
	}

	tests := []struct {
		name    string
		walker  *entities.Walker
		want    uint16
		tracked bool
	}{
		{"tracked", &entities.Walker{Props: entities.WalkerProperties{MaxLife: 10}, State: entities.WalkerState{CurrentLife: ptr(uint16(5))}}, 3, true},
		{"floor", &entities.Walker{Props: entities.WalkerProperties{MaxLife: 10}, State: entities.WalkerState{CurrentLife: ptr(uint16(1))}}, 0, true},
		{"starts from max life", &entities.Walker{Props: entities.WalkerProperties{MaxLife: 10}}, 8, true},
		{"immortal", &entities.Walker{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d.Apply(tt.walker)
			got, tracked := tt.walker.Life()
			if got != tt.want || tracked != tt.tracked {
				t.Errorf("Life() = %d, %v, want %d, %v", got, tracked, tt.want, tt.tracked)
			}
		})
	}
}

func TestRenamer(t *testing.T) {
	r := Renamer(entities.KindDoodad, "stump")

	tree := &entities.Doodad{Props: entities.DoodadProperties{Name: "tree"}}
	r.Apply(tree)
	if tree.Props.Name != "stump" {
		t.Errorf("doodad name = %q, want stump", tree.Props.Name)
	}

	s := &entities.Structure{Props: entities.StructureProperties{Name: "hall"}}
	r.Apply(s)
	if s.Props.Name != "hall" {
		t.Errorf("structure renamed to %q", s.Props.Name)
	}
	r.Apply(&entities.Road{}) // no name, no panic
}

func TestEffectsHaveIdentity(t *testing.T) {
	if Blaze(1, 1) == Blaze(1, 1) {
		t.Error("two Blaze effects share an identity")
	}
}

func TestExtractor(t *testing.T) {
	p := &Extractor{Commodity: "stone", Amount: 3}

	tests := []struct {
		stock  uint32
		want   uint32
		wantOK bool
	}{
		{10, 3, true},
		{2, 2, true},
		{0, 0, false},
	}
	for _, tt := range tests {
		r := &entities.Resource{State: entities.ResourceState{CurrentAmount: tt.stock}}
		stage, ok := p.ProduceCommodity(r)
		if ok != tt.wantOK || stage.Commodity.Amount != tt.want {
			t.Errorf("stock %d: got %+v, %v, want %d, %v", tt.stock, stage.Commodity, ok, tt.want, tt.wantOK)
		}
		if ok && stage.Commodity.Name != "stone" {
			t.Errorf("commodity = %q, want stone", stage.Commodity.Name)
		}
	}

	if _, ok := p.ProduceCommodity(&entities.Structure{}); ok {
		t.Error("extractor produced from a structure")
	}
	if _, ok := p.ProduceWalker(&entities.Resource{}); ok {
		t.Error("extractor asked for a walker")
	}
	if got := Extractors(4)("clay").(*Extractor); got.Commodity != "clay" || got.Amount != 4 {
		t.Errorf("Extractors(4)(clay) = %+v", got)
	}
}

func TestWorkshop(t *testing.T) {
	p := &Workshop{
		Output:      entities.Commodity{Name: "bricks", Amount: 10},
		Inputs:      []entities.Commodity{{Name: "clay", Amount: 4}},
		WalkerEvery: 2,
		Walker:      entities.WalkerProperties{Name: "cart"},
	}
	idle := &entities.Structure{Props: entities.StructureProperties{MaxEmployees: 2}, State: entities.StructureState{CurrentEmployees: 1}}
	staffed := &entities.Structure{Props: entities.StructureProperties{MaxEmployees: 2}, State: entities.StructureState{CurrentEmployees: 2}}

	stage, ok := p.ProduceCommodity(idle)
	if !ok || stage.Commodity.Amount != 0 || len(stage.Required) != 1 || len(stage.Used) != 0 {
		t.Errorf("idle stage = %+v, %v", stage, ok)
	}
	if _, ok := p.ProduceWalker(idle); ok {
		t.Error("walker before any run")
	}

	var walkers int
	for i := 0; i < 4; i++ {
		stage, ok := p.ProduceCommodity(staffed)
		if !ok || stage.Commodity.Amount != 10 || len(stage.Used) != 1 || len(stage.Required) != 0 {
			t.Fatalf("run %d stage = %+v, %v", i+1, stage, ok)
		}
		if _, ok := p.ProduceWalker(staffed); ok {
			walkers++
		}
	}
	if p.Runs() != 4 || walkers != 2 {
		t.Errorf("runs = %d walkers = %d, want 4 and 2", p.Runs(), walkers)
	}

	// An idle visit after a walker run does not repeat the walker.
	p.ProduceCommodity(idle)
	if _, ok := p.ProduceWalker(idle); ok {
		t.Error("walker repeated without a new run")
	}

	c := p.Clone().(*Workshop)
	c.Inputs[0].Amount = 99
	if p.Inputs[0].Amount != 4 {
		t.Error("Clone shares inputs")
	}
}

func ptr[T any](v T) *T { return &v }
