package rules

import (
	"errors"
	"fmt"

	"github.com/talgya/owe/internal/economy"
	"github.com/talgya/owe/internal/entities"
	"github.com/talgya/owe/internal/world"
)

// ErrNoSite means no free land was left for a building.
var ErrNoSite = errors.New("no site available")

// Building describes one structure Settle should place.
type Building struct {
	Name        string                 `yaml:"name"`
	Size        entities.Size          `yaml:"size"`
	Type        entities.StructureType `yaml:"type"`
	Employees   uint8                  `yaml:"employees"`
	Staff       uint8                  `yaml:"staff"` // Employees hired at placement
	Cost        uint32                 `yaml:"cost"`
	Output      *entities.Commodity    `yaml:"output"` // nil: the building does not produce
	Inputs      []entities.Commodity   `yaml:"inputs"`
	WalkerEvery int                    `yaml:"walker_every"`
	Walker      string                 `yaml:"walker"`
	Renovate    bool                   `yaml:"renovate"` // Put a Renovation effect on the anchor
}

// Plan is a settlement to lay out.
type Plan struct {
	Seed        int64
	MinDistance float64
	Buildings   []Building
	Blaze       uint8 // Global fire risk added every sweep, 0 = none
}

// Placed is a building Settle put on the grid.
type Placed struct {
	Name string
	Site string
	ID   entities.ID
	At   world.Coord
}

// Settlement reports what Settle did.
type Settlement struct {
	Buildings []Placed
	Roads     int
	Deposits  int // Resource producers registered with the exchange
}

// DefaultPlan is a small brickworks town. Clay and stone deposits feed a
// kiln and a mason; a house and a temple consume what they make.
func DefaultPlan(seed int64) Plan {
	return Plan{
		Seed:        seed,
		MinDistance: 3,
		Blaze:       1,
		Buildings: []Building{
			{
				Name: "kiln", Size: entities.Size{Width: 2, Height: 2}, Type: entities.TypeIndustry,
				Employees: 4, Staff: 4, Cost: 800,
				Output:      &entities.Commodity{Name: "bricks", Amount: 10},
				Inputs:      []entities.Commodity{{Name: "clay", Amount: 4}},
				WalkerEvery: 3, Walker: "cartwright",
			},
			{
				Name: "mason", Size: entities.Size{Width: 2, Height: 1}, Type: entities.TypeIndustry,
				Employees: 3, Staff: 1, Cost: 600,
				Output:   &entities.Commodity{Name: "blocks", Amount: 5},
				Inputs:   []entities.Commodity{{Name: "stone", Amount: 2}},
				Renovate: true,
			},
			{
				Name: "house", Size: entities.Size{Width: 1, Height: 1}, Type: entities.TypeHousing,
				Cost:   200,
				Inputs: []entities.Commodity{{Name: "bricks", Amount: 2}},
			},
			{
				Name: "temple", Size: entities.Size{Width: 2, Height: 2}, Type: entities.TypeReligion,
				Employees: 2, Staff: 2, Cost: 1500,
				Inputs: []entities.Commodity{{Name: "blocks", Amount: 6}},
			},
		},
	}
}

// Settle places the plan's buildings on the best free sites, lays a road
// beside each, and registers every producer and consumer with the exchange,
// including the grid's existing resource deposits.
func Settle(g *world.Grid, x *economy.Exchange, plan Plan) (Settlement, error) {
	var result Settlement

	for i, b := range plan.Buildings {
		sites := world.FindSites(g, world.SiteQuery{
			Size:        b.Size,
			Count:       1,
			MinDistance: plan.MinDistance,
			Seed:        plan.Seed + int64(i),
		})
		if len(sites) == 0 {
			return result, fmt.Errorf("settle %s: %w", b.Name, ErrNoSite)
		}
		site := sites[0]

		s := structureFor(b)
		id, _, err := g.AddEntity(site.Coord, s)
		if err != nil {
			return result, fmt.Errorf("settle %s at %v: %w", b.Name, site.Coord, err)
		}
		if err := register(x, s, id, b); err != nil {
			return result, err
		}
		if b.Renovate {
			if _, err := g.AddCellEffect(site.Coord, Renovation(50, 1)); err != nil {
				return result, fmt.Errorf("settle %s: %w", b.Name, err)
			}
		}
		if layRoad(g, site.Coord, id) {
			result.Roads++
		}
		result.Buildings = append(result.Buildings, Placed{Name: b.Name, Site: site.Name, ID: id, At: site.Coord})
	}

	deposits, err := registerDeposits(g, x)
	if err != nil {
		return result, err
	}
	result.Deposits = deposits

	if plan.Blaze > 0 {
		if err := g.AddGlobalEffect(Blaze(plan.Blaze, 0)); err != nil {
			return result, err
		}
	}
	return result, nil
}

func structureFor(b Building) *entities.Structure {
	s := &entities.Structure{
		Props: entities.StructureProperties{
			Name:          b.Name,
			Size:          b.Size,
			MaxEmployees:  b.Employees,
			Cost:          b.Cost,
			StructureType: b.Type,
		},
		State: entities.StructureState{CurrentEmployees: min(b.Staff, b.Employees)},
	}
	if b.Output != nil {
		s.Producer = &Workshop{
			Output:      *b.Output,
			Inputs:      b.Inputs,
			WalkerEvery: b.WalkerEvery,
			Walker:      entities.WalkerProperties{Name: b.Walker, MaxLife: 20},
		}
	}
	return s
}

func register(x *economy.Exchange, s *entities.Structure, id entities.ID, b Building) error {
	if b.Output != nil {
		if err := x.AddProducer(s, id, b.Output.Name); err != nil {
			return fmt.Errorf("settle %s: %w", b.Name, err)
		}
	}
	for _, in := range b.Inputs {
		if err := x.AddConsumer(s, id, in.Name); err != nil {
			return fmt.Errorf("settle %s: %w", b.Name, err)
		}
	}
	return nil
}

// layRoad puts a road on the first free orthogonal neighbour of the
// structure's footprint, unless one is already there.
func layRoad(g *world.Grid, anchor world.Coord, id entities.ID) bool {
	if _, ok := g.FindFirstAdjacentRoad(anchor, id); ok {
		return false
	}
	e, ok := g.Lookup(id)
	if !ok {
		return false
	}
	size := e.(*entities.Structure).Footprint()
	for y := anchor.Y - 1; y <= anchor.Y+int(size.Height); y++ {
		for x := anchor.X - 1; x <= anchor.X+int(size.Width); x++ {
			at := world.C(x, y)
			inside := x >= anchor.X && x < anchor.X+int(size.Width) && y >= anchor.Y && y < anchor.Y+int(size.Height)
			corner := (x < anchor.X || x >= anchor.X+int(size.Width)) && (y < anchor.Y || y >= anchor.Y+int(size.Height))
			if inside || corner || g.CellState(at) != world.AvailableEmpty {
				continue
			}
			if _, _, err := g.AddEntity(at, &entities.Road{}); err == nil {
				return true
			}
		}
	}
	return false
}

// registerDeposits makes every producing resource on the grid a producer of
// the commodity its extractor yields.
func registerDeposits(g *world.Grid, x *economy.Exchange) (int, error) {
	count := 0
	all := g.EntitiesWithin(world.C(0, 0), world.C(g.Width(), g.Height()))
	for _, id := range all {
		e, _ := g.Lookup(id)
		r, ok := e.(*entities.Resource)
		if !ok || r.Producer == nil {
			continue
		}
		commodity := r.Props.Name
		if ex, ok := r.Producer.(*Extractor); ok {
			commodity = ex.Commodity
		}
		err := x.AddProducer(r, id, commodity)
		if errors.Is(err, economy.ErrProducerExists) {
			continue
		}
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
