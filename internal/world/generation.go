// World generation using layered simplex noise.
// Generates desirability, scenery and resource deposits for a fresh grid.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/owe/internal/entities"
	"github.com/talgya/owe/internal/entropy"
)

// ProducerFactory returns the producer a generated resource should carry.
// Returning nil leaves the resource inert.
type ProducerFactory func(resource string) entities.Producer

// GenConfig holds world generation parameters.
type GenConfig struct {
	Size         int     // Grid side length
	Seed         int64   // Random seed (0 = random)
	RockLevel    float64 // Rock noise threshold for doodads (0.0–1.0)
	DepositLevel float64 // Deposit noise threshold for resources (0.0–1.0)
	MaxDeposit   uint32  // Upper bound of a resource's max amount
	Replenish    uint32  // Replenish amount given to every generated resource

	Producers ProducerFactory `yaml:"-"`
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Size:         32,
		Seed:         0,
		RockLevel:    0.78,
		DepositLevel: 0.74,
		MaxDeposit:   200,
		Replenish:    1,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Size:         8,
		Seed:         42,
		RockLevel:    0.70,
		DepositLevel: 0.70,
		MaxDeposit:   50,
		Replenish:    1,
	}
}

// Deposit kinds and the noise band they occupy above the deposit threshold.
var depositNames = []string{"stone", "clay", "ore"}

var doodadNames = []string{"boulder", "tree", "shrub"}

// Generate creates a populated grid. Returns the grid and the seed used,
// which differs from cfg.Seed when that was 0.
func Generate(cfg GenConfig) (*Grid, int64) {
	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.Seed()
	}

	// Independent layers.
	desireNoise := opensimplex.NewNormalized(seed)
	rockNoise := opensimplex.NewNormalized(seed + 1)
	depositNoise := opensimplex.NewNormalized(seed + 2)
	rng := rand.New(rand.NewSource(seed + 100))

	g := New(cfg.Size)

	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			at := Coord{X: x, Y: y}
			fx, fy := float64(x), float64(y)

			desire := octaveNoise(desireNoise, fx, fy, 3, 0.08, 0.5)
			rock := octaveNoise(rockNoise, fx, fy, 4, 0.12, 0.5)
			deposit := octaveNoise(depositNoise, fx, fy, 2, 0.15, 0.5)

			_ = g.SetDesirability(at, scaleDesirability(desire))

			switch {
			case rock > cfg.RockLevel:
				_, _, _ = g.AddEntity(at, &entities.Doodad{Props: entities.DoodadProperties{
					Name:        doodadNames[rng.Intn(len(doodadNames))],
					IsRemovable: rock < (cfg.RockLevel+1)/2,
				}})
			case deposit > cfg.DepositLevel:
				_, _, _ = g.AddEntity(at, makeResource(cfg, deposit))
			}
		}
	}

	return g, seed
}

// scaleDesirability maps [0, 1] noise onto [-10, 10].
func scaleDesirability(v float64) int8 {
	return int8(math.Round((v*2 - 1) * 10))
}

// makeResource builds a deposit whose size grows with how far the noise
// clears the threshold. The kind is chosen by the same margin.
func makeResource(cfg GenConfig, deposit float64) *entities.Resource {
	margin := (deposit - cfg.DepositLevel) / math.Max(1-cfg.DepositLevel, 1e-9)
	margin = math.Min(math.Max(margin, 0), 1)

	kind := depositNames[min(int(margin*float64(len(depositNames))), len(depositNames)-1)]
	maxAmount := uint32(math.Ceil(margin * float64(cfg.MaxDeposit)))
	if maxAmount == 0 {
		maxAmount = 1
	}

	r := &entities.Resource{
		Props: entities.ResourceProperties{
			Name:      kind,
			MaxAmount: maxAmount,
			Replenish: cfg.Replenish,
		},
		State: entities.ResourceState{CurrentAmount: maxAmount},
	}
	if cfg.Producers != nil {
		r.Producer = cfg.Producers(kind)
	}
	return r
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// KindCounts returns a summary of entity kinds on the grid keyed by name.
func KindCounts(g *Grid) map[string]int {
	counts := make(map[string]int)
	for kind, n := range g.Census() {
		counts[kind.String()] = n
	}
	return counts
}
