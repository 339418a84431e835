// Site placement: finds suitable anchors for new structures.
package world

import (
	"math/rand"
	"sort"

	"github.com/talgya/owe/internal/entities"
)

// Site is a candidate anchor for a structure.
type Site struct {
	Coord Coord
	Score float64 // Summed desirability over the footprint, plus road access
	Name  string
}

// SiteQuery describes what to look for.
type SiteQuery struct {
	Size        entities.Size
	Count       int
	MinDistance float64 // Minimum Euclidean distance between chosen anchors
	Seed        int64   // Seeds the generated site names
}

// FindSites returns up to q.Count anchors where a structure of q.Size would
// fit, best first. Anchors closer than q.MinDistance to a better site are skipped.
func FindSites(g *Grid, q SiteQuery) []Site {
	probe := &entities.Structure{Props: entities.StructureProperties{Size: q.Size}}
	size := probe.Footprint()

	type scored struct {
		coord Coord
		score float64
	}
	var candidates []scored

	for y := 0; y+int(size.Height) <= g.height; y++ {
		for x := 0; x+int(size.Width) <= g.width; x++ {
			at := Coord{X: x, Y: y}
			if s, ok := siteScore(g, footprint(probe, at)); ok {
				candidates = append(candidates, scored{at, s})
			}
		}
	}

	// Stable so equal scores keep scan order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var sites []Site
	for _, c := range candidates {
		if len(sites) >= q.Count {
			break
		}
		if tooClose(c.coord, sites, q.MinDistance) {
			continue
		}
		sites = append(sites, Site{Coord: c.coord, Score: c.score})
	}

	rng := rand.New(rand.NewSource(q.Seed + 200))
	names := generateNames(rng, len(sites))
	for i := range sites {
		sites[i].Name = names[i]
	}

	return sites
}

// siteScore rates a footprint. Every covered cell must be empty.
// Prefers: desirable land, a road alongside.
func siteScore(g *Grid, cells []Coord) (float64, bool) {
	score := 0.0
	for _, c := range cells {
		if g.CellState(c) != AvailableEmpty {
			return 0, false
		}
		score += float64(g.cell(c).desirability)
	}

	// Bonus for road access.
	for _, c := range cells {
		for _, n := range NeighboursOf(c, false) {
			cell := g.cell(n)
			if cell == nil {
				continue
			}
			for id := range cell.entities {
				if g.arena[id].entity.Kind() == entities.KindRoad {
					return score + 2, true
				}
			}
		}
	}

	return score, true
}

func tooClose(coord Coord, existing []Site, minDist float64) bool {
	for _, s := range existing {
		if DistanceBetween(coord, s.Coord) < minDist {
			return true
		}
	}
	return false
}

// generateNames produces procedural names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "High", "Low", "Old", "New",
		"Elm", "Oak", "Pine", "Copper", "River",
	}
	suffixes := []string{
		"house", "hall", "yard", "works", "stead", "court", "row",
		"gate", "mill", "croft", "market", "lodge", "well",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if used[name] && len(used) < len(prefixes)*len(suffixes) {
			continue
		}
		used[name] = true
		names = append(names, name)
	}

	return names
}
