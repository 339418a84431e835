package world

import "container/heap"

// PathBetween finds a shortest walkable route from start to end with
// Dijkstra's algorithm. Every step, diagonal or not, costs 1. The returned
// path includes both endpoints; the cost is its number of steps.
// Returns false if either endpoint is off the grid or end is unreachable.
func (g *Grid) PathBetween(start, end Coord) ([]Coord, int, bool) {
	if !g.IsCellInGrid(start) || !g.IsCellInGrid(end) {
		return nil, 0, false
	}
	if start == end {
		return []Coord{start}, 0, true
	}

	dist := map[Coord]int{start: 0}
	prev := make(map[Coord]Coord)
	done := make(map[Coord]bool)

	pq := &pathQueue{}
	heap.Push(pq, &pathNode{at: start, cost: 0})

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*pathNode)
		if done[current.at] {
			continue
		}
		done[current.at] = true

		if current.at == end {
			return reconstruct(prev, start, end), current.cost, true
		}

		for _, n := range g.PassableNeighboursOf(current.at) {
			if done[n] {
				continue
			}
			cost := current.cost + 1
			if d, seen := dist[n]; !seen || cost < d {
				dist[n] = cost
				prev[n] = current.at
				heap.Push(pq, &pathNode{at: n, cost: cost, seq: pq.next()})
			}
		}
	}

	return nil, 0, false
}

func reconstruct(prev map[Coord]Coord, start, end Coord) []Coord {
	path := []Coord{end}
	for at := end; at != start; {
		at = prev[at]
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type pathNode struct {
	at   Coord
	cost int
	seq  int // insertion order, keeps equal-cost pops deterministic
}

type pathQueue struct {
	nodes []*pathNode
	count int
}

func (q *pathQueue) next() int {
	q.count++
	return q.count
}

func (q pathQueue) Len() int { return len(q.nodes) }

func (q pathQueue) Less(i, j int) bool {
	if q.nodes[i].cost != q.nodes[j].cost {
		return q.nodes[i].cost < q.nodes[j].cost
	}
	return q.nodes[i].seq < q.nodes[j].seq
}

func (q pathQueue) Swap(i, j int) { q.nodes[i], q.nodes[j] = q.nodes[j], q.nodes[i] }

func (q *pathQueue) Push(x any) { q.nodes = append(q.nodes, x.(*pathNode)) }

func (q *pathQueue) Pop() any {
	old := q.nodes
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	q.nodes = old[:n-1]
	return node
}
