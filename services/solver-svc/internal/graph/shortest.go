package graph

import (
	"container/heap"
	"math"

	"supplynet/pkg/domain"
)

// =============================================================================
// Shortest Path by Length
// =============================================================================
//
// ShortestPath runs Dijkstra's algorithm inside one Subgraph using the current
// edge Length as weight. It is the static fallback of the ant colony when
// random walks keep hitting dead ends.
//
// Time Complexity: O((V + E) log V) with binary heap
//
// Lengths are clamped at 0, so negative weights cannot occur. Ties are broken
// by node id, which makes the result deterministic.
// =============================================================================

// priorityQueueItem represents an element in the priority queue.
type priorityQueueItem struct {
	node     int64
	distance float64
	index    int
}

// priorityQueue is a min-heap on distance with tie-breaking by node id.
type priorityQueue []*priorityQueueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].node < pq[j].node
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*priorityQueueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// ShortestPath returns the node sequence of the shortest source->target path
// by Length and its total length. It returns nil when target is unreachable.
func (sg *Subgraph) ShortestPath(source, target int64) ([]int64, float64) {
	if !sg.HasNode(source) || !sg.HasNode(target) {
		return nil, math.Inf(1)
	}

	dist := make(map[int64]float64, len(sg.nodeIDs))
	parent := make(map[int64]int64, len(sg.nodeIDs))
	for _, id := range sg.nodeIDs {
		dist[id] = math.Inf(1)
		parent[id] = -1
	}
	dist[source] = 0

	pq := make(priorityQueue, 0, len(sg.nodeIDs))
	heap.Push(&pq, &priorityQueueItem{node: source, distance: 0})

	for pq.Len() > 0 {
		current := heap.Pop(&pq).(*priorityQueueItem)
		u := current.node

		// Stale entry
		if current.distance > dist[u] {
			continue
		}
		if u == target {
			break
		}

		for _, v := range sg.out[u] {
			e := sg.edges[domain.EdgeKey{From: u, To: v}]
			w := e.Length
			if w < 0 {
				w = 0
			}
			if nd := dist[u] + w; nd < dist[v] {
				dist[v] = nd
				parent[v] = u
				heap.Push(&pq, &priorityQueueItem{node: v, distance: nd})
			}
		}
	}

	if math.IsInf(dist[target], 1) {
		return nil, dist[target]
	}
	if source == target {
		return []int64{source}, 0
	}
	return domain.ReconstructPath(parent, source, target), dist[target]
}
