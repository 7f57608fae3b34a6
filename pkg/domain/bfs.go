package domain

// Reachable возвращает множество вершин, достижимых из source по направлению рёбер.
// Сам source входит в множество, если он есть в графе.
func Reachable(g *Graph, source int64) map[int64]bool {
	visited := make(map[int64]bool)
	if _, ok := g.GetNode(source); !ok {
		return visited
	}

	queue := []int64{source}
	visited[source] = true

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range g.GetOutgoing(u) {
			if visited[v] {
				continue
			}
			visited[v] = true
			queue = append(queue, v)
		}
	}

	return visited
}

// ReverseReachable возвращает вершины, из которых достижим sink
func ReverseReachable(g *Graph, sink int64) map[int64]bool {
	visited := make(map[int64]bool)
	if _, ok := g.GetNode(sink); !ok {
		return visited
	}

	queue := []int64{sink}
	visited[sink] = true

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range g.GetIncoming(u) {
			if visited[v] {
				continue
			}
			visited[v] = true
			queue = append(queue, v)
		}
	}

	return visited
}

// UnreachablePairs возвращает пары (поставщик, точка) с положительным спросом без пути
func UnreachablePairs(g *Graph, demand Demand) []EdgeKey {
	var pairs []EdgeKey
	for _, s := range demand.Suppliers() {
		reach := Reachable(g, s)
		for _, r := range demand.Targets(s) {
			if !reach[r] {
				pairs = append(pairs, EdgeKey{From: s, To: r})
			}
		}
	}
	return pairs
}

// FindConnectedComponents находит компоненты слабой связности
func FindConnectedComponents(g *Graph) [][]int64 {
	visited := make(map[int64]bool)
	components := make([][]int64, 0, g.NodeCount()/10+1)

	adj := make(map[int64][]int64)
	for _, key := range g.SortedEdgeKeys() {
		adj[key.From] = append(adj[key.From], key.To)
		adj[key.To] = append(adj[key.To], key.From)
	}

	for _, nodeID := range g.SortedNodeIDs() {
		if visited[nodeID] {
			continue
		}

		var component []int64
		queue := []int64{nodeID}
		visited[nodeID] = true

		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			component = append(component, u)

			for _, v := range adj[u] {
				if !visited[v] {
					visited[v] = true
					queue = append(queue, v)
				}
			}
		}

		components = append(components, component)
	}

	return components
}
