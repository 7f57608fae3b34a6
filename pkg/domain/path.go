package domain

import "fmt"

// Path путь доставки объёма от поставщика к розничной точке
type Path struct {
	Supplier int64
	Retail   int64
	Nodes    []int64
	Volume   float64
	Cost     float64
}

// Edges возвращает ключи рёбер пути
func (p *Path) Edges() []EdgeKey {
	return PathEdges(p.Nodes)
}

// ReconstructPath восстанавливает путь из parent map
func ReconstructPath(parent map[int64]int64, source, sink int64) []int64 {
	if _, exists := parent[sink]; !exists {
		return nil
	}

	path := []int64{}
	current := sink

	for current != source {
		path = append([]int64{current}, path...)
		p, exists := parent[current]
		if !exists || p == -1 {
			return nil
		}
		current = p
	}
	path = append([]int64{source}, path...)

	return path
}

// PathEdges превращает последовательность узлов в последовательность рёбер
func PathEdges(nodes []int64) []EdgeKey {
	if len(nodes) < 2 {
		return nil
	}
	keys := make([]EdgeKey, 0, len(nodes)-1)
	for i := 0; i < len(nodes)-1; i++ {
		keys = append(keys, EdgeKey{From: nodes[i], To: nodes[i+1]})
	}
	return keys
}

// ValidatePath проверяет, что все рёбра пути существуют в графе
func ValidatePath(g *Graph, nodes []int64) error {
	if len(nodes) < 2 {
		return fmt.Errorf("path must contain at least two nodes, got %d", len(nodes))
	}
	for _, key := range PathEdges(nodes) {
		if _, ok := g.GetEdge(key.From, key.To); !ok {
			return fmt.Errorf("edge %s not in graph", key)
		}
	}
	return nil
}

// AugmentPath добавляет объём вдоль пути
func AugmentPath(g *Graph, nodes []int64, volume float64) error {
	if err := ValidatePath(g, nodes); err != nil {
		return err
	}
	for _, key := range PathEdges(nodes) {
		g.AddFlow(key.From, key.To, volume)
	}
	return nil
}
