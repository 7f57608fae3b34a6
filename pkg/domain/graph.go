package domain

import (
	"fmt"
	"slices"
	"sync"
)

// NodeType тип узла сети поставок
type NodeType int

const (
	NodeTypeUnspecified NodeType = iota
	NodeTypeSupplier
	NodeTypeDC
	NodeTypeRetail
)

// String возвращает строковое представление типа узла
func (n NodeType) String() string {
	switch n {
	case NodeTypeSupplier:
		return "supplier"
	case NodeTypeDC:
		return "dc"
	case NodeTypeRetail:
		return "retail"
	default:
		return "unspecified"
	}
}

// ParseNodeType разбирает строковое представление типа узла
func ParseNodeType(s string) (NodeType, error) {
	switch s {
	case "supplier":
		return NodeTypeSupplier, nil
	case "dc", "distribution_center":
		return NodeTypeDC, nil
	case "retail", "consumer":
		return NodeTypeRetail, nil
	default:
		return NodeTypeUnspecified, fmt.Errorf("unknown node type %q", s)
	}
}

// EdgeKey уникальный ключ ребра
type EdgeKey struct {
	From int64
	To   int64
}

// String возвращает строковое представление ключа ребра
func (e EdgeKey) String() string {
	return fmt.Sprintf("%d->%d", e.From, e.To)
}

// Compare задаёт канонический порядок ключей (сначала From, потом To)
func (e EdgeKey) Compare(other EdgeKey) int {
	switch {
	case e.From < other.From:
		return -1
	case e.From > other.From:
		return 1
	case e.To < other.To:
		return -1
	case e.To > other.To:
		return 1
	default:
		return 0
	}
}

// Node узел сети
type Node struct {
	ID   int64
	Type NodeType
	Name string
}

// Clone создаёт копию узла
func (n *Node) Clone() *Node {
	return &Node{
		ID:   n.ID,
		Type: n.Type,
		Name: n.Name,
	}
}

// Edge ребро общего графа.
//
// Flow пишется только агрегатором (или базовыми аллокаторами).
// Conductivity, Length и Pheromone - отчётные копии состояния подграфов.
type Edge struct {
	From         int64
	To           int64
	Flow         float64
	Conductivity float64
	Length       float64
	Pheromone    float64
}

// Clone создаёт копию ребра
func (e *Edge) Clone() *Edge {
	return &Edge{
		From:         e.From,
		To:           e.To,
		Flow:         e.Flow,
		Conductivity: e.Conductivity,
		Length:       e.Length,
		Pheromone:    e.Pheromone,
	}
}

// HasFlow проверяет, есть ли поток на ребре
func (e *Edge) HasFlow() bool {
	return IsPositive(e.Flow)
}

// Key возвращает ключ ребра
func (e *Edge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To}
}

// Graph ориентированный граф сети поставок
type Graph struct {
	Nodes    map[int64]*Node
	Edges    map[EdgeKey]*Edge
	Name     string
	Metadata map[string]string

	// Индексы для быстрого доступа
	outgoing map[int64][]int64
	incoming map[int64][]int64

	mu sync.RWMutex
}

// NewGraph создаёт новый пустой граф
func NewGraph() *Graph {
	return &Graph{
		Nodes:    make(map[int64]*Node),
		Edges:    make(map[EdgeKey]*Edge),
		Metadata: make(map[string]string),
		outgoing: make(map[int64][]int64),
		incoming: make(map[int64][]int64),
	}
}

// AddNode добавляет узел в граф
func (g *Graph) AddNode(node *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Nodes[node.ID] = node
}

// AddEdge добавляет ребро в граф. Повторное добавление заменяет состояние ребра.
func (g *Graph) AddEdge(edge *Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := edge.Key()
	if edge.Length == 0 {
		edge.Length = DefaultLength
	}
	if _, exists := g.Edges[key]; !exists {
		g.outgoing[edge.From] = insertSorted(g.outgoing[edge.From], edge.To)
		g.incoming[edge.To] = insertSorted(g.incoming[edge.To], edge.From)
	}
	g.Edges[key] = edge
}

// RemoveEdge удаляет ребро и возвращает true, если оно существовало
func (g *Graph) RemoveEdge(from, to int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := EdgeKey{From: from, To: to}
	if _, ok := g.Edges[key]; !ok {
		return false
	}
	delete(g.Edges, key)
	g.outgoing[from] = removeValue(g.outgoing[from], to)
	g.incoming[to] = removeValue(g.incoming[to], from)
	return true
}

// GetNode возвращает узел по ID
func (g *Graph) GetNode(id int64) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.Nodes[id]
	return node, ok
}

// NodeType возвращает тип узла или NodeTypeUnspecified
func (g *Graph) NodeType(id int64) NodeType {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.Nodes[id]; ok {
		return node.Type
	}
	return NodeTypeUnspecified
}

// GetEdge возвращает ребро между двумя узлами
func (g *Graph) GetEdge(from, to int64) (*Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edge, ok := g.Edges[EdgeKey{From: from, To: to}]
	return edge, ok
}

// GetOutgoing возвращает исходящих соседей узла в порядке возрастания ID
func (g *Graph) GetOutgoing(nodeID int64) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return slices.Clone(g.outgoing[nodeID])
}

// GetIncoming возвращает входящих соседей узла в порядке возрастания ID
func (g *Graph) GetIncoming(nodeID int64) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return slices.Clone(g.incoming[nodeID])
}

// NodeCount возвращает количество узлов
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.Nodes)
}

// EdgeCount возвращает количество рёбер
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.Edges)
}

// SortedNodeIDs возвращает ID узлов по возрастанию
func (g *Graph) SortedNodeIDs() []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]int64, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SortedEdgeKeys возвращает ключи рёбер в каноническом порядке
func (g *Graph) SortedEdgeKeys() []EdgeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]EdgeKey, 0, len(g.Edges))
	for key := range g.Edges {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, EdgeKey.Compare)
	return keys
}

// SortedEdges возвращает рёбра в каноническом порядке
func (g *Graph) SortedEdges() []*Edge {
	keys := g.SortedEdgeKeys()

	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]*Edge, 0, len(keys))
	for _, key := range keys {
		edges = append(edges, g.Edges[key])
	}
	return edges
}

// Clone создаёт глубокую копию графа
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	clone := NewGraph()
	clone.Name = g.Name

	for k, v := range g.Metadata {
		clone.Metadata[k] = v
	}

	for _, node := range g.Nodes {
		clone.Nodes[node.ID] = node.Clone()
	}

	for key, edge := range g.Edges {
		clone.Edges[key] = edge.Clone()
	}
	for id, out := range g.outgoing {
		clone.outgoing[id] = slices.Clone(out)
	}
	for id, in := range g.incoming {
		clone.incoming[id] = slices.Clone(in)
	}

	return clone
}

// GetNodesByType возвращает узлы определённого типа по возрастанию ID
func (g *Graph) GetNodesByType(nodeType NodeType) []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var result []*Node
	for _, node := range g.Nodes {
		if node.Type == nodeType {
			result = append(result, node)
		}
	}
	slices.SortFunc(result, func(a, b *Node) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return result
}

// IDsByType возвращает отсортированные ID узлов заданного типа
func (g *Graph) IDsByType(nodeType NodeType) []int64 {
	nodes := g.GetNodesByType(nodeType)
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// GetActiveEdges возвращает рёбра с потоком
func (g *Graph) GetActiveEdges() []*Edge {
	var result []*Edge
	for _, edge := range g.SortedEdges() {
		if edge.HasFlow() {
			result = append(result, edge)
		}
	}
	return result
}

// ResetFlow сбрасывает поток на всех рёбрах
func (g *Graph) ResetFlow() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, edge := range g.Edges {
		edge.Flow = 0
	}
}

// AddFlow прибавляет поток к ребру; возвращает false, если ребра нет
func (g *Graph) AddFlow(from, to int64, amount float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	edge, ok := g.Edges[EdgeKey{From: from, To: to}]
	if !ok {
		return false
	}
	edge.Flow += amount
	return true
}

// Outflow возвращает суммарный поток по исходящим рёбрам узла
func (g *Graph) Outflow(nodeID int64) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var total float64
	for _, to := range g.outgoing[nodeID] {
		if edge, ok := g.Edges[EdgeKey{From: nodeID, To: to}]; ok {
			total += edge.Flow
		}
	}
	return total
}

// Inflow возвращает суммарный поток по входящим рёбрам узла
func (g *Graph) Inflow(nodeID int64) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var total float64
	for _, from := range g.incoming[nodeID] {
		if edge, ok := g.Edges[EdgeKey{From: from, To: nodeID}]; ok {
			total += edge.Flow
		}
	}
	return total
}

// TotalFlow возвращает суммарный поток по всем рёбрам
func (g *Graph) TotalFlow() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var total float64
	for _, edge := range g.Edges {
		total += edge.Flow
	}
	return total
}

// Validate проверяет структурную корректность графа
func (g *Graph) Validate() []error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error

	for id, node := range g.Nodes {
		if node.ID != id {
			errs = append(errs, fmt.Errorf("node registered as %d has id %d", id, node.ID))
		}
		if node.Type == NodeTypeUnspecified {
			errs = append(errs, fmt.Errorf("node %d has unspecified type", id))
		}
	}

	for _, key := range sortedKeys(g.Edges) {
		edge := g.Edges[key]
		if _, ok := g.Nodes[edge.From]; !ok {
			errs = append(errs, fmt.Errorf("edge %s references non-existent node %d", key, edge.From))
		}
		if _, ok := g.Nodes[edge.To]; !ok {
			errs = append(errs, fmt.Errorf("edge %s references non-existent node %d", key, edge.To))
		}
		if edge.From == edge.To {
			errs = append(errs, fmt.Errorf("self-loop detected at node %d", edge.From))
		}
		if edge.Length < 0 {
			errs = append(errs, fmt.Errorf("edge %s has negative length", key))
		}
	}

	return errs
}

func sortedKeys(edges map[EdgeKey]*Edge) []EdgeKey {
	keys := make([]EdgeKey, 0, len(edges))
	for key := range edges {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, EdgeKey.Compare)
	return keys
}

func insertSorted(ids []int64, id int64) []int64 {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, i, id)
}

func removeValue(ids []int64, id int64) []int64 {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}
