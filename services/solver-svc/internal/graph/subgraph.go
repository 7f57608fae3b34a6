// Package graph provides the per-supplier view of the supply network used by
// the iterative solvers.
//
// This package contains:
//   - Subgraph: nodes reachable from one supplier, with solver-owned edge state
//   - Decompose: splits a shared network into one Subgraph per supplier
//   - RelaxState: Gauss-Seidel pressure relaxation over a Subgraph
//   - ShortestPath: Dijkstra by edge length inside a Subgraph
//
// # Ownership
//
// Every Subgraph owns its EdgeState records. Nothing in a Subgraph aliases
// the shared domain.Graph; solvers write the shared flow only through
// aggregation.
//
// # Thread Safety
//
// Subgraph is NOT thread-safe. Distinct subgraphs may be processed by
// distinct goroutines as long as the shared graph is not written meanwhile.
//
// # Determinism
//
// Nodes and edges are always visited in ascending id order, and every random
// draw is taken from the caller's *rand.Rand in that order.
package graph

import (
	"fmt"
	"math/rand"
	"slices"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
	"supplynet/pkg/logger"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// ConductivityFloor is the lower bound for edge conductivity.
	ConductivityFloor = 1e-9

	// LengthFloor replaces a zero length when computing edge weights.
	LengthFloor = 1e-9

	// DefaultPheromoneJitter is the spread of initial pheromone above 1.
	DefaultPheromoneJitter = 0.1
)

// =============================================================================
// Edge State
// =============================================================================

// EdgeState holds the solver-side attributes of one directed edge inside a
// single Subgraph.
type EdgeState struct {
	From int64
	To   int64

	// Flow is the signed flow of the last update (PPA) or the routed volume (ACO).
	Flow float64

	// Conductivity is the Physarum tube diameter analogue. Always >= ConductivityFloor.
	Conductivity float64

	// PrevConductivity is the conductivity before the last update.
	PrevConductivity float64

	// Length is the effective length, updated from the congestion model.
	Length float64

	// Pheromone is the ACO trail intensity.
	Pheromone float64
}

// Key returns the edge key.
func (e *EdgeState) Key() domain.EdgeKey {
	return domain.EdgeKey{From: e.From, To: e.To}
}

// Weight returns c/L, with zero length replaced by LengthFloor.
func (e *EdgeState) Weight() float64 {
	l := e.Length
	if l < LengthFloor {
		l = LengthFloor
	}
	return e.Conductivity / l
}

// =============================================================================
// Subgraph
// =============================================================================

// Subgraph is the part of the network reachable from one supplier along edge
// direction, together with that supplier's demand vector.
type Subgraph struct {
	supplier    int64
	demand      map[int64]float64
	nodes       map[int64]domain.NodeType
	nodeIDs     []int64
	edges       map[domain.EdgeKey]*EdgeState
	out         map[int64][]int64
	in          map[int64][]int64
	unreachable []int64

	relax *RelaxState
}

// DecomposeOptions configures subgraph construction.
type DecomposeOptions struct {
	// PheromoneJitter is the spread of the initial pheromone 1 + U(0, jitter)
	// for edges whose shared pheromone is not positive.
	PheromoneJitter float64
}

// DefaultDecomposeOptions returns the default decomposition options.
func DefaultDecomposeOptions() DecomposeOptions {
	return DecomposeOptions{PheromoneJitter: DefaultPheromoneJitter}
}

// Decompose builds one Subgraph per supplier of g, in ascending supplier id.
//
// Each subgraph holds the nodes reachable from its supplier and every shared
// edge whose endpoints are both reachable. Edge state starts with zero flow,
// conductivity drawn from U(ConductivityFloor, 1), the shared length and the
// shared pheromone (or 1 + U(0, jitter) when the shared value is not positive).
//
// Demand targets that cannot be reached stay in the demand vector, are listed
// by Unreachable and are excluded from TotalDemand. The shared graph is not
// modified.
func Decompose(g *domain.Graph, demand domain.Demand, rng *rand.Rand, opts DecomposeOptions) ([]*Subgraph, error) {
	if g == nil {
		return nil, apperror.ErrNilGraph
	}
	if demand == nil {
		return nil, apperror.ErrNilDemand
	}
	if rng == nil {
		return nil, apperror.New(apperror.CodeNilInput, "random source is nil")
	}

	suppliers := g.IDsByType(domain.NodeTypeSupplier)
	for _, s := range demand.Suppliers() {
		if _, ok := g.GetNode(s); !ok {
			return nil, apperror.NewWithField(apperror.CodeUnknownNode,
				fmt.Sprintf("demand supplier %d is not in the graph", s), "demand")
		}
		if !slices.Contains(suppliers, s) {
			return nil, apperror.NewWithField(apperror.CodeInvalidDemand,
				fmt.Sprintf("demand source %d is not a supplier", s), "demand")
		}
	}

	log := logger.WithComponent("decompose")
	subgraphs := make([]*Subgraph, 0, len(suppliers))

	for _, s := range suppliers {
		sg := newSubgraph(g, s, demand.Row(s))

		for _, key := range g.SortedEdgeKeys() {
			if !sg.HasNode(key.From) || !sg.HasNode(key.To) {
				continue
			}
			shared, _ := g.GetEdge(key.From, key.To)

			state := &EdgeState{
				From:         key.From,
				To:           key.To,
				Conductivity: ConductivityFloor + rng.Float64()*(1-ConductivityFloor),
				Length:       shared.Length,
				Pheromone:    shared.Pheromone,
			}
			if state.Length < 0 {
				state.Length = 0
			}
			if state.Pheromone <= 0 {
				state.Pheromone = 1 + rng.Float64()*opts.PheromoneJitter
			}
			sg.addEdge(state)
		}

		for _, r := range sg.unreachable {
			log.Warn("demand target unreachable from supplier",
				"supplier", s, "retail", r, "volume", sg.demand[r])
		}

		subgraphs = append(subgraphs, sg)
	}

	return subgraphs, nil
}

func newSubgraph(g *domain.Graph, supplier int64, demand map[int64]float64) *Subgraph {
	reach := domain.Reachable(g, supplier)

	sg := &Subgraph{
		supplier: supplier,
		demand:   demand,
		nodes:    make(map[int64]domain.NodeType, len(reach)),
		edges:    make(map[domain.EdgeKey]*EdgeState),
		out:      make(map[int64][]int64),
		in:       make(map[int64][]int64),
	}

	for id := range reach {
		sg.nodes[id] = g.NodeType(id)
		sg.nodeIDs = append(sg.nodeIDs, id)
	}
	slices.Sort(sg.nodeIDs)

	for r, v := range demand {
		if v > 0 && !reach[r] {
			sg.unreachable = append(sg.unreachable, r)
		}
	}
	slices.Sort(sg.unreachable)

	return sg
}

func (sg *Subgraph) addEdge(e *EdgeState) {
	key := e.Key()
	if _, exists := sg.edges[key]; !exists {
		sg.out[e.From] = insertSorted(sg.out[e.From], e.To)
		sg.in[e.To] = insertSorted(sg.in[e.To], e.From)
	}
	sg.edges[key] = e
}

// Supplier returns the supplier id.
func (sg *Subgraph) Supplier() int64 {
	return sg.supplier
}

// Demand returns a copy of the supplier's demand vector.
func (sg *Subgraph) Demand() map[int64]float64 {
	out := make(map[int64]float64, len(sg.demand))
	for r, v := range sg.demand {
		out[r] = v
	}
	return out
}

// Targets returns reachable retail ids with positive demand, ascending.
func (sg *Subgraph) Targets() []int64 {
	ids := make([]int64, 0, len(sg.demand))
	for r, v := range sg.demand {
		if v > 0 && sg.HasNode(r) {
			ids = append(ids, r)
		}
	}
	slices.Sort(ids)
	return ids
}

// Volume returns the demand of the supplier at retail r.
func (sg *Subgraph) Volume(r int64) float64 {
	return sg.demand[r]
}

// NodeIDs returns the node ids in ascending order.
func (sg *Subgraph) NodeIDs() []int64 {
	return slices.Clone(sg.nodeIDs)
}

// NodeCount returns the number of nodes.
func (sg *Subgraph) NodeCount() int {
	return len(sg.nodeIDs)
}

// HasNode reports whether id belongs to the subgraph.
func (sg *Subgraph) HasNode(id int64) bool {
	_, ok := sg.nodes[id]
	return ok
}

// NodeType returns the type of node id.
func (sg *Subgraph) NodeType(id int64) domain.NodeType {
	return sg.nodes[id]
}

// Edge returns the state of edge from->to.
func (sg *Subgraph) Edge(from, to int64) (*EdgeState, bool) {
	e, ok := sg.edges[domain.EdgeKey{From: from, To: to}]
	return e, ok
}

// Edges returns all edge states ordered by (From, To).
func (sg *Subgraph) Edges() []*EdgeState {
	keys := make([]domain.EdgeKey, 0, len(sg.edges))
	for k := range sg.edges {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, domain.EdgeKey.Compare)

	out := make([]*EdgeState, len(keys))
	for i, k := range keys {
		out[i] = sg.edges[k]
	}
	return out
}

// EdgeCount returns the number of edges.
func (sg *Subgraph) EdgeCount() int {
	return len(sg.edges)
}

// Successors returns the heads of edges leaving id, ascending.
func (sg *Subgraph) Successors(id int64) []int64 {
	return slices.Clone(sg.out[id])
}

// Predecessors returns the tails of edges entering id, ascending.
func (sg *Subgraph) Predecessors(id int64) []int64 {
	return slices.Clone(sg.in[id])
}

// Neighbors returns predecessors and successors of id without duplicates, ascending.
func (sg *Subgraph) Neighbors(id int64) []int64 {
	out := make([]int64, 0, len(sg.out[id])+len(sg.in[id]))
	out = append(out, sg.out[id]...)
	out = append(out, sg.in[id]...)
	slices.Sort(out)
	return slices.Compact(out)
}

// RemoveEdge deletes edge from->to. The relaxation state must be rebuilt afterwards.
func (sg *Subgraph) RemoveEdge(from, to int64) bool {
	key := domain.EdgeKey{From: from, To: to}
	if _, ok := sg.edges[key]; !ok {
		return false
	}
	delete(sg.edges, key)
	sg.out[from] = removeValue(sg.out[from], to)
	sg.in[to] = removeValue(sg.in[to], from)
	return true
}

// Reachable reports whether id was reachable from the supplier at construction.
func (sg *Subgraph) Reachable(id int64) bool {
	return sg.HasNode(id)
}

// Unreachable returns demand targets with positive volume that cannot be reached.
func (sg *Subgraph) Unreachable() []int64 {
	return slices.Clone(sg.unreachable)
}

// TotalDemand returns the demand over reachable targets.
func (sg *Subgraph) TotalDemand() float64 {
	total := 0.0
	for r, v := range sg.demand {
		if v > 0 && sg.HasNode(r) {
			total += v
		}
	}
	return total
}

// RHS returns the right-hand side of the Kirchhoff balance at node id:
// -TotalDemand at the supplier, the demand at a reachable retail node, 0 elsewhere.
func (sg *Subgraph) RHS(id int64) float64 {
	if id == sg.supplier {
		return -sg.TotalDemand()
	}
	if !sg.HasNode(id) {
		return 0
	}
	if v := sg.demand[id]; v > 0 && sg.nodes[id] == domain.NodeTypeRetail {
		return v
	}
	return 0
}

// ResetFlow zeroes the flow of every edge.
func (sg *Subgraph) ResetFlow() {
	for _, e := range sg.edges {
		e.Flow = 0
	}
}

// Relaxation returns the relaxation state, building it on first use.
func (sg *Subgraph) Relaxation() *RelaxState {
	if sg.relax == nil {
		sg.relax = NewRelaxState(sg)
	}
	return sg.relax
}

// =============================================================================
// Helpers
// =============================================================================

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
