package graph

import (
	"math"
	"slices"
)

// =============================================================================
// Relaxation State
// =============================================================================

// incidence is one edge incident to a node, seen from that node.
type incidence struct {
	neighbor int
	edge     *EdgeState
}

// RelaxState is the per-subgraph Kirchhoff system solved by Gauss-Seidel
// sweeps. Nodes are indexed in ascending id order; pressures persist across
// sweeps and across Rebuild.
type RelaxState struct {
	sg       *Subgraph
	order    []int64
	index    map[int64]int
	incident [][]incidence
	rhs      []float64
	pressure []float64
}

// NewRelaxState builds the relaxation state of sg with all pressures at 0.
func NewRelaxState(sg *Subgraph) *RelaxState {
	rs := &RelaxState{sg: sg}
	rs.Rebuild()
	return rs
}

// Rebuild recomputes the incidence lists and right-hand side after the edge
// set of the subgraph changed. Pressures of surviving nodes are kept.
func (rs *RelaxState) Rebuild() {
	old := make(map[int64]float64, len(rs.order))
	for i, id := range rs.order {
		old[id] = rs.pressure[i]
	}

	sg := rs.sg
	rs.order = sg.NodeIDs()
	rs.index = make(map[int64]int, len(rs.order))
	for i, id := range rs.order {
		rs.index[id] = i
	}

	rs.incident = make([][]incidence, len(rs.order))
	for _, e := range sg.Edges() {
		from, to := rs.index[e.From], rs.index[e.To]
		rs.incident[from] = append(rs.incident[from], incidence{neighbor: to, edge: e})
		rs.incident[to] = append(rs.incident[to], incidence{neighbor: from, edge: e})
	}
	for i := range rs.incident {
		slices.SortStableFunc(rs.incident[i], func(a, b incidence) int {
			return a.neighbor - b.neighbor
		})
	}

	rs.rhs = make([]float64, len(rs.order))
	rs.pressure = make([]float64, len(rs.order))
	for i, id := range rs.order {
		rs.rhs[i] = sg.RHS(id)
		rs.pressure[i] = old[id]
	}
}

// Sweep performs one in-place Gauss-Seidel pass in ascending node order:
//
//	p_i = (sum_j w_ij p_j - rhs_i) / sum_j w_ij,  w = c/L
//
// over every incident edge regardless of direction. A node whose weights sum
// to zero gets pressure 0.
func (rs *RelaxState) Sweep() {
	for i := range rs.order {
		var num, den float64
		for _, inc := range rs.incident[i] {
			w := inc.edge.Weight()
			num += w * rs.pressure[inc.neighbor]
			den += w
		}
		if den == 0 {
			rs.pressure[i] = 0
			continue
		}
		rs.pressure[i] = (num - rs.rhs[i]) / den
	}
}

// UpdateFlows sets every edge flow to (c/L)(p_from - p_to), then moves the
// conductivity halfway to |f|, floored at ConductivityFloor.
// It returns sum |c - prev| and sum prev over the subgraph edges.
func (rs *RelaxState) UpdateFlows() (change, prevTotal float64) {
	for _, e := range rs.sg.Edges() {
		e.Flow = e.Weight() * (rs.pressure[rs.index[e.From]] - rs.pressure[rs.index[e.To]])

		e.PrevConductivity = e.Conductivity
		c := (e.Conductivity + math.Abs(e.Flow)) / 2
		if c < ConductivityFloor {
			c = ConductivityFloor
		}
		e.Conductivity = c

		change += math.Abs(e.Conductivity - e.PrevConductivity)
		prevTotal += e.PrevConductivity
	}
	return change, prevTotal
}

// Pressure returns the pressure of node id (0 for unknown nodes).
func (rs *RelaxState) Pressure(id int64) float64 {
	i, ok := rs.index[id]
	if !ok {
		return 0
	}
	return rs.pressure[i]
}

// Pressures returns a copy of all pressures keyed by node id.
func (rs *RelaxState) Pressures() map[int64]float64 {
	out := make(map[int64]float64, len(rs.order))
	for i, id := range rs.order {
		out[id] = rs.pressure[i]
	}
	return out
}

// RHS returns the right-hand side at node id.
func (rs *RelaxState) RHS(id int64) float64 {
	i, ok := rs.index[id]
	if !ok {
		return 0
	}
	return rs.rhs[i]
}
