package algorithms

import (
	"math/rand"
	"testing"

	"supplynet/pkg/domain"
	"supplynet/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func init() {
	logger.Init("error")
}

const balanceTolerance = 0.5

// assertBalanced checks supplier outflow and retail inflow against demand.
func assertBalanced(t *testing.T, g *domain.Graph, demand domain.Demand) {
	t.Helper()
	for _, s := range demand.Suppliers() {
		assert.InDelta(t, demand.SupplierTotal(s), g.Outflow(s), balanceTolerance, "supplier %d outflow", s)
	}
	for _, r := range demand.Retailers() {
		assert.InDelta(t, demand.RetailTotal(r), g.Inflow(r), balanceTolerance, "retail %d inflow", r)
	}
}

// assertNonNegative checks that every shared flow is >= 0.
func assertNonNegative(t *testing.T, g *domain.Graph) {
	t.Helper()
	for _, e := range g.SortedEdges() {
		assert.GreaterOrEqual(t, e.Flow, 0.0, "edge %s", e.Key())
	}
}

// flows returns the shared flow keyed by edge.
func flows(g *domain.Graph) map[domain.EdgeKey]float64 {
	out := make(map[domain.EdgeKey]float64, g.EdgeCount())
	for _, e := range g.SortedEdges() {
		out[e.Key()] = e.Flow
	}
	return out
}

// disconnectedNetwork: supplier 1 reaches retail 3 through dc 2, retail 4 is isolated.
func disconnectedNetwork() (*domain.Graph, domain.Demand) {
	g := domain.NewGraph()
	g.AddNode(&domain.Node{ID: 1, Type: domain.NodeTypeSupplier})
	g.AddNode(&domain.Node{ID: 2, Type: domain.NodeTypeDC})
	g.AddNode(&domain.Node{ID: 3, Type: domain.NodeTypeRetail})
	g.AddNode(&domain.Node{ID: 4, Type: domain.NodeTypeRetail})
	g.AddEdge(&domain.Edge{From: 1, To: 2})
	g.AddEdge(&domain.Edge{From: 2, To: 3})

	return g, domain.Demand{1: {3: 5, 4: 7}}
}

// randomNetwork builds a three tier network with random edges and demand.
func randomNetwork(seed int64) (*domain.Graph, domain.Demand) {
	rng := rand.New(rand.NewSource(seed))
	g := domain.NewGraph()

	nS, nD, nR := 1+rng.Intn(3), 1+rng.Intn(4), 1+rng.Intn(3)
	var suppliers, dcs, retail []int64
	id := int64(1)
	for i := 0; i < nS; i++ {
		g.AddNode(&domain.Node{ID: id, Type: domain.NodeTypeSupplier})
		suppliers = append(suppliers, id)
		id++
	}
	for i := 0; i < nD; i++ {
		g.AddNode(&domain.Node{ID: id, Type: domain.NodeTypeDC})
		dcs = append(dcs, id)
		id++
	}
	for i := 0; i < nR; i++ {
		g.AddNode(&domain.Node{ID: id, Type: domain.NodeTypeRetail})
		retail = append(retail, id)
		id++
	}

	for _, s := range suppliers {
		for _, d := range dcs {
			if rng.Float64() < 0.6 {
				g.AddEdge(&domain.Edge{From: s, To: d})
			}
		}
		for _, r := range retail {
			if rng.Float64() < 0.2 {
				g.AddEdge(&domain.Edge{From: s, To: r})
			}
		}
	}
	for _, d := range dcs {
		for _, r := range retail {
			if rng.Float64() < 0.6 {
				g.AddEdge(&domain.Edge{From: d, To: r})
			}
		}
	}

	demand := domain.NewDemand()
	for _, s := range suppliers {
		for _, r := range retail {
			demand.Set(s, r, float64(rng.Intn(11)))
		}
	}
	return g, demand
}
