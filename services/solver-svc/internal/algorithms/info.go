package algorithms

// =============================================================================
// Algorithm Information
// =============================================================================

// AlgorithmInfo provides metadata about a solver.
//
// Use GetAlgorithmInfo() or GetAllAlgorithms() to retrieve this information
// for reports and CLI help.
type AlgorithmInfo struct {
	// Algorithm is the name accepted by Solve.
	Algorithm string

	// Name is the human-readable name.
	Name string

	// Description is a brief description of the algorithm.
	Description string

	// TimeComplexity is the Big-O time complexity.
	TimeComplexity string

	// Stochastic reports whether the result depends on the seed.
	Stochastic bool

	// Iterative reports whether the solver runs until convergence.
	Iterative bool

	// BestFor lists scenarios where this algorithm excels.
	BestFor []string

	// Caveats lists potential issues or limitations.
	Caveats []string
}

var algorithmInfos = map[string]*AlgorithmInfo{
	AlgorithmPPA: {
		Algorithm:      AlgorithmPPA,
		Name:           "Physarum Polycephalum",
		Description:    "Slime mould relaxation: pressures, adaptive conductivity, congestion-aware lengths and pruning",
		TimeComplexity: "O(I × S × (V + E))",
		Stochastic:     true,
		Iterative:      true,
		BestFor:        []string{"balanced_allocation", "shared_capacity", "network_design"},
		Caveats: []string{
			"Pruning may disconnect unmet demand",
			"Single Gauss-Seidel sweep per iteration",
		},
	},
	AlgorithmACO: {
		Algorithm:      AlgorithmACO,
		Name:           "Ant Colony",
		Description:    "Pheromone guided random walks scored by effective distance with elitist reinforcement",
		TimeComplexity: "O(G × S × A × T × (V + E))",
		Stochastic:     true,
		Iterative:      true,
		BestFor:        []string{"path_based_routing", "economies_of_scale"},
		Caveats:        []string{"Each demand pair uses a single path"},
	},
	AlgorithmDijkstra: {
		Algorithm:      AlgorithmDijkstra,
		Name:           "Sequential Dijkstra",
		Description:    "Pair by pair shortest path by E(current flow)",
		TimeComplexity: "O(P × (V + E) log V)",
		BestFor:        []string{"baseline", "small_networks"},
		Caveats:        []string{"Result depends on routing order"},
	},
	AlgorithmAStar: {
		Algorithm:      AlgorithmAStar,
		Name:           "Sequential A*",
		Description:    "Pair by pair A* search by E(current flow) with a minimum weight heuristic",
		TimeComplexity: "O(P × (V + E) log V)",
		BestFor:        []string{"baseline", "sparse_networks"},
		Caveats:        []string{"Result depends on routing order"},
	},
}

// GetAlgorithmInfo returns information about a specific algorithm, or nil.
func GetAlgorithmInfo(algorithm string) *AlgorithmInfo {
	return algorithmInfos[algorithm]
}

// GetAllAlgorithms returns information about all solvers in a stable order.
func GetAllAlgorithms() []*AlgorithmInfo {
	return []*AlgorithmInfo{
		algorithmInfos[AlgorithmPPA],
		algorithmInfos[AlgorithmACO],
		algorithmInfos[AlgorithmDijkstra],
		algorithmInfos[AlgorithmAStar],
	}
}

// Names returns the algorithm names in a stable order.
func Names() []string {
	return []string{AlgorithmPPA, AlgorithmACO, AlgorithmDijkstra, AlgorithmAStar}
}
