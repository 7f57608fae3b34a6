package domain

// SampleNetwork строит эталонную сеть: поставщики 1-3, РЦ 4-7, точки 8-9.
// Используется демо-режимом CLI и тестами.
func SampleNetwork() (*Graph, Demand) {
	g := NewGraph()
	g.Name = "sample"

	for _, id := range []int64{1, 2, 3} {
		g.AddNode(&Node{ID: id, Type: NodeTypeSupplier})
	}
	for _, id := range []int64{4, 5, 6, 7} {
		g.AddNode(&Node{ID: id, Type: NodeTypeDC})
	}
	for _, id := range []int64{8, 9} {
		g.AddNode(&Node{ID: id, Type: NodeTypeRetail})
	}

	edges := [][2]int64{
		{1, 4}, {1, 5}, {1, 6},
		{2, 5}, {2, 6}, {2, 7},
		{3, 5}, {3, 7},
		{4, 8}, {4, 9},
		{5, 8}, {5, 9},
		{6, 9}, {7, 9},
		{1, 8}, {1, 9}, {3, 9},
	}
	for _, e := range edges {
		g.AddEdge(&Edge{From: e[0], To: e[1]})
	}

	demand := Demand{
		1: {8: 5, 9: 12},
		2: {8: 16, 9: 0},
		3: {8: 6, 9: 6},
	}

	return g, demand
}
