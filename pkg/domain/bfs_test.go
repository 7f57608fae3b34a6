package domain

import "testing"

func TestReachable(t *testing.T) {
	g, _ := SampleNetwork()

	tests := []struct {
		source int64
		want   []int64
		absent []int64
	}{
		{1, []int64{1, 4, 5, 6, 8, 9}, []int64{2, 3, 7}},
		{2, []int64{2, 5, 6, 7, 8, 9}, []int64{1, 3, 4}},
		{3, []int64{3, 5, 7, 8, 9}, []int64{1, 2, 4, 6}},
	}

	for _, tt := range tests {
		reach := Reachable(g, tt.source)
		for _, id := range tt.want {
			if !reach[id] {
				t.Errorf("source %d: expected %d reachable", tt.source, id)
			}
		}
		for _, id := range tt.absent {
			if reach[id] {
				t.Errorf("source %d: %d must not be reachable", tt.source, id)
			}
		}
	}
}

func TestReachable_UnknownSource(t *testing.T) {
	g, _ := SampleNetwork()
	if got := Reachable(g, 100); len(got) != 0 {
		t.Errorf("expected empty set, got %v", got)
	}
}

func TestReverseReachable(t *testing.T) {
	g, _ := SampleNetwork()
	rev := ReverseReachable(g, 8)

	for _, id := range []int64{1, 2, 3, 4, 5, 8} {
		if !rev[id] {
			t.Errorf("expected %d to reach 8", id)
		}
	}
	for _, id := range []int64{6, 7, 9} {
		if rev[id] {
			t.Errorf("%d must not reach 8", id)
		}
	}
}

func TestUnreachablePairs(t *testing.T) {
	g, d := SampleNetwork()
	if pairs := UnreachablePairs(g, d); len(pairs) != 0 {
		t.Fatalf("sample network is fully reachable, got %v", pairs)
	}

	g.AddNode(&Node{ID: 10, Type: NodeTypeRetail})
	d.Set(3, 10, 4)

	pairs := UnreachablePairs(g, d)
	if len(pairs) != 1 || pairs[0] != (EdgeKey{From: 3, To: 10}) {
		t.Errorf("expected [3->10], got %v", pairs)
	}
}

func TestFindConnectedComponents(t *testing.T) {
	g, _ := SampleNetwork()
	g.AddNode(&Node{ID: 20, Type: NodeTypeDC})

	comps := FindConnectedComponents(g)
	if len(comps) != 2 {
		t.Fatalf("expected 2 components, got %d", len(comps))
	}
	if len(comps[0]) != 9 {
		t.Errorf("expected main component of 9 nodes, got %d", len(comps[0]))
	}
}
