package dataflow

import "testing"

// TestIterateReachesFixedPoint simulates propagating a value +1 along a
// chain 0->1->2->3 until no node changes, checking Iterate stops once
// the fixed point (every reachable node visited) is reached.
func TestIterateReachesFixedPoint(t *testing.T) {
	edges := map[int]int{0: 1, 1: 2, 2: 3}
	seed := NewCollection(At(Timestamp{}, 0, 1))

	result := Iterate(10, seed, func(acc Collection[int], iter uint64) Collection[int] {
		present := acc.Snapshot(MaxTimestamp)
		out := make([]TimedDelta[int], 0)
		for node := range present {
			if next, ok := edges[node]; ok {
				if present[next] == 0 {
					out = append(out, At(Timestamp{Iter: iter}, next, 1))
				}
			}
		}
		return NewCollection(out...)
	})

	snap := result.Snapshot(MaxTimestamp)
	for _, node := range []int{0, 1, 2, 3} {
		if snap[node] != 1 {
			t.Errorf("expected node %d reached with weight 1, got %d", node, snap[node])
		}
	}
}

func TestIterateRespectsMaxIters(t *testing.T) {
	seed := NewCollection(At(Timestamp{}, 0, 1))
	calls := 0
	Iterate(3, seed, func(acc Collection[int], iter uint64) Collection[int] {
		calls++
		return NewCollection(At(Timestamp{Iter: iter}, int(iter), 1))
	})
	if calls != 3 {
		t.Errorf("expected exactly 3 calls bounded by maxIters, got %d", calls)
	}
}
