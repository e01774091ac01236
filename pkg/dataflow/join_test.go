package dataflow

import "testing"

func TestJoinOnUnsignedKeyMatchesSharedKeys(t *testing.T) {
	a := NewCollection(
		At(Timestamp{Epoch: 1}, Pair[uint64, string]{Key: 1, Val: "x"}, 1),
		At(Timestamp{Epoch: 1}, Pair[uint64, string]{Key: 2, Val: "y"}, 1),
	)
	b := NewCollection(
		At(Timestamp{Epoch: 1}, Pair[uint64, int]{Key: 1, Val: 10}, 1),
	)
	joined := JoinOnUnsignedKey(a, b)
	snap := joined.Snapshot(MaxTimestamp)
	want := Pair[uint64, Pair[string, int]]{Key: 1, Val: Pair[string, int]{Key: "x", Val: 10}}
	if snap[want] != 1 {
		t.Errorf("expected joined pair present with weight 1, got %d", snap[want])
	}
	if len(snap) != 1 {
		t.Errorf("expected exactly 1 joined record, got %d", len(snap))
	}
}

func TestJoinOnUnsignedKeyTimeIsJoinOfInputs(t *testing.T) {
	a := NewCollection(At(Timestamp{Epoch: 5}, Pair[uint64, string]{Key: 1, Val: "x"}, 1))
	b := NewCollection(At(Timestamp{Epoch: 2}, Pair[uint64, int]{Key: 1, Val: 10}, 1))
	joined := JoinOnUnsignedKey(a, b)
	deltas := joined.Deltas()
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d", len(deltas))
	}
	if deltas[0].Time != (Timestamp{Epoch: 5}) {
		t.Errorf("expected joined time to be the later input's time, got %v", deltas[0].Time)
	}
}

func TestJoinOnKeyWithCombinesDifferentShapes(t *testing.T) {
	type left struct {
		K int
		V int
	}
	type right struct {
		K int
		W string
	}
	a := []TimedDelta[left]{At(Timestamp{}, left{K: 1, V: 100}, 1)}
	b := []TimedDelta[right]{At(Timestamp{}, right{K: 1, W: "hi"}, 1), At(Timestamp{}, right{K: 2, W: "nope"}, 1)}
	out := JoinOnKeyWith(
		a, func(l left) int { return l.K },
		b, func(r right) int { return r.K },
		func(l left, r right) string { return r.W },
	)
	if len(out) != 1 || out[0].Value != "hi" {
		t.Fatalf("expected exactly 1 match producing %q, got %v", "hi", out)
	}
}
