package dataflow

// Iterate drives the feedback-edge primitive described in spec §6
// ("loop_variable(max_inner_time, summary)"). step receives the
// collection accumulated through the previous iteration and the 1-based
// iteration number, and returns the incremental deltas to add at that
// iteration. Iterate concatenates and consolidates after each step and
// stops as soon as an iteration contributes nothing new (the fixed
// point has been reached) or maxIters is exhausted, which bounds
// otherwise-nonterminating recursive computations.
func Iterate[T comparable](maxIters uint64, seed Collection[T], step func(acc Collection[T], iter uint64) Collection[T]) Collection[T] {
	acc := seed.Consolidate()
	prevSnapshot := acc.Snapshot(MaxTimestamp)
	for iter := uint64(1); iter <= maxIters; iter++ {
		delta := step(acc, iter)
		if delta.Len() == 0 {
			break
		}
		acc = acc.Concat(delta).Consolidate()
		snap := acc.Snapshot(MaxTimestamp)
		if sameSnapshot(prevSnapshot, snap) {
			break
		}
		prevSnapshot = snap
	}
	return acc
}

func sameSnapshot[T comparable](a, b map[T]int64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
