package dataflow

import "sort"

// GroupMinByKey computes, for each key, the value minimizing rho,
// re-derived incrementally as deltas arrive in timestamp order (spec
// §4.2 grouped_min). rho is expected to be a total order key for V —
// callers with a composite V (e.g. a multi-field preference tuple)
// pack every tiebreaking field into L themselves, the way the engine's
// Rust callers rely on V's whole-tuple Ord. Ties that remain after rho
// (rho equal) are broken by which surviving value was first observed,
// a deterministic tiebreak independent of Go's randomized map
// iteration order. The result is a Collection of (key, argmin) pairs: a
// retraction (weight -1) of the old argmin followed by an insertion
// (weight +1) of the new one is emitted, at the time the minimum
// actually changed, whenever the winner changes — this mirrors the
// engine's `group_u`/`group_min_by_key` primitive (§6), which itself
// emits retract/insert pairs as the underlying data changes.
func GroupMinByKey[K comparable, V comparable, L Ordered](c Collection[Pair[K, V]], rho func(V) L) Collection[Pair[K, V]] {
	deltas := append([]TimedDelta[Pair[K, V]]{}, c.deltas...)
	sort.SliceStable(deltas, func(i, j int) bool { return deltas[i].Time.Less(deltas[j].Time) })

	type keyState struct {
		mult    map[V]int64
		seq     map[V]int
		next    int
		current V
		hasMin  bool
	}
	states := make(map[K]*keyState)

	out := make([]TimedDelta[Pair[K, V]], 0)
	for _, d := range deltas {
		k := d.Value.Key
		v := d.Value.Val
		st, ok := states[k]
		if !ok {
			st = &keyState{mult: make(map[V]int64), seq: make(map[V]int)}
			states[k] = st
		}
		if _, seen := st.seq[v]; !seen {
			st.seq[v] = st.next
			st.next++
		}
		st.mult[v] += d.Weight

		newMin, hasMin := argMin(st.mult, st.seq, rho)
		if hasMin != st.hasMin || (hasMin && newMin != st.current) {
			if st.hasMin {
				out = append(out, At(d.Time, Pair[K, V]{Key: k, Val: st.current}, -1))
			}
			if hasMin {
				out = append(out, At(d.Time, Pair[K, V]{Key: k, Val: newMin}, 1))
			}
			st.current = newMin
			st.hasMin = hasMin
		}
	}
	return Collection[Pair[K, V]]{deltas: out}
}

func argMin[V comparable, L Ordered](mult map[V]int64, seq map[V]int, rho func(V) L) (V, bool) {
	var best V
	var bestL L
	bestSeq := 0
	found := false
	for v, w := range mult {
		if w <= 0 {
			continue
		}
		l := rho(v)
		s := seq[v]
		if !found || l < bestL || (l == bestL && s < bestSeq) {
			best, bestL, bestSeq, found = v, l, s, true
		}
	}
	return best, found
}
