package dataflow

// Semijoin keeps only the elements of needs whose image under extract
// has positive multiplicity in actual at MaxTimestamp, dropping demands
// for records that were never really supplied (spec §4.3 step 5: "drop
// demands for absent records"). The surviving elements retain their
// original weight and time.
func Semijoin[T comparable, K comparable](needs Collection[T], actual Collection[K], extract func(T) K) Collection[T] {
	present := actual.Snapshot(MaxTimestamp)
	out := make([]TimedDelta[T], 0, len(needs.deltas))
	for _, d := range needs.deltas {
		if present[extract(d.Value)] > 0 {
			out = append(out, d)
		}
	}
	return Collection[T]{deltas: out}
}
