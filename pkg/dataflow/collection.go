package dataflow

// Delta is a record paired with a signed integer weight (spec §3: "a
// delta is a pair (record, weight)").
type Delta[T any] struct {
	Value  T
	Weight int64
}

// TimedDelta schedules a Delta at a logical Timestamp.
type TimedDelta[T any] struct {
	Delta[T]
	Time Timestamp
}

// Collection is a bag whose multiplicity at each record equals the sum
// of weights delivered at times <= the query time (spec §3). It is
// represented, deliberately, as an immutable value: every combinator in
// pkg/explain builds a new Collection rather than mutating one, which
// keeps the back-propagation wiring (done alongside each combinator)
// trivially sound — a Collection never changes out from under a
// depends-accumulator that has already observed it.
type Collection[T comparable] struct {
	deltas []TimedDelta[T]
}

// NewCollection builds a Collection from the given timed deltas.
func NewCollection[T comparable](deltas ...TimedDelta[T]) Collection[T] {
	out := make([]TimedDelta[T], len(deltas))
	copy(out, deltas)
	return Collection[T]{deltas: out}
}

// At schedules a single value with the given weight at time t.
func At[T comparable](t Timestamp, value T, weight int64) TimedDelta[T] {
	return TimedDelta[T]{Delta: Delta[T]{Value: value, Weight: weight}, Time: t}
}

// Deltas returns the raw timed deltas backing the collection. Callers
// must not mutate the returned slice.
func (c Collection[T]) Deltas() []TimedDelta[T] {
	return c.deltas
}

// Len reports the number of timed deltas (not the consolidated
// multiplicity) backing the collection.
func (c Collection[T]) Len() int {
	return len(c.deltas)
}

// Map applies f to every value, preserving weight and time. f need not
// be injective for Map itself (only explain.MapWithInverse requires
// that, per spec §4.2's precondition on f).
func Map[T, U comparable](c Collection[T], f func(T) U) Collection[U] {
	out := make([]TimedDelta[U], len(c.deltas))
	for i, d := range c.deltas {
		out[i] = TimedDelta[U]{Delta: Delta[U]{Value: f(d.Value), Weight: d.Weight}, Time: d.Time}
	}
	return Collection[U]{deltas: out}
}

// Filter keeps only deltas whose value satisfies pred.
func Filter[T comparable](c Collection[T], pred func(T) bool) Collection[T] {
	out := make([]TimedDelta[T], 0, len(c.deltas))
	for _, d := range c.deltas {
		if pred(d.Value) {
			out = append(out, d)
		}
	}
	return Collection[T]{deltas: out}
}

// Concat is set-union by delta concatenation (spec §4.2 concat).
func (c Collection[T]) Concat(other Collection[T]) Collection[T] {
	out := make([]TimedDelta[T], 0, len(c.deltas)+len(other.deltas))
	out = append(out, c.deltas...)
	out = append(out, other.deltas...)
	return Collection[T]{deltas: out}
}

// Negate flips the sign of every weight (spec §4.2 except: "negate(other.stream)").
func (c Collection[T]) Negate() Collection[T] {
	out := make([]TimedDelta[T], len(c.deltas))
	for i, d := range c.deltas {
		out[i] = TimedDelta[T]{Delta: Delta[T]{Value: d.Value, Weight: -d.Weight}, Time: d.Time}
	}
	return Collection[T]{deltas: out}
}

// Except is stream concat with other negated (spec §4.2 except).
func (c Collection[T]) Except(other Collection[T]) Collection[T] {
	return c.Concat(other.Negate())
}

// Consolidate sums multiplicities per (record, time) pair, dropping
// zero-weight entries (spec §4.2 consolidate).
func (c Collection[T]) Consolidate() Collection[T] {
	type key struct {
		v T
		t Timestamp
	}
	sums := make(map[key]int64, len(c.deltas))
	order := make([]key, 0, len(c.deltas))
	for _, d := range c.deltas {
		k := key{d.Value, d.Time}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += d.Weight
	}
	out := make([]TimedDelta[T], 0, len(order))
	for _, k := range order {
		w := sums[k]
		if w != 0 {
			out = append(out, TimedDelta[T]{Delta: Delta[T]{Value: k.v, Weight: w}, Time: k.t})
		}
	}
	return Collection[T]{deltas: out}
}

// Threshold rewrites every positive-multiplicity snapshot record (as of
// MaxTimestamp) to weight 1 and drops non-positive ones, emitting each
// at the latest time it was touched. This is the non-negative threshold
// MonotonicAccumulator applies to its running union on Close (spec
// §4.1: "any record with positive multiplicity contributes multiplicity 1").
func (c Collection[T]) Threshold() Collection[T] {
	sums := make(map[T]int64)
	latest := make(map[T]Timestamp)
	order := make([]T, 0)
	for _, d := range c.deltas {
		if _, ok := sums[d.Value]; !ok {
			order = append(order, d.Value)
			latest[d.Value] = d.Time
		}
		sums[d.Value] += d.Weight
		if latest[d.Value].Less(d.Time) {
			latest[d.Value] = d.Time
		}
	}
	out := make([]TimedDelta[T], 0, len(order))
	for _, v := range order {
		if sums[v] > 0 {
			out = append(out, TimedDelta[T]{Delta: Delta[T]{Value: v, Weight: 1}, Time: latest[v]})
		}
	}
	return Collection[T]{deltas: out}
}

// Snapshot sums multiplicities per record across all deltas at times
// <= t, matching the "collection at time t" definition of spec §3.
func (c Collection[T]) Snapshot(t Timestamp) map[T]int64 {
	out := make(map[T]int64)
	for _, d := range c.deltas {
		if d.Time.LessEq(t) {
			out[d.Value] += d.Weight
		}
	}
	for v, w := range out {
		if w == 0 {
			delete(out, v)
		}
	}
	return out
}

// Present reports whether value has strictly positive multiplicity at
// time t.
func (c Collection[T]) Present(t Timestamp, value T) bool {
	return c.Snapshot(t)[value] > 0
}

// Inspect calls fn once per timed delta, in insertion order, without
// altering the collection. Mirrors the engine's `inspect` primitive
// (spec §6).
func (c Collection[T]) Inspect(fn func(TimedDelta[T])) Collection[T] {
	for _, d := range c.deltas {
		fn(d)
	}
	return c
}

// RetimeIter rewrites the Iter coordinate of every delta's Time as a
// function of its own value, used by explain.EnterAt to attach a
// per-delta inner timestamp computed by a caller-supplied function
// (spec §4.2 enter_at).
func RetimeIter[T comparable](c Collection[T], fn func(T) uint64) Collection[T] {
	out := make([]TimedDelta[T], len(c.deltas))
	for i, d := range c.deltas {
		t := d.Time
		t.Iter = fn(d.Value)
		out[i] = TimedDelta[T]{Delta: d.Delta, Time: t}
	}
	return Collection[T]{deltas: out}
}

// Lift reinterprets a time-stamped presence as a data record keyed by
// the original value, with the value's own timestamp carried as the
// lifted record's payload — spec §4.2's "Lifting... reinterpreting a
// delta ((x,t), 1) — a presence-at-time record — as a data record, so
// it can be joined." The source collection is consolidated first, as
// the original Rust library's lift! macro does.
func Lift[T comparable](c Collection[T]) Collection[Pair[T, Timestamp]] {
	cons := c.Consolidate()
	out := make([]TimedDelta[Pair[T, Timestamp]], 0, len(cons.deltas))
	for _, d := range cons.deltas {
		out = append(out, At(d.Time, Pair[T, Timestamp]{Key: d.Value, Val: d.Time}, 1))
	}
	return Collection[Pair[T, Timestamp]]{deltas: out}
}

// Keys extracts the distinct values with non-zero multiplicity at
// MaxTimestamp (Snapshot drops only zero-weight records, so values with
// negative net weight are included).
func (c Collection[T]) Keys() []T {
	snap := c.Snapshot(MaxTimestamp)
	out := make([]T, 0, len(snap))
	for v := range snap {
		out = append(out, v)
	}
	return out
}
