package explain

import "github.com/rosscartlidge/explaindf/pkg/dataflow"

// MapWithInverse applies f to Stream and Working, wiring demand
// back-propagation through the caller-supplied inverse f⁻¹ (spec §4.2
// map_with_inverse). f must be injective over observed inputs; per
// spec §7.2 this is a caller contract the library cannot check, and a
// non-injective f yields a conservative (over-approximated) `must`
// set rather than a runtime error.
func MapWithInverse[K, V, K2, V2 comparable](
	x Collection[K, V],
	f func(Record[K, V]) Record[K2, V2],
	inverse func(Demand[K2, V2]) Demand[K, V],
) (Collection[K2, V2], error) {
	result, err := New[K2, V2](dataflow.Map(x.Stream, f), dataflow.Map(x.Working, f), x.scope)
	if err != nil {
		return Collection[K2, V2]{}, err
	}
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K2, V2]]) {
		x.Depends.Add(dataflow.Map(added, inverse))
	})
	return result, nil
}

// Concat is set-union by delta concatenation (spec §4.2 concat). Every
// demand that later arrives at the result is forwarded, unchanged, into
// both inputs' Depends — conservative, since either input could be the
// one that actually produced a given output record.
func Concat[K, V comparable](x, y Collection[K, V]) (Collection[K, V], error) {
	result, err := New[K, V](x.Stream.Concat(y.Stream), x.Working.Concat(y.Working), x.scope)
	if err != nil {
		return Collection[K, V]{}, err
	}
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K, V]]) { x.Depends.Add(added) })
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K, V]]) { y.Depends.Add(added) })
	return result, nil
}

// Except computes x minus y by concatenating x with negated y (spec
// §4.2 except). Demand back-propagation is identical to Concat's: a
// negative record's absence-contribution to an output is only
// materialised via the correction loop's intersection with actual
// inputs (spec §4.2's except rationale), so forwarding conservatively
// to both sides here is correct and keeps P2 (minimality) verifiable —
// see the Open Question in spec §9 about tightening except.
func Except[K, V comparable](x, y Collection[K, V]) (Collection[K, V], error) {
	result, err := New[K, V](x.Stream.Except(y.Stream), x.Working.Except(y.Working), x.scope)
	if err != nil {
		return Collection[K, V]{}, err
	}
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K, V]]) { x.Depends.Add(added) })
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K, V]]) { y.Depends.Add(added) })
	return result, nil
}

// Consolidate sums multiplicities per record at each time, in both
// Stream and Working, with demand pass-through unchanged (spec §4.2
// consolidate).
func Consolidate[K, V comparable](x Collection[K, V]) (Collection[K, V], error) {
	result, err := New[K, V](x.Stream.Consolidate(), x.Working.Consolidate(), x.scope)
	if err != nil {
		return Collection[K, V]{}, err
	}
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K, V]]) { x.Depends.Add(added) })
	return result, nil
}

// Enter lifts a collection into a nested scope (spec §4.2 enter).
// Demand back-propagation strips the inner timestamp coordinate:
// (k,v,(t_outer,t_inner),q) -> (k,v,t_outer,q) is added to the outer
// input's Depends.
func Enter[K, V comparable](x Collection[K, V], scope *Scope) (Collection[K, V], error) {
	result, err := New[K, V](x.Stream, x.Working, scope)
	if err != nil {
		return Collection[K, V]{}, err
	}
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K, V]]) {
		stripped := dataflow.Map(added, func(d Demand[K, V]) Demand[K, V] {
			d.Time = d.Time.StripInner()
			return d
		})
		x.Depends.Add(stripped)
	})
	return result, nil
}

// EnterAt lifts a collection into a nested scope, assigning each
// delta's own inner timestamp via at (spec §4.2 enter_at). Demand
// back-propagation strips the inner coordinate, exactly as Enter does.
func EnterAt[K, V comparable](x Collection[K, V], scope *Scope, at func(Record[K, V]) uint64) (Collection[K, V], error) {
	retimedStream := dataflow.RetimeIter(x.Stream, at)
	retimedWorking := dataflow.RetimeIter(x.Working, at)
	result, err := New[K, V](retimedStream, retimedWorking, scope)
	if err != nil {
		return Collection[K, V]{}, err
	}
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K, V]]) {
		stripped := dataflow.Map(added, func(d Demand[K, V]) Demand[K, V] {
			d.Time = d.Time.StripInner()
			return d
		})
		x.Depends.Add(stripped)
	})
	return result, nil
}

// Leave is the dual of Enter (spec §4.2 leave / "Scope closure"). When
// demand for an outer record arrives, it is joined with a lifted
// snapshot of the inner-scope Stream ∪ Working to recover the inner
// timestamp at which the record was present, and that inner-timestamped
// demand is pushed into the inner input's Depends.
func Leave[K, V comparable](x Collection[K, V], scope *Scope) (Collection[K, V], error) {
	result, err := New[K, V](x.Stream, x.Working, scope)
	if err != nil {
		return Collection[K, V]{}, err
	}
	history := x.Stream.Concat(x.Working)
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K, V]]) {
		lifted := dataflow.Lift(history)
		joined := dataflow.JoinOnKeyWith(
			added.Deltas(),
			func(d Demand[K, V]) Record[K, V] { return Record[K, V]{Key: d.Key, Val: d.Val} },
			lifted.Deltas(),
			func(p dataflow.Pair[Record[K, V], dataflow.Timestamp]) Record[K, V] { return p.Key },
			func(d Demand[K, V], p dataflow.Pair[Record[K, V], dataflow.Timestamp]) Demand[K, V] {
				return Demand[K, V]{Key: d.Key, Val: d.Val, Time: p.Val, Query: d.Query}
			},
		)
		x.Depends.Add(dataflow.NewCollection(joined...))
	})
	return result, nil
}

// JoinOnUnsignedKey inner-joins two collections on K, which must be an
// unsigned integer type (spec §4.2 join_on_unsigned_key). An output
// demand (k,(v1,v2),t,q) decomposes into (k,v1,t,q) added to x's
// Depends and (k,v2,t,q) added to y's Depends; both sides are always
// required.
func JoinOnUnsignedKey[K dataflow.Unsigned, V1, V2 comparable](
	x Collection[K, V1],
	y Collection[K, V2],
) (Collection[K, dataflow.Pair[V1, V2]], error) {
	joinedStream := dataflow.JoinOnUnsignedKey(x.Stream, y.Stream)
	joinedWorking := dataflow.JoinOnUnsignedKey(x.Working, y.Working)
	result, err := New[K, dataflow.Pair[V1, V2]](joinedStream, joinedWorking, x.scope)
	if err != nil {
		return Collection[K, dataflow.Pair[V1, V2]]{}, err
	}
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K, dataflow.Pair[V1, V2]]]) {
		x.Depends.Add(dataflow.Map(added, func(d Demand[K, dataflow.Pair[V1, V2]]) Demand[K, V1] {
			return Demand[K, V1]{Key: d.Key, Val: d.Val.Key, Time: d.Time, Query: d.Query}
		}))
	})
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K, dataflow.Pair[V1, V2]]]) {
		y.Depends.Add(dataflow.Map(added, func(d Demand[K, dataflow.Pair[V1, V2]]) Demand[K, V2] {
			return Demand[K, V2]{Key: d.Key, Val: d.Val.Val, Time: d.Time, Query: d.Query}
		}))
	})
	return result, nil
}

// GroupedMin produces, for each key, the record whose rho(v) is
// minimum, ties on rho broken in favour of the value observed first
// (see dataflow.GroupMinByKey) (spec §4.2 grouped_min,
// the `min!` macro). For every incoming output demand (k,v*,t*,q), every
// input record (k,v,t,q) satisfying t <= t* and rho(v) <= rho(v*) is
// added to the input's Depends — the minimality-justifying frontier of
// min: every such record could have been the min, or displaced a larger
// candidate, at some point no later than t*.
func GroupedMin[K comparable, V comparable, L dataflow.Ordered](
	x Collection[K, V],
	rho func(V) L,
	scope *Scope,
) (Collection[K, V], error) {
	min1 := dataflow.GroupMinByKey(x.Stream, rho)
	min2 := dataflow.GroupMinByKey(x.Working, rho)
	result, err := New[K, V](min1, min2, scope)
	if err != nil {
		return Collection[K, V]{}, err
	}
	candidates := x.Stream.Concat(x.Working)
	result.Depends.Subscribe(func(added dataflow.Collection[Demand[K, V]]) {
		out := make([]dataflow.TimedDelta[Demand[K, V]], 0)
		for _, dd := range added.Deltas() {
			for _, cd := range candidates.Deltas() {
				if cd.Value.Key != dd.Value.Key {
					continue
				}
				if !cd.Time.LessEq(dd.Value.Time) {
					continue
				}
				if !(rho(cd.Value.Val) <= rho(dd.Value.Val)) {
					continue
				}
				out = append(out, dataflow.At(dd.Time, Demand[K, V]{
					Key: cd.Value.Key, Val: cd.Value.Val, Time: cd.Time, Query: dd.Value.Query,
				}, dd.Weight))
			}
		}
		x.Depends.Add(dataflow.NewCollection(out...))
	})
	return result, nil
}
