package dataflow

// JoinOnUnsignedKey inner-joins two (K,V) collections on their shared
// unsigned-integer key, bilinearly over weights: a pairing of
// (k,v1,t1,w1) with (k,v2,t2,w2) contributes ((k,(v1,v2)), t1 JOIN t2,
// w1*w2) to the result, which is the standard differential-dataflow
// join semantics §6 assumes. Spec §4.2 requires K be unsigned for this
// combinator.
func JoinOnUnsignedKey[K Unsigned, V1, V2 comparable](
	a Collection[Pair[K, V1]],
	b Collection[Pair[K, V2]],
) Collection[Pair[K, Pair[V1, V2]]] {
	return joinOnKey(a, b)
}

// JoinOnKey is the unconstrained-key counterpart, for joins on an
// arbitrary comparable key rather than specifically an unsigned one.
func JoinOnKey[K comparable, V1, V2 comparable](
	a Collection[Pair[K, V1]],
	b Collection[Pair[K, V2]],
) Collection[Pair[K, Pair[V1, V2]]] {
	return joinOnKey(a, b)
}

func joinOnKey[K comparable, V1, V2 comparable](
	a Collection[Pair[K, V1]],
	b Collection[Pair[K, V2]],
) Collection[Pair[K, Pair[V1, V2]]] {
	byKey := make(map[K][]TimedDelta[Pair[K, V2]])
	for _, d := range b.deltas {
		byKey[d.Value.Key] = append(byKey[d.Value.Key], d)
	}

	out := make([]TimedDelta[Pair[K, Pair[V1, V2]]], 0)
	for _, da := range a.deltas {
		for _, db := range byKey[da.Value.Key] {
			out = append(out, TimedDelta[Pair[K, Pair[V1, V2]]]{
				Delta: Delta[Pair[K, Pair[V1, V2]]]{
					Value:  Pair[K, Pair[V1, V2]]{Key: da.Value.Key, Val: Pair[V1, V2]{Key: da.Value.Val, Val: db.Value.Val}},
					Weight: da.Weight * db.Weight,
				},
				Time: da.Time.Join(db.Time),
			})
		}
	}
	return Collection[Pair[K, Pair[V1, V2]]]{deltas: out}
}

// JoinOnKeyWith joins two arbitrarily-keyed collections that share a
// comparable key extracted by ka/kb, producing (key, (va, vb)) pairs.
// Used where the joined types aren't already expressed as Pair[K,V]
// (e.g. joining a demand stream against an actual-input collection by
// (record) rather than by a separate key field).
func JoinOnKeyWith[A, B any, K comparable, RV any](
	a []TimedDelta[A], ka func(A) K,
	b []TimedDelta[B], kb func(B) K,
	combine func(A, B) RV,
) []TimedDelta[RV] {
	byKey := make(map[K][]TimedDelta[B])
	for _, d := range b {
		k := kb(d.Value)
		byKey[k] = append(byKey[k], d)
	}
	out := make([]TimedDelta[RV], 0)
	for _, da := range a {
		k := ka(da.Value)
		for _, db := range byKey[k] {
			out = append(out, TimedDelta[RV]{
				Delta: Delta[RV]{Value: combine(da.Value, db.Value), Weight: da.Weight * db.Weight},
				Time:  da.Time.Join(db.Time),
			})
		}
	}
	return out
}
