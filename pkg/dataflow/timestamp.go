// Package dataflow implements the engine primitives the explanation
// library is built on: product-lattice timestamps, weighted delta
// collections, and the join/semijoin/group-min/threshold/feedback
// operators a differential dataflow runtime would otherwise supply.
package dataflow

import "fmt"

// Timestamp is the lexicographic product (T_epoch, T_corr, T_iter)
// described in spec §3. Epoch grows with driver calls to advance the
// computation, Corr grows with correction rounds, Iter grows with
// inner-loop iterations of the recursive computation.
type Timestamp struct {
	Epoch uint64
	Corr  uint64
	Iter  uint64
}

// Less reports whether t precedes other in the lexicographic
// (Epoch, Corr, Iter) order: Epoch first, then Corr, then Iter.
func (t Timestamp) Less(other Timestamp) bool {
	if t.Epoch != other.Epoch {
		return t.Epoch < other.Epoch
	}
	if t.Corr != other.Corr {
		return t.Corr < other.Corr
	}
	return t.Iter < other.Iter
}

// LessEq reports "t <= other" under the same lexicographic order as
// Less, used by Snapshot and by grouped_min's time-monotonicity filter.
func (t Timestamp) LessEq(other Timestamp) bool {
	return t == other || t.Less(other)
}

// Join returns the least upper bound of t and other under the product
// order (componentwise max). Used when combinators need to advance a
// timestamp to the later of two inputs.
func (t Timestamp) Join(other Timestamp) Timestamp {
	return Timestamp{
		Epoch: maxU64(t.Epoch, other.Epoch),
		Corr:  maxU64(t.Corr, other.Corr),
		Iter:  maxU64(t.Iter, other.Iter),
	}
}

// WithIter returns a copy of t with the inner coordinate replaced.
func (t Timestamp) WithIter(iter uint64) Timestamp {
	t.Iter = iter
	return t
}

// StepIter moves the inner coordinate back by one, reporting false
// (and leaving t unchanged) when Iter is already zero; used when a demand
// arriving from outside an inner feedback loop must be rewound to the
// previous iteration (spec §4.2, §4.3 feedback logic: "t.inner - 1").
func (t Timestamp) StepIter() (Timestamp, bool) {
	if t.Iter == 0 {
		return t, false
	}
	t.Iter--
	return t, true
}

// StripInner projects away the inner coordinate, used by enter/enter_at
// demand back-propagation ("(k,v,(t_outer,t_inner),q) -> (k,v,t_outer,q)").
// The outer collection's timestamp has no Iter axis of its own, so the
// stripped timestamp reuses Epoch/Corr and zeroes Iter.
func (t Timestamp) StripInner() Timestamp {
	t.Iter = 0
	return t
}

func (t Timestamp) String() string {
	return fmt.Sprintf("(%d,%d,%d)", t.Epoch, t.Corr, t.Iter)
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// MaxTimestamp is the greatest representable timestamp, used by drivers
// to express "explain this output at any time reached so far" (the
// T_bound field of a query, per spec §6).
var MaxTimestamp = Timestamp{Epoch: ^uint64(0), Corr: ^uint64(0), Iter: ^uint64(0)}
