// Package ccmodel implements HashMin label propagation (connected
// components) as a Demand-Correction computation over the graph and
// label inputs, grounded on original_source/examples/cc.rs.
package ccmodel

import (
	"github.com/rosscartlidge/explaindf/pkg/dataflow"
	"github.com/rosscartlidge/explaindf/pkg/explain"
)

// Prop pairs a candidate label with the node that is currently
// offering it — the discriminant cc.rs's min! tie-break carries
// alongside the label itself, kept here so demand back-propagation
// through the inner fixed point stays injective end to end.
type Prop = dataflow.Pair[uint64, uint64]

// MaxRounds bounds the inner label-propagation fixed point; cc.rs's
// live dataflow iterates until its own frontier closes, which this
// batch adaptation approximates with a bounded unroll plus early exit
// on convergence.
const MaxRounds = 256

func swap(r explain.Record[uint64, uint64]) explain.Record[uint64, uint64] {
	return explain.Record[uint64, uint64]{Key: r.Val, Val: r.Key}
}

func swapInverse(d explain.Demand[uint64, uint64]) explain.Demand[uint64, uint64] {
	return explain.Demand[uint64, uint64]{Key: d.Val, Val: d.Key, Time: d.Time, Query: d.Query}
}

// Compute builds the label-propagation computation over "graph" and
// "label" inputs, returning the Explained Collection of final
// (node, label) assignments. It satisfies correction.ComputeFunc.
func Compute(scope *explain.Scope, inputs map[string]explain.Collection[uint64, uint64]) (explain.Collection[uint64, uint64], error) {
	graph := inputs["graph"]
	label := inputs["label"]

	swapped, err := explain.MapWithInverse(graph, swap, swapInverse)
	if err != nil {
		return explain.Collection[uint64, uint64]{}, err
	}
	edges, err := explain.Concat(graph, swapped)
	if err != nil {
		return explain.Collection[uint64, uint64]{}, err
	}

	seed, err := seedProposals(label)
	if err != nil {
		return explain.Collection[uint64, uint64]{}, err
	}

	current := seed
	for i := 0; i < MaxRounds; i++ {
		next, err := oneRound(scope, edges, label, current)
		if err != nil {
			return explain.Collection[uint64, uint64]{}, err
		}
		if propSnapshotsEqual(current, next) {
			current = next
			break
		}
		current = next
	}

	return dropDiscriminant(current)
}

// seedProposals turns the literal label input (node, label) into a
// Prop-valued collection (node, (label, node)) — a node's own label,
// discriminated by itself.
func seedProposals(label explain.Collection[uint64, uint64]) (explain.Collection[uint64, Prop], error) {
	return explain.MapWithInverse(label,
		func(r explain.Record[uint64, uint64]) explain.Record[uint64, Prop] {
			return explain.Record[uint64, Prop]{Key: r.Key, Val: Prop{Key: r.Val, Val: r.Key}}
		},
		func(d explain.Demand[uint64, Prop]) explain.Demand[uint64, uint64] {
			return explain.Demand[uint64, uint64]{Key: d.Key, Val: d.Val.Key, Time: d.Time, Query: d.Query}
		},
	)
}

// oneRound propagates every node's current best label across edges,
// then re-applies GroupedMin so each node keeps only the lowest label
// offered to it (including its own, from label).
func oneRound(scope *explain.Scope, edges explain.Collection[uint64, uint64], label explain.Collection[uint64, uint64], current explain.Collection[uint64, Prop]) (explain.Collection[uint64, Prop], error) {
	joined, err := explain.JoinOnUnsignedKey(edges, current)
	if err != nil {
		return explain.Collection[uint64, Prop]{}, err
	}
	// joined: (src, (dst, (label, disc))) -- remap to (dst, (label, src)),
	// the new discriminant being the node that made the offer.
	transmitted, err := explain.MapWithInverse(joined,
		func(r explain.Record[uint64, dataflow.Pair[uint64, Prop]]) explain.Record[uint64, Prop] {
			return explain.Record[uint64, Prop]{Key: r.Val.Key, Val: Prop{Key: r.Val.Val.Key, Val: r.Key}}
		},
		func(d explain.Demand[uint64, Prop]) explain.Demand[uint64, dataflow.Pair[uint64, Prop]] {
			return explain.Demand[uint64, dataflow.Pair[uint64, Prop]]{
				Key: d.Val.Val,
				Val: dataflow.Pair[uint64, Prop]{Key: d.Key, Val: Prop{Key: d.Val.Key, Val: d.Val.Key}},
				Time: d.Time, Query: d.Query,
			}
		},
	)
	if err != nil {
		return explain.Collection[uint64, Prop]{}, err
	}

	seed, err := seedProposals(label)
	if err != nil {
		return explain.Collection[uint64, Prop]{}, err
	}
	options, err := explain.Concat(seed, transmitted)
	if err != nil {
		return explain.Collection[uint64, Prop]{}, err
	}
	return explain.GroupedMin(options, func(p Prop) uint64 { return p.Key }, scope)
}

func dropDiscriminant(current explain.Collection[uint64, Prop]) (explain.Collection[uint64, uint64], error) {
	return explain.MapWithInverse(current,
		func(r explain.Record[uint64, Prop]) explain.Record[uint64, uint64] {
			return explain.Record[uint64, uint64]{Key: r.Key, Val: r.Val.Key}
		},
		func(d explain.Demand[uint64, uint64]) explain.Demand[uint64, Prop] {
			return explain.Demand[uint64, Prop]{Key: d.Key, Val: Prop{Key: d.Val, Val: d.Val}, Time: d.Time, Query: d.Query}
		},
	)
}

func propSnapshotsEqual(a, b explain.Collection[uint64, Prop]) bool {
	sa := a.Stream.Snapshot(dataflow.MaxTimestamp)
	sb := b.Stream.Snapshot(dataflow.MaxTimestamp)
	if len(sa) != len(sb) {
		return false
	}
	for k, v := range sa {
		if sb[k] != v {
			return false
		}
	}
	return true
}
