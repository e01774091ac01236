// Package stablemodel implements Gale-Shapley stable matching as a
// Demand-Correction computation over a single "prefs" input, grounded
// on original_source/examples/interactive-stable.rs.
package stablemodel

import (
	"github.com/rosscartlidge/explaindf/pkg/dataflow"
	"github.com/rosscartlidge/explaindf/pkg/explain"
)

// Offer is one participant's view of a candidate match: their own
// ranking of Partner, and Partner's ranking of them. prefs.rs packs
// both directions into one input tuple so the algorithm never needs to
// look anything up by the other side's key.
type Offer struct {
	Rank        uint64
	Partner     uint64
	PartnerRank uint64
}

// MaxRounds bounds the propose/reject fixed point, mirroring ccmodel's
// bounded unroll of interactive-stable.rs's live feedback loop.
const MaxRounds = 256

func rank(o Offer) uint64 { return o.Rank }

// rotate re-keys an Offer by its Partner, swapping which side's rank is
// "own" and which is "partner's" — an involution, so the same function
// rotates forward (propose) and backward (notify of acceptance).
func rotate(r explain.Record[uint64, Offer]) explain.Record[uint64, Offer] {
	return explain.Record[uint64, Offer]{
		Key: r.Val.Partner,
		Val: Offer{Rank: r.Val.PartnerRank, Partner: r.Key, PartnerRank: r.Val.Rank},
	}
}

func rotateInverse(d explain.Demand[uint64, Offer]) explain.Demand[uint64, Offer] {
	return explain.Demand[uint64, Offer]{
		Key:   d.Val.Partner,
		Val:   Offer{Rank: d.Val.PartnerRank, Partner: d.Key, PartnerRank: d.Val.Rank},
		Time:  d.Time,
		Query: d.Query,
	}
}

// Compute builds the propose/reject computation over the "prefs"
// input, returning the Explained Collection of final accepted matches,
// keyed by the proposing participant. It satisfies correction.ComputeFunc.
func Compute(scope *explain.Scope, inputs map[string]explain.Collection[uint64, Offer]) (explain.Collection[uint64, Offer], error) {
	prefs := inputs["prefs"]

	rejections, err := explain.New[uint64, Offer](
		dataflow.NewCollection[explain.Record[uint64, Offer]](),
		dataflow.NewCollection[explain.Record[uint64, Offer]](),
		scope,
	)
	if err != nil {
		return explain.Collection[uint64, Offer]{}, err
	}

	var accepts explain.Collection[uint64, Offer]
	for i := 0; i < MaxRounds; i++ {
		options, err := explain.Except(prefs, rejections)
		if err != nil {
			return explain.Collection[uint64, Offer]{}, err
		}
		proposals, err := explain.GroupedMin(options, rank, scope)
		if err != nil {
			return explain.Collection[uint64, Offer]{}, err
		}
		rotated, err := explain.MapWithInverse(proposals, rotate, rotateInverse)
		if err != nil {
			return explain.Collection[uint64, Offer]{}, err
		}
		acceptedRotated, err := explain.GroupedMin(rotated, rank, scope)
		if err != nil {
			return explain.Collection[uint64, Offer]{}, err
		}
		newAccepts, err := explain.MapWithInverse(acceptedRotated, rotate, rotateInverse)
		if err != nil {
			return explain.Collection[uint64, Offer]{}, err
		}
		rejected, err := explain.Except(proposals, newAccepts)
		if err != nil {
			return explain.Collection[uint64, Offer]{}, err
		}
		nextRejections, err := explain.Concat(rejected, rejections)
		if err != nil {
			return explain.Collection[uint64, Offer]{}, err
		}
		nextRejections, err = explain.Consolidate(nextRejections)
		if err != nil {
			return explain.Collection[uint64, Offer]{}, err
		}

		converged := i > 0 && offerSnapshotsEqual(accepts, newAccepts)
		accepts = newAccepts
		rejections = nextRejections
		if converged {
			break
		}
	}

	return accepts, nil
}

func offerSnapshotsEqual(a, b explain.Collection[uint64, Offer]) bool {
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
