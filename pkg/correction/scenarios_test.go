package correction

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rosscartlidge/explaindf/internal/ccmodel"
	"github.com/rosscartlidge/explaindf/internal/stablemodel"
	"github.com/rosscartlidge/explaindf/pkg/dataflow"
)

func fact(k, v uint64) dataflow.TimedDelta[Record[uint64, uint64]] {
	return dataflow.At(dataflow.Timestamp{}, Record[uint64, uint64]{Key: k, Val: v}, 1)
}

func query(k, v uint64) dataflow.Collection[Demand[uint64, uint64]] {
	return dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, Demand[uint64, uint64]{Key: k, Val: v, Time: dataflow.MaxTimestamp}, 1))
}

// TestCCTwoNodeChainConverges covers scenario S1: a single edge with two
// distinct labels propagates the smaller label to both endpoints.
func TestCCTwoNodeChainConverges(t *testing.T) {
	l := New(ccmodel.Compute)
	l.Inputs["graph"] = dataflow.NewCollection(fact(0, 1))
	l.Inputs["label"] = dataflow.NewCollection(fact(0, 10), fact(1, 5))
	l.Query = query(0, 5)

	require.NoError(t, l.Run())

	graphMust := l.MustSet("graph")
	labelMust := l.MustSet("label")
	require.True(t, graphMust[Record[uint64, uint64]{Key: 0, Val: 1}], "the only edge should be required to explain node 0's label")
	require.True(t, labelMust[Record[uint64, uint64]{Key: 1, Val: 5}], "node 1's label is the source of the propagated minimum")
}

// TestCCThreeNodeChainExcludesUnrelatedNoise covers scenario S2 plus a
// precision check: a chain 0-1-2 converges to the minimum label, and an
// unconnected node's label never enters the must set.
func TestCCThreeNodeChainExcludesUnrelatedNoise(t *testing.T) {
	l := New(ccmodel.Compute)
	l.Inputs["graph"] = dataflow.NewCollection(fact(0, 1), fact(1, 2))
	l.Inputs["label"] = dataflow.NewCollection(fact(0, 100), fact(1, 50), fact(2, 25), fact(3, 999))
	l.Query = query(0, 25)

	require.NoError(t, l.Run())

	graphMust := l.MustSet("graph")
	labelMust := l.MustSet("label")
	require.True(t, graphMust[Record[uint64, uint64]{Key: 0, Val: 1}])
	require.True(t, graphMust[Record[uint64, uint64]{Key: 1, Val: 2}])
	require.True(t, labelMust[Record[uint64, uint64]{Key: 2, Val: 25}], "the chain's minimum label must be required")
	require.False(t, labelMust[Record[uint64, uint64]{Key: 3, Val: 999}], "node 3 is disconnected from the chain and must never be required")

	// Replay soundness (P1): recomputing with only the must-set facts
	// as input reproduces the same query answer.
	restrictedGraph := setToCollection(graphMust)
	restrictedLabel := setToCollection(labelMust)
	scope := newScopeHelper(t)
	graphX, err := newExplained(restrictedGraph, scope)
	require.NoError(t, err)
	labelX, err := newExplained(restrictedLabel, scope)
	require.NoError(t, err)
	out, err := ccmodel.Compute(scope, map[string]explainCollection{"graph": graphX, "label": labelX})
	require.NoError(t, err)
	snap := out.Stream.Snapshot(dataflow.MaxTimestamp)
	require.Equal(t, int64(1), snap[Record[uint64, uint64]{Key: 0, Val: 25}], "the restricted must-set replay must still answer the query")

	// Minimality (P2): dropping node 2's label from the restricted
	// replay changes the answer, showing that record was necessary.
	knockedOut := setToCollection(withoutRecord(labelMust, Record[uint64, uint64]{Key: 2, Val: 25}))
	scope2 := newScopeHelper(t)
	graphX2, err := newExplained(restrictedGraph, scope2)
	require.NoError(t, err)
	labelX2, err := newExplained(knockedOut, scope2)
	require.NoError(t, err)
	out2, err := ccmodel.Compute(scope2, map[string]explainCollection{"graph": graphX2, "label": labelX2})
	require.NoError(t, err)
	snap2 := out2.Stream.Snapshot(dataflow.MaxTimestamp)
	require.NotEqual(t, int64(1), snap2[Record[uint64, uint64]{Key: 0, Val: 25}], "removing a required label must change the query's answer")
}

// TestCCRetractedEdgeNeverRequired covers scenario S3: an edge whose net
// multiplicity is zero (inserted then retracted) can never appear in the
// must set, regardless of what is queried.
func TestCCRetractedEdgeNeverRequired(t *testing.T) {
	l := New(ccmodel.Compute)
	l.Inputs["graph"] = dataflow.NewCollection(
		fact(0, 1),
		dataflow.At(dataflow.Timestamp{}, Record[uint64, uint64]{Key: 0, Val: 1}, -1),
	)
	l.Inputs["label"] = dataflow.NewCollection(fact(0, 1), fact(1, 1))
	l.Query = query(1, 1)

	require.NoError(t, l.Run())

	graphMust := l.MustSet("graph")
	require.False(t, graphMust[Record[uint64, uint64]{Key: 0, Val: 1}], "a retracted edge has zero net weight and can never be required")
}

// TestStableMarriageForcedMatchConverges covers scenario S4: two
// participant pairs whose mutual top choice is each other match
// immediately, with no rejection rounds.
func TestStableMarriageForcedMatchConverges(t *testing.T) {
	l := New(stablemodel.Compute)
	offer := func(k, partner, rank, partnerRank uint64) dataflow.TimedDelta[Record[uint64, stablemodel.Offer]] {
		return dataflow.At(dataflow.Timestamp{}, Record[uint64, stablemodel.Offer]{
			Key: k,
			Val: stablemodel.Offer{Rank: rank, Partner: partner, PartnerRank: partnerRank},
		}, 1)
	}
	l.Inputs["prefs"] = dataflow.NewCollection(
		offer(0, 2, 1, 1),
		offer(2, 0, 1, 1),
		offer(1, 3, 1, 1),
		offer(3, 1, 1, 1),
	)
	l.Query = dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, Demand[uint64, stablemodel.Offer]{
		Key: 0, Val: stablemodel.Offer{Rank: 1, Partner: 2, PartnerRank: 1}, Time: dataflow.MaxTimestamp,
	}, 1))

	require.NoError(t, l.Run())

	prefsMust := l.MustSet("prefs")
	require.True(t, prefsMust[Record[uint64, stablemodel.Offer]{Key: 0, Val: stablemodel.Offer{Rank: 1, Partner: 2, PartnerRank: 1}}],
		"participant 0's own preference row is required to explain their match")
}
