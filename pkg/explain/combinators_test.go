package explain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rosscartlidge/explaindf/pkg/dataflow"
)

func rec(k, v int) Record[int, int] { return Record[int, int]{Key: k, Val: v} }

func TestConcatForwardsDemandToBothInputs(t *testing.T) {
	scope := NewScope()
	x, err := New[int, int](dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, rec(1, 10), 1)), dataflow.Collection[Record[int, int]]{}, scope)
	require.NoError(t, err)
	y, err := New[int, int](dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, rec(2, 20), 1)), dataflow.Collection[Record[int, int]]{}, scope)
	require.NoError(t, err)

	result, err := Concat(x, y)
	require.NoError(t, err)

	result.Depends.Add(dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, Demand[int, int]{Key: 1, Val: 10, Query: 7}, 1)))
	scope.Finalize()

	xSnap := x.Depends.Stream().Snapshot(dataflow.MaxTimestamp)
	ySnap := y.Depends.Stream().Snapshot(dataflow.MaxTimestamp)
	require.Equal(t, int64(1), xSnap[Demand[int, int]{Key: 1, Val: 10, Query: 7}])
	require.Equal(t, int64(1), ySnap[Demand[int, int]{Key: 1, Val: 10, Query: 7}],
		"Concat is conservative: demand is forwarded to both inputs since either could have produced it")
}

func TestExceptForwardsDemandToBothInputs(t *testing.T) {
	scope := NewScope()
	x, err := New[int, int](dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, rec(1, 10), 1)), dataflow.Collection[Record[int, int]]{}, scope)
	require.NoError(t, err)
	y, err := New[int, int](dataflow.Collection[Record[int, int]]{}, dataflow.Collection[Record[int, int]]{}, scope)
	require.NoError(t, err)

	result, err := Except(x, y)
	require.NoError(t, err)
	result.Depends.Add(dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, Demand[int, int]{Key: 1, Val: 10}, 1)))
	scope.Finalize()

	require.Equal(t, int64(1), x.Depends.Stream().Snapshot(dataflow.MaxTimestamp)[Demand[int, int]{Key: 1, Val: 10}])
	require.Equal(t, int64(1), y.Depends.Stream().Snapshot(dataflow.MaxTimestamp)[Demand[int, int]{Key: 1, Val: 10}])
}

func TestMapWithInverseAppliesInverseToPropagatedDemand(t *testing.T) {
	scope := NewScope()
	x, err := New[int, int](dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, rec(1, 10), 1)), dataflow.Collection[Record[int, int]]{}, scope)
	require.NoError(t, err)

	double := func(r Record[int, int]) Record[int, int] { return Record[int, int]{Key: r.Key, Val: r.Val * 2} }
	halve := func(d Demand[int, int]) Demand[int, int] { return Demand[int, int]{Key: d.Key, Val: d.Val / 2, Time: d.Time, Query: d.Query} }

	result, err := MapWithInverse(x, double, halve)
	require.NoError(t, err)
	result.Depends.Add(dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, Demand[int, int]{Key: 1, Val: 20}, 1)))
	scope.Finalize()

	snap := x.Depends.Stream().Snapshot(dataflow.MaxTimestamp)
	require.Equal(t, int64(1), snap[Demand[int, int]{Key: 1, Val: 10}])
}

func TestEnterStripsInnerTimestampFromPropagatedDemand(t *testing.T) {
	outer := NewScope()
	x, err := New[int, int](dataflow.NewCollection(dataflow.At(dataflow.Timestamp{Epoch: 1}, rec(1, 10), 1)), dataflow.Collection[Record[int, int]]{}, outer)
	require.NoError(t, err)

	inner := NewScope()
	entered, err := Enter(x, inner)
	require.NoError(t, err)

	entered.Depends.Add(dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, Demand[int, int]{Key: 1, Val: 10, Time: dataflow.Timestamp{Epoch: 1, Iter: 4}}, 1)))
	inner.Finalize()
	outer.Finalize()

	snap := x.Depends.Stream().Snapshot(dataflow.MaxTimestamp)
	want := Demand[int, int]{Key: 1, Val: 10, Time: dataflow.Timestamp{Epoch: 1}}
	require.Equal(t, int64(1), snap[want], "Enter's back-propagation strips the inner iteration coordinate")
}

func TestLeaveRecoversInnerTimestampFromHistory(t *testing.T) {
	outer := NewScope()
	inner := NewScope()

	// A record present in the inner scope at iteration 3.
	withIter := dataflow.NewCollection(dataflow.At(dataflow.Timestamp{Epoch: 1, Iter: 3}, rec(1, 10), 1))
	atIter3, err := New[int, int](withIter, dataflow.Collection[Record[int, int]]{}, inner)
	require.NoError(t, err)

	left, err := Leave(atIter3, outer)
	require.NoError(t, err)

	left.Depends.Add(dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, Demand[int, int]{Key: 1, Val: 10, Time: dataflow.Timestamp{Epoch: 1}}, 1)))
	inner.Finalize()
	outer.Finalize()

	snap := atIter3.Depends.Stream().Snapshot(dataflow.MaxTimestamp)
	want := Demand[int, int]{Key: 1, Val: 10, Time: dataflow.Timestamp{Epoch: 1, Iter: 3}}
	require.Equal(t, int64(1), snap[want], "Leave should recover the inner iteration at which the record was actually present")
}

func TestGroupedMinCollectsOnlyTimeAndValueBoundedCandidates(t *testing.T) {
	scope := NewScope()
	candidates := dataflow.NewCollection(
		dataflow.At(dataflow.Timestamp{Epoch: 1}, rec(1, 50), 1), // rho too large, excluded
		dataflow.At(dataflow.Timestamp{Epoch: 2}, rec(1, 10), 1), // exactly the winner, included
		dataflow.At(dataflow.Timestamp{Epoch: 1}, rec(1, 5), 1),  // smaller and earlier, included
		dataflow.At(dataflow.Timestamp{Epoch: 5}, rec(1, 1), 1),  // smaller but too late, excluded
	)
	x, err := New[int, int](candidates, dataflow.Collection[Record[int, int]]{}, scope)
	require.NoError(t, err)

	result, err := GroupedMin(x, func(v int) int { return v }, scope)
	require.NoError(t, err)

	result.Depends.Add(dataflow.NewCollection(dataflow.At(dataflow.Timestamp{}, Demand[int, int]{Key: 1, Val: 10, Time: dataflow.Timestamp{Epoch: 2}}, 1)))
	scope.Finalize()

	snap := x.Depends.Stream().Snapshot(dataflow.MaxTimestamp)
	require.Equal(t, int64(1), snap[Demand[int, int]{Key: 1, Val: 10, Time: dataflow.Timestamp{Epoch: 2}}])
	require.Equal(t, int64(1), snap[Demand[int, int]{Key: 1, Val: 5, Time: dataflow.Timestamp{Epoch: 1}}])
	_, tooLarge := snap[Demand[int, int]{Key: 1, Val: 50, Time: dataflow.Timestamp{Epoch: 1}}]
	require.False(t, tooLarge, "a candidate larger than the winner could never have been the min and is not required")
	_, tooLate := snap[Demand[int, int]{Key: 1, Val: 1, Time: dataflow.Timestamp{Epoch: 5}}]
	require.False(t, tooLate, "record at epoch 5 is after the demand's bound time and should not be required")
}
