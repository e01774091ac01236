package correction

import (
	"testing"

	"github.com/rosscartlidge/explaindf/pkg/dataflow"
	"github.com/rosscartlidge/explaindf/pkg/explain"
)

// explainCollection is a shorthand for the (uint64,uint64) Explained
// Collection shape the CC scenarios replay directly against ccmodel.Compute.
type explainCollection = explain.Collection[uint64, uint64]

func newScopeHelper(t *testing.T) *explain.Scope {
	t.Helper()
	scope := explain.NewScope()
	t.Cleanup(scope.Finalize)
	return scope
}

func newExplained(c dataflow.Collection[Record[uint64, uint64]], scope *explain.Scope) (explainCollection, error) {
	return explain.New[uint64, uint64](c, dataflow.Collection[Record[uint64, uint64]]{}, scope)
}

func setToCollection(set map[Record[uint64, uint64]]bool) dataflow.Collection[Record[uint64, uint64]] {
	deltas := make([]dataflow.TimedDelta[Record[uint64, uint64]], 0, len(set))
	for rec := range set {
		deltas = append(deltas, dataflow.At(dataflow.Timestamp{}, rec, 1))
	}
	return dataflow.NewCollection(deltas...)
}

func withoutRecord(set map[Record[uint64, uint64]]bool, drop Record[uint64, uint64]) map[Record[uint64, uint64]]bool {
	out := make(map[Record[uint64, uint64]]bool, len(set))
	for rec := range set {
		if rec == drop {
			continue
		}
		out[rec] = true
	}
	return out
}
