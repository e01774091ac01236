package explain

import (
	"github.com/rosscartlidge/explaindf/pkg/dataflow"
	"github.com/rosscartlidge/explaindf/pkg/monotonic"
)

// Collection is the Explained Collection of spec §3: it carries the
// actual data (Stream), the working replay computed from only the
// records currently deemed required (Working), and the provenance
// demand accumulator (Depends).
//
// Invariant (I1, replay soundness): at any quiescent time, Working ⊆
// Stream multiplicity-wise.
// Invariant (I2, demand completeness): for every demand (k',v',t,q)
// arriving at a combinator's output, each input record necessary to
// produce (k',v') at time <= t is added to Depends of the
// corresponding input.
type Collection[K, V comparable] struct {
	Stream  dataflow.Collection[Record[K, V]]
	Working dataflow.Collection[Record[K, V]]
	Depends *monotonic.Accumulator[Demand[K, V]]
	scope   *Scope
}

// New constructs an Explained Collection at a scope boundary (spec
// §3 Lifecycle: "created by (a) new(source_stream, working_stream,
// explanation_scope)"). The returned collection's Depends accumulator
// is registered with scope so that Scope.Finalize drains it.
func New[K, V comparable](source, working dataflow.Collection[Record[K, V]], scope *Scope) (Collection[K, V], error) {
	acc := monotonic.New[Demand[K, V]]()
	if err := scope.track(acc.Close); err != nil {
		return Collection[K, V]{}, err
	}
	return Collection[K, V]{Stream: source, Working: working, Depends: acc, scope: scope}, nil
}
