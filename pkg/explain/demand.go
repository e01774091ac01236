package explain

import "github.com/rosscartlidge/explaindf/pkg/dataflow"

// Demand is the explanation token of spec §3: "(K, V, T, q) where T is
// the full inner timestamp of the output being explained and q is an
// opaque query identifier."
type Demand[K, V comparable] struct {
	Key   K
	Val   V
	Time  dataflow.Timestamp
	Query uint32
}

// Record is the (K,V) shape an Explained Collection's stream/working
// carry, matching dataflow.Pair but named for readability at call sites
// working with explanation tokens.
type Record[K, V comparable] = dataflow.Pair[K, V]
