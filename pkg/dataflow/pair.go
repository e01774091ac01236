package dataflow

// Pair is the (K, V) record shape used throughout the library: K is the
// key half, V the value half, of spec §3's "record... partitioned into
// a key K and a value V".
type Pair[K, V comparable] struct {
	Key K
	Val V
}

// Unsigned constrains the key types accepted by JoinOnUnsignedKey, per
// spec §3: "restricted to unsigned integer types" for join combinators.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Ordered constrains value-extractor outputs in GroupMinByKey, which
// needs a total order on rho(v) to pick a minimum; values that tie on
// rho are ordered by first observation, not by V itself.
type Ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64 | ~string
}
