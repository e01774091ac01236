// Package monotonic implements MonotonicAccumulator (spec §4.1): a
// looped, write-only-grow collection used to accumulate sets across
// iterations of a fixed point.
package monotonic

import (
	"errors"

	"github.com/rosscartlidge/explaindf/pkg/dataflow"
)

// ErrUnclosedLoop is the value Stream panics with when the accumulator
// has not been Closed, and is the structural "unclosed loop" failure of
// spec §7.1: a MonotonicAccumulator not drained before its owning scope
// exits leaves its feedback loop open.
var ErrUnclosedLoop = errors.New("monotonic: accumulator used before Close")

// Accumulator represents the union of zero or more sources fed into it
// across loop iterations (spec §4.1). The contract is concatenation,
// not deduplication: Add appends, and only Close applies the
// non-negative threshold that turns accumulated weights into a set.
type Accumulator[D comparable] struct {
	current     dataflow.Collection[D]
	subscribers []func(dataflow.Collection[D])
	closed      bool
	result      dataflow.Collection[D]
}

// New opens a fresh accumulator with no sources yet added.
func New[D comparable]() *Accumulator[D] {
	return &Accumulator[D]{}
}

// Add appends source into the accumulator's running union, and notifies
// every subscriber registered via Subscribe with exactly the increment
// just added. May be called any number of times before Close.
func (a *Accumulator[D]) Add(source dataflow.Collection[D]) {
	if a.closed {
		panic("monotonic: Add called after Close")
	}
	a.current = a.current.Concat(source)
	for _, sub := range a.subscribers {
		sub(source)
	}
}

// Subscribe registers fn to be called with every increment passed to
// Add, including increments added after Subscribe returns. This is how
// the explanation combinators wire demand back-propagation (spec §4.2,
// I2): a combinator subscribes its *result*'s Depends so that whatever
// demand later arrives at the result (e.g. a query injected downstream,
// or a further combinator's own back-propagation) is immediately
// mirrored, transformed, into this combinator's input Depends — the Go
// analogue of the Rust library's direct `self.depends.add(&result...)`
// wiring at construction time in a push-based streaming dataflow.
func (a *Accumulator[D]) Subscribe(fn func(dataflow.Collection[D])) {
	a.subscribers = append(a.subscribers, fn)
}

// Current returns the raw, unthresholded running union seen so far —
// the `current` collection of spec §4.1, before the non-negative
// threshold closing applies. Unlike Stream, it may be read before Close.
func (a *Accumulator[D]) Current() dataflow.Collection[D] {
	return a.current
}

// Close thresholds the running union — any record with positive
// multiplicity contributes multiplicity 1 — and wires the result into
// the loop feedback, matching the Drop behaviour of spec §4.1. Close is
// idempotent; calling Stream before Close panics, matching "failing to
// destroy before scope exit... is a programming error."
func (a *Accumulator[D]) Close() {
	if a.closed {
		return
	}
	a.result = a.current.Threshold()
	a.closed = true
}

// Stream returns the looped output (spec §4.1 stream()). Panics if the
// accumulator has not been Closed, since reading the stream before
// closing the feedback loop is exactly the unclosed-loop programming
// error spec §7.1 describes.
func (a *Accumulator[D]) Stream() dataflow.Collection[D] {
	if !a.closed {
		panic(ErrUnclosedLoop)
	}
	return a.result
}

// Closed reports whether Close has been called.
func (a *Accumulator[D]) Closed() bool {
	return a.closed
}
