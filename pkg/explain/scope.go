// Package explain implements the Explained Collection (spec §3, §4.2):
// a wrapper type bundling stream, working and depends collections, plus
// the combinator surface (map_with_inverse, concat, except, enter/
// enter_at/leave, consolidate, join_on_unsigned_key, grouped_min) that
// preserves the replay-soundness and demand-completeness invariants
// across a recursive, bi-temporal dataflow.
package explain

import "errors"

// ErrMalformedScope is returned when a Scope is used after Finalize —
// the Go analogue of spec §5's "An explanation sub-scope is inserted
// into its parent with a reserved child index after all demand wiring
// is complete. insertion-before-wiring is a bug detectable by the
// engine": here, wiring-after-Finalize is the symmetric bug, detected
// the same way.
var ErrMalformedScope = errors.New("explain: scope used after Finalize")

// Scope is the explanation sub-scope of spec §3: "depends always lives
// in a single dedicated explanation scope... shared by every Explained
// Collection participating in one correction round." It is created by
// NewScope and Finalized once all demand wiring for the
// round is complete, at which point every depends accumulator created
// within it is closed together.
type Scope struct {
	closers   []func()
	finalized bool
}

// NewScope opens a fresh explanation scope for one correction round.
func NewScope() *Scope {
	return &Scope{}
}

// track registers a depends accumulator's Close for bulk-closing at
// Finalize. Called by every combinator constructor in this package.
func (s *Scope) track(closer func()) error {
	if s.finalized {
		return ErrMalformedScope
	}
	s.closers = append(s.closers, closer)
	return nil
}

// Finalize closes every depends accumulator registered in this scope,
// draining their feedback loops (spec §4.1 Drop semantics) and
// forbidding any further wiring. Idempotent.
func (s *Scope) Finalize() {
	if s.finalized {
		return
	}
	s.finalized = true
	for _, c := range s.closers {
		c()
	}
}

// Finalized reports whether Finalize has been called.
func (s *Scope) Finalized() bool {
	return s.finalized
}
