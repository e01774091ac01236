// Package correction implements the Demand-Correction Loop of spec
// §4.3: the outer fixed point that intersects accumulated demand
// against actual inputs to discover the minimal required records per
// input, surfacing them as `must` sets.
package correction

import (
	"errors"
	"time"

	"github.com/rosscartlidge/explaindf/pkg/dataflow"
	"github.com/rosscartlidge/explaindf/pkg/explain"
	"github.com/rosscartlidge/explaindf/pkg/monotonic"
)

// ErrNotRun is returned by Must before Run has been called.
var ErrNotRun = errors.New("correction: Must queried before Run")

// Record and Demand alias explain's so callers of this package don't
// need to import pkg/explain for the common case.
type Record[K, V comparable] = explain.Record[K, V]
type Demand[K, V comparable] = explain.Demand[K, V]

// ComputeFunc builds the user's recursive computation for one
// correction round: given the explanation scope and one Explained
// Collection per named input, it must return the Explained Collection
// whose Depends will receive the query demand (spec §4.3 step 3: "Add
// the driver-supplied query stream as an initial demand on the
// computation's output"). The loop itself performs that Add; Compute
// only needs to wire the computation and return the final collection.
type ComputeFunc[K, V comparable] func(scope *explain.Scope, inputs map[string]explain.Collection[K, V]) (explain.Collection[K, V], error)

// Loop is one demand-correction fixed point (spec §4.3) over a family
// of named inputs sharing a (K,V) record shape, and a recursive
// computation (Compute) whose queried output has the same shape. Both
// of this repository's workloads (connected components and stable
// marriage) fit this shape: label propagation on (node, label) pairs
// and stable matching on (participant, partner) pairs.
type Loop[K, V comparable] struct {
	Inputs  map[string]dataflow.Collection[Record[K, V]]
	Query   dataflow.Collection[Demand[K, V]]
	Compute ComputeFunc[K, V]

	// MaxRounds bounds the correction fixed point (spec §4.3
	// termination: "must_I can only grow, bounded by |I|" — this is a
	// safety cap on top of that bound).
	MaxRounds uint64

	mustSoFar map[string]map[Record[K, V]]bool
	mustAcc   map[string]*monotonic.Accumulator[Record[K, V]]
	rounds    uint64
	ran       bool

	// OnRound, if set, is called once per named input after every
	// correction round, reporting that input's semijoin stage wall-clock
	// time and whether the round grew its must set — used by
	// internal/telemetry to report per-input round counts and timing.
	OnRound func(input string, round uint64, grew bool, dur time.Duration)
}

// New constructs a fresh Loop. Inputs and Query should be set on the
// returned value before calling Run.
func New[K, V comparable](compute ComputeFunc[K, V]) *Loop[K, V] {
	return &Loop[K, V]{
		Inputs:    make(map[string]dataflow.Collection[Record[K, V]]),
		Compute:   compute,
		MaxRounds: 64,
		mustSoFar: make(map[string]map[Record[K, V]]bool),
		mustAcc:   make(map[string]*monotonic.Accumulator[Record[K, V]]),
	}
}

func (l *Loop[K, V]) mustSet(name string) map[Record[K, V]]bool {
	m, ok := l.mustSoFar[name]
	if !ok {
		m = make(map[Record[K, V]]bool)
		l.mustSoFar[name] = m
	}
	return m
}

// workingCollection turns the current must set for name into a replay
// Collection, every record timestamped at the current correction round
// corr (a monotonically increasing synthetic correction time, so later
// rounds see strictly later timestamps, matching T_corr's role).
func (l *Loop[K, V]) workingCollection(name string, corr uint64) dataflow.Collection[Record[K, V]] {
	deltas := make([]dataflow.TimedDelta[Record[K, V]], 0, len(l.mustSet(name)))
	for rec := range l.mustSet(name) {
		deltas = append(deltas, dataflow.At(dataflow.Timestamp{Corr: corr}, rec, 1))
	}
	return dataflow.NewCollection(deltas...)
}

// Round runs one iteration of the correction fixed point (spec §4.3
// steps 1-5) and reports whether any must set grew.
func (l *Loop[K, V]) Round() (bool, error) {
	scope := explain.NewScope()
	l.rounds++

	vars := make(map[string]explain.Collection[K, V], len(l.Inputs))
	for name, src := range l.Inputs {
		working := l.workingCollection(name, l.rounds)
		v, err := explain.New[K, V](src, working, scope)
		if err != nil {
			return false, err
		}
		vars[name] = v
	}

	final, err := l.Compute(scope, vars)
	if err != nil {
		return false, err
	}
	final.Depends.Add(l.Query)
	scope.Finalize()

	// Each input's semijoin stage (spec §4.3 step 5) is independent of
	// every other input's, so it runs on its own goroutine via
	// errgroup-backed ParallelMap; only the merge into l.mustSoFar
	// (ordinary Go maps, unsafe for concurrent writes) stays sequential.
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	type survivors struct {
		name    string
		records []Record[K, V]
		dur     time.Duration
	}
	results, err := dataflow.ParallelMap(names, func(name string) (survivors, error) {
		start := time.Now()
		v := vars[name]
		needs := v.Depends.Stream()
		out := dataflow.Semijoin(needs, l.Inputs[name], func(d Demand[K, V]) Record[K, V] {
			return Record[K, V]{Key: d.Key, Val: d.Val}
		})
		var recs []Record[K, V]
		for _, d := range out.Deltas() {
			if d.Weight <= 0 {
				continue
			}
			recs = append(recs, Record[K, V]{Key: d.Value.Key, Val: d.Value.Val})
		}
		return survivors{name: name, records: recs, dur: time.Since(start)}, nil
	})
	if err != nil {
		return false, err
	}

	grew := false
	for _, res := range results {
		set := l.mustSet(res.name)
		inputGrew := false
		for _, rec := range res.records {
			if !set[rec] {
				set[rec] = true
				inputGrew = true
				grew = true
			}
		}
		if l.OnRound != nil {
			l.OnRound(res.name, l.rounds, inputGrew, res.dur)
		}
	}
	return grew, nil
}

// Run iterates Round until quiescence (no must set grows) or MaxRounds
// is reached, then closes every input's MonotonicAccumulator so Must
// becomes readable (spec §4.3 step 6: "Exit the correction scope and
// expose each must_I as a leave'd output stream").
func (l *Loop[K, V]) Run() error {
	max := l.MaxRounds
	if max == 0 {
		max = 64
	}
	for i := uint64(0); i < max; i++ {
		grew, err := l.Round()
		if err != nil {
			return err
		}
		if !grew {
			break
		}
	}
	for name := range l.Inputs {
		acc := monotonic.New[Record[K, V]]()
		deltas := make([]dataflow.TimedDelta[Record[K, V]], 0, len(l.mustSet(name)))
		for rec := range l.mustSet(name) {
			deltas = append(deltas, dataflow.At(dataflow.Timestamp{Corr: l.rounds}, rec, 1))
		}
		acc.Add(dataflow.NewCollection(deltas...))
		acc.Close()
		l.mustAcc[name] = acc
	}
	l.ran = true
	return nil
}

// Rounds reports how many correction rounds Run executed.
func (l *Loop[K, V]) Rounds() uint64 {
	return l.rounds
}

// Must returns the minimal required record set for the named input
// (spec's "must set"). Run must have been called first.
func (l *Loop[K, V]) Must(name string) (dataflow.Collection[Record[K, V]], error) {
	if !l.ran {
		return dataflow.Collection[Record[K, V]]{}, ErrNotRun
	}
	acc, ok := l.mustAcc[name]
	if !ok {
		return dataflow.Collection[Record[K, V]]{}, nil
	}
	return acc.Stream(), nil
}

// MustSet returns the named input's must set as a plain Go set, the
// form scenario tests and drivers typically want to assert against.
func (l *Loop[K, V]) MustSet(name string) map[Record[K, V]]bool {
	out := make(map[Record[K, V]]bool, len(l.mustSet(name)))
	for rec := range l.mustSet(name) {
		out[rec] = true
	}
	return out
}
