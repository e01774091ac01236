package driver

import (
	"log/slog"
	"time"

	"github.com/rosscartlidge/explaindf/internal/telemetry"
	"github.com/rosscartlidge/explaindf/pkg/correction"
	"github.com/rosscartlidge/explaindf/pkg/dataflow"
)

// Epoch drives a correction.Loop across the outer T_epoch timeline
// (spec §3's bi-temporal timestamp): each Step accumulates whatever
// deltas arrived at the current epoch into the loop's net inputs and
// query, reruns the correction fixed point, and reports the resulting
// must sets. It is the Go analogue of interactive-cc.rs's
// graph.advance_to(round)/root.step_while(probe) pair, minus the
// actual incremental dataflow — here every epoch just reruns Run from
// scratch over the accumulated net deltas.
type Epoch[K, V comparable] struct {
	Compute correction.ComputeFunc[K, V]
	Log     *slog.Logger
	Metrics *telemetry.Metrics

	epoch      uint64
	inputs     map[string][]dataflow.TimedDelta[correction.Record[K, V]]
	queryDelta []dataflow.TimedDelta[correction.Demand[K, V]]
	probe      dataflow.Probe
}

// NewEpoch constructs an Epoch driver for the named inputs.
func NewEpoch[K, V comparable](compute correction.ComputeFunc[K, V], inputNames []string, log *slog.Logger, metrics *telemetry.Metrics) *Epoch[K, V] {
	e := &Epoch[K, V]{
		Compute: compute,
		Log:     log,
		Metrics: metrics,
		inputs:  make(map[string][]dataflow.TimedDelta[correction.Record[K, V]]),
	}
	for _, name := range inputNames {
		e.inputs[name] = nil
	}
	return e
}

// AddInput appends a signed (k,v) delta to the named input's net
// history at the current epoch.
func (e *Epoch[K, V]) AddInput(name string, key K, val V, sign int64) {
	rec := correction.Record[K, V]{Key: key, Val: val}
	e.inputs[name] = append(e.inputs[name], dataflow.At(dataflow.Timestamp{Epoch: e.epoch}, rec, sign))
}

// AddQuery appends a signed demand token against the final output at
// the current epoch.
func (e *Epoch[K, V]) AddQuery(key K, val V, bound dataflow.Timestamp, query uint32, sign int64) {
	d := correction.Demand[K, V]{Key: key, Val: val, Time: bound, Query: query}
	e.queryDelta = append(e.queryDelta, dataflow.At(dataflow.Timestamp{Epoch: e.epoch}, d, sign))
}

// Advance moves to the next epoch without running a correction — used
// when the caller wants to batch several input/query lines before
// Step.
func (e *Epoch[K, V]) Advance() {
	e.epoch++
}

// MustSets is the per-input must-set snapshot Step returns.
type MustSets[K, V comparable] map[string]map[correction.Record[K, V]]bool

// Step runs the correction loop to quiescence over the net state
// accumulated so far, reports round/must-size metrics, and advances to
// the next epoch.
func (e *Epoch[K, V]) Step() (MustSets[K, V], error) {
	loop := correction.New(e.Compute)
	for name, deltas := range e.inputs {
		loop.Inputs[name] = dataflow.NewCollection(deltas...)
	}
	loop.Query = dataflow.NewCollection(e.queryDelta...)
	if e.Metrics != nil {
		loop.OnRound = func(input string, round uint64, grew bool, dur time.Duration) {
			e.Metrics.ObserveRound(input, dur)
			e.Metrics.SetEpoch(e.epoch)
		}
	}

	start := time.Now()
	if err := loop.Run(); err != nil {
		return nil, err
	}
	if e.Log != nil {
		e.Log.Info("correction round complete",
			"epoch", e.epoch, "rounds", loop.Rounds(), "elapsed", time.Since(start))
	}

	out := make(MustSets[K, V], len(e.inputs))
	for name := range e.inputs {
		set := loop.MustSet(name)
		out[name] = set
		if e.Metrics != nil {
			e.Metrics.SetMustSize(name, len(set))
		}
	}
	e.probe.Advance(dataflow.Timestamp{Epoch: e.epoch})
	e.epoch++
	return out, nil
}

// EpochNum reports the current epoch number.
func (e *Epoch[K, V]) EpochNum() uint64 { return e.epoch }

// WaitUntil blocks, calling step repeatedly, until the epoch driver's
// probe has advanced at or past target — the Go analogue of
// interactive-cc.rs's root.step_while(probe.lt(&query.time())), used by
// callers that issue a query and need to know once Step has actually
// observed that epoch before reading MustSets.
func (e *Epoch[K, V]) WaitUntil(target dataflow.Timestamp, step func() error) error {
	for e.probe.Lt(target) {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
