// Package telemetry wires correction-loop progress into Prometheus
// counters and gauges, and exposes them over HTTP for scraping — the
// ambient observability layer described in SPEC_FULL.md §2, carried by
// every driver regardless of the functional Non-goals.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the gauges and counters one driver process reports.
// Each must is labelled by input name so a single process running
// several correction loops (e.g. graph and label) is distinguishable
// on one dashboard.
type Metrics struct {
	registry *prometheus.Registry

	rounds     *prometheus.CounterVec
	mustSize   *prometheus.GaugeVec
	epoch      prometheus.Gauge
	roundTime  *prometheus.HistogramVec
}

// New registers a fresh metric set on its own registry (never the
// global default, so multiple drivers in one test binary don't
// collide registering the same metric name twice).
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		rounds: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correction_rounds_total",
			Help:      "Number of demand-correction rounds executed per input.",
		}, []string{"input"}),
		mustSize: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "must_set_size",
			Help:      "Current size of the must set per input.",
		}, []string{"input"}),
		epoch: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "epoch",
			Help:      "Current driver epoch (T_epoch).",
		}),
		roundTime: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "correction_round_seconds",
			Help:      "Wall-clock duration of one correction round.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"input"}),
	}
	return m
}

// ObserveRound records that one correction round completed for input,
// taking dur to run.
func (m *Metrics) ObserveRound(input string, dur time.Duration) {
	m.rounds.WithLabelValues(input).Inc()
	m.roundTime.WithLabelValues(input).Observe(dur.Seconds())
}

// SetMustSize reports the current must-set cardinality for input.
func (m *Metrics) SetMustSize(input string, size int) {
	m.mustSize.WithLabelValues(input).Set(float64(size))
}

// SetEpoch reports the driver's current epoch.
func (m *Metrics) SetEpoch(epoch uint64) {
	m.epoch.Set(float64(epoch))
}

// Serve starts a blocking HTTP server exposing /metrics on addr. It
// returns when ctx is cancelled or the listener fails.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
