// Package metrics self-instruments a sweep run for Prometheus scraping,
// the export-direction counterpart to the teacher's query-direction
// pkg/monitoring/prometheus client.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric this system exports, grouped the way a
// single promauto registrar is meant to be constructed once and shared.
type Registry struct {
	TrialsTotal     *prometheus.CounterVec
	TrialsInFlight  prometheus.Gauge
	Generation      prometheus.Gauge
	BestMetricValue prometheus.Gauge
}

// NewRegistry registers every gauge/counter against the default registerer.
func NewRegistry() *Registry {
	return NewRegistryWith(prometheus.DefaultRegisterer)
}

// NewRegistryWith registers against a caller-supplied registerer, so tests
// can use a fresh prometheus.NewRegistry() instead of colliding with the
// global default on repeated construction.
func NewRegistryWith(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		TrialsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hake",
			Name:      "trials_total",
			Help:      "Total trials dispatched, partitioned by whether a matching metric line was found.",
		}, []string{"found"}),
		TrialsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hake",
			Name:      "trials_in_flight",
			Help:      "Number of trial child processes currently running.",
		}),
		Generation: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hake",
			Name:      "generation",
			Help:      "Current Differential Evolution generation number (optimize mode only).",
		}),
		BestMetricValue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hake",
			Name:      "best_metric_value",
			Help:      "Best objective metric value observed so far (optimize mode only).",
		}),
	}
}

// ObserveTrialStart increments the in-flight gauge; call defer ObserveTrialEnd.
func (r *Registry) ObserveTrialStart() {
	r.TrialsInFlight.Inc()
}

// ObserveTrialEnd decrements the in-flight gauge and records the outcome.
func (r *Registry) ObserveTrialEnd(found bool) {
	r.TrialsInFlight.Dec()
	label := "false"
	if found {
		label = "true"
	}
	r.TrialsTotal.WithLabelValues(label).Inc()
}

// ObserveGeneration records the current generation and its settled best value.
func (r *Registry) ObserveGeneration(generation int, best float64) {
	r.Generation.Set(float64(generation))
	r.BestMetricValue.Set(best)
}

// Serve starts an HTTP server exposing /metrics on addr and blocks until
// ctx is canceled, mirroring --metrics-addr's optional self-instrumentation
// surface. With no configured scraper this simply runs idle, the same
// zero-cost-when-unused posture the teacher's own indirect OpenTelemetry
// dependency carries for tracing.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
