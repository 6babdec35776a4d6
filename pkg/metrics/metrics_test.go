package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/arnegard/hake/pkg/metrics"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestObserveTrialTracksInFlightAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.NewRegistryWith(reg)

	r.ObserveTrialStart()
	if got := gaugeValue(t, r.TrialsInFlight); got != 1 {
		t.Errorf("TrialsInFlight = %v, want 1", got)
	}

	r.ObserveTrialEnd(true)
	if got := gaugeValue(t, r.TrialsInFlight); got != 0 {
		t.Errorf("TrialsInFlight after end = %v, want 0", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() == "hake_trials_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected hake_trials_total counter to be registered")
	}
}

func TestObserveGenerationSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.NewRegistryWith(reg)

	r.ObserveGeneration(3, 0.125)

	if got := gaugeValue(t, r.Generation); got != 3 {
		t.Errorf("Generation = %v, want 3", got)
	}
	if got := gaugeValue(t, r.BestMetricValue); got != 0.125 {
		t.Errorf("BestMetricValue = %v, want 0.125", got)
	}
}
