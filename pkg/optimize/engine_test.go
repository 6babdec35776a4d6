package optimize_test

import (
	"math/rand"
	"testing"

	"github.com/arnegard/hake/pkg/axis"
	"github.com/arnegard/hake/pkg/optimize"
)

func lrMap() axis.Map {
	var m axis.Map
	m.Add("lr", axis.Axis{Kind: axis.FloatRange, FBegin: 0, FEnd: 1, FStep: 0.1})
	return m
}

// runEngine drives a full DE run in-process against a synthetic objective
// (err = lr^2), exercising seed, candidate generation, insert, and settle
// without any child process — the generational control flow is what's
// under test here, not the trial runner.
func runEngine(t *testing.T, objective optimize.Objective) optimize.Element {
	t.Helper()
	m := lrMap()
	rng := rand.New(rand.NewSource(99))
	cfg := optimize.Config{NP: 6, CR: 0.9, F: 0.8, Generations: 5, Objective: objective, M: 1, MetricName: "err"}
	eng, err := optimize.NewEngine(cfg, m, rng)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	evaluate := func(v axis.Vector) {
		lr, _ := v.Get("lr")
		eng.Insert(v, lr.F*lr.F, true)
	}

	for _, v := range eng.SeedVectors() {
		evaluate(v)
	}
	eng.Settle()

	for g := 0; g < cfg.Generations; g++ {
		for _, v := range eng.CandidateVectors() {
			evaluate(v)
		}
		eng.Settle()
	}

	best, ok := eng.Best()
	if !ok {
		t.Fatal("expected non-empty pool after settling")
	}
	return best
}

func TestEngineMinimizeContractsTowardZero(t *testing.T) {
	best := runEngine(t, optimize.Minimize)
	if best.Value > 0.25 {
		t.Errorf("best err = %v, want <= 0.25 after contracting toward lr=0", best.Value)
	}
}

func TestEngineGenerationBarrierProducesNPPerGeneration(t *testing.T) {
	m := lrMap()
	rng := rand.New(rand.NewSource(1))
	cfg := optimize.Config{NP: 8, CR: 0.5, F: 0.5, Generations: 1, Objective: optimize.Minimize, M: 1, MetricName: "err"}
	eng, err := optimize.NewEngine(cfg, m, rng)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	seeds := eng.SeedVectors()
	if len(seeds) != cfg.NP {
		t.Fatalf("SeedVectors() len = %d, want %d", len(seeds), cfg.NP)
	}
	for _, v := range seeds {
		lr, _ := v.Get("lr")
		eng.Insert(v, lr.F*lr.F, true)
	}
	eng.Settle()

	candidates := eng.CandidateVectors()
	if len(candidates) != cfg.NP {
		t.Fatalf("CandidateVectors() len = %d, want %d (one per pool member)", len(candidates), cfg.NP)
	}
}

func TestEngineRejectsNPSmallerThanFour(t *testing.T) {
	m := lrMap()
	rng := rand.New(rand.NewSource(1))
	_, err := optimize.NewEngine(optimize.Config{NP: 3, CR: 0.5, F: 0.5}, m, rng)
	if err == nil {
		t.Error("expected error for NP < 4, cross-over needs 3 distinct donors plus the target")
	}
}

func TestPoolSettleSortsAscendingForMinimize(t *testing.T) {
	pool := optimize.NewPool(3, optimize.Minimize)
	pool.Insert(optimize.Element{Value: 1})
	pool.Insert(optimize.Element{Value: 2})
	if pool.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", pool.Len())
	}
	survivors := pool.Settle()
	if len(survivors) != 2 {
		t.Fatalf("Settle() returned %d, want 2", len(survivors))
	}
	if survivors[0].Value != 1 {
		t.Errorf("Minimize should sort ascending, got %v first", survivors[0].Value)
	}
}
