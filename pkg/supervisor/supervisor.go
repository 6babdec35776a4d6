// Package supervisor drives the top-level loop: either brute-force
// enumeration of a parameter Map, or Differential Evolution optimization,
// dispatching each candidate parameter vector to the trial runner under a
// bounded worker pool.
package supervisor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/arnegard/hake/pkg/axis"
	"github.com/arnegard/hake/pkg/metrics"
	"github.com/arnegard/hake/pkg/nameregistry"
	"github.com/arnegard/hake/pkg/optimize"
	"github.com/arnegard/hake/pkg/reporting"
	"github.com/arnegard/hake/pkg/trial"
)

// Options configures a supervisor run, shared by both brute-force and
// optimize mode.
type Options struct {
	Command     string   // external build tool, e.g. "make"
	RecipeArgs  []string // -f <recipe> <target>
	Experiment  string
	LogDir      string
	Parallelism int // J, max concurrent trials
	Logger      *reporting.Logger
	Reporter    *reporting.ProgressReporter
	Rand        *rand.Rand
	Metrics     *metrics.Registry // optional; nil disables self-instrumentation
	// OnGeneration, if set, is called after each generation settles
	// (generation 0 is the seed). Used by callers that persist a
	// per-generation history alongside the final report.
	OnGeneration func(generation, poolSize int, bestValue float64)
}

var tracer = otel.Tracer("github.com/arnegard/hake/pkg/supervisor")

// Supervisor owns the trial-id counter and dispatches jobs to the trial
// runner under a bounded worker pool. The id counter and (in optimize mode)
// the DE pool are the only pieces of shared mutable state, per §5.
type Supervisor struct {
	opts    Options
	nextID  int64
	idMutex sync.Mutex
}

// New returns a Supervisor ready to run either mode.
func New(opts Options) *Supervisor {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Supervisor{opts: opts}
}

// allocateID grabs the next globally monotonic trial id with an atomic
// increment, per §5's "trial-id counter" shared resource.
func (s *Supervisor) allocateID() int {
	return int(atomic.AddInt64(&s.nextID, 1)) - 1
}

// runOne spawns a single trial and returns its metric, or an error if the
// child failed to spawn at all (fatal per §7.2).
func (s *Supervisor) runOne(ctx context.Context, v axis.Vector, watchMetric string) (trial.Result, int, error) {
	id := s.allocateID()
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveTrialStart()
	}
	res, err := trial.Run(ctx, trial.Options{
		Command:     s.opts.Command,
		BaseArgs:    append(append([]string{}, s.opts.RecipeArgs...), fmt.Sprintf("NAME=%s", s.opts.Experiment)),
		Experiment:  s.opts.Experiment,
		ID:          id,
		Vector:      v,
		LogDir:      s.opts.LogDir,
		WatchMetric: watchMetric,
		Logger:      s.opts.Logger,
	})
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveTrialEnd(err == nil && res.Found)
	}
	if err == nil && s.opts.Reporter != nil {
		s.opts.Reporter.ReportTrialCompleted(id, v.Args(), watchMetric, res.Value, res.Found)
	}
	return res, id, err
}

// runBatch dispatches vectors to the trial runner under a bounded
// errgroup, collecting each result in its caller-supplied slot. The
// errgroup is canceled on the first spawn failure, which is fatal to the
// whole run per §7.2; the generalization of the teacher's hand-rolled
// WaitGroup-over-a-job-slice pattern in
// orchestrator.executeInject, using errgroup.Group for first-error
// propagation and SetLimit for the bounded-J semaphore.
func (s *Supervisor) runBatch(ctx context.Context, vectors []axis.Vector, watchMetric string, onResult func(idx int, v axis.Vector, id int, res trial.Result)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Parallelism)

	for idx, v := range vectors {
		idx, v := idx, v
		g.Go(func() error {
			res, id, err := s.runOne(gctx, v, watchMetric)
			if err != nil {
				return fmt.Errorf("trial %d: %w", id, err)
			}
			onResult(idx, v, id, res)
			return nil
		})
	}
	return g.Wait()
}

// RunBruteForce iterates every vector in m's Map order, dispatching each to
// the trial runner with up to J trials in flight, per §4.5 "Brute-force".
// Job dispatch follows Map enumeration order even though completion order
// is not guaranteed.
func (s *Supervisor) RunBruteForce(ctx context.Context, m axis.Map) error {
	ctx, span := tracer.Start(ctx, "supervisor.RunBruteForce", trace.WithAttributes(
		attribute.Int("hake.trial_count", m.Len()),
	))
	defer span.End()

	vectors := make([]axis.Vector, 0, m.Len())
	m.Iterate(func(i int, v axis.Vector) bool {
		vectors = append(vectors, v)
		return true
	})

	onResult := func(idx int, v axis.Vector, id int, res trial.Result) {
		if s.opts.Logger != nil {
			s.opts.Logger.Info("trial completed", "id", id, "args", v.Args())
		}
	}
	return s.runBatch(ctx, vectors, "", onResult)
}

// RunOptimize drives the DE engine to completion: a seed generation
// followed by cfg.Generations further generations, each dispatched to the
// same bounded worker pool, with a strict barrier between generations
// (§4.5 "Optimize", §5 "Ordering guarantees"). Trial ids are allocated
// globally across every generation.
func (s *Supervisor) RunOptimize(ctx context.Context, m axis.Map, cfg optimize.Config) (optimize.Element, error) {
	rng := s.opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	eng, err := optimize.NewEngine(cfg, m, rng)
	if err != nil {
		return optimize.Element{}, err
	}

	evaluateGeneration := func(genCtx context.Context, vectors []axis.Vector) error {
		sums := make([]float64, len(vectors))
		counts := make([]int, len(vectors))

		onResult := func(idx int, v axis.Vector, id int, res trial.Result) {
			if !res.Found {
				if s.opts.Logger != nil {
					s.opts.Logger.Warn("trial produced no matching metric", "id", id, "metric", cfg.MetricName)
				}
				return
			}
			sums[idx] += res.Value
			counts[idx]++
		}

		for sample := 0; sample < cfg.M; sample++ {
			if err := s.runBatch(genCtx, vectors, cfg.MetricName, onResult); err != nil {
				return err
			}
		}

		for i, v := range vectors {
			if counts[i] == 0 {
				continue
			}
			eng.Insert(v, sums[i]/float64(counts[i]), true)
		}
		return nil
	}

	runGeneration := func(generation int, vectors []axis.Vector) error {
		genCtx, span := tracer.Start(ctx, "supervisor.generation", trace.WithAttributes(
			attribute.Int("hake.generation", generation),
			attribute.Int("hake.pool_size", len(vectors)),
		))
		defer span.End()
		return evaluateGeneration(genCtx, vectors)
	}

	settled := func(generation int) {
		best, ok := eng.Best()
		if !ok {
			return
		}
		if s.opts.Reporter != nil {
			s.opts.Reporter.ReportGenerationCompleted(generation, eng.PoolLen(), best.Value)
		}
		if s.opts.OnGeneration != nil {
			s.opts.OnGeneration(generation, eng.PoolLen(), best.Value)
		}
	}

	if err := runGeneration(0, eng.SeedVectors()); err != nil {
		return optimize.Element{}, err
	}
	eng.Settle()
	settled(0)

	for g := 0; g < cfg.Generations; g++ {
		if eng.PoolLen() == 0 {
			return optimize.Element{}, fmt.Errorf("supervisor: pool emptied after generation %d, no candidate reported a metric", g)
		}
		if err := runGeneration(g+1, eng.CandidateVectors()); err != nil {
			return optimize.Element{}, err
		}
		eng.Settle()
		best, _ := eng.Best()
		if s.opts.Logger != nil {
			s.opts.Logger.Info("generation complete", "generation", g+1, "best", best.Value)
		}
		if s.opts.Metrics != nil {
			s.opts.Metrics.ObserveGeneration(g+1, best.Value)
		}
		settled(g + 1)
	}

	best, ok := eng.Best()
	if !ok {
		return optimize.Element{}, fmt.Errorf("supervisor: empty pool at termination")
	}
	return best, nil
}

// ResolveName settles the experiment name and reserves it in reg before any
// trial starts, so concurrent invocations cannot collide (§4.5).
func ResolveName(reg *nameregistry.Registry, requested string, rng *rand.Rand) (string, error) {
	name, err := reg.Resolve(requested, rng)
	if err != nil {
		return "", err
	}
	if err := reg.Reserve(name); err != nil {
		return "", err
	}
	return name, nil
}
