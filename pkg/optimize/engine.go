package optimize

import (
	"fmt"
	"math/rand"

	"github.com/arnegard/hake/pkg/axis"
)

// Config collects the Differential Evolution parameters of §4.4.
type Config struct {
	NP          int       // population size
	CR          float64   // crossover probability, [0,1]
	F           float64   // scale factor, > 0
	Generations int       // G, number of generations after the seed
	Objective   Objective // Minimize or Maximize
	M           int       // metric samples per candidate, >= 1
	MetricName  string
}

// Engine drives the generational DE loop described in §4.4. It owns the
// pool and the cross-over RNG; it does not itself run trials or manage
// concurrency — that is the supervisor's job (§4.5/§5). The engine exposes
// the vectors that need evaluating at each phase and consumes the
// resulting (vector, metric) pairs.
type Engine struct {
	cfg  Config
	m    axis.Map
	pool *Pool
	rng  *rand.Rand
}

// NewEngine validates cfg against the map and returns a ready Engine.
func NewEngine(cfg Config, m axis.Map, rng *rand.Rand) (*Engine, error) {
	if cfg.NP < 4 {
		return nil, fmt.Errorf("optimize: NP must be >= 4, got %d", cfg.NP)
	}
	if cfg.F <= 0 {
		return nil, fmt.Errorf("optimize: F must be > 0, got %v", cfg.F)
	}
	if cfg.CR < 0 || cfg.CR > 1 {
		return nil, fmt.Errorf("optimize: CR must be in [0,1], got %v", cfg.CR)
	}
	if cfg.M < 1 {
		cfg.M = 1
	}
	if m.Len() < cfg.NP {
		return nil, fmt.Errorf("optimize: parameter space size %d is smaller than NP %d", m.Len(), cfg.NP)
	}
	return &Engine{cfg: cfg, m: m, pool: NewPool(cfg.NP, cfg.Objective), rng: rng}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// SeedVectors returns NP random vectors for generation 0, per §4.4 step 1.
func (e *Engine) SeedVectors() []axis.Vector {
	out := make([]axis.Vector, e.cfg.NP)
	for i := range out {
		out[i] = e.m.Sample(e.rng)
	}
	return out
}

// CandidateVectors computes one trial vector per current pool member via
// cross-over, per §4.4 step 2. It must be called after the pool has been
// settled (seeded or from the previous generation), and before any further
// Insert calls for the new generation — this is the generation barrier.
func (e *Engine) CandidateVectors() []axis.Vector {
	members := e.pool.Snapshot()
	out := make([]axis.Vector, len(members))
	for idx, target := range members {
		i, j, k := pickDonors(e.rng, len(members), idx)
		out[idx] = Crossover(e.rng, e.m, target.Vector, members[i].Vector, members[j].Vector, members[k].Vector, e.cfg.CR, e.cfg.F)
	}
	return out
}

// Insert records one evaluated candidate's result. found=false (every
// sample failed to report, §4.4 "Metric averaging") means the candidate is
// simply dropped, per §7.3.
func (e *Engine) Insert(v axis.Vector, value float64, found bool) {
	if !found {
		return
	}
	e.pool.Insert(Element{Vector: v, MetricName: e.cfg.MetricName, Value: value})
}

// Settle sorts and truncates the pool to NP survivors, ending a generation.
func (e *Engine) Settle() []Element {
	return e.pool.Settle()
}

// Best returns the current top pool element.
func (e *Engine) Best() (Element, bool) {
	return e.pool.Best()
}

// PoolLen reports the current pool size, for diagnosing an empty pool
// after settling (§7.3: DE tolerates missing candidates as long as the
// pool remains non-empty once seeded).
func (e *Engine) PoolLen() int {
	return e.pool.Len()
}
