package optimize

import (
	"math"
	"sort"
	"sync"

	"github.com/arnegard/hake/pkg/axis"
)

// Objective selects whether the pool is sorted so the best metric sorts
// first by ascending or descending order.
type Objective int

const (
	Minimize Objective = iota
	Maximize
)

// Element is one (vector, metric) pair kept in the pool.
type Element struct {
	Vector     axis.Vector
	MetricName string
	Value      float64
}

// Pool is the DE population: a fixed-capacity slice of Elements, protected
// by a mutex per §5 "Shared resources" — workers insert under a brief
// critical section; only end-of-generation sort/truncate takes exclusive
// access for longer.
type Pool struct {
	mu        sync.Mutex
	capacity  int
	objective Objective
	elements  []Element
}

// NewPool creates an empty pool with the given capacity NP and objective.
func NewPool(capacity int, objective Objective) *Pool {
	return &Pool{capacity: capacity, objective: objective}
}

// Insert adds e to the pool under the pool's lock. Insert does not sort or
// truncate; that only happens in Settle, at the generation barrier.
func (p *Pool) Insert(e Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if math.IsNaN(e.Value) {
		panic("optimize: NaN metric inserted into pool")
	}
	p.elements = append(p.elements, e)
}

// Settle sorts the accumulated elements by objective and truncates to the
// pool's capacity, returning the survivors. This is the exclusive-access
// end-of-generation step; no worker may be inserting concurrently.
func (p *Pool) Settle() []Element {
	p.mu.Lock()
	defer p.mu.Unlock()

	sort.SliceStable(p.elements, func(i, j int) bool {
		if p.objective == Maximize {
			return p.elements[i].Value > p.elements[j].Value
		}
		return p.elements[i].Value < p.elements[j].Value
	})

	if len(p.elements) > p.capacity {
		p.elements = p.elements[:p.capacity]
	}
	return p.elements
}

// Snapshot returns a copy of the current elements without mutating them,
// safe to read concurrently with Insert.
func (p *Pool) Snapshot() []Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Element, len(p.elements))
	copy(out, p.elements)
	return out
}

// Len reports the current element count.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.elements)
}

// Best returns the top element after a Settle call, or ok=false if the
// pool is empty (every candidate failed to report a metric, §7.3).
func (p *Pool) Best() (Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.elements) == 0 {
		return Element{}, false
	}
	return p.elements[0], true
}
