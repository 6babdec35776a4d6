// Package optimize implements the Differential Evolution engine: the
// cross-over operator, the fixed-capacity pool, and the generational loop
// that drives a batch evaluator toward an extremal metric.
package optimize

import (
	"math"
	"math/rand"

	"github.com/arnegard/hake/pkg/axis"
)

// Crossover produces a trial vector z from a target vector x, drawing
// donors a, b, c from pool by three distinct indices, per §4.4. One
// coordinate is always forced to cross (§9.3), chosen uniformly among the
// axis positions; every other position independently rolls u ~ Uniform[0,1)
// against cr.
func Crossover(rng *rand.Rand, m axis.Map, x, a, b, c axis.Vector, cr, f float64) axis.Vector {
	n := len(m.Entries)
	forced := rng.Intn(n)

	out := axis.Vector{Entries: make([]axis.Entry, n)}
	for p := 0; p < n; p++ {
		cross := p == forced
		if !cross {
			u := rng.Float64()
			cross = u <= cr
		}

		if !cross {
			out.Entries[p] = axis.Entry{Key: m.Entries[p].Key, Axis: x.Entries[p].Axis}
			continue
		}

		out.Entries[p] = axis.Entry{Key: m.Entries[p].Key, Axis: crossAxis(m.Entries[p].Axis, a.Entries[p].Axis, b.Entries[p].Axis, c.Entries[p].Axis, f)}
	}
	return out
}

// crossAxis applies the per-kind mutation rule of §4.4 to a single axis
// position, given the axis's declared domain and the three donor values.
func crossAxis(domain, a, b, c axis.Axis, f float64) axis.Axis {
	switch domain.Kind {
	case axis.Literal, axis.Int, axis.Float:
		// Non-searchable scalar: adopt the axis's own fixed value.
		return domain.Index(0)
	case axis.Choice:
		// No arithmetic is meaningful over a finite enumeration; adopt a verbatim.
		return a
	case axis.IntRange:
		z := int64(math.Round(float64(a.I) + f*float64(b.I-c.I)))
		z = clampInt(z, domain.Begin, domain.End)
		return axis.Axis{Kind: axis.Int, I: z}
	case axis.FloatRange:
		z := a.F + f*(b.F-c.F)
		z = clampFloat(z, domain.FBegin, domain.FEnd)
		return axis.Axis{Kind: axis.Float, F: z}
	default:
		panic("optimize: crossAxis on unknown axis kind")
	}
}

func clampInt(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// pickDonors selects three distinct pool indices, none equal to exclude,
// uniformly at random. poolSize must be at least 4 (3 donors plus the
// excluded target).
func pickDonors(rng *rand.Rand, poolSize, exclude int) (i, j, k int) {
	draw := func(avoid map[int]bool) int {
		for {
			v := rng.Intn(poolSize)
			if !avoid[v] {
				return v
			}
		}
	}
	i = draw(map[int]bool{exclude: true})
	j = draw(map[int]bool{exclude: true, i: true})
	k = draw(map[int]bool{exclude: true, i: true, j: true})
	return i, j, k
}
