package axis

import (
	"fmt"
	"math/rand"
)

// Entry is one (key, axis) pair in a Map, in the order it was declared.
type Entry struct {
	Key  string
	Axis Axis
}

// Map is an ordered sequence of (key, axis) pairs. Insertion order defines
// the mixed-radix enumeration order: the first entry is the fastest-cycling
// digit. Keys are not deduplicated — "X=1 X=2" on the command line produces
// two independent entries, both of which enumerate and both of which appear
// in the emitted K=V argument tail; see Vector.Args.
type Map struct {
	Entries []Entry
}

// Add appends a (key, axis) pair, preserving duplicates.
func (m *Map) Add(key string, a Axis) {
	m.Entries = append(m.Entries, Entry{Key: key, Axis: a})
}

// Len returns the size of the Cartesian product, Π len(axis_i). A Map with
// no entries has Len 0, so it enumerates no vectors.
func (m Map) Len() int {
	if len(m.Entries) == 0 {
		return 0
	}
	n := 1
	for _, e := range m.Entries {
		n *= e.Axis.Len()
	}
	return n
}

// Vector is a concrete parameter assignment, one scalar per Map entry, in
// the same order as the Map.
type Vector struct {
	Entries []Entry
}

// Args renders the vector as the K=V argument tail appended to a trial's
// child-process invocation, one token per entry in Map order (duplicates
// included verbatim, per §9.4 of the governing design).
func (v Vector) Args() []string {
	out := make([]string, len(v.Entries))
	for i, e := range v.Entries {
		out[i] = fmt.Sprintf("%s=%s", e.Key, e.Axis.String())
	}
	return out
}

// Get returns the concrete value for key, last occurrence wins per the
// match-time semantics of duplicate keys.
func (v Vector) Get(key string) (Axis, bool) {
	var found Axis
	ok := false
	for _, e := range v.Entries {
		if e.Key == key {
			found = e.Axis
			ok = true
		}
	}
	return found, ok
}

// Index decodes the global index I into a Vector via mixed-radix decoding:
// I_0 = I mod L_0, then I = I / L_0, and so on, so the entry at position 0
// cycles fastest.
func (m Map) Index(i int) Vector {
	v := Vector{Entries: make([]Entry, len(m.Entries))}
	idx := i
	for k, e := range m.Entries {
		l := e.Axis.Len()
		pos := idx % l
		idx /= l
		v.Entries[k] = Entry{Key: e.Key, Axis: e.Axis.Index(pos)}
	}
	return v
}

// Sample draws a vector uniformly from the product, not per-axis: it draws
// one global index in [0, Len()) and decodes it.
func (m Map) Sample(r *rand.Rand) Vector {
	n := m.Len()
	if n <= 0 {
		panic("axis: Sample on empty map")
	}
	return m.Index(r.Intn(n))
}

// Iterate calls fn once per vector in the product, in ascending index
// order, stopping early if fn returns false. The sequence is finite and
// non-restartable by design: callers that need it twice call Iterate twice.
func (m Map) Iterate(fn func(index int, v Vector) bool) {
	n := m.Len()
	for i := 0; i < n; i++ {
		if !fn(i, m.Index(i)) {
			return
		}
	}
}
