package axis_test

import (
	"testing"

	"github.com/arnegard/hake/pkg/axis"
)

func buildMap(t *testing.T, lengths []int) axis.Map {
	t.Helper()
	var m axis.Map
	for i, l := range lengths {
		choices := make([]string, l)
		for j := 0; j < l; j++ {
			choices[j] = string(rune('a' + j))
		}
		key := string(rune('A' + i))
		m.Add(key, axis.Axis{Kind: axis.Choice, Choices: choices})
	}
	return m
}

func TestMapLenIsProduct(t *testing.T) {
	m := buildMap(t, []int{3, 2, 4})
	if m.Len() != 24 {
		t.Fatalf("Len() = %d, want 24", m.Len())
	}
}

func TestMapIndexFastestFirst(t *testing.T) {
	m := buildMap(t, []int{3, 2, 4})

	first := m.Index(0)
	for i, e := range first.Entries {
		if e.Axis.Lit != "a" {
			t.Errorf("entry %d = %q, want a at index 0", i, e.Axis.Lit)
		}
	}

	last := m.Index(m.Len() - 1)
	want := []string{"c", "b", "d"} // axis 0 len 3 -> "c", axis 1 len 2 -> "b", axis 2 len 4 -> "d"
	for i, e := range last.Entries {
		if e.Axis.Lit != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Axis.Lit, want[i])
		}
	}

	// axis 0 cycles fastest: index 1 should advance only the first entry.
	second := m.Index(1)
	if second.Entries[0].Axis.Lit != "b" {
		t.Errorf("index 1 entry 0 = %q, want b", second.Entries[0].Axis.Lit)
	}
	if second.Entries[1].Axis.Lit != "a" || second.Entries[2].Axis.Lit != "a" {
		t.Error("index 1 should leave slower axes unchanged")
	}
}

func TestMapIterateVisitsEachOnce(t *testing.T) {
	m := buildMap(t, []int{3, 2})
	seen := make(map[string]bool)
	count := 0
	m.Iterate(func(i int, v axis.Vector) bool {
		count++
		key := v.Args()[0] + "|" + v.Args()[1]
		if seen[key] {
			t.Fatalf("vector %s visited twice", key)
		}
		seen[key] = true
		return true
	})
	if count != m.Len() {
		t.Fatalf("visited %d vectors, want %d", count, m.Len())
	}
}

func TestMapDuplicateKeysPreserved(t *testing.T) {
	var m axis.Map
	m.Add("X", axis.Axis{Kind: axis.Int, I: 1})
	m.Add("X", axis.Axis{Kind: axis.Int, I: 2})

	v := m.Index(0)
	if len(v.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2 (duplicates preserved)", len(v.Entries))
	}
	args := v.Args()
	if len(args) != 2 || args[0] != "X=1" || args[1] != "X=2" {
		t.Errorf("Args() = %v, want [X=1 X=2]", args)
	}
}
