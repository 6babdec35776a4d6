package axis_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/arnegard/hake/pkg/axis"
)

func TestParseDispatchOrder(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind axis.Kind
	}{
		{"triple dot before double dot", "1...5", axis.FloatRange},
		{"double dot int range", "1..3", axis.IntRange},
		{"comma choice", "1,2,3", axis.Choice},
		{"bare literal", "hello", axis.Literal},
		{"literal with dot but no range", "1.5", axis.Literal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := axis.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if a.Kind != tt.kind {
				t.Errorf("Parse(%q) kind = %v, want %v", tt.in, a.Kind, tt.kind)
			}
		})
	}
}

func TestParseIntRange(t *testing.T) {
	a, err := axis.Parse("1..3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Begin != 1 || a.End != 3 || a.Step != 1 {
		t.Errorf("got begin=%d end=%d step=%d, want 1,3,1", a.Begin, a.End, a.Step)
	}
	if a.Len() != 3 {
		t.Errorf("Len() = %d, want 3", a.Len())
	}

	if _, err := axis.Parse("3..1"); err == nil {
		t.Error("Parse(\"3..1\") should fail: begin > end with positive implied step")
	}
}

func TestParseIntRangeWithMidpoint(t *testing.T) {
	a, err := axis.Parse("0..2..10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Step != 2 {
		t.Errorf("step = %d, want 2 (m-a = 2-0)", a.Step)
	}
	if a.Len() != 6 {
		t.Errorf("Len() = %d, want 6", a.Len())
	}
}

func TestParseFloatRangeDefaultStep(t *testing.T) {
	a, err := axis.Parse("0...10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.FStep != 1.0 {
		t.Errorf("default step = %v, want 1.0 (span/10)", a.FStep)
	}
}

func TestParseChoice(t *testing.T) {
	a, err := axis.Parse("1,2,3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Choices) != 3 {
		t.Fatalf("len(Choices) = %d, want 3", len(a.Choices))
	}
	for i, want := range []string{"1", "2", "3"} {
		if a.Choices[i] != want {
			t.Errorf("Choices[%d] = %q, want %q", i, a.Choices[i], want)
		}
	}
}

func TestIndexWithinDomain(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"int range", "5..9"},
		{"float range", "0.0...1.0"},
		{"choice", "a,b,c"},
		{"literal", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := axis.Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.expr, err)
			}
			n := a.Len()
			for i := 0; i < n; i++ {
				v := a.Index(i)
				switch a.Kind {
				case axis.IntRange:
					if v.Kind != axis.Int || v.I < a.Begin || v.I > a.End {
						t.Errorf("Index(%d) = %v, out of [%d,%d]", i, v, a.Begin, a.End)
					}
				case axis.FloatRange:
					if v.Kind != axis.Float || v.F < a.FBegin || v.F > a.FEnd {
						t.Errorf("Index(%d) = %v, out of [%v,%v]", i, v, a.FBegin, a.FEnd)
					}
				case axis.Choice:
					if v.Kind != axis.Literal {
						t.Errorf("Index(%d) kind = %v, want Literal", i, v.Kind)
					}
				case axis.Literal:
					if v.Kind != axis.Literal || v.Lit != a.Lit {
						t.Errorf("Index(%d) = %v, want literal %q", i, v, a.Lit)
					}
				}
			}
		})
	}
}

func TestSampleUniform(t *testing.T) {
	a, err := axis.Parse("1..100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		v := a.Sample(r)
		if v.I < 1 || v.I > 100 {
			t.Fatalf("Sample() = %d, out of range", v.I)
		}
	}
}

func TestParseKV(t *testing.T) {
	key, a, ok, err := axis.ParseKV("X=1..3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("ParseKV should recognize KEY=VALUE form")
	}
	if key != "X" {
		t.Errorf("key = %q, want X", key)
	}
	if a.Kind != axis.IntRange {
		t.Errorf("kind = %v, want IntRange", a.Kind)
	}

	_, _, ok, err = axis.ParseKV("build")
	if err != nil {
		t.Fatalf("unexpected error for bare target: %v", err)
	}
	if ok {
		t.Error("ParseKV(\"build\") should report ok=false, no '='")
	}
}

func TestStringRendersScalar(t *testing.T) {
	tests := []struct {
		a    axis.Axis
		want string
	}{
		{axis.Axis{Kind: axis.Literal, Lit: "abc"}, "abc"},
		{axis.Axis{Kind: axis.Int, I: 42}, "42"},
		{axis.Axis{Kind: axis.Float, F: 1.5}, "1.5"},
	}
	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func ExampleParse() {
	a, _ := axis.Parse("1..3")
	fmt.Println(a.Kind, a.Len())
	// Output: int_range 3
}
