// Package axis models a single parameter's domain — the right-hand side of
// a KEY=VALUE sweep binding — and the ordered Map of axes that together
// define a Cartesian product search space.
package axis

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// Kind tags which variant of Axis is populated. The set is closed: every
// operation on an Axis switches exhaustively over these cases.
type Kind int

const (
	Literal Kind = iota
	Int
	Float
	Choice
	IntRange
	FloatRange
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Int:
		return "int"
	case Float:
		return "float"
	case Choice:
		return "choice"
	case IntRange:
		return "int_range"
	case FloatRange:
		return "float_range"
	default:
		return "unknown"
	}
}

// Axis is a tagged variant over a parameter's domain. Only the fields
// relevant to Kind are meaningful; the rest are zero. A concrete value
// (what a Vector carries per position) is an Axis of Kind Literal, Int, or
// Float with no range/choice fields populated.
type Axis struct {
	Kind Kind

	Lit string // Literal
	I   int64  // Int (concrete value)
	F   float64

	Choices []string // Choice

	Begin, End, Step int64 // IntRange

	FBegin, FEnd, FStep float64 // FloatRange
}

// Len reports how many distinct positions this axis enumerates.
func (a Axis) Len() int {
	switch a.Kind {
	case Literal, Int, Float:
		return 1
	case Choice:
		return len(a.Choices)
	case IntRange:
		return int((a.End-a.Begin)/a.Step) + 1
	case FloatRange:
		return int(math.Floor((a.FEnd-a.FBegin)/a.FStep + 1))
	default:
		return 0
	}
}

// Index returns the concrete scalar Axis at position i, 0 <= i < Len().
func (a Axis) Index(i int) Axis {
	switch a.Kind {
	case Literal:
		return Axis{Kind: Literal, Lit: a.Lit}
	case Int:
		return Axis{Kind: Int, I: a.I}
	case Float:
		return Axis{Kind: Float, F: a.F}
	case Choice:
		return Axis{Kind: Literal, Lit: a.Choices[i]}
	case IntRange:
		return Axis{Kind: Int, I: a.Begin + int64(i)*a.Step}
	case FloatRange:
		return Axis{Kind: Float, F: a.FBegin + float64(i)*a.FStep}
	default:
		panic(fmt.Sprintf("axis: Index called on unknown kind %v", a.Kind))
	}
}

// Sample draws one position uniformly at random and returns its concrete
// value. Used only for single-axis sampling; Map.Sample does not call it,
// drawing one global index over the whole product instead.
func (a Axis) Sample(r *rand.Rand) Axis {
	n := a.Len()
	if n <= 0 {
		panic("axis: Sample on zero-length axis")
	}
	return a.Index(r.Intn(n))
}

// String renders a concrete scalar value the way it is emitted on a child
// process's argument line: s(Literal x)=x, s(Int x)=decimal, s(Float x)=decimal.
func (a Axis) String() string {
	switch a.Kind {
	case Literal:
		return a.Lit
	case Int:
		return strconv.FormatInt(a.I, 10)
	case Float:
		return strconv.FormatFloat(a.F, 'g', -1, 64)
	default:
		panic(fmt.Sprintf("axis: String called on non-scalar kind %v", a.Kind))
	}
}

// Parse interprets a KEY=VALUE right-hand side into an Axis, per the
// dispatch order: "..." (float range) before ".." (int range) before ","
// (choice) before bare literal. "..." must be tested first because ".." is
// a substring of it.
func Parse(s string) (Axis, error) {
	switch {
	case strings.Contains(s, "..."):
		return parseFloatRange(s)
	case strings.Contains(s, ".."):
		return parseIntRange(s)
	case strings.Contains(s, ","):
		return parseChoice(s), nil
	default:
		return Axis{Kind: Literal, Lit: s}, nil
	}
}

func parseFloatRange(s string) (Axis, error) {
	fields := strings.Split(s, "...")
	switch len(fields) {
	case 2:
		begin, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis: bad float range begin %q: %w", fields[0], err)
		}
		end, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis: bad float range end %q: %w", fields[1], err)
		}
		if begin > end {
			return Axis{}, fmt.Errorf("axis: float range %q has begin > end", s)
		}
		step := (end - begin) / 10
		return Axis{Kind: FloatRange, FBegin: begin, FEnd: end, FStep: step}, nil
	case 3:
		begin, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis: bad float range begin %q: %w", fields[0], err)
		}
		mid, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis: bad float range midpoint %q: %w", fields[1], err)
		}
		end, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis: bad float range end %q: %w", fields[2], err)
		}
		step := mid - begin
		if step == 0 {
			return Axis{}, fmt.Errorf("axis: float range %q has zero step", s)
		}
		if err := checkFloatDirection(begin, end, step, s); err != nil {
			return Axis{}, err
		}
		return Axis{Kind: FloatRange, FBegin: begin, FEnd: end, FStep: step}, nil
	default:
		return Axis{}, fmt.Errorf("axis: malformed float range %q", s)
	}
}

func checkFloatDirection(begin, end, step float64, s string) error {
	if step > 0 && begin > end {
		return fmt.Errorf("axis: float range %q steps positive but begin > end", s)
	}
	if step < 0 && begin < end {
		return fmt.Errorf("axis: float range %q steps negative but begin < end", s)
	}
	return nil
}

func parseIntRange(s string) (Axis, error) {
	fields := strings.Split(s, "..")
	switch len(fields) {
	case 2:
		begin, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis: bad int range begin %q: %w", fields[0], err)
		}
		end, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis: bad int range end %q: %w", fields[1], err)
		}
		if begin > end {
			return Axis{}, fmt.Errorf("axis: int range %q has begin > end", s)
		}
		return Axis{Kind: IntRange, Begin: begin, End: end, Step: 1}, nil
	case 3:
		begin, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis: bad int range begin %q: %w", fields[0], err)
		}
		mid, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis: bad int range midpoint %q: %w", fields[1], err)
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis: bad int range end %q: %w", fields[2], err)
		}
		step := mid - begin
		if step == 0 {
			return Axis{}, fmt.Errorf("axis: int range %q has zero step", s)
		}
		if step > 0 && begin > end {
			return Axis{}, fmt.Errorf("axis: int range %q steps positive but begin > end", s)
		}
		if step < 0 && begin < end {
			return Axis{}, fmt.Errorf("axis: int range %q steps negative but begin < end", s)
		}
		return Axis{Kind: IntRange, Begin: begin, End: end, Step: step}, nil
	default:
		return Axis{}, fmt.Errorf("axis: malformed int range %q", s)
	}
}

func parseChoice(s string) Axis {
	return Axis{Kind: Choice, Choices: strings.Split(s, ",")}
}

// ParseKV splits a KEY=VALUE token on the first '=' and parses the value as
// an axis. Returns ok=false if there is no '=' at all, so the caller can
// fall back to treating the token as a build target.
func ParseKV(token string) (key string, a Axis, ok bool, err error) {
	i := strings.IndexByte(token, '=')
	if i < 0 {
		return "", Axis{}, false, nil
	}
	key = token[:i]
	val := token[i+1:]
	a, err = Parse(val)
	if err != nil {
		return "", Axis{}, true, err
	}
	return key, a, true, nil
}
