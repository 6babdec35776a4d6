package supervisor_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/arnegard/hake/pkg/axis"
	"github.com/arnegard/hake/pkg/optimize"
	"github.com/arnegard/hake/pkg/reporting"
	"github.com/arnegard/hake/pkg/supervisor"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-make.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func newTestLogger() *reporting.Logger {
	return reporting.NewLogger(reporting.LoggerConfig{Output: os.Stderr})
}

func TestRunBruteForceDispatchesEveryVector(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\necho ok\n")

	var m axis.Map
	m.Add("X", axis.Axis{Kind: axis.IntRange, Begin: 1, End: 3, Step: 1})
	m.Add("Y", axis.Axis{Kind: axis.Choice, Choices: []string{"a", "b"}})

	logDir := t.TempDir()
	sup := supervisor.New(supervisor.Options{
		Command:     "/bin/sh",
		RecipeArgs:  []string{script},
		Experiment:  "exp",
		LogDir:      logDir,
		Parallelism: 4,
		Logger:      newTestLogger(),
	})

	if err := sup.RunBruteForce(context.Background(), m); err != nil {
		t.Fatalf("RunBruteForce: %v", err)
	}

	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("read log dir: %v", err)
	}
	if len(entries) != m.Len() {
		t.Errorf("got %d trial logs, want %d (one per vector)", len(entries), m.Len())
	}
}

// TestRunBruteForceRespectsParallelismLimit gives each child its own
// enter/exit timestamps (nanoseconds since epoch, via `date +%s%N`)
// appended to a shared trace file, then reconstructs the maximum number of
// overlapping intervals and asserts it never exceeded J.
func TestRunBruteForceRespectsParallelismLimit(t *testing.T) {
	trace := filepath.Join(t.TempDir(), "trace")
	script := writeScript(t, `#!/bin/sh
echo "enter $(date +%s%N)" >> `+trace+`
sleep 0.05
echo "exit $(date +%s%N)" >> `+trace+`
`)

	var m axis.Map
	m.Add("X", axis.Axis{Kind: axis.IntRange, Begin: 1, End: 8, Step: 1})

	const parallelism = 2
	sup := supervisor.New(supervisor.Options{
		Command:     "/bin/sh",
		RecipeArgs:  []string{script},
		Experiment:  "fair",
		LogDir:      t.TempDir(),
		Parallelism: parallelism,
		Logger:      newTestLogger(),
	})

	if err := sup.RunBruteForce(context.Background(), m); err != nil {
		t.Fatalf("RunBruteForce: %v", err)
	}

	data, err := os.ReadFile(trace)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}

	type event struct {
		ns   int64
		kind int // +1 enter, -1 exit
	}
	var events []event
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		ns, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		kind := -1
		if fields[0] == "enter" {
			kind = 1
		}
		events = append(events, event{ns: ns, kind: kind})
	}

	// Sort by time, ties broken with exits before enters so we never
	// double count an instant where one trial's exit and another's enter
	// land on the same nanosecond reading.
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && (events[j].ns < events[j-1].ns ||
			(events[j].ns == events[j-1].ns && events[j].kind < events[j-1].kind)); j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}

	cur, max := 0, 0
	for _, e := range events {
		cur += e.kind
		if cur > max {
			max = cur
		}
	}
	if max > parallelism {
		t.Errorf("observed %d concurrent trials, want <= %d", max, parallelism)
	}
}

func TestRunOptimizeReturnsScriptMetric(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    lr=*)
      v="${arg#lr=}"
      ;;
  esac
done
awk -v v="$v" 'BEGIN { printf "{\"metric\":\"err\",\"value\":%f}\n", v*v }'
`)

	var m axis.Map
	m.Add("lr", axis.Axis{Kind: axis.FloatRange, FBegin: 0, FEnd: 1, FStep: 0.1})

	sup := supervisor.New(supervisor.Options{
		Command:     "/bin/sh",
		RecipeArgs:  []string{script},
		Experiment:  "opt",
		LogDir:      t.TempDir(),
		Parallelism: 3,
		Logger:      newTestLogger(),
	})

	cfg := optimize.Config{NP: 4, CR: 0.9, F: 0.8, Generations: 2, Objective: optimize.Minimize, M: 1, MetricName: "err"}
	best, err := sup.RunOptimize(context.Background(), m, cfg)
	if err != nil {
		t.Fatalf("RunOptimize: %v", err)
	}
	if best.Value < 0 {
		t.Errorf("best.Value = %v, want >= 0 (err is lr^2)", best.Value)
	}
}
