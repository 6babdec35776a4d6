// Package trial spawns one child build-tool invocation for one parameter
// vector, tees its stdout to a per-trial log file and the terminal, and
// extracts the last matching metric line.
package trial

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/arnegard/hake/pkg/axis"
	"github.com/arnegard/hake/pkg/gitrev"
	"github.com/arnegard/hake/pkg/reporting"
)

var tracer = otel.Tracer("github.com/arnegard/hake/pkg/trial")

// Options configures a single trial invocation.
type Options struct {
	// Command is the external build tool, e.g. "make".
	Command string
	// BaseArgs are arguments preceding the vector's K=V tail: -f <recipe>,
	// the target, NAME=<experiment>.
	BaseArgs []string
	// Experiment is the experiment name N, embedded in the log filename and
	// preamble.
	Experiment string
	// ID is the trial id H, embedded in the log filename, the HID= argument,
	// and the preamble.
	ID int
	// Vector is the parameter assignment for this trial.
	Vector axis.Vector
	// LogDir is the directory holding per-trial log files (.hake/log/ by
	// convention).
	LogDir string
	// WatchMetric, if non-empty, is the metric name whose last matching
	// line becomes the trial's result.
	WatchMetric string
	// Logger receives best-effort diagnostics; nil is tolerated.
	Logger *reporting.Logger
	// Now returns the wall-clock time, overridable in tests.
	Now func() time.Time
}

// Result is the outcome of one trial: the last metric line matching
// WatchMetric, or Found=false if none appeared.
type Result struct {
	Value float64
	Found bool
}

type metricLine struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// Run spawns the child process, tees its stdout, and returns the last
// recorded value of the watched metric. A non-nil error here is always a
// trial-spawn failure, fatal to the run per §7.2; log-write and stdout-read
// failures are absorbed internally (best-effort tee, §4.3 step 5-6).
func Run(ctx context.Context, opts Options) (Result, error) {
	ctx, span := tracer.Start(ctx, "trial.Run", trace.WithAttributes(
		attribute.String("hake.experiment", opts.Experiment),
		attribute.Int("hake.trial_id", opts.ID),
	))
	defer span.End()

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	args := make([]string, 0, len(opts.BaseArgs)+len(opts.Vector.Entries)+1)
	args = append(args, opts.BaseArgs...)
	args = append(args, fmt.Sprintf("HID=%d", opts.ID))
	args = append(args, opts.Vector.Args()...)

	logPath := filepath.Join(opts.LogDir, logFilename(now(), opts.Experiment, opts.ID))
	logFile, logErr := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if logErr != nil && opts.Logger != nil {
		opts.Logger.Warn("trial: could not open log file", "path", logPath, "error", logErr)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	preamble, _ := json.Marshal(struct {
		Name     string   `json:"name"`
		MakeArgs []string `json:"make_args"`
		GitHash  string   `json:"git_hash"`
	}{
		Name:     opts.Experiment,
		MakeArgs: args,
		GitHash:  gitrev.Current(),
	})
	writeLine(logFile, string(preamble))

	cmd := exec.CommandContext(ctx, opts.Command, args...)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("trial: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("trial: spawn %s: %w", opts.Command, err)
	}

	result := Result{}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		stamped := fmt.Sprintf("[%s] %s", now().Format(time.RFC3339Nano), line)
		fmt.Println(stamped)
		writeLine(logFile, stamped)

		if opts.WatchMetric == "" {
			continue
		}
		var m metricLine
		if err := json.Unmarshal([]byte(line), &m); err == nil && m.Metric == opts.WatchMetric {
			result.Value = m.Value
			result.Found = true
		}
	}
	if err := scanner.Err(); err != nil && opts.Logger != nil {
		opts.Logger.Warn("trial: stdout read error", "id", opts.ID, "error", err)
	}

	if err := cmd.Wait(); err != nil {
		if opts.Logger != nil {
			opts.Logger.Warn("trial: child exited with error", "id", opts.ID, "error", err)
		}
	}

	span.SetAttributes(attribute.Bool("hake.metric_found", result.Found))
	return result, nil
}

func logFilename(t time.Time, experiment string, id int) string {
	return fmt.Sprintf("%s_%s_%08d", t.Format("20060102"), experiment, id)
}

func writeLine(w io.Writer, line string) {
	if w == nil {
		return
	}
	fmt.Fprintln(w, line)
}
