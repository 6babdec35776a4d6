package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat represents the progress output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatTUI  OutputFormat = "tui"
)

// ProgressReporter reports sweep/optimize execution progress.
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{
		format: format,
		logger: logger,
	}
}

// ReportState reports the current live sweep state (trials started/done,
// and in optimize mode the current generation and best value so far).
func (pr *ProgressReporter) ReportState(state LiveSweepState) {
	switch pr.format {
	case FormatJSON:
		pr.reportJSON(state)
	case FormatTUI:
		pr.reportTUI(state)
	default:
		pr.reportText(state)
	}
}

// ReportTrialCompleted reports one trial's outcome as it lands.
func (pr *ProgressReporter) ReportTrialCompleted(id int, args []string, metric string, value float64, found bool) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "trial_completed",
			"id":        id,
			"args":      args,
			"metric":    metric,
			"value":     value,
			"found":     found,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		if found {
			fmt.Printf("✓ trial %d %s  %s=%.4f\n", id, strings.Join(args, " "), metric, value)
		} else {
			fmt.Printf("✓ trial %d %s  (no %s reported)\n", id, strings.Join(args, " "), metric)
		}
	default:
		if found {
			fmt.Printf("[TRIAL] %d %s  %s=%.4f\n", id, strings.Join(args, " "), metric, value)
		} else {
			fmt.Printf("[TRIAL] %d %s  (no %s reported)\n", id, strings.Join(args, " "), metric)
		}
	}
}

// ReportGenerationCompleted reports one DE generation's settled outcome.
func (pr *ProgressReporter) ReportGenerationCompleted(generation, poolSize int, bestValue float64) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":      "generation_completed",
			"generation": generation,
			"pool_size":  poolSize,
			"best_value": bestValue,
			"timestamp":  time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("🧬 generation %d settled: pool=%d best=%.4f\n", generation, poolSize, bestValue)
	default:
		fmt.Printf("[GENERATION] %d settled: pool=%d best=%.4f\n", generation, poolSize, bestValue)
	}
}

// ReportSweepCompleted reports the terminal summary for a run.
func (pr *ProgressReporter) ReportSweepCompleted(report *SweepReport) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "sweep_completed",
			"report":    report,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		pr.printSweepSummary(report)
	default:
		pr.printTextSummary(report)
	}
}

// reportText outputs progress in plain text format
func (pr *ProgressReporter) reportText(state LiveSweepState) {
	fmt.Printf("[%s] %s | trials %d/%d | elapsed %s\n",
		time.Now().Format("15:04:05"),
		state.Mode,
		state.TrialsDone,
		state.TrialsStarted,
		state.Elapsed.Round(time.Second),
	)
	if state.Mode == ModeOptimize {
		if state.BestValue != nil {
			fmt.Printf("  generation %d | best %.4f\n", state.Generation, *state.BestValue)
		} else {
			fmt.Printf("  generation %d | no candidate reported yet\n", state.Generation)
		}
	}
}

// reportJSON outputs progress in JSON format
func (pr *ProgressReporter) reportJSON(state LiveSweepState) {
	data, err := json.Marshal(state)
	if err != nil {
		pr.logger.Error("failed to marshal state", "error", err)
		return
	}
	fmt.Println(string(data))
}

// reportTUI outputs progress in terminal UI format
func (pr *ProgressReporter) reportTUI(state LiveSweepState) {
	pr.clearScreen()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("   Sweep: %s (%s)\n", state.Experiment, state.Mode)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Printf("📊 Trials: %d/%d\n", state.TrialsDone, state.TrialsStarted)
	fmt.Printf("⏱️  Elapsed: %s\n", state.Elapsed.Round(time.Second))

	if state.Mode == ModeOptimize {
		fmt.Printf("🧬 Generation: %d\n", state.Generation)
		if state.BestValue != nil {
			fmt.Printf("📈 Best: %.4f\n", *state.BestValue)
		}
	}
	fmt.Println()
	fmt.Println(strings.Repeat("─", 80))
}

// printSweepSummary prints a terminal summary in TUI format
func (pr *ProgressReporter) printSweepSummary(report *SweepReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("   SWEEP SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	statusIcon, statusText := "✅", "COMPLETED"
	if !report.Success {
		statusIcon, statusText = "❌", "FAILED"
	}

	fmt.Printf("%s Sweep %s\n", statusIcon, statusText)
	fmt.Printf("   Experiment: %s\n", report.Experiment)
	fmt.Printf("   Mode: %s\n", report.Mode)
	fmt.Printf("   Duration: %s\n", report.Duration)
	fmt.Printf("   Trials: %d\n", report.TrialCount)
	fmt.Println()

	if report.Mode == ModeOptimize && report.Best != nil {
		fmt.Printf("🏆 Best: %s=%.4f  %s\n", report.Best.MetricName, report.Best.Value, strings.Join(report.Best.Args, " "))
		fmt.Printf("   Generations: %d\n", len(report.Generations))
		fmt.Println()
	}

	if len(report.Errors) > 0 {
		fmt.Printf("⚠️  Errors (%d):\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Printf("   • %s\n", e)
		}
		fmt.Println()
	}

	fmt.Println(strings.Repeat("=", 80))
}

// printTextSummary prints a terminal summary in plain text format
func (pr *ProgressReporter) printTextSummary(report *SweepReport) {
	status := "COMPLETED"
	if !report.Success {
		status = "FAILED"
	}

	fmt.Printf("\n[SWEEP SUMMARY] %s\n", status)
	fmt.Printf("  Experiment: %s\n", report.Experiment)
	fmt.Printf("  Mode: %s\n", report.Mode)
	fmt.Printf("  Duration: %s\n", report.Duration)
	fmt.Printf("  Trials: %d\n", report.TrialCount)

	if report.Mode == ModeOptimize && report.Best != nil {
		fmt.Printf("  Best: %s=%.4f  %s\n", report.Best.MetricName, report.Best.Value, strings.Join(report.Best.Args, " "))
		fmt.Printf("  Generations: %d\n", len(report.Generations))
	}

	if len(report.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(report.Errors))
	}
	fmt.Println()
}

// clearScreen clears the terminal screen
func (pr *ProgressReporter) clearScreen() {
	fmt.Print("\033[2J\033[H")
}

// clearLine clears the current line
func (pr *ProgressReporter) clearLine() {
	fmt.Print("\033[K")
}
