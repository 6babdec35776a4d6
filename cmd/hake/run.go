package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arnegard/hake/pkg/axis"
	"github.com/arnegard/hake/pkg/config"
	"github.com/arnegard/hake/pkg/interrupt"
	"github.com/arnegard/hake/pkg/metrics"
	"github.com/arnegard/hake/pkg/nameregistry"
	"github.com/arnegard/hake/pkg/optimize"
	"github.com/arnegard/hake/pkg/reporting"
	"github.com/arnegard/hake/pkg/supervisor"
)

const (
	hakeDir    = ".hake"
	logDirName = "log"
)

func runSweep(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	debug, _ := flags.GetBool("debug")
	verbose, _ := flags.GetBool("verbose")
	recipeFlag, _ := flags.GetString("file")
	name, _ := flags.GetString("name")
	maxMetric, _ := flags.GetString("max")
	minMetric, _ := flags.GetString("min")
	metricSamples, _ := flags.GetInt("metric-num-samples")
	parallelism, _ := flags.GetInt("parallel")
	np, _ := flags.GetInt("np")
	cr, _ := flags.GetFloat64("cr")
	factor, _ := flags.GetFloat64("factor")
	generations, _ := flags.GetInt("loop")
	timeoutStr, _ := flags.GetString("timeout")
	metricsAddr, _ := flags.GetString("metrics-addr")
	cfgPath, _ := flags.GetString("config")

	if maxMetric != "" && minMetric != "" {
		return fmt.Errorf("configuration error: --max and --min are mutually exclusive")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Flags win when the user set them explicitly; otherwise fall back to
	// whatever .hake/config.yaml supplied (which itself falls back to
	// config.DefaultConfig(), matching the flags' own hardcoded defaults).
	if !flags.Changed("np") {
		np = cfg.Optimize.NP
	}
	if !flags.Changed("cr") {
		cr = cfg.Optimize.CR
	}
	if !flags.Changed("factor") {
		factor = cfg.Optimize.F
	}
	if !flags.Changed("loop") {
		generations = cfg.Optimize.Generations
	}
	if !flags.Changed("metric-num-samples") {
		metricSamples = cfg.Optimize.MetricNumSamples
	}
	if !flags.Changed("parallel") {
		parallelism = cfg.Execution.Parallelism
	}
	if !flags.Changed("timeout") && cfg.Execution.Timeout != "" {
		timeoutStr = cfg.Execution.Timeout
	}
	if !flags.Changed("file") && cfg.Execution.Recipe != "" {
		recipeFlag = cfg.Execution.Recipe
	}
	if !flags.Changed("metrics-addr") && cfg.Metrics.Addr != "" {
		metricsAddr = cfg.Metrics.Addr
	}

	logLevel := reporting.LogLevelWarn
	if verbose {
		logLevel = reporting.LogLevelInfo
	}
	if debug {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Framework.LogFormat),
		Output: os.Stderr,
	})

	recipe, err := resolveRecipe(recipeFlag)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	target, paramMap, err := splitPositional(args)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if target == "" {
		return fmt.Errorf("configuration error: no build target given")
	}

	timeout, err := parseTimeout(timeoutStr)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := os.MkdirAll(hakeDir, 0o755); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logDir := fmt.Sprintf("%s/%s", hakeDir, logDirName)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	reg, err := nameregistry.New(hakeDir)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if name != "" && reg.Exists(name) {
		return fmt.Errorf("configuration error: experiment name %q already taken", name)
	}
	experiment, err := supervisor.ResolveName(reg, name, rng)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, stopWatch := interrupt.Watch(context.Background())
	defer stopWatch()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	metricsReg := metrics.NewRegistry()
	if metricsAddr != "" {
		metricsCtx, stopMetrics := context.WithCancel(context.Background())
		defer stopMetrics()
		go func() {
			if err := metrics.Serve(metricsCtx, metricsAddr); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	storage, err := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	progress := reporting.NewProgressReporter(reporting.FormatText, logger)

	report := &reporting.SweepReport{
		Experiment: experiment,
		StartTime:  time.Now(),
		Recipe:     recipe,
		Target:     []string{target},
		Axes:       axesStrings(paramMap),
		TrialCount: paramMap.Len(),
		Success:    true,
	}

	sup := supervisor.New(supervisor.Options{
		Command:     "make",
		RecipeArgs:  []string{"-f", recipe, target},
		Experiment:  experiment,
		LogDir:      logDir,
		Parallelism: parallelism,
		Logger:      logger,
		Reporter:    progress,
		Rand:        rng,
		Metrics:     metricsReg,
		OnGeneration: func(generation, poolSize int, bestValue float64) {
			report.Generations = append(report.Generations, reporting.GenerationRecord{
				Generation: generation,
				PoolSize:   poolSize,
				BestValue:  bestValue,
			})
		},
	})

	objective, metricName := optimize.Minimize, minMetric
	optimizeMode := minMetric != "" || maxMetric != ""
	if maxMetric != "" {
		objective, metricName = optimize.Maximize, maxMetric
	}

	if optimizeMode {
		report.Mode = reporting.ModeOptimize
		report.Objective = objectiveName(objective)
		report.MetricName = metricName

		deCfg := optimize.Config{
			NP:          np,
			CR:          cr,
			F:           factor,
			Generations: generations,
			Objective:   objective,
			M:           metricSamples,
			MetricName:  metricName,
		}
		best, runErr := sup.RunOptimize(ctx, paramMap, deCfg)
		if runErr != nil {
			report.Success = false
			report.Errors = append(report.Errors, runErr.Error())
		} else {
			report.Best = &reporting.BestResult{
				Args:       best.Vector.Args(),
				MetricName: best.MetricName,
				Value:      best.Value,
			}
		}
		err = runErr
	} else {
		report.Mode = reporting.ModeBruteForce
		runErr := sup.RunBruteForce(ctx, paramMap)
		if runErr != nil {
			report.Success = false
			report.Errors = append(report.Errors, runErr.Error())
		}
		err = runErr
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime).String()

	if _, saveErr := storage.SaveReport(report); saveErr != nil {
		logger.Warn("failed to save report", "error", saveErr)
	}
	progress.ReportSweepCompleted(report)

	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	return nil
}

func objectiveName(o optimize.Objective) string {
	if o == optimize.Maximize {
		return "maximize"
	}
	return "minimize"
}

func axesStrings(m axis.Map) []string {
	out := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, fmt.Sprintf("%s=%s", e.Key, e.Axis.String()))
	}
	return out
}
