package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arnegard/hake/pkg/config"
	"github.com/arnegard/hake/pkg/reporting"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect and compare persisted sweep reports",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sweep reports in the results directory, newest first",
	RunE:  runReportList,
}

var reportShowCmd = &cobra.Command{
	Use:   "show <experiment>",
	Short: "Print the persisted report for a single experiment",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

var reportCompareCmd = &cobra.Command{
	Use:   "compare <experiment> <experiment> [experiment...]",
	Short: "Write a text comparison across two or more past sweep runs",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runReportCompare,
}

func init() {
	reportCmd.PersistentFlags().String("config", "", "path to .hake/config.yaml (default: .hake/config.yaml if present)")
	reportCompareCmd.Flags().String("out", "", "comparison output path (default: <results dir>/report-<start time>-<last experiment>.text)")

	reportCmd.AddCommand(reportListCmd, reportShowCmd, reportCompareCmd)
	rootCmd.AddCommand(reportCmd)
}

func openStorage(cmd *cobra.Command) (*reporting.Storage, *reporting.Logger, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelWarn,
		Format: reporting.LogFormat(cfg.Framework.LogFormat),
		Output: os.Stderr,
	})
	storage, err := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	return storage, logger, nil
}

func runReportList(cmd *cobra.Command, args []string) error {
	storage, _, err := openStorage(cmd)
	if err != nil {
		return err
	}
	summaries, err := storage.ListReports()
	if err != nil {
		return fmt.Errorf("report list: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Printf("no reports found under %s\n", storage.GetOutputDir())
		return nil
	}
	for _, s := range summaries {
		status := "COMPLETED"
		if !s.Success {
			status = "FAILED"
		}
		fmt.Printf("%-20s %-10s %-10s %s\n", s.Experiment, s.Mode, status, s.StartTime.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	storage, _, err := openStorage(cmd)
	if err != nil {
		return err
	}
	report, err := storage.FindReportByExperiment(args[0])
	if err != nil {
		return fmt.Errorf("report show: %w", err)
	}
	fmt.Printf("experiment:  %s\n", report.Experiment)
	fmt.Printf("mode:        %s\n", report.Mode)
	fmt.Printf("success:     %v\n", report.Success)
	fmt.Printf("trials:      %d\n", report.TrialCount)
	if report.Best != nil {
		fmt.Printf("best:        %s=%.4f\n", report.Best.MetricName, report.Best.Value)
	}
	return nil
}

func runReportCompare(cmd *cobra.Command, args []string) error {
	storage, logger, err := openStorage(cmd)
	if err != nil {
		return err
	}

	reports := make([]*reporting.SweepReport, 0, len(args))
	for _, experiment := range args {
		report, err := storage.FindReportByExperiment(experiment)
		if err != nil {
			return fmt.Errorf("report compare: %w", err)
		}
		reports = append(reports, report)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = reporting.GetReportPath(reports[len(reports)-1], reporting.ReportFormatText, storage.GetOutputDir())
	}

	formatter := reporting.NewFormatter(logger)
	if err := formatter.CompareReports(reports, out); err != nil {
		return fmt.Errorf("report compare: %w", err)
	}
	fmt.Printf("comparison written to %s\n", out)
	return nil
}
