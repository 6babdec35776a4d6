package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // set by build flags

var rootCmd = &cobra.Command{
	Use:   "hake [flags] [target] [KEY=VALUE...]",
	Short: "Parameter-sweep and optimization driver for Make-style builds",
	Long: `hake drives a build tool (make by default) across a product of
parameter axes, either exhaustively (brute-force) or by Differential
Evolution search toward a named objective metric.`,
	Version: version,
	Args:    cobra.ArbitraryArgs,
	RunE:    runSweep,
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "enable developer-diagnostic stderr output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable informational stderr output")

	rootCmd.Flags().StringP("file", "f", "", "path to the recipe file (default: Hakefile, then Makefile)")
	rootCmd.Flags().String("name", "", "experiment name; fails if already taken")
	rootCmd.Flags().String("max", "", "objective: maximize the named metric")
	rootCmd.Flags().String("min", "", "objective: minimize the named metric")
	rootCmd.Flags().IntP("metric-num-samples", "M", 1, "samples per candidate (optimize mode)")
	rootCmd.Flags().IntP("parallel", "j", 1, "max parallel trials")
	rootCmd.Flags().IntP("np", "N", 40, "DE population size")
	rootCmd.Flags().Float64P("cr", "c", 0.5, "DE crossover rate")
	rootCmd.Flags().Float64P("factor", "F", 0.5, "DE scale factor")
	rootCmd.Flags().IntP("loop", "L", 10, "DE generations")
	rootCmd.Flags().StringP("timeout", "t", "0", "run-wide timeout: integer seconds, or suffixed s/m/h/d; 0 = no limit")
	rootCmd.Flags().String("metrics-addr", "", "optional address to expose Prometheus metrics on (e.g. :9091)")
	rootCmd.Flags().String("config", "", "path to .hake/config.yaml (default: .hake/config.yaml if present)")

	rootCmd.AddCommand(grepCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
