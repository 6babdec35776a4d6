package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the defaults a .hake/config.yaml may supply for DE
// parameters and metrics export; CLI flags always take priority over
// whatever is loaded here (§6's flag table is authoritative).
type Config struct {
	Framework FrameworkConfig `yaml:"framework"`
	Optimize  OptimizeConfig  `yaml:"optimize"`
	Execution ExecutionConfig `yaml:"execution"`
	Reporting ReportingConfig `yaml:"reporting"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// FrameworkConfig contains general framework settings.
type FrameworkConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// OptimizeConfig contains the DE engine's default tunables (§6: -N/-c/-F/-L).
type OptimizeConfig struct {
	NP               int     `yaml:"np"`
	CR               float64 `yaml:"cr"`
	F                float64 `yaml:"factor"`
	Generations      int     `yaml:"loop"`
	MetricNumSamples int     `yaml:"metric_num_samples"`
}

// ExecutionConfig contains trial dispatch settings.
type ExecutionConfig struct {
	Parallelism int    `yaml:"parallelism"`
	Timeout     string `yaml:"timeout"`
	Recipe      string `yaml:"recipe"`
}

// ReportingConfig contains run-summary persistence settings.
type ReportingConfig struct {
	OutputDir string `yaml:"output_dir"`
	KeepLastN int    `yaml:"keep_last_n"`
}

// MetricsConfig contains the optional Prometheus exporter address.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a default configuration, matching §6's stated flag
// defaults.
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			LogLevel:  "warn",
			LogFormat: "text",
		},
		Optimize: OptimizeConfig{
			NP:               40,
			CR:               0.5,
			F:                0.5,
			Generations:      10,
			MetricNumSamples: 1,
		},
		Execution: ExecutionConfig{
			Parallelism: 1,
			Timeout:     "0",
		},
		Reporting: ReportingConfig{
			OutputDir: ".hake/results",
			KeepLastN: 50,
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file is absent. Environment variables are expanded before parsing,
// matching the teacher's pkg/config.Load pre-pass.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ".hake/config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Optimize.NP < 4 {
		return fmt.Errorf("optimize.np must be at least 4")
	}
	if c.Optimize.CR < 0 || c.Optimize.CR > 1 {
		return fmt.Errorf("optimize.cr must be in [0, 1]")
	}
	if c.Optimize.F <= 0 {
		return fmt.Errorf("optimize.factor must be positive")
	}
	if c.Execution.Parallelism < 1 {
		return fmt.Errorf("execution.parallelism must be at least 1")
	}
	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("reporting.output_dir is required")
	}
	return nil
}
