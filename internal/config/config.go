package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/j20-dev/j20/internal/errors"
	"github.com/j20-dev/j20/pkg/reactive"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "j20.yaml"

	// DefaultMode is the default effect scheduling mode.
	DefaultMode = "deferred"

	// DefaultMaxEffectRunsPerFlush caps effect executions in one flush.
	DefaultMaxEffectRunsPerFlush = reactive.DefaultMaxEffectRunsPerFlush

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log format.
	DefaultLogFormat = "text"

	// DefaultMetricsAddr is the default metrics listen address.
	DefaultMetricsAddr = ":9090"

	// DefaultNamespace is the default metrics namespace and tracer name.
	DefaultNamespace = "j20"

	// DefaultBenchItems is the default list size for the bench workload.
	DefaultBenchItems = 1000

	// DefaultBenchRounds is the default number of bench rounds.
	DefaultBenchRounds = 200
)

// Config represents the complete j20.yaml configuration.
type Config struct {
	// Runtime configures the reactive runtime.
	Runtime RuntimeConfig `yaml:"runtime"`

	// Log configures the structured logger.
	Log LogConfig `yaml:"log"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures span export.
	Tracing TracingConfig `yaml:"tracing"`

	// Bench configures the synthetic workload of `j20 bench`.
	Bench BenchConfig `yaml:"bench"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RuntimeConfig configures the reactive runtime.
type RuntimeConfig struct {
	// Mode is "deferred" or "sync".
	Mode string `yaml:"mode"`

	// MaxEffectRunsPerFlush caps effect executions in one flush.
	// Zero disables the cap.
	MaxEffectRunsPerFlush int `yaml:"max_effect_runs_per_flush"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled serves /metrics and /debug/graph on Addr.
	Enabled bool `yaml:"enabled"`

	// Addr is the listen address.
	Addr string `yaml:"addr"`

	// Namespace is the metrics namespace.
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Exporter is "none" or "stdout".
	Exporter string `yaml:"exporter"`

	// TracerName is the OpenTelemetry tracer name.
	TracerName string `yaml:"tracer_name"`
}

// BenchConfig configures the synthetic workload.
type BenchConfig struct {
	// Items is the number of list items.
	Items int `yaml:"items"`

	// Rounds is the number of shuffle-and-reconcile rounds.
	Rounds int `yaml:"rounds"`

	// Seed seeds the workload's random source.
	Seed int64 `yaml:"seed"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Mode:                  DefaultMode,
			MaxEffectRunsPerFlush: DefaultMaxEffectRunsPerFlush,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Addr:      DefaultMetricsAddr,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			Exporter:   "none",
			TracerName: DefaultNamespace,
		},
		Bench: BenchConfig{
			Items:  DefaultBenchItems,
			Rounds: DefaultBenchRounds,
			Seed:   1,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for j20.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigRead).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.New(errors.CodeConfigRead).Wrap(err)
	}

	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// fields are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid YAML")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New(errors.CodeConfigRead).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigRead).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills fields that were explicitly emptied.
func (c *Config) applyDefaults() {
	c.Runtime.Mode = strings.ToLower(strings.TrimSpace(c.Runtime.Mode))
	if c.Runtime.Mode == "" {
		c.Runtime.Mode = DefaultMode
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	c.Tracing.Exporter = strings.ToLower(strings.TrimSpace(c.Tracing.Exporter))
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "none"
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Runtime.Mode {
	case "deferred", "sync":
	default:
		return invalid("runtime.mode must be deferred or sync, got %q", c.Runtime.Mode)
	}
	if c.Runtime.MaxEffectRunsPerFlush < 0 {
		return invalid("runtime.max_effect_runs_per_flush must not be negative")
	}
	if _, err := c.level(); err != nil {
		return invalid("log.level: %v", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	switch c.Tracing.Exporter {
	case "none", "stdout":
	default:
		return invalid("tracing.exporter must be none or stdout, got %q", c.Tracing.Exporter)
	}
	if c.Bench.Items < 0 || c.Bench.Rounds < 0 {
		return invalid("bench.items and bench.rounds must not be negative")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.CodeConfigInvalid).WithDetailf(format, args...)
}

func (c *Config) level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.Log.Level))
	return l, err
}

// Mode returns the configured runtime mode.
func (c *Config) Mode() reactive.Mode {
	if c.Runtime.Mode == "sync" {
		return reactive.ModeSync
	}
	return reactive.ModeDeferred
}

// Logger builds the configured slog logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// RuntimeConfig returns the reactive runtime configuration. The caller sets
// Scheduler and Observer.
func (c *Config) RuntimeConfig(logger *slog.Logger) reactive.Config {
	budget := c.Runtime.MaxEffectRunsPerFlush
	if budget == 0 {
		budget = -1
	}
	return reactive.Config{
		Mode:                  c.Mode(),
		MaxEffectRunsPerFlush: budget,
		Logger:                logger,
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// j20.yaml.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigRead).
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the working directory or its
// nearest parent holding j20.yaml. Without one, it returns the defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}
	return Load(root)
}
