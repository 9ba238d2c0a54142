package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/j20-dev/j20/internal/config"
	"github.com/j20-dev/j20/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds the state shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "j20",
		Short: "Reactive graph and keyed list toolkit",
		Long: `j20 drives the reactive runtime and keyed list reconciler from the
command line.

  • diff shows the operations that turn one keyed sequence into another
  • bench runs a synthetic graph and list workload, optionally exporting
    Prometheus metrics and OpenTelemetry spans`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "Path to j20.yaml (default: nearest j20.yaml, else built-in defaults)")
	flags.StringVar(&g.logLevel, "log-level", "", "Override log.level")
	flags.StringVar(&g.logFormat, "log-format", "", "Override log.format")

	rootCmd.AddCommand(
		diffCmd(g),
		benchCmd(g),
		versionCmd(),
	)

	return rootCmd
}

// load resolves the configuration and logger once flags are parsed.
func (g *globals) load() error {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return err
	}

	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	g.cfg = cfg
	g.logger = cfg.Logger(os.Stderr)
	slog.SetDefault(g.logger)
	return nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
