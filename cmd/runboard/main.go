package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/patrickspencer/runboard/internal/config"
	"github.com/patrickspencer/runboard/internal/view"
)

// version is set at build time.
var version = "dev"

// exitError carries a process exit code without an extra error message.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries state shared by subcommands after the root pre-run.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "runboard",
		Short: "Show runs reported by a job runner",
		Long: `runboard fetches run records from a runner's stats endpoint or run
database and renders them as a filterable HTML list with truncated logs.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd.ErrOrStderr())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "runboard.yaml", "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug|info|warn|error)")

	root.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newProbeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) load(logOut io.Writer) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	logger, err := newLogger(logOut, cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
	})), nil
}

// rendererFor builds the view renderer from display settings. A non-empty
// layout overrides the configured one.
func rendererFor(d config.DisplayConfig, layout string) (view.Renderer, error) {
	if layout == "" {
		layout = d.Layout
	}
	l, err := view.ParseLayout(layout)
	if err != nil {
		return view.Renderer{}, err
	}
	return view.Renderer{
		Mode: view.Mode{
			Layout:       l,
			ShowActivity: d.ShowActivity,
			ActivityDays: d.ActivityDays,
		},
		Limits: view.Limits{MaxLines: d.MaxLines, MaxChars: d.MaxChars},
	}, nil
}
