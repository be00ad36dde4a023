package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/patrickspencer/runboard/internal/config"
	"github.com/patrickspencer/runboard/internal/source"
)

func newProbeCmd(a *app) *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Fetch runs once and report whether the source is healthy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Source
			if endpoint != "" {
				cfg.Kind = config.SourceHTTP
				cfg.Endpoint = endpoint
			}
			src, err := source.New(cfg)
			if err != nil {
				return err
			}
			if code := probe(cmd.Context(), cmd.OutOrStdout(), src, time.Now()); code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "stats endpoint URL (overrides config)")
	return cmd
}

// probe fetches once and prints a one-line verdict. It returns the process
// exit code.
func probe(ctx context.Context, w io.Writer, src source.Source, now time.Time) int {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	runs, err := src.Fetch(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		fmt.Fprintf(w, "%s %s: %v\n", red("FAIL"), src.Endpoint(), err)
		return 1
	}

	var failed int
	var latest time.Time
	for _, r := range runs {
		if !r.Succeeded() {
			failed++
		}
		if t, ok := r.Started(); ok && t.After(latest) {
			latest = t
		}
	}

	fmt.Fprintf(w, "%s %s: %d runs, %d failed, fetched in %s%s\n",
		green("OK"), src.Endpoint(), len(runs), failed, elapsed, latestSuffix(latest, now))
	return 0
}

func latestSuffix(latest, now time.Time) string {
	if latest.IsZero() {
		return ""
	}
	return ", latest " + humanize.RelTime(latest, now, "ago", "from now")
}
