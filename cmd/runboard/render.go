package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/patrickspencer/runboard/internal/refresh"
	"github.com/patrickspencer/runboard/internal/source"
	"github.com/patrickspencer/runboard/internal/web/ui"
)

type renderOptions struct {
	query  string
	layout string
	out    string
	page   bool
}

func newRenderCmd(a *app) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch runs once and write the rendered HTML",
		Long: `Fetch runs once, filter them with --query and write the rendered list to
stdout or --out. With --page the output is a complete HTML document.

Exits non-zero when the fetch fails; the error placeholder is still written.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.render(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "filter text")
	cmd.Flags().StringVar(&opts.layout, "layout", "", "table or cards (overrides config)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.page, "page", false, "write a complete HTML document")
	return cmd
}

func (a *app) render(ctx context.Context, stdout io.Writer, opts renderOptions) error {
	rd, err := rendererFor(a.cfg.Display, opts.layout)
	if err != nil {
		return err
	}
	src, err := source.New(a.cfg.Source)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	snap, _ := refresh.New(src, nil, a.logger).Refresh(ctx)

	w := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.out, err)
		}
		defer f.Close()
		w = f
	}

	if opts.page {
		if err := ui.WritePage(w, rd, snap, opts.query, "runboard"); err != nil {
			return fmt.Errorf("write page: %w", err)
		}
	} else if _, err := fmt.Fprintln(w, ui.Fragment(rd, snap, opts.query)); err != nil {
		return err
	}

	if snap.Err != nil {
		return fmt.Errorf("fetch %s: %w", snap.Endpoint, snap.Err)
	}
	return nil
}
