package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/patrickspencer/runboard/internal/config"
	"github.com/patrickspencer/runboard/internal/realtime"
	"github.com/patrickspencer/runboard/internal/refresh"
	"github.com/patrickspencer/runboard/internal/scheduler"
	"github.com/patrickspencer/runboard/internal/source"
	"github.com/patrickspencer/runboard/internal/web"
	"github.com/patrickspencer/runboard/internal/web/api"
	"github.com/patrickspencer/runboard/internal/web/ui"
)

func newServeCmd(a *app) *cobra.Command {
	var listen, endpoint string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run list over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			if endpoint != "" {
				a.cfg.Source.Kind = config.SourceHTTP
				a.cfg.Source.Endpoint = endpoint
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "stats endpoint URL (overrides config)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	src, err := source.New(cfg.Source)
	if err != nil {
		return err
	}
	schedule, err := scheduler.ParseSchedule(cfg.Refresh.Schedule)
	if err != nil {
		return err
	}
	rd, err := rendererFor(cfg.Display, "")
	if err != nil {
		return err
	}

	events := realtime.NewBroker()
	refresher := refresh.New(src, events, logger)

	// A failed first load is shown on the page, not fatal.
	refresher.Refresh(ctx)

	server := web.NewServer(web.Config{
		Addr: cfg.Listen,
		API: &api.API{
			Runs:      refresher,
			Events:    events,
			GetConfig: func() *config.Config { return cfg },
			Logger:    logger,
		},
		Pages: &ui.Pages{
			Runs:     refresher,
			Renderer: rd,
			Logger:   logger,
		},
		Logger: logger,
	})

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return server.Serve(egctx)
	})
	if schedule != nil {
		logger.Info("auto-refresh enabled", "schedule", cfg.Refresh.Schedule)
		eg.Go(func() error {
			scheduler.RunEvery(egctx, schedule, func() { refresher.Refresh(egctx) })
			return nil
		})
	}

	logger.Info("runboard started", "listen", cfg.Listen, "source", cfg.Source.Describe())
	err = eg.Wait()
	logger.Info("runboard stopped")
	return err
}
