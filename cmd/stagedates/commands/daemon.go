package commands

import (
	"context"
	"fmt"
	"log/slog"

	"stagedates/internal/chrono"
	"stagedates/internal/showfeed"
	"stagedates/internal/telemetry"
	"stagedates/pkg/osutil"

	"github.com/spf13/cobra"
)

var (
	daemonNow    bool
	daemonListen string
	daemonCron   string
)

func init() {
	daemonCmd.Flags().BoolVar(&daemonNow, "now", false, "Run a scrape immediately instead of waiting for the first tick.")
	daemonCmd.Flags().StringVar(&daemonListen, "listen", "", "Serve the schedule document over http on this address (ex. :8000).")
	daemonCmd.Flags().StringVar(&daemonCron, "cron", "", "Override the cron spec from the config.")
	rootCmd.AddCommand(daemonCmd)
}

func runOnce(ctx context.Context, p pipeline, clock chrono.API, keepDays int) {
	summary, err := p.service.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "scrape run failed", "err", err)
		return
	}
	for _, show := range summary.Shows {
		slog.InfoContext(ctx, "show scraped", "slug", show.Slug, "tier", show.Tier, "events", show.Events)
	}

	if p.history == nil || keepDays <= 0 {
		return
	}
	cutoff := clock.Now().AddDate(0, 0, -keepDays)
	err = p.history.Prune(ctx, cutoff)
	if err != nil {
		slog.WarnContext(ctx, "failed to prune run history", "err", err)
	}
}

var daemonCmd = &cobra.Command{
	Use:   "daemon [--now] [--listen <addr>] [--cron <spec>]",
	Short: "Scrapes on a cron schedule until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := osutil.SignalContext(cmd.Context())
		defer cancel()

		tel, shutdown := setupTelemetry(ctx, "stagedates-daemon")
		defer shutdown()
		telemetry.InstrumentPerfStats(ctx, tel)

		clock, err := chrono.NewStandardImpl()
		if err != nil {
			return fmt.Errorf("load venue time zone: %w", err)
		}
		p := newPipeline(cfg, clock, tel)
		defer p.Close()

		if daemonNow {
			runOnce(ctx, p, clock, cfg.History.KeepDays)
		}

		spec := cfg.Daemon.Cron
		if daemonCron != "" {
			spec = daemonCron
		}
		cron := chrono.NewStandardCron(clock.Location(), tel)
		defer cron.Stop()

		err = cron.Cron(spec, func() {
			runOnce(ctx, p, clock, cfg.History.KeepDays)
		})
		if err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", spec, err)
		}
		slog.InfoContext(ctx, "daemon started", "cron", spec, "zone", clock.Location().String())

		listen := cfg.Daemon.Listen
		if daemonListen != "" {
			listen = daemonListen
		}
		if listen != "" {
			go func() {
				err := osutil.ServeHttp(ctx, listen, showfeed.NewFeedHandler(cfg.Output, tel))
				if err != nil {
					slog.ErrorContext(ctx, "feed server stopped", "err", err)
					cancel()
				}
			}()
		}

		<-ctx.Done()
		slog.Info("shutting down, waiting for the current run")
		return nil
	},
}
