package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"stagedates/internal/alert"
	"stagedates/internal/chrono"
	"stagedates/internal/crawl"
	"stagedates/internal/fetch"
	"stagedates/internal/showfeed"
	"stagedates/internal/showfeed/history"
	"stagedates/internal/showfeed/venues"
	"stagedates/internal/telemetry"
	"stagedates/pkg/configutil"
)

const (
	report_setup_telemetry = "setup.telemetry"
	report_setup_dump      = "setup.dump"
	report_setup_cache     = "setup.cache"
	report_setup_history   = "setup.history"
)

// setupTelemetry looks for telemetry.json5 in the working directory or any of
// its parents, without it traces are dropped and metrics only go to the log.
// A broken telemetry setup never stops a run.
func setupTelemetry(ctx context.Context, serviceName string) (telemetry.API, func()) {
	var tel telemetry.API = telemetry.SlogAPI{}
	noop := func() {}

	path, err := configutil.FindUp("telemetry.json5")
	if errors.Is(err, os.ErrNotExist) {
		slog.DebugContext(ctx, "no telemetry.json5 found, otlp export disabled")
		return tel, noop
	}
	if err != nil {
		tel.ReportWarning(report_setup_telemetry, err)
		return tel, noop
	}

	otlp, err := configutil.Load(path, telemetry.OtlpConfig{})
	if err != nil {
		tel.ReportWarning(report_setup_telemetry, path, fmt.Errorf("read telemetry config: %w", err))
		return tel, noop
	}
	shutdown, err := telemetry.SetupOtel(ctx, serviceName, otlp)
	if err != nil {
		tel.ReportWarning(report_setup_telemetry, path, fmt.Errorf("setup otel: %w", err))
		return tel, noop
	}
	flush := func() {
		err := shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}

	metered, err := telemetry.NewMeteredAPI(tel)
	if err != nil {
		tel.ReportWarning(report_setup_telemetry, path, err)
		return tel, flush
	}
	return metered, flush
}

type pipeline struct {
	service showfeed.Service
	// history is nil when run history is disabled.
	history *history.Store
	closers []func()
}

func (p pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// newPipeline wires the service. The dump dir, page cache and run history are
// optional, when one of them cannot be set up the run goes on without it.
func newPipeline(cfg Config, clock chrono.API, tel telemetry.API) pipeline {
	var out pipeline

	fetchOpts := fetch.Options{
		Timeout:  cfg.Fetch.Timeout(),
		MinDelay: cfg.Fetch.MinDelay(),
		MaxDelay: cfg.Fetch.MaxDelay(),
	}
	if cfg.Fetch.DumpDir != "" {
		dump, err := telemetry.NewFilesystemOutput(cfg.Fetch.DumpDir)
		if err != nil {
			tel.ReportWarning(report_setup_dump, cfg.Fetch.DumpDir, err)
		} else {
			fetchOpts.Dump = dump
		}
	}

	var fetcher fetch.Fetcher = fetch.NewClient(fetchOpts, tel)
	if cfg.Cache.Enabled {
		cache, err := fetch.OpenCache(cfg.Cache.Dir)
		if err != nil {
			tel.ReportWarning(report_setup_cache, cfg.Cache.Dir, err)
		} else {
			out.closers = append(out.closers, func() { cache.Close() })
			fetcher = fetch.NewCachedFetcher(fetcher, cache, cfg.Cache.Ttl(), clock, tel)
		}
	}

	var discoverer crawl.Discoverer
	if !cfg.Fetch.SkipDiscovery {
		discoverer = crawl.NewCollector(crawl.Options{
			Timeout: cfg.Fetch.Timeout(),
			Delay:   cfg.Fetch.MaxDelay(),
		}, tel)
	}

	scraper := venues.NewScraper(
		fetcher,
		discoverer,
		venues.StaticFallbacks(clock.Location()),
		clock,
		tel,
	)

	opts := showfeed.Options{Output: cfg.Output}
	if cfg.History.Database != "" {
		database, err := history.Open(cfg.History.Database)
		if err != nil {
			tel.ReportWarning(report_setup_history, cfg.History.Database, err)
		} else {
			out.closers = append(out.closers, func() { database.Close() })
			store := history.NewStore(database)
			out.history = &store
			opts.History = store
		}
	}

	if cfg.Alert.Enabled() {
		opts.Notifier = alert.NewMailer(cfg.Alert)
	}

	out.service = showfeed.NewService(scraper, venues.Catalog(), opts, clock, tel)
	return out
}
