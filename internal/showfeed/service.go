package showfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stagedates/internal/assert"
	"stagedates/internal/chrono"
	"stagedates/internal/showfeed/history"
	"stagedates/internal/showfeed/schedule"
	"stagedates/internal/showfeed/venues"
	"stagedates/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("stagedates/internal/showfeed")

const (
	report_service_scrape   = "service.scrape"
	report_service_write    = "service.write"
	report_service_history  = "service.history"
	report_service_events   = "service.events"
	report_service_fallback = "service.fallback"
	report_service_notify   = "service.notify"
)

// VenueScraper produces the production of a single venue.
//
// note: fault injection point
type VenueScraper interface {
	Scrape(ctx context.Context, v venues.Venue) (venues.Result, error)
}

// RunRecorder keeps a record of finished runs.
type RunRecorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Notifier is told about runs that need someone to look at the scrapers.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

type Options struct {
	// Output is where the schedule document is written.
	Output string
	// History is optional, runs are not recorded when it is nil.
	History RunRecorder
	// Notifier is optional.
	Notifier Notifier
}

// Service runs every venue scraper and writes the schedule document.
type Service struct {
	scraper VenueScraper
	venues  []venues.Venue
	opts    Options
	time    chrono.API
	tel     telemetry.API

	write func(path string, doc schedule.Document) error
}

func NewService(
	scraper VenueScraper,
	catalog []venues.Venue,
	opts Options,
	time chrono.API,
	tel telemetry.API,
) Service {
	assert.NotNil(scraper, "venue scraper")
	assert.NotNil(time, "time")
	assert.NotNil(tel, "telemetry")
	assert.NotEmptyStr(opts.Output, "output path")

	return Service{
		scraper: scraper,
		venues:  catalog,
		opts:    opts,
		time:    time,
		tel:     telemetry.NewScopedAPI("showfeed", tel),
		write:   schedule.Write,
	}
}

// ShowSummary is what happened to one production during a run.
type ShowSummary struct {
	Slug    string
	Title   string
	Tier    venues.Tier
	Events  int
	Fetched int
	Err     error
}

// Summary describes a finished run.
type Summary struct {
	RunId    string
	Status   string
	Document schedule.Document
	Shows    []ShowSummary
}

func (s Service) scrapeOne(ctx context.Context, v venues.Venue) (result venues.Result, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("scraper panicked: %v", recovered)
		}
	}()
	return s.scraper.Scrape(ctx, v)
}

func (s Service) assemble(shows map[string]schedule.Production, now time.Time) (doc schedule.Document, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("assemble document: %v", recovered)
		}
	}()

	doc = schedule.Document{
		LastUpdated: now,
		Shows:       make(map[string]schedule.Production, len(shows)),
	}
	for slug, production := range shows {
		if production.Events == nil {
			production.Events = []schedule.Event{}
		}
		doc.Shows[slug] = production
	}
	return doc, nil
}

// Run scrapes every venue in order and writes the document. A failing venue
// keeps its entry with no events and a failing write is retried with the
// reduced document. An error is returned only when not even the reduced
// document could be written.
func (s Service) Run(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	startedAt := s.time.Now()
	summary := Summary{
		RunId:  uuid.NewString(),
		Status: history.StatusOk,
		Shows:  make([]ShowSummary, 0, len(s.venues)),
	}
	span.SetAttributes(attribute.String("run_id", summary.RunId))
	slog.InfoContext(ctx, "scrape run started", "run_id", summary.RunId, "venues", len(s.venues))

	known := make(map[string]schedule.Production, len(s.venues))
	shows := make(map[string]schedule.Production, len(s.venues))
	fallbacks := 0

	for _, v := range s.venues {
		known[v.Slug] = v.Production()

		result, err := s.scrapeOne(ctx, v)
		if err != nil {
			s.tel.ReportBroken(report_service_scrape, v.Slug, err)
			shows[v.Slug] = known[v.Slug]
			summary.Shows = append(summary.Shows, ShowSummary{
				Slug:  v.Slug,
				Title: v.Title,
				Tier:  venues.TierFailed,
				Err:   err,
			})
			continue
		}

		if result.Tier == venues.TierFallback {
			fallbacks++
		}
		shows[v.Slug] = result.Production
		s.tel.ReportCount(report_service_events+"-"+v.Slug, int64(len(result.Production.Events)))
		summary.Shows = append(summary.Shows, ShowSummary{
			Slug:    v.Slug,
			Title:   v.Title,
			Tier:    result.Tier,
			Events:  len(result.Production.Events),
			Fetched: result.Fetched,
			Err:     result.SourceErr,
		})
	}
	s.tel.ReportCount(report_service_fallback, int64(fallbacks))

	doc, err := s.assemble(shows, s.time.Now())
	if err == nil {
		err = s.write(s.opts.Output, doc)
	}

	var runErr error
	if err != nil {
		s.tel.ReportBroken(report_service_write, s.opts.Output, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "write schedule")

		summary.Status = history.StatusReduced
		doc = schedule.Reduced(known, s.time.Now())
		runErr = err

		reducedErr := s.write(s.opts.Output, doc)
		if reducedErr != nil {
			runErr = errors.Join(err, reducedErr)
			s.tel.ReportBroken(report_service_write, s.opts.Output, reducedErr)
			s.record(ctx, summary, startedAt, runErr)
			s.notify(ctx, summary, runErr)
			return summary, fmt.Errorf("write reduced schedule: %w", runErr)
		}
	}
	summary.Document = doc

	s.record(ctx, summary, startedAt, runErr)
	s.notify(ctx, summary, runErr)
	slog.InfoContext(
		ctx, "scrape run finished",
		"run_id", summary.RunId,
		"status", summary.Status,
		"output", s.opts.Output,
	)
	return summary, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (s Service) record(ctx context.Context, summary Summary, startedAt time.Time, runErr error) {
	if s.opts.History == nil {
		return
	}

	run := history.Run{
		Id:         summary.RunId,
		StartedAt:  startedAt,
		FinishedAt: s.time.Now(),
		Status:     summary.Status,
		OutputPath: s.opts.Output,
		Error:      errString(runErr),
		Shows:      make([]history.Show, 0, len(summary.Shows)),
	}
	for _, show := range summary.Shows {
		run.Shows = append(run.Shows, history.Show{
			Slug:    show.Slug,
			Tier:    string(show.Tier),
			Events:  show.Events,
			Fetched: show.Fetched,
			Error:   errString(show.Err),
		})
	}

	// a cancelled run is still worth recording
	err := s.opts.History.Record(context.WithoutCancel(ctx), run)
	if err != nil {
		s.tel.ReportWarning(report_service_history, summary.RunId, err)
	}
}

func (s Service) notify(ctx context.Context, summary Summary, runErr error) {
	if s.opts.Notifier == nil {
		return
	}

	var failed []string
	for _, show := range summary.Shows {
		if show.Tier == venues.TierFailed {
			failed = append(failed, show.Slug)
		}
	}
	if runErr == nil && len(failed) == 0 {
		return
	}

	subject := fmt.Sprintf("stagedates: %d of %d shows failed", len(failed), len(summary.Shows))
	if runErr != nil {
		subject = "stagedates: reduced schedule written"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "run %s finished with status %s.\n\n", summary.RunId, summary.Status)
	if runErr != nil {
		fmt.Fprintf(&body, "write error: %s\n\n", runErr)
	}
	for _, show := range summary.Shows {
		fmt.Fprintf(&body, "%s: %s, %d events", show.Slug, show.Tier, show.Events)
		if show.Err != nil {
			fmt.Fprintf(&body, " (%s)", show.Err)
		}
		body.WriteString("\n")
	}

	err := s.opts.Notifier.Notify(context.WithoutCancel(ctx), subject, body.String())
	if err != nil {
		s.tel.ReportWarning(report_service_notify, summary.RunId, err)
	}
}
