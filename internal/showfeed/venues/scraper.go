package venues

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"stagedates/internal/assert"
	"stagedates/internal/chrono"
	"stagedates/internal/crawl"
	"stagedates/internal/fetch"
	"stagedates/internal/showfeed/extract"
	"stagedates/internal/showfeed/schedule"
	"stagedates/internal/telemetry"
	"stagedates/pkg/htmlutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("stagedates/internal/showfeed/venues")

const (
	report_scraper_source   = "scraper.source"
	report_scraper_discover = "scraper.discover"
	report_scraper_fallback = "scraper.fallback"
)

// Tier tells where the events of a production came from.
type Tier string

const (
	TierLive     Tier = "live"
	TierFallback Tier = "fallback"
	TierFailed   Tier = "failed"
)

// Result is the outcome of scraping one venue.
type Result struct {
	Production schedule.Production
	Tier       Tier
	// Fetched is the amount of sources that were fetched successfully.
	Fetched int
	// SourceErr joins the errors of every source that could not be fetched.
	SourceErr error
}

// Scraper scrapes a venue's sources and falls back to its static dates.
type Scraper struct {
	fetcher    fetch.Fetcher
	discoverer crawl.Discoverer
	fallbacks  FallbackTable
	time       chrono.API
	tel        telemetry.API
}

// NewScraper creates a Scraper, discoverer may be nil to skip link discovery.
func NewScraper(
	fetcher fetch.Fetcher,
	discoverer crawl.Discoverer,
	fallbacks FallbackTable,
	time chrono.API,
	tel telemetry.API,
) Scraper {
	assert.NotNil(fetcher, "fetcher")
	assert.NotNil(fallbacks, "fallback table")
	assert.NotNil(time, "time")
	assert.NotNil(tel, "telemetry")

	return Scraper{
		fetcher:    fetcher,
		discoverer: discoverer,
		fallbacks:  fallbacks,
		time:       time,
		tel:        telemetry.NewScopedAPI("venues", tel),
	}
}

func sameUrl(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

func (s Scraper) discover(ctx context.Context, v Venue, listing Source, sources []Source) []Source {
	if s.discoverer == nil || v.LinkHint == "" {
		return nil
	}
	links, err := s.discoverer.Discover(ctx, listing.Url, func(link string) bool {
		return strings.Contains(strings.ToLower(link), v.LinkHint)
	})
	if err != nil {
		s.tel.ReportWarning(report_scraper_discover, v.Slug, listing.Url, err)
		return nil
	}

	var out []Source
	known := func(link string) bool {
		same := func(src Source) bool {
			return sameUrl(src.Url, link)
		}
		return slices.ContainsFunc(sources, same) || slices.ContainsFunc(out, same)
	}
	for _, link := range links {
		if known(link) {
			continue
		}
		s.tel.ReportDebug("discovered source", v.Slug, link)
		out = append(out, Source{Url: link, Dedicated: true})
	}
	return out
}

type collected struct {
	structured []schedule.Event
	// linked events point to a ticket page, generic ones to the page they
	// were found on.
	linked  []schedule.Event
	generic []schedule.Event
	meta    extract.Metadata
}

// preferLinked drops generic events at a time a linked event already covers.
func preferLinked(linked, generic []schedule.Event) []schedule.Event {
	covered := map[string]struct{}{}
	for _, e := range linked {
		covered[e.Date()] = struct{}{}
	}
	out := append([]schedule.Event(nil), linked...)
	for _, e := range generic {
		if _, ok := covered[e.Date()]; !ok {
			out = append(out, e)
		}
	}
	return out
}

func fillMetadata(dst *extract.Metadata, src extract.Metadata) {
	if dst.Director == nil {
		dst.Director = src.Director
	}
	if dst.Author == nil {
		dst.Author = src.Author
	}
	if dst.Duration == nil {
		dst.Duration = src.Duration
	}
}

func (s Scraper) scrapeSource(ctx context.Context, v Venue, src Source, mentions extract.Mentions, out *collected) error {
	doc, err := s.fetcher.Fetch(ctx, src.Url)
	if err != nil {
		return err
	}

	pageUrl := doc.Url
	if pageUrl == nil {
		pageUrl, err = url.Parse(src.Url)
		if err != nil {
			return err
		}
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	p := page{
		source:   src,
		url:      pageUrl,
		body:     body,
		lines:    htmlutil.Lines(htmlutil.BlockText(body)),
		mentions: mentions,
		now:      s.time.Now(),
	}

	out.structured = append(out.structured, scanStructured(p)...)
	for _, strategy := range textStrategies {
		found := strategy.run(p)
		if len(found) > 0 {
			s.tel.ReportDebug("strategy found events", v.Slug, src.Url, strategy.name, len(found))
		}
		for _, e := range found {
			if e.TicketUrl == p.url.String() {
				out.generic = append(out.generic, e)
				continue
			}
			out.linked = append(out.linked, e)
		}
	}

	if src.Dedicated {
		fillMetadata(&out.meta, extract.ExtractMetadata(p.lines))
	}
	return nil
}

// Scrape tries every source of the venue in order. Dates from markup
// attributes, when any source has them, replace the dates read from text.
// When no source yields a future date the venue's fallback list is used.
//
// The returned error is only set when ctx is done, a failing source is not
// an error.
func (s Scraper) Scrape(ctx context.Context, v Venue) (Result, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()
	span.SetAttributes(attribute.String("slug", v.Slug))

	mentions := extract.NewMentions(v.names()...)

	var found collected
	var errs []error
	fetched := 0

	sources := append([]Source(nil), v.Sources...)
	for i := 0; i < len(sources); i++ {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		src := sources[i]
		if src.Discover {
			sources = append(sources, s.discover(ctx, v, src, sources)...)
		}

		err := s.scrapeSource(ctx, v, src, mentions, &found)
		if err != nil {
			s.tel.ReportWarning(report_scraper_source, v.Slug, src.Url, err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Url, err))
			continue
		}
		fetched++
	}

	now := s.time.Now()
	candidates := found.structured
	if len(candidates) == 0 {
		candidates = preferLinked(found.linked, found.generic)
	}

	production := v.Production()
	production.Director = found.meta.Director
	production.Author = found.meta.Author
	production.Duration = found.meta.Duration
	production.Events = schedule.CleanAndSort(schedule.FilterFuture(candidates, now))
	result := Result{
		Production: production,
		Tier:       TierLive,
		Fetched:    fetched,
		SourceErr:  errors.Join(errs...),
	}
	span.SetAttributes(attribute.Int("sources_fetched", fetched))

	if len(production.Events) > 0 {
		span.SetAttributes(attribute.String("tier", string(result.Tier)))
		return result, nil
	}

	result.Tier = TierFallback
	result.Production.Events = schedule.CleanCurated(s.fallbacks[v.Slug], now)
	if len(result.Production.Events) == 0 {
		s.tel.ReportWarning(report_scraper_fallback, v.Slug, "fallback list has no future events")
	}
	span.SetAttributes(attribute.String("tier", string(result.Tier)))
	return result, nil
}
