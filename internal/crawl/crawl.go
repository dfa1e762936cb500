package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stagedates/internal/assert"
	"stagedates/internal/fetch"
	"stagedates/internal/telemetry"

	"github.com/gocolly/colly"
	"github.com/google/uuid"
)

const (
	report_discover_visit = "discover.visit"
)

// Discoverer collects links from listing pages (a theater's "Spielplan") that
// lead to the detail pages of a production.
type Discoverer interface {
	Discover(ctx context.Context, root string, match func(link string) bool) ([]string, error)
}

type Options struct {
	Timeout time.Duration
	Delay   time.Duration
}

type Collector struct {
	opts Options
	tel  telemetry.API
}

func NewCollector(opts Options, tel telemetry.API) Collector {
	assert.NotNil(tel, "telemetry")
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return Collector{
		opts: opts,
		tel:  telemetry.NewScopedAPI("crawl", tel),
	}
}

// Discover visits root only (no recursion) and returns the absolute urls of
// every anchor accepted by match, deduplicated, in document order.
func (c Collector) Discover(ctx context.Context, root string, match func(link string) bool) ([]string, error) {
	collector := colly.NewCollector(
		colly.MaxDepth(1),
		colly.UserAgent(fetch.BrowserUserAgent),
	)
	collector.SetRequestTimeout(c.opts.Timeout)

	err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		RandomDelay: c.opts.Delay,
	})
	if err != nil {
		return nil, fmt.Errorf("crawl limits: %w", err)
	}

	collector.OnRequest(func(request *colly.Request) {
		select {
		case <-ctx.Done():
			request.Abort()
			return
		default:
		}
		requestId := uuid.NewString()
		request.Headers.Set(telemetry.RequestIdHeader, requestId)
		request.Headers.Set("Accept-Language", "de-DE,de;q=0.9")
		c.tel.ReportDebug("visiting", requestId, request.URL.String())
	})

	seen := map[string]struct{}{}
	var links []string
	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		link = strings.SplitN(link, "#", 2)[0]
		if _, ok := seen[link]; ok {
			return
		}
		if !match(link) {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	var visitErr error
	collector.OnError(func(r *colly.Response, err error) {
		c.tel.ReportWarning(report_discover_visit, r.Request.URL.String(), r.StatusCode, err)
		visitErr = fmt.Errorf("visit %s: status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	err = collector.Visit(root)
	if err != nil {
		return nil, fmt.Errorf("visit %s: %w", root, err)
	}
	collector.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if visitErr != nil {
		return nil, visitErr
	}
	return links, nil
}
