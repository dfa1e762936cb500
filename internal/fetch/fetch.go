package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"stagedates/internal/assert"
	"stagedates/internal/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("stagedates/internal/fetch")

const (
	report_client_fetch = "client.fetch"
)

// ErrStatus is returned when a page answers with a non-2xx status.
var ErrStatus = errors.New("unexpected status")

// Fetcher retrieves a page and returns its parsed markup. The returned
// document's Url is the final url after redirects.
type Fetcher interface {
	Fetch(ctx context.Context, link string) (*goquery.Document, error)
}

const (
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	acceptHeader     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage   = "de-DE,de;q=0.9,en;q=0.5"
)

type Options struct {
	Timeout  time.Duration
	MinDelay time.Duration
	MaxDelay time.Duration
	// Dump receives the text of every exchange, it can be nil.
	Dump telemetry.DumpOutput
}

// Client is the resty implementation of Fetcher.
type Client struct {
	http     *resty.Client
	throttle *Throttle
	tel      telemetry.API
}

func NewClient(opts Options, tel telemetry.API) Client {
	assert.NotNil(tel, "telemetry")

	tel = telemetry.NewScopedAPI("fetch", tel)
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	throttle := NewThrottle(opts.MinDelay, opts.MaxDelay)

	httpClient := resty.New()
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeaders(map[string]string{
		"user-agent":      BrowserUserAgent,
		"accept":          acceptHeader,
		"accept-language": acceptLanguage,
	})
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return throttle.Wait(req.Context())
	})
	telemetry.InstrumentResty(httpClient, tel, opts.Dump)

	return Client{
		http:     httpClient,
		throttle: throttle,
		tel:      tel,
	}
}

func (c Client) Fetch(ctx context.Context, link string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", link))

	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.tel.ReportWarning(report_client_fetch, link, err)
		return nil, fmt.Errorf("fetch %s: %w", link, err)
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))
	if res.IsError() || res.StatusCode() < 200 || res.StatusCode() >= 300 {
		err = fmt.Errorf("fetch %s: %w: %d", link, ErrStatus, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "non-2xx status")
		c.tel.ReportWarning(report_client_fetch, link, err)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse html")
		return nil, fmt.Errorf("parse %s: %w", link, err)
	}

	doc.Url, err = url.Parse(link)
	if err != nil {
		return nil, err
	}
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		doc.Url = res.RawResponse.Request.URL
	}
	return doc, nil
}
