package venues

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stagedates/internal/chrono"
	"stagedates/internal/fetch"
	"stagedates/internal/showfeed/schedule"
	"stagedates/internal/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var berlin = mustLoad("Europe/Berlin")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func at(value string) time.Time {
	t, err := time.ParseInLocation(schedule.DateLayout, value, berlin)
	if err != nil {
		panic(err)
	}
	return t
}

var errUnreachable = errors.New("unreachable")

type failingFetcher struct{}

func (failingFetcher) Fetch(ctx context.Context, link string) (*goquery.Document, error) {
	return nil, errUnreachable
}

type fakeDiscoverer struct {
	links []string
}

func (d fakeDiscoverer) Discover(ctx context.Context, root string, match func(string) bool) ([]string, error) {
	var out []string
	for _, link := range d.links {
		if match(link) {
			out = append(out, link)
		}
	}
	return out, nil
}

func venue(slug string) Venue {
	for _, v := range Catalog() {
		if v.Slug == slug {
			return v
		}
	}
	panic("unknown venue " + slug)
}

func TestFailingFetcherYieldsFallback(t *testing.T) {
	fallbacks := StaticFallbacks(berlin)

	for _, v := range Catalog() {
		t.Run(v.Slug, func(t *testing.T) {
			tel := telemetry.NewRecorderAPI()
			scraper := NewScraper(
				failingFetcher{},
				nil,
				fallbacks,
				chrono.NewFixedImpl(at("2025-08-01 12:00")),
				tel,
			)

			result, err := scraper.Scrape(context.Background(), v)
			require.NoError(t, err)
			require.Equal(t, TierFallback, result.Tier)
			require.Equal(t, 0, result.Fetched)
			require.ErrorIs(t, result.SourceErr, errUnreachable)
			require.Len(t, tel.Reports("warning", report_scraper_source), len(v.Sources))

			require.Empty(t, cmp.Diff(fallbacks[v.Slug], result.Production.Events))
			require.Equal(t, v.Title, result.Production.Title)
			require.Equal(t, v.Theater, result.Production.Theater)
			require.Equal(t, v.BaseUrl, result.Production.BaseUrl)
			require.Nil(t, result.Production.Director)
			require.Nil(t, result.Production.Author)
			require.Nil(t, result.Production.Duration)
		})
	}
}

func TestFallbackKeepsCuratedSameDayTimes(t *testing.T) {
	scraper := NewScraper(
		failingFetcher{},
		nil,
		StaticFallbacks(berlin),
		chrono.NewFixedImpl(at("2025-08-30 20:00")),
		telemetry.NewRecorderAPI(),
	)
	result, err := scraper.Scrape(context.Background(), venue("la-traviata"))
	require.NoError(t, err)

	var dates []string
	for _, e := range result.Production.Events {
		dates = append(dates, e.Date())
	}
	require.Equal(t, []string{
		"2025-08-31 14:30",
		"2025-08-31 19:30",
		"2025-09-02 19:30",
		"2025-09-03 19:30",
		"2025-09-04 19:30",
		"2025-09-05 19:30",
		"2025-09-06 19:30",
		"2025-09-07 19:30",
		"2025-09-09 19:30",
		"2025-09-10 19:30",
	}, dates)
}

func TestExpiredFallbackIsReported(t *testing.T) {
	tel := telemetry.NewRecorderAPI()
	scraper := NewScraper(
		failingFetcher{},
		nil,
		StaticFallbacks(berlin),
		chrono.NewFixedImpl(at("2026-01-01 12:00")),
		tel,
	)
	result, err := scraper.Scrape(context.Background(), venue("der-komet"))
	require.NoError(t, err)
	require.Equal(t, TierFallback, result.Tier)
	require.Empty(t, result.Production.Events)
	require.NotNil(t, result.Production.Events)
	require.Len(t, tel.Reports("warning", report_scraper_fallback), 1)
}

const kometPage = `<html><head><title>Der Komet</title><script>var x = "01.01.2030 10:00";</script></head>
<body>
<header><nav><a href="/spielplan/">Spielplan</a></nav></header>
<h1>Der Komet</h1>
<p>Schauspiel von Durs Grünbein</p>
<dl>
	<dt>Regie</dt><dd>Jan Gehler</dd>
	<dt>Dauer</dt><dd>ca. 1 h 45 min, keine Pause</dd>
</dl>
<div class="termine">
	<ul>
		<li>Sa, 20.09.2025 <span>19:30 Uhr</span> <a href="/tickets/event/1001">Karten</a></li>
		<li>Do, 02.10.2025 <span>20:00 Uhr</span> <a href="/tickets/event/1002">Karten</a></li>
	</ul>
</div>
<table>
	<tr><td>Fr, 17.10.2025</td><td>19:30</td><td><a href="/tickets/event/1003">Tickets</a></td></tr>
</table>
<p>Zuletzt aktualisiert am 01.08.2025 10:00</p>
<div class="spielplan-teaser">
	<h2>Auch im Spielplan</h2>
	<table>
		<tr><td>Carmen</td><td>Mi, 15.10.2025</td><td>20:00</td><td><a href="/tickets/event/9999">Karten</a></td></tr>
	</table>
</div>
<article class="card">
	<h3>Woyzeck</h3>
	<time datetime="2025-10-26T18:00:00+01:00">So, 26.10.2025 18:00</time>
	<a href="/tickets/event/9998">Karten</a>
</article>
</body></html>`

const listingPage = `<html><body>
<ul>
	<li>
		<h3>Der Komet</h3>
		<p>Schauspiel von Durs Grünbein</p>
		<p>25.10.2025 18:00</p>
		<a href="/tickets/event/2002">Karten</a>
	</li>
	<li>
		<h3>Hamlet</h3>
		<p>Tragödie von William Shakespeare</p>
		<p>Regie: Jemand Anderes</p>
		<p>Großes Haus</p>
		<p>21.09.2025 19:30</p>
		<a href="/tickets/event/2001">Karten</a>
	</li>
</ul>
</body></html>`

const structuredPage = `<html><body>
<h1>Der Komet</h1>
<div class="event">
	<time datetime="2025-11-05T19:00:00+01:00">Mi, 5. Nov</time>
	<a href="/tickets/event/3001">Karten</a>
</div>
<p>Der Komet am 06.11.2025 um 19:30</p>
</body></html>`

func newSiteServer(t *testing.T) *httptest.Server {
	pages := map[string]string{
		"/spielplan/a-z/der-komet/": kometPage,
		"/spielplan/":               listingPage,
		"/structured/":              structuredPage,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type expectedEvent struct {
	date   string
	ticket string
}

func requireEvents(t *testing.T, expected []expectedEvent, actual []schedule.Event) {
	t.Helper()
	var got []expectedEvent
	for _, e := range actual {
		got = append(got, expectedEvent{date: e.Date(), ticket: e.TicketUrl})
	}
	require.Empty(t, cmp.Diff(expected, got, cmp.AllowUnexported(expectedEvent{})))
}

func newLiveScraper(discoverer fakeDiscoverer, tel telemetry.API) Scraper {
	return NewScraper(
		fetch.NewClient(fetch.Options{Timeout: 5 * time.Second}, tel),
		discoverer,
		StaticFallbacks(berlin),
		chrono.NewFixedImpl(at("2025-09-01 12:00")),
		tel,
	)
}

func TestScrapeDedicatedPage(t *testing.T) {
	srv := newSiteServer(t)
	tel := telemetry.NewRecorderAPI()
	scraper := newLiveScraper(fakeDiscoverer{}, tel)

	v := venue("der-komet")
	v.Sources = []Source{
		{Url: srv.URL + "/spielplan/a-z/der-komet/", Dedicated: true},
		{Url: srv.URL + "/gone/", Dedicated: true},
	}

	result, err := scraper.Scrape(context.Background(), v)
	require.NoError(t, err)
	require.Equal(t, TierLive, result.Tier)
	require.Equal(t, 1, result.Fetched)
	require.ErrorIs(t, result.SourceErr, fetch.ErrStatus)

	requireEvents(t, []expectedEvent{
		{"2025-09-20 19:30", srv.URL + "/tickets/event/1001"},
		{"2025-10-02 20:00", srv.URL + "/tickets/event/1002"},
		{"2025-10-17 19:30", srv.URL + "/tickets/event/1003"},
	}, result.Production.Events)

	require.Equal(t, "Jan Gehler", *result.Production.Director)
	require.Equal(t, "Durs Grünbein", *result.Production.Author)
	require.Equal(t, "1 h 45 min, ohne Pause", *result.Production.Duration)
}

func TestScrapeListingWithDiscovery(t *testing.T) {
	srv := newSiteServer(t)
	tel := telemetry.NewRecorderAPI()
	scraper := newLiveScraper(fakeDiscoverer{links: []string{
		srv.URL + "/spielplan/a-z/hamlet/",
		srv.URL + "/spielplan/a-z/der-komet/",
	}}, tel)

	v := venue("der-komet")
	v.Sources = []Source{
		{Url: srv.URL + "/spielplan/", Discover: true},
	}

	result, err := scraper.Scrape(context.Background(), v)
	require.NoError(t, err)
	require.Equal(t, TierLive, result.Tier)
	require.Equal(t, 2, result.Fetched)

	requireEvents(t, []expectedEvent{
		{"2025-09-20 19:30", srv.URL + "/tickets/event/1001"},
		{"2025-10-02 20:00", srv.URL + "/tickets/event/1002"},
		{"2025-10-17 19:30", srv.URL + "/tickets/event/1003"},
		{"2025-10-25 18:00", srv.URL + "/tickets/event/2002"},
	}, result.Production.Events)
	require.Equal(t, "Jan Gehler", *result.Production.Director)
}

func TestScrapeListingIgnoresOtherProductions(t *testing.T) {
	srv := newSiteServer(t)
	scraper := newLiveScraper(fakeDiscoverer{}, telemetry.NewRecorderAPI())

	v := venue("der-komet")
	v.Sources = []Source{{Url: srv.URL + "/spielplan/"}}

	result, err := scraper.Scrape(context.Background(), v)
	require.NoError(t, err)
	requireEvents(t, []expectedEvent{
		{"2025-10-25 18:00", srv.URL + "/tickets/event/2002"},
	}, result.Production.Events)
	// credits of a listing page belong to many productions
	require.Nil(t, result.Production.Director)
}

func TestScrapeStructuredDatesAreAuthoritative(t *testing.T) {
	srv := newSiteServer(t)
	scraper := newLiveScraper(fakeDiscoverer{}, telemetry.NewRecorderAPI())

	v := venue("der-komet")
	v.Sources = []Source{
		{Url: srv.URL + "/spielplan/a-z/der-komet/", Dedicated: true},
		{Url: srv.URL + "/structured/", Dedicated: true},
	}

	result, err := scraper.Scrape(context.Background(), v)
	require.NoError(t, err)
	requireEvents(t, []expectedEvent{
		{"2025-11-05 19:00", srv.URL + "/tickets/event/3001"},
	}, result.Production.Events)
}

func TestScrapeCancelled(t *testing.T) {
	scraper := newLiveScraper(fakeDiscoverer{}, telemetry.NewRecorderAPI())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := scraper.Scrape(ctx, venue("la-traviata"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCatalog(t *testing.T) {
	fallbacks := StaticFallbacks(berlin)
	seen := map[string]bool{}
	for _, v := range Catalog() {
		require.False(t, seen[v.Slug], "duplicate slug %s", v.Slug)
		seen[v.Slug] = true
		require.NotEmpty(t, v.Sources, v.Slug)
		require.NotEmpty(t, fallbacks[v.Slug], v.Slug)
		require.NotEmpty(t, v.Title, v.Slug)
	}
	require.Len(t, fallbacks["la-traviata"], 15)
	require.Len(t, fallbacks["der-komet"], 2)
}

func TestVenueProduction(t *testing.T) {
	v := venue("der-komet")
	production := v.Production()
	require.Equal(t, v.Title, production.Title)
	require.Equal(t, v.Theater, production.Theater)
	require.Equal(t, v.Image, production.Image)
	require.Equal(t, v.BaseUrl, production.BaseUrl)
	require.NotNil(t, production.Events)
	require.Empty(t, production.Events)
	require.Nil(t, production.Director)
}
