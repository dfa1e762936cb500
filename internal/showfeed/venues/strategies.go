package venues

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"stagedates/internal/showfeed/extract"
	"stagedates/internal/showfeed/schedule"
	"stagedates/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	calendarClassRegex = regexp.MustCompile(`(?i)calendar|spielplan|termine|events`)
	ticketHrefRegex    = regexp.MustCompile(`(?i)termin|date|event|ticket`)
	teaserClassRegex   = regexp.MustCompile(`(?i)teaser|related|empfehl|weitere|recommend`)
)

// page is a fetched source with everything the strategies need.
type page struct {
	source   Source
	url      *url.URL
	body     *goquery.Selection
	lines    []string
	mentions extract.Mentions
	now      time.Time
}

func (p page) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return p.url.ResolveReference(ref).String()
}

// relevant reports whether the dates in block belong to the production. A
// block has to mention it, except on a dedicated page where the page heading
// stands in for blocks that are not about something else.
func (p page) relevant(block *goquery.Selection) bool {
	if p.mentions.In(htmlutil.BlockText(block)) {
		return true
	}
	return p.source.Dedicated && !p.foreign(block)
}

// foreign reports whether block sits in a teaser box or in a card headed by
// another production.
func (p page) foreign(block *goquery.Selection) bool {
	teaser := block.AddSelection(block.ParentsUntil("body")).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return teaserClassRegex.MatchString(sel.AttrOr("class", "") + " " + sel.AttrOr("id", ""))
	})
	if teaser.Length() > 0 {
		return true
	}

	card := block.Closest("article, li")
	if card.Length() == 0 {
		return false
	}
	heading := card.Find("h1, h2, h3, h4, h5, h6").First()
	return heading.Length() > 0 && !p.mentions.In(heading.Text())
}

// ticketUrl returns the first ticket or date link inside sel, sel itself
// included, or the page url when there is none.
func (p page) ticketUrl(sel *goquery.Selection) string {
	found := ""
	sel.Filter("a[href]").AddSelection(sel.Find("a[href]")).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if !ticketHrefRegex.MatchString(href) {
			return true
		}
		found = p.resolve(href)
		return found == ""
	})
	if found == "" {
		return p.url.String()
	}
	return found
}

func events(times []time.Time, ticketUrl string) []schedule.Event {
	out := make([]schedule.Event, 0, len(times))
	for _, t := range times {
		out = append(out, schedule.Event{At: t, TicketUrl: ticketUrl})
	}
	return out
}

// textStrategy is a way of reading dates out of plain text on a page.
type textStrategy struct {
	name string
	run  func(p page) []schedule.Event
}

var textStrategies = []textStrategy{
	{name: "page text", run: scanPageText},
	{name: "calendar containers", run: scanCalendars},
	{name: "ticket links", run: scanTicketLinks},
	{name: "table rows", run: scanTableRows},
}

// scanPageText reads the lines around every mention of the production, a
// mention is required even on dedicated pages.
func scanPageText(p page) []schedule.Event {
	var out []schedule.Event
	for _, window := range p.mentions.Windows(p.lines) {
		out = append(out, events(extract.Dates(window, p.now), p.url.String())...)
	}
	return out
}

func scanCalendars(p page) []schedule.Event {
	var out []schedule.Event
	p.body.Find("div, section, article").Each(func(_ int, sel *goquery.Selection) {
		if !calendarClassRegex.MatchString(sel.AttrOr("class", "")) {
			return
		}
		if !p.relevant(sel) {
			return
		}
		out = append(out, events(extract.Dates(htmlutil.BlockText(sel), p.now), p.url.String())...)
	})
	return out
}

func (p page) countTicketLinks(sel *goquery.Selection) int {
	return sel.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return ticketHrefRegex.MatchString(a.AttrOr("href", ""))
	}).Length()
}

// scanTicketLinks reads dates from links to ticket or date pages, the link
// becomes the ticket url. A link without a date of its own takes the dates of
// the list item or row it sits in, as long as it is the only such link there.
func scanTicketLinks(p page) []schedule.Event {
	var out []schedule.Event
	p.body.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := sel.AttrOr("href", "")
		if !ticketHrefRegex.MatchString(href) {
			return
		}
		ticket := p.resolve(href)
		if ticket == "" {
			ticket = p.url.String()
		}

		item := sel.Closest("li, tr, article")
		block := item
		if block.Length() == 0 {
			block = sel.Closest("section, div")
		}
		if block.Length() == 0 {
			block = sel
		}
		if !p.relevant(block) {
			return
		}

		text := htmlutil.BlockText(sel) + " " + sel.AttrOr("title", "") + " " + sel.AttrOr("aria-label", "")
		times := extract.Dates(text, p.now)
		if len(times) == 0 && item.Length() > 0 && p.countTicketLinks(item) == 1 {
			times = extract.Dates(htmlutil.BlockText(item), p.now)
		}
		out = append(out, events(times, ticket)...)
	})
	return out
}

func scanTableRows(p page) []schedule.Event {
	var out []schedule.Event
	p.body.Find("tr").Each(func(_ int, sel *goquery.Selection) {
		if !p.relevant(sel) {
			return
		}
		out = append(out, events(extract.Dates(htmlutil.BlockText(sel), p.now), p.ticketUrl(sel))...)
	})
	return out
}

// scanStructured reads machine readable dates, the element carrying the date
// must sit in a block that is relevant to the production.
func scanStructured(p page) []schedule.Event {
	var out []schedule.Event
	for _, found := range extract.StructuredDates(p.body, p.now) {
		block := found.Element.Closest("li, tr, article, section, div")
		if block.Length() == 0 {
			block = found.Element.Parent()
		}
		if !p.relevant(block) {
			continue
		}
		out = append(out, schedule.Event{At: found.At, TicketUrl: p.ticketUrl(block)})
	}
	return out
}
