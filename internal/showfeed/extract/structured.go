package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDateTime reads a machine readable date-time (a `datetime` or
// `content` attribute). Values with an offset are converted to loc, values
// without one are read as wall clock time in loc. A date without a time is
// not a performance time and is rejected.
func ParseDateTime(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t.In(loc).Truncate(time.Minute), true
	}
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t.Truncate(time.Minute), true
		}
	}
	return time.Time{}, false
}

// StructuredDate is a date taken from markup attributes together with the
// element that carried it.
type StructuredDate struct {
	At      time.Time
	Element *goquery.Selection
}

// StructuredDates collects every future date from `datetime` attributes and
// schema.org `startDate` properties below sel.
func StructuredDates(sel *goquery.Selection, now time.Time) []StructuredDate {
	var out []StructuredDate
	add := func(el *goquery.Selection, value string) {
		at, ok := ParseDateTime(value, now.Location())
		if !ok || !at.After(now) {
			return
		}
		out = append(out, StructuredDate{At: at, Element: el})
	}

	sel.Find("[datetime]").Each(func(_ int, el *goquery.Selection) {
		add(el, el.AttrOr("datetime", ""))
	})
	sel.Find(`[itemprop="startDate"]`).Each(func(_ int, el *goquery.Selection) {
		if _, ok := el.Attr("datetime"); ok {
			return
		}
		add(el, el.AttrOr("content", ""))
	})
	return out
}
