package extract

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"stagedates/pkg/htmlutil"
)

const (
	// shortTimeWindow is how far after a date a time counts as attached to it.
	shortTimeWindow = 25
	// wideTimeWindow is how far after a date a time is still searched for.
	wideTimeWindow = 80
)

var (
	numericDateRegex  = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`)
	namedDateRegex    = regexp.MustCompile(`(?i)\b(\d{1,2})\.?\s*(` + monthPattern + `)\b\.?\s*(\d{4})\b`)
	yearlessDateRegex = regexp.MustCompile(`(?i)\b(\d{1,2})\.\s*(` + monthPattern + `)\b\.?`)
	timeRegex         = regexp.MustCompile(`(?i)(\d{1,2})(?:([:.])(\d{2})(?:\s*Uhr)?|\s*Uhr)`)
	trailingYearRegex = regexp.MustCompile(`^\s*\d{4}`)
)

type span struct {
	start, end int
}

func (s span) overlaps(other span) bool {
	return s.start < other.end && other.start < s.end
}

// candidate is a date found in the text, ok is false when the text looked
// like a date but did not resolve to a valid date with a time.
type candidate struct {
	span span
	at   time.Time
	ok   bool
}

// scan holds what every parser needs to know about the text being read.
type scan struct {
	text string
	now  time.Time
	// anchors are the start offsets of everything that looks like a date,
	// a time window never extends past the next anchor.
	anchors []int
}

func newScan(text string, now time.Time) scan {
	var anchors []int
	for _, re := range []*regexp.Regexp{numericDateRegex, namedDateRegex, yearlessDateRegex} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			anchors = append(anchors, loc[0])
		}
	}
	slices.Sort(anchors)
	anchors = slices.Compact(anchors)
	return scan{text: text, now: now, anchors: anchors}
}

func (s scan) nextAnchor(after int) int {
	for _, a := range s.anchors {
		if a >= after {
			return a
		}
	}
	return len(s.text)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// findTime finds the first HH:MM, HH.MM or "HH Uhr" in text[from:to].
// Numbers that are part of a larger number or a date are not times.
func (s scan) findTime(from, to int) (hour, minute, end int, ok bool) {
	to = min(to, s.nextAnchor(from), len(s.text))
	if from >= to {
		return 0, 0, 0, false
	}

	for _, m := range timeRegex.FindAllStringSubmatchIndex(s.text[from:to], -1) {
		start, stop := from+m[0], from+m[1]
		if start > 0 && isDigit(s.text[start-1]) {
			continue
		}
		if start > 1 && s.text[start-1] == '.' && isDigit(s.text[start-2]) {
			continue
		}
		if stop < len(s.text) && isDigit(s.text[stop]) {
			continue
		}
		if stop+1 < len(s.text) && s.text[stop] == '.' && isDigit(s.text[stop+1]) {
			continue
		}

		h, err := strconv.Atoi(s.text[from+m[2] : from+m[3]])
		if err != nil || h > 23 {
			continue
		}
		mi := 0
		if m[6] >= 0 {
			mi, err = strconv.Atoi(s.text[from+m[6] : from+m[7]])
			if err != nil || mi > 59 {
				continue
			}
			dotted := s.text[from+m[4]] == '.' && from+m[7] == stop
			if dotted && s.dayMonth(start, stop, mi) {
				continue
			}
		}
		return h, mi, stop, true
	}
	return 0, 0, 0, false
}

var timePrefixRegex = regexp.MustCompile(`(?i)\b(?:um|ab|gegen|bis|Beginn:?)\s*$`)

// dayMonth reports whether the dotted "HH.MM" at text[start:stop] is rather a
// day and month like "20.09.". A second number that is no month makes it a
// time, a number right after it makes it a date, and otherwise a leading "um"
// decides.
func (s scan) dayMonth(start, stop, second int) bool {
	if stop >= len(s.text) || s.text[stop] != '.' {
		return false
	}
	if second == 0 || second > 12 {
		return false
	}
	rest := strings.TrimLeft(s.text[stop+1:], " ")
	if rest != "" && isDigit(rest[0]) {
		return true
	}
	return !timePrefixRegex.MatchString(s.text[:start])
}

// buildDate returns the time only if every field survives the round trip,
// 31.02 or a wall clock skipped by a DST change are rejected.
func buildDate(year int, month time.Month, day, hour, minute int, loc *time.Location) (time.Time, bool) {
	t := time.Date(year, month, day, hour, minute, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day || t.Hour() != hour || t.Minute() != minute {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// dateParser is a single date format. It returns every occurrence of its
// format in the text, valid or not.
type dateParser struct {
	name  string
	parse func(s scan) []candidate
}

func numericDate(window int) func(s scan) []candidate {
	return func(s scan) []candidate {
		var out []candidate
		for _, m := range numericDateRegex.FindAllStringSubmatchIndex(s.text, -1) {
			day := atoi(s.text[m[2]:m[3]])
			month := atoi(s.text[m[4]:m[5]])
			year := atoi(s.text[m[6]:m[7]])

			hour, minute, end, found := s.findTime(m[1], m[1]+window)
			if !found {
				// left unclaimed, a wider window may still find a time
				continue
			}
			at, ok := buildDate(year, time.Month(month), day, hour, minute, s.now.Location())
			out = append(out, candidate{span: span{m[0], end}, at: at, ok: ok})
		}
		return out
	}
}

func namedDate(s scan) []candidate {
	var out []candidate
	for _, m := range namedDateRegex.FindAllStringSubmatchIndex(s.text, -1) {
		month, found := lookupMonth(s.text[m[4]:m[5]])
		if !found {
			continue
		}
		hour, minute, end, found := s.findTime(m[1], m[1]+wideTimeWindow)
		if !found {
			out = append(out, candidate{span: span{m[0], m[1]}})
			continue
		}
		day := atoi(s.text[m[2]:m[3]])
		year := atoi(s.text[m[6]:m[7]])
		at, ok := buildDate(year, month, day, hour, minute, s.now.Location())
		out = append(out, candidate{span: span{m[0], end}, at: at, ok: ok})
	}
	return out
}

func validDay(year int, month time.Month, day int) bool {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Month() == month && t.Day() == day
}

// InferYear picks the year for a date printed without one: the current year,
// unless that day has already passed, then the next year. A 29th of February
// moves on to the next leap year.
func InferYear(month time.Month, day int, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for year := now.Year(); year <= now.Year()+8; year++ {
		if !validDay(year, month, day) {
			continue
		}
		if time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Before(today) {
			continue
		}
		return year
	}
	return now.Year()
}

func yearlessDate(s scan) []candidate {
	var out []candidate
	for _, m := range yearlessDateRegex.FindAllStringSubmatchIndex(s.text, -1) {
		if trailingYearRegex.MatchString(s.text[m[1]:]) {
			continue
		}
		month, found := lookupMonth(s.text[m[4]:m[5]])
		if !found {
			continue
		}
		hour, minute, end, found := s.findTime(m[1], m[1]+wideTimeWindow)
		if !found {
			out = append(out, candidate{span: span{m[0], m[1]}})
			continue
		}
		day := atoi(s.text[m[2]:m[3]])
		year := InferYear(month, day, s.now)
		at, ok := buildDate(year, month, day, hour, minute, s.now.Location())
		out = append(out, candidate{span: span{m[0], end}, at: at, ok: ok})
	}
	return out
}

// textParsers are tried in order, a span read by an earlier parser cannot be
// read again by a later one.
var textParsers = []dateParser{
	{name: "numeric date with time", parse: numericDate(shortTimeWindow)},
	{name: "numeric date, time nearby", parse: numericDate(wideTimeWindow)},
	{name: "named month with year", parse: namedDate},
	{name: "named month without year", parse: yearlessDate},
}

// Dates returns every valid date with a time in the text that lies strictly
// after now, in the order they appear. Dates are built in now's location.
func Dates(text string, now time.Time) []time.Time {
	text = htmlutil.CollapseWhitespace(text)
	s := newScan(text, now)

	var claimed []span
	var found []candidate
	for _, parser := range textParsers {
		for _, c := range parser.parse(s) {
			if slices.ContainsFunc(claimed, c.span.overlaps) {
				continue
			}
			claimed = append(claimed, c.span)
			if c.ok {
				found = append(found, c)
			}
		}
	}

	slices.SortFunc(found, func(a, b candidate) int {
		return a.span.start - b.span.start
	})
	var out []time.Time
	for _, c := range found {
		if c.at.After(now) {
			out = append(out, c.at)
		}
	}
	return out
}
