package schedule

import (
	"slices"
	"strings"
	"time"
)

// MaxEvents is the maximum amount of events kept per production.
const MaxEvents = 20

// defaultLookingTime is the time many pages print for "usual start" next to
// the actual time of a performance.
const defaultLookingTime = "19:30"

func compareEvents(a, b Event) int {
	if c := a.At.Compare(b.At); c != 0 {
		return c
	}
	return strings.Compare(a.TicketUrl, b.TicketUrl)
}

// FilterFuture keeps only the events strictly after now.
func FilterFuture(events []Event, now time.Time) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.At.After(now) {
			out = append(out, e)
		}
	}
	return out
}

// CleanAndSort merges candidate events into the canonical schedule:
//   - duplicate day+time pairs collapse, the smallest ticket url wins
//   - 19:30 is dropped from a day that has any other time
//   - the result is sorted ascending and capped at MaxEvents
//
// The result does not depend on the order of the input and
// CleanAndSort(CleanAndSort(x)) == CleanAndSort(x).
func CleanAndSort(events []Event) []Event {
	days := map[string]map[string]Event{}
	for _, e := range events {
		day := e.At.Format("2006-01-02")
		clock := e.At.Format(DisplayTimeLayout)

		times, ok := days[day]
		if !ok {
			times = map[string]Event{}
			days[day] = times
		}
		existing, ok := times[clock]
		if !ok || compareEvents(e, existing) < 0 {
			times[clock] = e
		}
	}

	out := make([]Event, 0, len(events))
	for _, times := range days {
		if len(times) > 1 {
			delete(times, defaultLookingTime)
		}
		for _, e := range times {
			out = append(out, e)
		}
	}

	slices.SortFunc(out, compareEvents)
	if len(out) > MaxEvents {
		out = out[:MaxEvents]
	}
	return out
}

// CleanCurated prepares a hand-curated event list: future events only,
// exact duplicates removed, sorted and capped. Unlike CleanAndSort it keeps
// several times on the same day.
func CleanCurated(events []Event, now time.Time) []Event {
	out := FilterFuture(events, now)
	slices.SortFunc(out, compareEvents)
	out = slices.CompactFunc(out, func(a, b Event) bool {
		return a.At.Equal(b.At) && a.TicketUrl == b.TicketUrl
	})
	if len(out) > MaxEvents {
		out = out[:MaxEvents]
	}
	return out
}
