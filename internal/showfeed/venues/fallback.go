package venues

import (
	"time"

	"stagedates/internal/showfeed/schedule"
)

// FallbackTable holds the hand-maintained dates of each production, keyed by
// slug. They are used when no source yields a single future date.
type FallbackTable map[string][]schedule.Event

type fallbackEntry struct {
	date   string
	ticket string
}

var fallbackData = map[string][]fallbackEntry{
	"la-traviata": {
		{"2025-08-26 19:30", traviataUrl},
		{"2025-08-27 19:30", traviataUrl},
		{"2025-08-28 19:30", traviataUrl},
		{"2025-08-29 19:30", traviataUrl},
		{"2025-08-30 19:30", traviataUrl},
		{"2025-08-31 14:30", traviataUrl},
		{"2025-08-31 19:30", traviataUrl},
		{"2025-09-02 19:30", traviataUrl},
		{"2025-09-03 19:30", traviataUrl},
		{"2025-09-04 19:30", traviataUrl},
		{"2025-09-05 19:30", traviataUrl},
		{"2025-09-06 19:30", traviataUrl},
		{"2025-09-07 19:30", traviataUrl},
		{"2025-09-09 19:30", traviataUrl},
		{"2025-09-10 19:30", traviataUrl},
	},
	"der-komet": {
		{"2025-09-20 19:30", kometUrl},
		{"2025-10-02 19:30", kometUrl},
	},
}

// StaticFallbacks builds the fallback table with times in the venue's
// location.
func StaticFallbacks(loc *time.Location) FallbackTable {
	table := FallbackTable{}
	for slug, entries := range fallbackData {
		events := make([]schedule.Event, 0, len(entries))
		for _, entry := range entries {
			at, err := time.ParseInLocation(schedule.DateLayout, entry.date, loc)
			if err != nil {
				panic(err)
			}
			events = append(events, schedule.Event{At: at, TicketUrl: entry.ticket})
		}
		table[slug] = events
	}
	return table
}
