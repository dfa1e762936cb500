package extract

import (
	"strings"
	"time"
)

// germanMonths maps lowercase month names and their common abbreviations
// (with umlauts spelled either way) to the month.
var germanMonths = map[string]time.Month{
	"januar":    time.January,
	"jänner":    time.January,
	"jan":       time.January,
	"februar":   time.February,
	"feb":       time.February,
	"märz":      time.March,
	"maerz":     time.March,
	"mär":       time.March,
	"mrz":       time.March,
	"april":     time.April,
	"apr":       time.April,
	"mai":       time.May,
	"juni":      time.June,
	"jun":       time.June,
	"juli":      time.July,
	"jul":       time.July,
	"august":    time.August,
	"aug":       time.August,
	"september": time.September,
	"sept":      time.September,
	"sep":       time.September,
	"oktober":   time.October,
	"okt":       time.October,
	"november":  time.November,
	"nov":       time.November,
	"dezember":  time.December,
	"dez":       time.December,
}

// monthPattern is a regex alternation of every key in germanMonths, longest
// names first so that "Juni" is not read as "Jun".
const monthPattern = `januar|jänner|februar|märz|maerz|april|mai|juni|juli|august|september|oktober|november|dezember|sept|jan|feb|mär|mrz|apr|jun|jul|aug|sep|okt|nov|dez`

func lookupMonth(name string) (time.Month, bool) {
	month, ok := germanMonths[strings.TrimSuffix(strings.ToLower(name), ".")]
	return month, ok
}
