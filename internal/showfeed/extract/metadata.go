package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// namePattern is a capitalized name of up to four words, nobility and
// family particles are allowed between the words.
const namePattern = `(\p{Lu}[\p{L}'’.-]*(?:\s+(?:(?:von|van|de|der|den|du|di|da|zu|le|la)\s+)?\p{Lu}[\p{L}'’.-]*){0,3})`

var (
	directorRegex  = regexp.MustCompile(`(?:^|[^\p{L}])(?:Regie|REGIE|Inszenierung)\s*[:|–-]?\s*` + namePattern)
	authorRegex    = regexp.MustCompile(`(?:^|[^\p{L}])(?:Autor|Autorin|Text|Libretto|Buch)\s*[:|–-]?\s*` + namePattern)
	authorVonRegex = regexp.MustCompile(`(?:^|[^\p{L}])von\s+` + namePattern)
	// photoCreditRegex marks a "von" that credits a picture, not a text.
	photoCreditRegex = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:fotos?|fotografie|bilder?|aufnahmen?)\s*(?:[:©]\s*)?$|©\s*$`)
)

var durationLabel = regexp.MustCompile(`(?i)\bDauer\b`)

// durationPatterns are tried in order, the index decides how the groups are
// read in parseMinutes.
var durationPatterns = []*regexp.Regexp{
	// 2:45 Stunden, 2:45 h
	regexp.MustCompile(`(?i)(\d+):(\d{2})\s*(?:Stunden|Std|h)\b`),
	// 2 h 45 min, 2 Std. 45 Min., 2 Stunden und 45 Minuten
	regexp.MustCompile(`(?i)(\d+)\s*(?:Stunden|Stunde|Std|h)\b\.?\s*(?:und\s+)?(\d+)\s*(?:Minuten|Min|m)\b`),
	// 2 3/4 Stunden
	regexp.MustCompile(`(?i)(\d+)\s+(\d)\s*/\s*(\d)\s*(?:Stunden|Stunde|Std|h)\b`),
	// 2 ¾ Stunden
	regexp.MustCompile(`(?i)(\d+)\s*([¼½¾])\s*(?:Stunden|Stunde|Std|h)\b`),
	// 2,5 Stunden
	regexp.MustCompile(`(?i)(\d+)[,.](\d+)\s*(?:Stunden|Stunde|Std|h)\b`),
	// 3 Stunden
	regexp.MustCompile(`(?i)(?:^|[^\d:])(\d+)\s*(?:Stunden|Stunde|Std|h)\b`),
	// 90 Minuten
	regexp.MustCompile(`(?i)(?:^|[^\d:])(\d+)\s*(?:Minuten|Min)\b`),
}

var (
	noPauseRegex     = regexp.MustCompile(`(?i)\b(?:ohne|keine)\s+Pause`)
	pauseCountRegex  = regexp.MustCompile(`(?i)\b(\d+|eine|einer|einem|zwei|drei)\s+Pausen?\b`)
	singlePauseRegex = regexp.MustCompile(`(?i)\b(?:inkl\.?|inklusive|mit)\s+Pause\b`)
)

// credits are labels of other credits, a name never continues past one.
var credits = map[string]struct{}{
	"Bühne": {}, "Bühnenbild": {}, "Kostüme": {}, "Kostüm": {}, "Ausstattung": {},
	"Musik": {}, "Musikalische": {}, "Leitung": {}, "Dirigent": {}, "Chor": {},
	"Dramaturgie": {}, "Licht": {}, "Video": {}, "Ton": {}, "Sounddesign": {},
	"Choreografie": {}, "Choreographie": {}, "Mit": {}, "Besetzung": {},
	"Regie": {}, "Inszenierung": {}, "Text": {}, "Autor": {}, "Autorin": {}, "Libretto": {},
	"Dauer": {}, "Premiere": {}, "Uraufführung": {}, "Karten": {}, "Tickets": {}, "Termine": {},
}

var countWords = map[string]int{
	"eine": 1, "einer": 1, "einem": 1, "zwei": 2, "drei": 3,
}

func cleanName(raw string) (string, bool) {
	var words []string
	for _, word := range strings.Fields(raw) {
		if _, ok := credits[strings.TrimRight(word, ".:")]; ok {
			break
		}
		words = append(words, word)
	}
	// drop dangling particles left by a cut
	for len(words) > 0 {
		last := words[len(words)-1]
		if last != strings.ToLower(last) {
			break
		}
		words = words[:len(words)-1]
	}
	name := strings.TrimRight(strings.Join(words, " "), ".,;:-–")
	if name == "" {
		return "", false
	}
	return name, true
}

func findName(re *regexp.Regexp, text string) *string {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		name, ok := cleanName(m[1])
		if ok {
			return &name
		}
	}
	return nil
}

// Director finds the name after "Regie" or "Inszenierung".
func Director(text string) *string {
	return findName(directorRegex, text)
}

// findVonName finds the name after "von", skipping photo credits.
func findVonName(text string) *string {
	for _, m := range authorVonRegex.FindAllStringSubmatchIndex(text, -1) {
		von := m[0] + strings.Index(text[m[0]:m[1]], "von")
		if photoCreditRegex.MatchString(text[:von]) {
			continue
		}
		name, ok := cleanName(text[m[2]:m[3]])
		if ok {
			return &name
		}
	}
	return nil
}

// Author finds the name after an explicit label ("Autor", "Text", "Libretto"),
// or after "von" when there is none.
func Author(text string) *string {
	name := findName(authorRegex, text)
	if name != nil {
		return name
	}
	return findVonName(text)
}

func fractionMinutes(num, den int) int {
	if den == 0 {
		return 0
	}
	return num * 60 / den
}

// parseMinutes reads the first duration in text, returning the total minutes
// and where the duration ends.
func parseMinutes(text string) (int, int, bool) {
	for i, re := range durationPatterns {
		m := re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		group := func(n int) string {
			return text[m[2*n]:m[2*n+1]]
		}
		hours, _ := strconv.Atoi(group(1))

		minutes := 0
		switch i {
		case 0:
			extra, _ := strconv.Atoi(group(2))
			if extra >= 60 {
				continue
			}
			minutes = hours*60 + extra
		case 1:
			extra, _ := strconv.Atoi(group(2))
			minutes = hours*60 + extra
		case 2:
			num, _ := strconv.Atoi(group(2))
			den, _ := strconv.Atoi(group(3))
			if num >= den {
				continue
			}
			minutes = hours*60 + fractionMinutes(num, den)
		case 3:
			fractions := map[string]int{"¼": 15, "½": 30, "¾": 45}
			minutes = hours*60 + fractions[group(2)]
		case 4:
			decimal := group(2)
			fraction, _ := strconv.Atoi(decimal)
			den := 1
			for range decimal {
				den *= 10
			}
			minutes = hours*60 + fractionMinutes(fraction, den)
		case 5:
			minutes = hours * 60
		case 6:
			minutes = hours
		}
		if minutes <= 0 {
			continue
		}
		return minutes, m[1], true
	}
	return 0, 0, false
}

func formatMinutes(total int) string {
	h, m := total/60, total%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%d h %d min", h, m)
	case h > 0:
		return fmt.Sprintf("%d h", h)
	default:
		return fmt.Sprintf("%d min", m)
	}
}

func pauseSuffix(text string) string {
	if noPauseRegex.MatchString(text) {
		return ", ohne Pause"
	}
	if m := pauseCountRegex.FindStringSubmatch(text); m != nil {
		count, ok := countWords[strings.ToLower(m[1])]
		if !ok {
			count, _ = strconv.Atoi(m[1])
		}
		switch {
		case count == 1:
			return ", 1 Pause"
		case count > 1:
			return fmt.Sprintf(", %d Pausen", count)
		}
	}
	if singlePauseRegex.MatchString(text) {
		return ", 1 Pause"
	}
	return ""
}

// durationReach is how much text after "Dauer" is read.
const durationReach = 100

// Duration finds the running time after a "Dauer" label and normalizes it,
// for example "ca. 2 ¾ Stunden, eine Pause" becomes "2 h 45 min, 1 Pause".
func Duration(text string) *string {
	for _, loc := range durationLabel.FindAllStringIndex(text, -1) {
		tail := []rune(text[loc[1]:])
		if len(tail) > durationReach {
			tail = tail[:durationReach]
		}
		rest := string(tail)

		minutes, end, ok := parseMinutes(rest)
		if !ok {
			continue
		}
		out := formatMinutes(minutes) + pauseSuffix(rest[end:])
		return &out
	}
	return nil
}

// Metadata is the best-effort information about a production, nil means
// unknown.
type Metadata struct {
	Director *string
	Author   *string
	Duration *string
}

// ExtractMetadata reads labelled fields from page lines. A label and its
// value may sit on consecutive lines, as they do in definition lists.
func ExtractMetadata(lines []string) Metadata {
	var out Metadata
	for i := range lines {
		text := lines[i]
		if i+1 < len(lines) {
			text += " " + lines[i+1]
		}
		if out.Director == nil {
			out.Director = Director(text)
		}
		if out.Duration == nil {
			out.Duration = Duration(text)
		}
	}
	// explicit author labels anywhere beat "von"
	for i := range lines {
		text := lines[i]
		if i+1 < len(lines) {
			text += " " + lines[i+1]
		}
		if name := findName(authorRegex, text); name != nil {
			out.Author = name
			return out
		}
	}
	for _, line := range lines {
		if name := findVonName(line); name != nil {
			out.Author = name
			return out
		}
	}
	return out
}
