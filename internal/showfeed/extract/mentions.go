package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"stagedates/pkg/htmlutil"

	"github.com/antzucaro/matchr"
)

const (
	// fuzzyThreshold is the Jaro-Winkler similarity above which a word is
	// taken as a misspelling of a title word.
	fuzzyThreshold = 0.95
	// fuzzyMinLength keeps short words ("der", "la") out of fuzzy matching.
	fuzzyMinLength = 5

	linesBefore = 2
	linesAfter  = 4
)

// Mentions decides whether a piece of text talks about a production.
type Mentions struct {
	aliases []string
	words   []string
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NewMentions creates a Mentions from the production's title and aliases.
func NewMentions(aliases ...string) Mentions {
	m := Mentions{}
	seenWords := map[string]struct{}{}
	for _, alias := range aliases {
		alias = strings.ToLower(htmlutil.CollapseWhitespace(alias))
		if alias == "" {
			continue
		}
		m.aliases = append(m.aliases, alias)
		for _, word := range splitWords(alias) {
			if utf8.RuneCountInString(word) < fuzzyMinLength {
				continue
			}
			if _, ok := seenWords[word]; ok {
				continue
			}
			seenWords[word] = struct{}{}
			m.words = append(m.words, word)
		}
	}
	return m
}

// In reports whether line contains an alias or a word close enough to a long
// alias word.
func (m Mentions) In(line string) bool {
	lower := strings.ToLower(htmlutil.CollapseWhitespace(line))
	for _, alias := range m.aliases {
		if strings.Contains(lower, alias) {
			return true
		}
	}
	for _, word := range splitWords(lower) {
		if utf8.RuneCountInString(word) < fuzzyMinLength-1 {
			continue
		}
		for _, target := range m.words {
			if matchr.JaroWinkler(word, target, false) >= fuzzyThreshold {
				return true
			}
		}
	}
	return false
}

// Windows returns, for every line that mentions the production, the text of
// the 2 lines before it through the 4 lines after it.
func (m Mentions) Windows(lines []string) []string {
	var out []string
	for i, line := range lines {
		if !m.In(line) {
			continue
		}
		start := max(0, i-linesBefore)
		end := min(len(lines), i+linesAfter+1)
		out = append(out, htmlutil.CollapseWhitespace(strings.Join(lines[start:end], " ")))
	}
	return out
}
