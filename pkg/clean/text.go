package clean

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	markupTag = regexp.MustCompile(`<.*?>`)
	// Unicode whitespace, including separators the ASCII \s class misses
	whitespaceRun = regexp.MustCompile(`[\s\x{0B}\x{1C}-\x{1F}\x{85}\p{Z}]+`)
	// After whitespace collapsing only ' ' is left as whitespace
	disallowedRune = regexp.MustCompile(`[^\p{L}\p{N}_ .,!?]`)
	lower          = cases.Lower(language.Und)
)

// NormalizeText strips markup tags, collapses whitespace, drops characters
// other than letters, digits, underscore, space and ".,!?", then trims and lowercases.
func NormalizeText(s string) string {
	s = markupTag.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = disallowedRune.ReplaceAllString(s, "")
	return lower.String(strings.TrimSpace(s))
}

// Rejection reasons reported by TextFilter
const (
	ReasonTooShort   = "too_short"
	ReasonBadKeyword = "bad_keyword"
)

// TextFilter rejects normalized captions that are too short or promotional
type TextFilter struct {
	minRunes    int
	badKeywords []string
}

// NewTextFilter creates a TextFilter. Keywords are matched after lowercasing.
func NewTextFilter(minRunes int, badKeywords []string) *TextFilter {
	kws := make([]string, 0, len(badKeywords))
	for _, kw := range badKeywords {
		if kw = lower.String(strings.TrimSpace(kw)); kw != "" {
			kws = append(kws, kw)
		}
	}
	return &TextFilter{minRunes: minRunes, badKeywords: kws}
}

// Reject returns a reason when text must not be kept
func (f *TextFilter) Reject(text string) (string, bool) {
	if utf8.RuneCountInString(text) < f.minRunes {
		return ReasonTooShort, true
	}
	for _, kw := range f.badKeywords {
		if strings.Contains(text, kw) {
			return ReasonBadKeyword, true
		}
	}
	return "", false
}
