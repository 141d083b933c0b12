package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	unsafeKeyChars   = regexp.MustCompile(`[<>:"/\\|?*\s\x00-\x1F\x7F]`)
	underscoreRun    = regexp.MustCompile(`_+`)
	maxSegmentRunes  = 100
	emptySegmentName = "untitled"
)

// SanitizePathSegment makes name safe as one component of a file path or object key.
// Truncation counts runes so multi-byte captions never end in a partial character.
func SanitizePathSegment(name string) string {
	s := unsafeKeyChars.ReplaceAllString(name, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_.")

	if utf8.RuneCountInString(s) > maxSegmentRunes {
		s = strings.Trim(string([]rune(s)[:maxSegmentRunes]), "_.")
	}
	if s == "" {
		return emptySegmentName
	}
	return s
}
