// Package sanitize cleans text received from external systems before it is
// stored or echoed back in reports.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// MaxNameLength bounds stored display names, in runes.
const MaxNameLength = 120

// StripHTML removes HTML tags, decoding common entities in between.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Name strips markup and control characters from a contact name, collapses
// whitespace and truncates it to MaxNameLength runes.
func Name(s string) string {
	s = StripHTML(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	if utf8.RuneCountInString(s) > MaxNameLength {
		runes := []rune(s)
		s = strings.TrimSpace(string(runes[:MaxNameLength]))
	}
	return s
}

// NamePtr is Name for optional values; blank results become nil.
func NamePtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Name(*s)
	if result == "" {
		return nil
	}
	return &result
}
