// Package topic canonicalizes free-text lesson topics and scores their overlap.
package topic

import (
	"regexp"
	"strings"
	"unicode"

	"alcyxob/intern-platform/internal/slug"
)

// DefaultThreshold is the overlap ratio at which two topics count as the same lesson.
const DefaultThreshold = 0.6

// Presentation suffixes added by curriculum generation. Matched against
// transliterated lowercase text, so Turkish variants appear without diacritics.
var suffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(\s*eksik konu takviyesi\s*\)`),
	regexp.MustCompile(`\(\s*(ai generated|yedek icerik)\s*\)`),
	regexp.MustCompile(`[-:]\s*(part|bolum|day|gun|week|hafta)\s*\d+`),
	regexp.MustCompile(`[-:]\s*(special study|ozel calisma|remedial|review|tekrar)\b`),
	regexp.MustCompile(`^\s*(day|gun)\s*\d+\s*[-:]`),
}

// Display-level variants of the suffixes above, applied to original text.
var displaySuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\(\s*(eksik konu takviyesi|ai generated|yedek içerik|yedek icerik)\s*\)`),
	regexp.MustCompile(`(?i)\s*[-:]\s*(part|bölüm|bolum|day|gün|gun|week|hafta)\s*\d+\s*$`),
	regexp.MustCompile(`(?i)\s*[-:]\s*(special study|özel çalışma|ozel calisma|remedial|review|tekrar)\s*$`),
	regexp.MustCompile(`(?i)^\s*(day|gün|gun)\s*\d+\s*[-:]\s*`),
}

var stopwords = map[string]struct{}{
	// english
	"a": {}, "an": {}, "and": {}, "the": {}, "of": {}, "for": {}, "to": {}, "in": {},
	"on": {}, "with": {}, "at": {}, "by": {}, "or": {}, "basics": {}, "introduction": {},
	// turkish
	"ve": {}, "ile": {}, "icin": {}, "bir": {}, "bu": {}, "de": {}, "da": {},
	"giris": {}, "temel": {},
}

// Normalize produces the exact-match cache key: transliterated, lowercase,
// punctuation replaced by single spaces.
func Normalize(t string) string {
	return strings.Join(tokens(strings.ToLower(slug.Transliterate(t))), " ")
}

// CoreWords strips presentation suffixes and stopwords and returns the
// remaining content-bearing tokens as a set.
func CoreWords(t string) map[string]struct{} {
	s := strings.ToLower(slug.Transliterate(t))
	for _, re := range suffixPatterns {
		s = re.ReplaceAllString(s, " ")
	}
	words := make(map[string]struct{})
	for _, w := range tokens(s) {
		if len(w) < 2 || isNumber(w) {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		words[w] = struct{}{}
	}
	return words
}

// Similar reports whether the core-word overlap of a and b reaches threshold
// in either direction. Topics with no core words never match.
func Similar(a, b string, threshold float64) bool {
	return Overlap(a, b) >= threshold && threshold > 0
}

// Overlap returns max(matches/|A|, matches/|B|) over core words, or 0 when
// either side is empty.
func Overlap(a, b string) float64 {
	wa, wb := CoreWords(a), CoreWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	matches := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			matches++
		}
	}
	ra := float64(matches) / float64(len(wa))
	rb := float64(matches) / float64(len(wb))
	if ra > rb {
		return ra
	}
	return rb
}

// Base strips presentation suffixes but keeps the original casing and
// diacritics, e.g. "Deniz Hukuku - Part 3" -> "Deniz Hukuku".
func Base(t string) string {
	s := strings.TrimSpace(t)
	for {
		prev := s
		for _, re := range displaySuffixPatterns {
			s = strings.TrimSpace(re.ReplaceAllString(s, ""))
		}
		if s == prev {
			break
		}
	}
	if s == "" {
		return strings.TrimSpace(t)
	}
	return s
}

// IsEmphasized reports whether a topic was marked as remedial by the curriculum.
func IsEmphasized(t string) bool {
	s := strings.ToLower(slug.Transliterate(t))
	return strings.Contains(s, "special study") ||
		strings.Contains(s, "remedial") ||
		strings.Contains(s, "ozel calisma") ||
		strings.Contains(s, "eksik konu")
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
