// Package slug derives URL-safe identifiers from display text.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that carry no combining mark under NFD and need an explicit mapping.
var letterReplacer = strings.NewReplacer(
	"ı", "i",
	"ß", "ss",
	"æ", "ae", "Æ", "ae",
	"ø", "o", "Ø", "o",
	"œ", "oe", "Œ", "oe",
	"đ", "d", "Đ", "d",
	"ł", "l", "Ł", "l",
	"þ", "th", "Þ", "th",
)

// Transliterate strips diacritics and maps the remaining non-ASCII letters to
// their closest ASCII form. Case is preserved.
func Transliterate(s string) string {
	// transform chains keep state, so build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return letterReplacer.Replace(out)
}

// Make returns a lowercase, hyphen-separated token containing only [a-z0-9-].
// Empty or symbol-only input yields "".
func Make(text string) string {
	text = strings.ToLower(Transliterate(strings.TrimSpace(text)))

	var b strings.Builder
	b.Grow(len(text))
	pendingHyphen := false
	for _, r := range text {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingHyphen = true
		default:
			// other punctuation is dropped without splitting words
		}
	}
	return b.String()
}

// ExistsFunc reports whether a candidate slug is already taken in the caller's scope.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Unique resolves collisions by appending -1, -2, ... to base until exists
// reports the candidate free. An empty base falls back to fallback.
func Unique(ctx context.Context, base, fallback string, exists ExistsFunc) (string, error) {
	if base == "" {
		base = fallback
	}
	candidate := base
	for n := 1; ; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// UniqueIn is Unique against an in-memory set, used for per-plan day slugs.
// The chosen slug is added to taken.
func UniqueIn(base, fallback string, taken map[string]struct{}) string {
	s, _ := Unique(context.Background(), base, fallback, func(_ context.Context, c string) (bool, error) {
		_, ok := taken[c]
		return ok, nil
	})
	taken[s] = struct{}{}
	return s
}
