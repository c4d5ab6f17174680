package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases s, strips diacritics and joins the remaining
// alphanumeric runs with hyphens.
func Slugify(parts ...string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.Join(parts, " "))
	if err != nil {
		folded = strings.Join(parts, " ")
	}
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// SlugWithSuffix appends a short suffix, used when the plain slug is taken.
func SlugWithSuffix(slug, suffix string) string {
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
