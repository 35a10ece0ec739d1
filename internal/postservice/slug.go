package postservice

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify derives a URL-safe slug from a title. Accents are folded to ASCII, other non-ASCII characters and
// punctuation are dropped, runs of spaces and hyphens become one hyphen, and the result is lowercased.
func Slugify(title string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range norm.NFKD.String(title) {
		switch {
		case r >= unicode.MaxASCII:
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-':
			pendingHyphen = true
		}
	}

	slug := b.String()
	if len(slug) > 200 {
		slug = slug[:200]
	}

	return strings.Trim(slug, "-_")
}
