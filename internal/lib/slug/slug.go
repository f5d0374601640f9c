// Package slug normalizes arbitrary tag names into URL-safe slugs.
package slug

import "strings"

// Make lowercases the name, collapses runs of whitespace into single
// hyphens and strips everything that is not a letter, digit or hyphen.
// "  Bridal  Mehndi " and "bridal mehndi" map to the same slug.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	prevHyphen := true // swallow leading separators
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '\t' || r == '\n' || r == '-' || r == '_':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
