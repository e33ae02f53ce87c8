package content

import "strings"

// Slugify converts a title to a URL-safe slug: lowercase, each run of
// characters outside [a-z0-9] collapsed to one '-', no leading or trailing '-'.
// U+0130 lowercases to "i" plus a combining dot, so "İstanbul" gives "i-stanbul".
func Slugify(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "\u0130", "i\u0307"))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	out := b.String()
	out = strings.TrimPrefix(out, "-")
	return strings.TrimSuffix(out, "-")
}
