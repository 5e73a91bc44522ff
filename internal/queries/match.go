package queries

import "strings"

// Match resolves free text to the first catalog entry whose id, description or
// keyword is contained in the text or contains it, ignoring case. Blank text
// never matches.
func Match(text string) (Entry, bool) {
	q := strings.ToLower(strings.TrimSpace(text))
	if q == "" {
		return Entry{}, false
	}
	for _, e := range catalog {
		if overlaps(q, e.ID) || overlaps(q, e.Description) {
			return e, true
		}
		for _, kw := range e.Keywords {
			if overlaps(q, kw) {
				return e, true
			}
		}
	}
	return Entry{}, false
}

func overlaps(q, s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(q, s) || strings.Contains(s, q)
}
