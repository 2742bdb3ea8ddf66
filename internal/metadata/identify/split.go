package identify

import "strings"

// separators are applied in order, per §4.7's multi-artist handling.
var separators = []string{",", "&", " feat ", " feat.", " featuring ", " with "}

// Split breaks a free-form credit string into individual artist
// fragments: every separator is applied in sequence, each fragment is
// trimmed before the next separator is tried against it (so a
// fragment like "feat. Other" is what the next separator sees, not
// the untrimmed original), and empty or "feat."-prefixed
// (case-insensitive) fragments are dropped at the end.
func Split(name string) []string {
	parts := []string{name}
	for _, sep := range separators {
		var next []string
		for _, p := range parts {
			if strings.TrimSpace(p) == "" {
				continue
			}
			if strings.Contains(p, sep) {
				for _, sub := range strings.Split(p, sep) {
					if trimmed := strings.TrimSpace(sub); trimmed != "" {
						next = append(next, trimmed)
					}
				}
			} else {
				next = append(next, p)
			}
		}
		parts = next
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(p), "feat.") {
			continue
		}
		out = append(out, p)
	}
	return out
}
