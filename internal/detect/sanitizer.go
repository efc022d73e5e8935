package detect

import "strings"

// Sanitize returns a copy of content with every matched span replaced by a
// "[<TYPE> REDACTED]" marker. Replacement is keyed on the exact matched
// text rather than offset splicing; matches are already deduplicated, and
// the rare case of one literal substring needing two different redactions
// is an accepted limitation.
func Sanitize(content string, matches []Match) string {
	if content == "" {
		return ""
	}

	out := content
	replaced := make(map[string]bool, len(matches))
	for _, m := range matches {
		if m.Matched == "" || replaced[m.Matched] {
			continue
		}
		replaced[m.Matched] = true
		out = strings.ReplaceAll(out, m.Matched, marker(m))
	}
	return out
}

func marker(m Match) string {
	return "[" + strings.ToUpper(string(m.Type)) + " REDACTED]"
}
