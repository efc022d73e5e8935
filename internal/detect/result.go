package detect

import (
	"strings"

	"github.com/taskbridge/chat-moderation/internal/pattern"
)

// hiddenInfoMessage is returned when evasion indicators are present but no
// category rule produced a concrete match.
const hiddenInfoMessage = "Your message appears to contain hidden personal information. Please keep all communication within the app."

// BuildResult aggregates a deduplicated, position-sorted match list into a
// moderation outcome. An evasion flag with zero matches still blocks the
// message at medium severity.
func BuildResult(content string, matches []Match, evasion bool) Result {
	if len(matches) == 0 {
		if evasion {
			return Result{
				Allowed:   false,
				Severity:  SeverityMedium,
				Message:   hiddenInfoMessage,
				Sanitized: content,
				Evasion:   true,
			}
		}
		return Result{Allowed: true, Sanitized: content}
	}

	return Result{
		Allowed:    false,
		Violations: matches,
		Severity:   severityFor(len(matches)),
		Message:    buildMessage(matches),
		Sanitized:  Sanitize(content, matches),
		Evasion:    evasion,
	}
}

// severityFor maps a violation count to a severity: 1 is low, 2-3 medium,
// 4 or more high.
func severityFor(count int) Severity {
	switch {
	case count >= 4:
		return SeverityHigh
	case count >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// buildMessage names the distinct violation categories, in order of first
// appearance, in a single user-facing sentence.
func buildMessage(matches []Match) string {
	seen := make(map[pattern.Type]bool, len(matches))
	var parts []string
	for _, m := range matches {
		if seen[m.Type] {
			continue
		}
		seen[m.Type] = true
		parts = append(parts, pattern.Phrase(m.Type))
	}

	return "Your message appears to contain " + joinNatural(parts) +
		". Sharing contact details is not allowed; please keep all communication within the app."
}

// joinNatural joins phrases as "a", "a and b" or "a, b and c".
func joinNatural(parts []string) string {
	switch len(parts) {
	case 0:
		return "personal information"
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
