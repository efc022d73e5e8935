package detect

import (
	"regexp"
	"strings"
)

// zeroWidthRunes are invisible characters commonly injected to split
// detectable tokens without changing what the reader sees.
var zeroWidthRunes = map[rune]bool{
	'\u200B': true, // ZERO WIDTH SPACE
	'\u200C': true, // ZERO WIDTH NON-JOINER
	'\u200D': true, // ZERO WIDTH JOINER
	'\uFEFF': true, // ZERO WIDTH NO-BREAK SPACE (BOM)
	'\u2060': true, // WORD JOINER
	'\u180E': true, // MONGOLIAN VOWEL SEPARATOR
	'\u200E': true, // LEFT-TO-RIGHT MARK
	'\u200F': true, // RIGHT-TO-LEFT MARK
}

// cyrillicLookalikes maps the handful of Cyrillic letters that are visually
// identical to Latin ones onto their Latin equivalents. The table is a
// best-effort heuristic, not a complete homoglyph inventory.
var cyrillicLookalikes = map[rune]rune{
	'а': 'a', 'А': 'A',
	'е': 'e', 'Е': 'E',
	'о': 'o', 'О': 'O',
	'р': 'p', 'Р': 'P',
	'с': 'c', 'С': 'C',
	'у': 'y', 'У': 'Y',
	'х': 'x', 'Х': 'X',
}

// Normalize rewrites content so that trivially obfuscated contact details
// become visible to the rule catalog: zero-width characters are stripped,
// Cyrillic look-alikes are mapped to Latin, and whitespace runs collapse to
// a single space.
func Normalize(content string) string {
	if content == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(content))
	for _, r := range content {
		if zeroWidthRunes[r] {
			continue
		}
		if lat, ok := cyrillicLookalikes[r]; ok {
			b.WriteRune(lat)
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var (
	// spacedDigitsPattern flags five or more digits separated one by one
	// ("9 8 7 6 5"), a common way to sneak a phone number past a
	// contiguous-digit rule.
	spacedDigitsPattern = regexp.MustCompile(`(?:\d[\s.\-]+){4,}\d`)

	// lookalikeEmailPattern flags an email shape whose @ has been replaced
	// by a Cyrillic а. Deliberately narrow: it covers the one substitution
	// trick actually seen in the wild here, nothing more.
	lookalikeEmailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+а[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// DetectEvasionAttempt reports whether content carries obfuscation
// indicators, without modifying the text. It is independent of Detect: a
// flagged message is blocked even when the normalized scan finds nothing
// concrete, because ambiguous obfuscation is treated as a violation.
func DetectEvasionAttempt(content string) bool {
	if content == "" {
		return false
	}
	return hasSpacedDigits(content) || hasLookalikeRunes(content) || hasLookalikeEmail(content)
}

func hasSpacedDigits(content string) bool {
	return spacedDigitsPattern.MatchString(content)
}

func hasLookalikeRunes(content string) bool {
	for _, r := range content {
		if zeroWidthRunes[r] {
			return true
		}
		if _, ok := cyrillicLookalikes[r]; ok {
			return true
		}
	}
	return false
}

func hasLookalikeEmail(content string) bool {
	return lookalikeEmailPattern.MatchString(content)
}
