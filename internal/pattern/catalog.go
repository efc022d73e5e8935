// Package pattern holds the declarative rule catalog used to detect
// personal contact information in chat messages. The catalog is pure data:
// scanning, deduplication and scoring live in the detect package, so rules
// can be tuned or extended without touching detection logic.
package pattern

import "regexp"

// Type identifies a violation category.
type Type string

const (
	TypePhone        Type = "phone"
	TypeEmail        Type = "email"
	TypeSocialMedia  Type = "social_media"
	TypeMessagingApp Type = "messaging_app"
	TypeLink         Type = "link"
	TypeAddress      Type = "address"
)

// Rule is a single match rule within a category. Name identifies the
// sub-pattern (e.g. which messaging app matched) and may be empty.
type Rule struct {
	Name string
	Expr *regexp.Regexp
}

// CategoryRules groups the ordered rules for one violation category.
// Order does not imply precedence: every rule in every category is
// evaluated on each call. MinMatchLen discards trivially short matches
// (a lone digit, a stray "st") that would otherwise flood the results.
type CategoryRules struct {
	Type        Type
	MinMatchLen int
	Rules       []Rule
}

// Catalog lists every detection rule, keyed by category. Rules are
// intentionally permissive: for a safety filter the cost of a false
// positive (an over-blocked message) is far lower than the cost of a
// false negative (leaked contact details).
var Catalog = []CategoryRules{
	{
		Type:        TypePhone,
		MinMatchLen: 7,
		Rules: []Rule{
			{Name: "contiguous", Expr: regexp.MustCompile(`\+?\d{10,13}`)},
			{Name: "separated", Expr: regexp.MustCompile(`\+?\d{2,4}[-.\s]\d{3,5}[-.\s]\d{3,6}`)},
			{Name: "spaced_digits", Expr: regexp.MustCompile(`\d(?:[\s\-.]\d){6,}`)},
		},
	},
	{
		Type:        TypeEmail,
		MinMatchLen: 6,
		Rules: []Rule{
			{Name: "standard", Expr: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
			{Name: "obfuscated_at", Expr: regexp.MustCompile(`(?i)[A-Za-z0-9._%+\-]+\s*(?:\(at\)|\[at\])\s*[A-Za-z0-9\-]+\s*(?:\(dot\)|\[dot\]|\.)\s*[A-Za-z]{2,4}\b`)},
			{Name: "spelled_out", Expr: regexp.MustCompile(`(?i)[A-Za-z0-9._%+\-]+\s+at\s+[A-Za-z0-9\-]+\s+dot\s+[A-Za-z]{2,4}\b`)},
		},
	},
	{
		Type:        TypeSocialMedia,
		MinMatchLen: 4,
		Rules: []Rule{
			{Name: "handle", Expr: regexp.MustCompile(`@[A-Za-z][A-Za-z0-9_.]{2,29}`)},
			{Name: "platform", Expr: regexp.MustCompile(`(?i)\b(?:insta(?:gram)?|ig|fb|facebook|twitter|snap(?:chat)?|tiktok)\b[\s:.\-]{0,3}@?[A-Za-z0-9_.]{3,}`)},
		},
	},
	{
		Type:        TypeMessagingApp,
		MinMatchLen: 5,
		Rules: []Rule{
			{Name: "whatsapp", Expr: regexp.MustCompile(`(?i)\bwhats\s?app\b|\bwa\.me/\S+`)},
			{Name: "telegram", Expr: regexp.MustCompile(`(?i)\btelegram\b|\bt\.me/\S+`)},
			{Name: "discord", Expr: regexp.MustCompile(`(?i)\bdiscord\b(?:\.gg/\S+|\.com/invite/\S+)?`)},
			{Name: "signal", Expr: regexp.MustCompile(`(?i)\bsignal\b(?:\s?(?:app|messenger))?`)},
			{Name: "messenger", Expr: regexp.MustCompile(`(?i)\bmessenger\b|\bm\.me/\S+`)},
			{Name: "linkedin", Expr: regexp.MustCompile(`(?i)\blinked\s?in\b|\blinkedin\.com/\S+`)},
		},
	},
	{
		Type:        TypeLink,
		MinMatchLen: 4,
		Rules: []Rule{
			{Name: "url", Expr: regexp.MustCompile(`(?i)https?://\S+`)},
			{Name: "www", Expr: regexp.MustCompile(`(?i)\bwww\.\S+`)},
			{Name: "short_url", Expr: regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|goo\.gl|t\.co|is\.gd|cutt\.ly|rb\.gy|rebrand\.ly)/\S+`)},
			{Name: "doc_tool", Expr: regexp.MustCompile(`(?i)\b(?:docs|drive|meet)\.google\.com/\S+|\bforms\.gle/\S+|\bzoom\.us/\S+|\bcalendly\.com/\S+|\bnotion\.so/\S+`)},
			// The trailing "/" requirement keeps version strings ("v2.0")
			// and decimals ("3.14") from matching as bare domains.
			{Name: "bare_domain", Expr: regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9\-]*\.(?:com|net|org|io|co|in|me|app|xyz|link|site|online)/\S*`)},
		},
	},
	{
		Type:        TypeAddress,
		MinMatchLen: 4,
		Rules: []Rule{
			{Name: "postal_code", Expr: regexp.MustCompile(`\b\d{6}\b`)},
			{Name: "street", Expr: regexp.MustCompile(`(?i)\b\d{1,5}[\s,]+[a-z0-9.\s]{0,40}?\b(?:street|st|road|rd|avenue|ave|lane|ln|block|sector|nagar|colony|apartment|apt|flat|floor|cross|main)\b`)},
			{Name: "explicit", Expr: regexp.MustCompile(`(?i)\bmy\s+(?:home\s+|office\s+)?address\s+is\b[^.!?\n]{0,80}`)},
			{Name: "proximity", Expr: regexp.MustCompile(`(?i)\b(?:near|opposite|opp\.|behind|next\s+to)\s+(?:the\s+)?[a-z][a-z0-9\s]{2,40}`)},
		},
	},
}

// phrases maps each category to the human wording used in user-facing
// rejection messages.
var phrases = map[Type]string{
	TypePhone:        "phone numbers",
	TypeEmail:        "email addresses",
	TypeSocialMedia:  "social media handles",
	TypeMessagingApp: "messaging app references",
	TypeLink:         "external links",
	TypeAddress:      "physical addresses",
}

// Phrase returns the human-readable phrase for a violation category.
// Unknown categories fall back to a generic phrase.
func Phrase(t Type) string {
	if p, ok := phrases[t]; ok {
		return p
	}
	return "personal information"
}
