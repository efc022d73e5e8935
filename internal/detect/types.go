// Package detect applies the pattern catalog to chat messages. It is pure,
// synchronous text processing: no I/O, no shared mutable state, safe for
// any number of concurrent calls.
package detect

import "github.com/taskbridge/chat-moderation/internal/pattern"

// Severity classifies how serious a single message's violations are,
// derived from the violation count.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Match is one detected span of personal contact information. Position and
// EndPosition are byte offsets into the scanned text.
type Match struct {
	Type        pattern.Type `json:"type"`
	Matched     string       `json:"matched"`
	Position    int          `json:"position"`
	EndPosition int          `json:"end_position"`
	Pattern     string       `json:"pattern,omitempty"` // sub-pattern name, e.g. "whatsapp"
}

// Result is the outcome of a single detection pass over one message.
type Result struct {
	Allowed    bool     `json:"allowed"`
	Violations []Match  `json:"violations,omitempty"`
	Severity   Severity `json:"severity,omitempty"`
	Message    string   `json:"message,omitempty"`
	// Sanitized is the scanned text with each violating span replaced by a
	// redaction marker. It is stored for audit review, never echoed back to
	// the sender as a corrected message.
	Sanitized string `json:"sanitized"`
	// Evasion is set when the message shows obfuscation indicators
	// (spaced digits, look-alike characters) regardless of whether a
	// concrete category rule matched.
	Evasion bool `json:"evasion,omitempty"`
}
