package moderator

// CheckRequest is published to moderation.check by chat frontends when a
// message needs a send-time moderation decision.
type CheckRequest struct {
	MessageID string `json:"message_id"`
	SenderID  string `json:"sender_id"`
	ProjectID string `json:"project_id,omitempty"`
	ChatID    string `json:"chat_id,omitempty"`
	Content   string `json:"content"`
	Ts        int64  `json:"ts"`
}

// CheckResponse is published back on moderation.result.<sender_id> with the
// decision. SanitizedContent and the full violation list stay server-side
// in the audit log; the sender only sees the category-level message.
type CheckResponse struct {
	MessageID   string `json:"message_id"`
	SenderID    string `json:"sender_id"`
	Allowed     bool   `json:"allowed"`
	RateLimited bool   `json:"rate_limited"`
	// RetryAfterSeconds advertises how long a rate-limited sender should
	// wait before retrying. Zero when not rate limited.
	RetryAfterSeconds int64    `json:"retry_after_seconds,omitempty"`
	Severity          string   `json:"severity,omitempty"`
	Message           string   `json:"message,omitempty"`
	WarningMessage    string   `json:"warning_message,omitempty"`
	ViolationTypes    []string `json:"violation_types,omitempty"`
}
