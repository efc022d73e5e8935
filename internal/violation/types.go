// Package violation provides persistence for moderation log entries and
// the short-lived cache of per-user violation aggregates. The log is
// append-only: entries are written once when a message is blocked and kept
// indefinitely for audit and admin review.
package violation

import "time"

// Actions recorded on a log entry, matching the CHECK constraint on the
// moderation_logs table.
const (
	ActionBlocked = "blocked"
	ActionWarned  = "warned"
	ActionFlagged = "flagged"
)

// LogEntry is one persisted record of a blocked message attempt.
type LogEntry struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id"`
	ProjectID        string         `json:"project_id,omitempty"`
	ChatID           string         `json:"chat_id,omitempty"`
	Content          string         `json:"content"`
	SanitizedContent string         `json:"sanitized_content"`
	Types            []string       `json:"violation_types"`
	Count            int            `json:"violation_count"`
	Severity         string         `json:"severity"`
	Action           string         `json:"action"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Counts are the raw per-user aggregates the escalation policy is derived
// from. They are always recomputable from the log; the cached copy only
// bounds query load.
type Counts struct {
	Total           int        `json:"total"`
	LastHour        int        `json:"last_hour"`
	LastDay         int        `json:"last_day"`
	LastViolationAt *time.Time `json:"last_violation_at,omitempty"`
}

// ProjectStats aggregates violations across one project for admin views.
type ProjectStats struct {
	TotalViolations  int            `json:"total_violations"`
	UniqueUsers      int            `json:"unique_users"`
	ViolationsByType map[string]int `json:"violations_by_type"`
	RecentViolations []LogEntry     `json:"recent_violations"`
}
