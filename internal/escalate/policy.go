// Package escalate decides what happens to a user with a violation
// history: whether they are temporarily rate limited, which warning tier
// they sit in, and when an administrator should be alerted. Every decision
// is a pure function of the user's violation counts and the policy config,
// so the state machine is derived rather than stored and can never be
// downgraded by a lost write.
package escalate

import (
	"time"

	"github.com/taskbridge/chat-moderation/internal/detect"
	"github.com/taskbridge/chat-moderation/internal/violation"
)

// Config holds the tunable rate-limit and escalation policy.
type Config struct {
	MaxPerHour          int           // violations in the trailing hour before limiting
	MaxPerDay           int           // violations in the trailing day before limiting
	Cooldown            time.Duration // how long a restriction is advertised to last
	EscalationThreshold int           // total violations that proactively alert an admin
}

// DefaultConfig returns the standard policy.
func DefaultConfig() Config {
	return Config{
		MaxPerHour:          5,
		MaxPerDay:           15,
		Cooldown:            30 * time.Minute,
		EscalationThreshold: 10,
	}
}

// WarningLevel is the escalating classification of a user's cumulative
// violation history. Transitions are monotonic: counts never decrease, so
// a user can only move forward through the tiers.
type WarningLevel string

const (
	WarningNone   WarningLevel = "none"
	WarningFirst  WarningLevel = "first"
	WarningSecond WarningLevel = "second"
	WarningFinal  WarningLevel = "final"
)

// Warning level thresholds on the all-time violation count.
const (
	firstThreshold  = 3
	secondThreshold = 6
	finalThreshold  = 10
)

// WarningLevelFor maps an all-time violation total to a warning level.
func WarningLevelFor(total int) WarningLevel {
	switch {
	case total >= finalThreshold:
		return WarningFinal
	case total >= secondThreshold:
		return WarningSecond
	case total >= firstThreshold:
		return WarningFirst
	default:
		return WarningNone
	}
}

// RateLimited reports whether the rolling-window counts exceed the policy.
func RateLimited(c violation.Counts, cfg Config) bool {
	return c.LastHour >= cfg.MaxPerHour || c.LastDay >= cfg.MaxPerDay
}

// Summary is the derived, time-bounded view of one user's violation
// history. RateLimited and WarningLevel are computed, never stored.
type Summary struct {
	UserID       string           `json:"user_id"`
	Counts       violation.Counts `json:"counts"`
	RateLimited  bool             `json:"is_rate_limited"`
	WarningLevel WarningLevel     `json:"warning_level"`
}

// Evaluate computes a user's summary from raw counts and the policy.
func Evaluate(userID string, c violation.Counts, cfg Config) Summary {
	return Summary{
		UserID:       userID,
		Counts:       c,
		RateLimited:  RateLimited(c, cfg),
		WarningLevel: WarningLevelFor(c.Total),
	}
}

// RateLimitMessage is shown to a user whose sending is restricted.
const RateLimitMessage = "You are temporarily restricted from sending messages due to repeated sharing of personal information. Please try again later."

var warningMessages = map[WarningLevel]string{
	WarningNone:   "",
	WarningFirst:  "Reminder: sharing personal contact information is not allowed on this platform.",
	WarningSecond: "Second warning: repeated sharing of personal information may lead to temporary messaging restrictions.",
	WarningFinal:  "Final warning: any further violations will restrict your ability to send messages.",
}

// WarningMessage selects the user-facing escalation message. A rate-limited
// user always gets the restriction message regardless of warning level.
func WarningMessage(s Summary) string {
	if s.RateLimited {
		return RateLimitMessage
	}
	return warningMessages[s.WarningLevel]
}

// ShouldNotifyAdmin reports whether an administrator must be alerted:
// either the user's total has reached the escalation threshold, or the
// current message alone was high severity. Independent of rate limiting.
func ShouldNotifyAdmin(total int, severity detect.Severity, cfg Config) bool {
	return total >= cfg.EscalationThreshold || severity == detect.SeverityHigh
}
