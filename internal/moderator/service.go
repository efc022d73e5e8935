// Package moderator orchestrates the moderation pipeline: rate-limit gate,
// detection, audit logging, summary caching and escalation.
package moderator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskbridge/chat-moderation/internal/detect"
	"github.com/taskbridge/chat-moderation/internal/escalate"
	"github.com/taskbridge/chat-moderation/internal/metrics"
	"github.com/taskbridge/chat-moderation/internal/violation"
)

// Store is the persistence boundary the service needs: an append-only log
// of blocked attempts plus the counting queries derived from it.
type Store interface {
	Append(ctx context.Context, e *violation.LogEntry) error
	Counts(ctx context.Context, userID string) (violation.Counts, error)
	History(ctx context.Context, userID string, limit int) ([]violation.LogEntry, error)
	ProjectStats(ctx context.Context, projectID string) (violation.ProjectStats, error)
}

// AdminAlert is sent to admin tooling when a user crosses the escalation
// threshold or a single message is high severity.
type AdminAlert struct {
	UserID       string `json:"user_id"`
	ProjectID    string `json:"project_id,omitempty"`
	Total        int    `json:"total_violations"`
	Severity     string `json:"severity"`
	WarningLevel string `json:"warning_level"`
}

// Notifier delivers admin alerts. Delivery is best-effort: a failure is
// logged and never changes the moderation decision.
type Notifier interface {
	NotifyAdmin(ctx context.Context, alert AdminAlert) error
}

// ActionResult is the combined outcome of a send-time moderation call.
type ActionResult struct {
	Allowed        bool
	Result         detect.Result
	Summary        escalate.Summary
	RateLimited    bool
	RetryAfter     time.Duration // advertised restriction duration, set when rate limited
	WarningMessage string
	NotifyAdmin    bool
}

// Service runs the moderation pipeline with injected dependencies.
type Service struct {
	store    Store
	cache    violation.Cache
	detector *detect.Detector
	cfg      escalate.Config
	notifier Notifier // may be nil
	logger   *zap.Logger
}

// NewService creates a moderation service. notifier may be nil when no
// admin alert channel is configured.
func NewService(store Store, cache violation.Cache, cfg escalate.Config, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		detector: detect.New(),
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
	}
}

// ModerateMessage is the primary send-time gate. A rate-limited user is
// rejected before any detection runs; otherwise the enhanced detection
// path decides, and a blocked message is logged, the user's cached summary
// is invalidated and recomputed, and the escalation outputs are attached.
func (s *Service) ModerateMessage(ctx context.Context, req CheckRequest) ActionResult {
	summary := s.userSummary(ctx, req.SenderID)

	if summary.RateLimited {
		metrics.MessagesChecked.WithLabelValues("rate_limited").Inc()
		return ActionResult{
			Allowed: false,
			Result: detect.Result{
				Allowed:   false,
				Severity:  detect.SeverityHigh,
				Message:   escalate.RateLimitMessage,
				Sanitized: req.Content,
			},
			Summary:        summary,
			RateLimited:    true,
			RetryAfter:     s.cfg.Cooldown,
			WarningMessage: escalate.RateLimitMessage,
		}
	}

	start := time.Now()
	res := s.detector.CheckEnhanced(req.Content)
	metrics.DetectionLatency.Observe(time.Since(start).Seconds())

	if res.Allowed {
		metrics.MessagesChecked.WithLabelValues("allowed").Inc()
		return ActionResult{Allowed: true, Result: res, Summary: summary}
	}

	metrics.MessagesChecked.WithLabelValues("blocked").Inc()
	for _, v := range res.Violations {
		metrics.ViolationsDetected.WithLabelValues(string(v.Type)).Inc()
	}

	entry := &violation.LogEntry{
		ID:               uuid.New().String(),
		UserID:           req.SenderID,
		ProjectID:        req.ProjectID,
		ChatID:           req.ChatID,
		Content:          req.Content,
		SanitizedContent: res.Sanitized,
		Types:            distinctTypes(res.Violations),
		Count:            len(res.Violations),
		Severity:         string(res.Severity),
		Action:           violation.ActionBlocked,
		Metadata: map[string]any{
			"evasion":    res.Evasion,
			"violations": res.Violations,
		},
	}
	if err := s.store.Append(ctx, entry); err != nil {
		// The message is still blocked; only the audit trail degrades.
		s.logger.Error("append moderation log failed",
			zap.Error(err), zap.String("user_id", req.SenderID))
	}
	if err := s.cache.Invalidate(ctx, req.SenderID); err != nil {
		s.logger.Warn("summary cache invalidate failed",
			zap.Error(err), zap.String("user_id", req.SenderID))
	}

	refreshed := s.recomputeSummary(ctx, req.SenderID)
	warning := escalate.WarningMessage(refreshed)
	notify := escalate.ShouldNotifyAdmin(refreshed.Counts.Total, res.Severity, s.cfg)
	if notify {
		s.notifyAdmin(ctx, AdminAlert{
			UserID:       req.SenderID,
			ProjectID:    req.ProjectID,
			Total:        refreshed.Counts.Total,
			Severity:     string(res.Severity),
			WarningLevel: string(refreshed.WarningLevel),
		})
	}

	return ActionResult{
		Allowed:        false,
		Result:         res,
		Summary:        refreshed,
		WarningMessage: warning,
		NotifyAdmin:    notify,
	}
}

// QuickCheck runs the base detection pass only: no normalization, no
// logging, no rate-limit interaction. Intended for live typing feedback.
func (s *Service) QuickCheck(content string) detect.Result {
	return s.detector.Check(content)
}

// UserSummary returns the user's current violation summary,
// cache-or-compute with fail-open defaults.
func (s *Service) UserSummary(ctx context.Context, userID string) escalate.Summary {
	return s.userSummary(ctx, userID)
}

// History returns the user's most recent blocked attempts, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]violation.LogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.History(ctx, userID, limit)
}

// ProjectStats returns the admin aggregate view for a project.
func (s *Service) ProjectStats(ctx context.Context, projectID string) (violation.ProjectStats, error) {
	return s.store.ProjectStats(ctx, projectID)
}

// ClearRateLimit is an admin override. It only invalidates the cached
// summary; the underlying log is never altered, so the next read
// recomputes the user's standing from the authoritative counts.
func (s *Service) ClearRateLimit(ctx context.Context, userID string) error {
	return s.cache.Invalidate(ctx, userID)
}

// userSummary reads the cached counts or recomputes them from the store.
// A store failure degrades to a zero-count summary rather than blocking a
// legitimate user on an infrastructure outage; the error is logged for
// operational visibility.
func (s *Service) userSummary(ctx context.Context, userID string) escalate.Summary {
	counts, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("summary cache read failed",
			zap.Error(err), zap.String("user_id", userID))
	}
	if ok {
		metrics.SummaryCache.WithLabelValues("hit").Inc()
		return escalate.Evaluate(userID, counts, s.cfg)
	}
	metrics.SummaryCache.WithLabelValues("miss").Inc()
	return s.recomputeSummary(ctx, userID)
}

// recomputeSummary reads the authoritative counts from the store and
// refreshes the cache.
func (s *Service) recomputeSummary(ctx context.Context, userID string) escalate.Summary {
	counts, err := s.store.Counts(ctx, userID)
	if err != nil {
		s.logger.Error("violation counts query failed, using safe defaults",
			zap.Error(err), zap.String("user_id", userID))
		return escalate.Evaluate(userID, violation.Counts{}, s.cfg)
	}
	if err := s.cache.Set(ctx, userID, counts); err != nil {
		s.logger.Warn("summary cache write failed",
			zap.Error(err), zap.String("user_id", userID))
	}
	return escalate.Evaluate(userID, counts, s.cfg)
}

func (s *Service) notifyAdmin(ctx context.Context, alert AdminAlert) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAdmin(ctx, alert); err != nil {
		s.logger.Warn("admin notification failed",
			zap.Error(err), zap.String("user_id", alert.UserID))
		return
	}
	metrics.AdminAlerts.Inc()
}

// Response converts an action result into the wire verdict for a request.
func (r ActionResult) Response(req CheckRequest) CheckResponse {
	return CheckResponse{
		MessageID:         req.MessageID,
		SenderID:          req.SenderID,
		Allowed:           r.Allowed,
		RateLimited:       r.RateLimited,
		RetryAfterSeconds: int64(r.RetryAfter.Seconds()),
		Severity:          string(r.Result.Severity),
		Message:           r.Result.Message,
		WarningMessage:    r.WarningMessage,
		ViolationTypes:    distinctTypes(r.Result.Violations),
	}
}

func distinctTypes(matches []detect.Match) []string {
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var types []string
	for _, m := range matches {
		t := string(m.Type)
		if seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	return types
}
