package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/taskbridge/chat-moderation/internal/escalate"
	"github.com/taskbridge/chat-moderation/internal/violation"
)

type fakeService struct {
	summary      escalate.Summary
	history      []violation.LogEntry
	historyErr   error
	stats        violation.ProjectStats
	statsErr     error
	clearErr     error
	clearedUsers []string
	historyLimit int
}

func (f *fakeService) UserSummary(_ context.Context, userID string) escalate.Summary {
	s := f.summary
	s.UserID = userID
	return s
}

func (f *fakeService) History(_ context.Context, _ string, limit int) ([]violation.LogEntry, error) {
	f.historyLimit = limit
	return f.history, f.historyErr
}

func (f *fakeService) ProjectStats(_ context.Context, _ string) (violation.ProjectStats, error) {
	return f.stats, f.statsErr
}

func (f *fakeService) ClearRateLimit(_ context.Context, userID string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.clearedUsers = append(f.clearedUsers, userID)
	return nil
}

func newTestHandler(svc *fakeService) http.Handler {
	return NewHandler(svc, zap.NewNop()).Routes()
}

func TestUserSummary(t *testing.T) {
	svc := &fakeService{summary: escalate.Summary{
		Counts:       violation.Counts{Total: 12, LastHour: 6, LastDay: 9},
		RateLimited:  true,
		WarningLevel: escalate.WarningFinal,
	}}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/u42/summary", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var got escalate.Summary
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserID != "u42" {
		t.Errorf("UserID = %q, want u42 from the path", got.UserID)
	}
	if !got.RateLimited || got.WarningLevel != escalate.WarningFinal {
		t.Errorf("summary = %+v, want rate limited at final warning", got)
	}
	if got.Counts.Total != 12 {
		t.Errorf("Counts.Total = %d, want 12", got.Counts.Total)
	}
}

func TestUserHistory(t *testing.T) {
	svc := &fakeService{history: []violation.LogEntry{
		{ID: "e1", UserID: "u1", Severity: "low", Action: violation.ActionBlocked},
		{ID: "e2", UserID: "u1", Severity: "high", Action: violation.ActionBlocked},
	}}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/u1/history?limit=25", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.historyLimit != 25 {
		t.Errorf("limit passed through = %d, want 25", svc.historyLimit)
	}

	var got []violation.LogEntry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e1" {
		t.Errorf("entries = %+v, want the two seeded entries", got)
	}
}

func TestUserHistory_EmptyIsJSONArray(t *testing.T) {
	h := newTestHandler(&fakeService{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/u1/history", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want an empty JSON array", body)
	}
}

func TestUserHistory_InvalidLimit(t *testing.T) {
	h := newTestHandler(&fakeService{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/u1/history?limit=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUserHistory_StoreError(t *testing.T) {
	h := newTestHandler(&fakeService{historyErr: errors.New("db down")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/u1/history", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestProjectStats(t *testing.T) {
	svc := &fakeService{stats: violation.ProjectStats{
		TotalViolations:  4,
		UniqueUsers:      2,
		ViolationsByType: map[string]int{"phone": 3, "email": 1},
	}}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/p1/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got violation.ProjectStats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalViolations != 4 || got.UniqueUsers != 2 {
		t.Errorf("stats = %+v, want totals 4/2", got)
	}
	if got.ViolationsByType["phone"] != 3 {
		t.Errorf("ViolationsByType = %v, want phone:3", got.ViolationsByType)
	}
}

func TestClearRateLimit(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users/u9/rate-limit/clear", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(svc.clearedUsers) != 1 || svc.clearedUsers[0] != "u9" {
		t.Errorf("cleared users = %v, want [u9]", svc.clearedUsers)
	}

	var got map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["status"] != "cleared" || got["user_id"] != "u9" {
		t.Errorf("body = %v, want status=cleared user_id=u9", got)
	}
}

func TestClearRateLimit_RequiresPost(t *testing.T) {
	h := newTestHandler(&fakeService{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/u9/rate-limit/clear", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newTestHandler(&fakeService{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
