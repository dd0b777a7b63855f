package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newTestServer(t *testing.T, token string) (*echo.Echo, *Store) {
	t.Helper()
	s := setupTestStore(t)
	e := echo.New()
	NewHandler(s, token).RegisterRoutes(e)
	return e, s
}

func TestStatsRequiresToken(t *testing.T) {
	e, _ := newTestServer(t, "secret")

	tests := []struct {
		name string
		auth string
		want int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"basic scheme", "Basic secret", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/analytics/stats", nil)
			if tt.auth != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestStatsDisabledWithoutToken(t *testing.T) {
	e, _ := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/stats", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer ")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestStatsResponse(t *testing.T) {
	e, s := newTestServer(t, "secret")
	if err := s.RecordView(context.Background(), PageView{Path: "/", UserAgent: firefoxUA, IP: "203.0.113.9", Timestamp: time.Now()}); err != nil {
		t.Fatalf("RecordView: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/stats?period=today", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer secret")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Period != "today" {
		t.Errorf("Period = %q, want %q", body.Period, "today")
	}
	if body.Stats == nil || body.Stats.TotalViews != 1 {
		t.Errorf("Stats = %+v, want 1 view", body.Stats)
	}
}

func TestStatsLimitsFailedAuth(t *testing.T) {
	e, _ := newTestServer(t, "secret")
	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/analytics/stats", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer wrong")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after 11 failures = %d, want %d", last, http.StatusTooManyRequests)
	}
}

func TestAuthGuard(t *testing.T) {
	g := newAuthGuard(3, time.Minute)
	for i := 0; i < 3; i++ {
		if g.blocked("198.51.100.1") {
			t.Fatalf("blocked after %d failures, want 3 allowed", i)
		}
		g.fail("198.51.100.1")
	}
	if !g.blocked("198.51.100.1") {
		t.Error("not blocked after 3 failures")
	}
	if g.blocked("198.51.100.2") {
		t.Error("another IP is blocked")
	}
}
