package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestMemoryWindowStore_FixedWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	s := NewMemoryWindowStore(5, 15*time.Minute)
	s.nowF = clock.Now

	for i := 1; i <= 5; i++ {
		if ok, _ := s.Allow("10.0.0.1"); !ok {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if ok, _ := s.Allow("10.0.0.1"); ok {
		t.Fatalf("6th request should be denied")
	}
	if ok, _ := s.Allow("10.0.0.2"); !ok {
		t.Fatalf("other clients have their own window")
	}

	clock.now = clock.now.Add(14 * time.Minute)
	if ok, _ := s.Allow("10.0.0.1"); ok {
		t.Fatalf("window still open, should be denied")
	}

	clock.now = clock.now.Add(time.Minute)
	if ok, _ := s.Allow("10.0.0.1"); !ok {
		t.Fatalf("new window should allow")
	}
}

func TestMemoryWindowStore_SweepsExpiredWindows(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	s := NewMemoryWindowStore(1, time.Minute)
	s.nowF = clock.Now

	_, _ = s.Allow("a")
	_, _ = s.Allow("b")
	clock.now = clock.now.Add(2 * time.Minute)
	_, _ = s.Allow("c")

	if len(s.windows) != 1 {
		t.Fatalf("expected expired windows to be swept, have %d", len(s.windows))
	}
}

type erroringStore struct{}

func (erroringStore) Allow(string) (bool, error) { return false, errors.New("redis down") }

func serveLogin(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoginRateLimit_DeniesAfterLimit(t *testing.T) {
	e := echo.New()
	e.POST("/api/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, LoginRateLimit(NewMemoryWindowStore(2, time.Minute), time.Minute, zerolog.Nop()))

	for i := 0; i < 2; i++ {
		if rec := serveLogin(e); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := serveLogin(e)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["error"] != "too many login attempts, please try again in 1 minute" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestLoginRateLimit_FailsOpenOnStoreError(t *testing.T) {
	e := echo.New()
	e.POST("/api/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, LoginRateLimit(erroringStore{}, 0, zerolog.Nop()))

	for i := 0; i < 3; i++ {
		if rec := serveLogin(e); rec.Code != http.StatusOK {
			t.Fatalf("expected fail-open 200, got %d", rec.Code)
		}
	}
}

func TestLoginRateLimitedMessage_FollowsWindow(t *testing.T) {
	tests := []struct {
		window time.Duration
		want   string
	}{
		{window: 15 * time.Minute, want: "too many login attempts, please try again in 15 minutes"},
		{window: time.Hour, want: "too many login attempts, please try again in 1 hour"},
		{window: 2 * time.Hour, want: "too many login attempts, please try again in 2 hours"},
		{window: 90 * time.Second, want: "too many login attempts, please try again in 90 seconds"},
		{window: 1500 * time.Millisecond, want: "too many login attempts, please try again in 1.5s"},
	}
	for _, tt := range tests {
		t.Run(tt.window.String(), func(t *testing.T) {
			if got := loginRateLimitedMessage(tt.window); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
