package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/3d-marketplace/auth-api/internal/pkg/metrics"
)

const defaultLoginWindow = 15 * time.Minute

// LoginRateLimit caps requests per client IP using store. window is the
// store's window length and only shapes the 429 message. A store error
// lets the request through and is logged as a warning.
func LoginRateLimit(store echomiddleware.RateLimiterStore, window time.Duration, log zerolog.Logger) echo.MiddlewareFunc {
	if window <= 0 {
		window = defaultLoginWindow
	}
	deniedMessage := loginRateLimitedMessage(window)

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: failOpenStore{store: store, log: log},
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			metrics.LoginRateLimitedTotal.Inc()
			log.Info().Str("ip", identifier).Msg("login rate limit exceeded")
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": deniedMessage})
		},
	})
}

func loginRateLimitedMessage(window time.Duration) string {
	return "too many login attempts, please try again in " + humanDuration(window)
}

// humanDuration renders d in the largest whole unit, e.g. "15 minutes".
func humanDuration(d time.Duration) string {
	unit := func(n int64, name string) string {
		if n == 1 {
			return "1 " + name
		}
		return fmt.Sprintf("%d %ss", n, name)
	}
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return unit(int64(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return unit(int64(d/time.Minute), "minute")
	case d >= time.Second && d%time.Second == 0:
		return unit(int64(d/time.Second), "second")
	}
	return d.String()
}

type failOpenStore struct {
	store echomiddleware.RateLimiterStore
	log   zerolog.Logger
}

func (s failOpenStore) Allow(identifier string) (bool, error) {
	allowed, err := s.store.Allow(identifier)
	if err != nil {
		s.log.Warn().Err(err).Str("ip", identifier).Msg("rate limit store failed, allowing request")
		return true, nil
	}
	return allowed, nil
}

// MemoryWindowStore is a process-local fixed-window counter. Each
// identifier's window opens on its first hit.
type MemoryWindowStore struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	windows   map[string]*hitWindow
	lastSweep time.Time
	nowF      func() time.Time
}

type hitWindow struct {
	start time.Time
	count int
}

func NewMemoryWindowStore(limit int, window time.Duration) *MemoryWindowStore {
	return &MemoryWindowStore{
		limit:   limit,
		window:  window,
		windows: make(map[string]*hitWindow),
		nowF:    time.Now,
	}
}

// Allow satisfies echo's RateLimiterStore.
func (s *MemoryWindowStore) Allow(identifier string) (bool, error) {
	now := s.nowF()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now)

	w, ok := s.windows[identifier]
	if !ok || now.Sub(w.start) >= s.window {
		w = &hitWindow{start: now}
		s.windows[identifier] = w
	}
	w.count++

	return w.count <= s.limit, nil
}

// sweep drops expired windows at most once per window length.
func (s *MemoryWindowStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.window {
		return
	}
	for id, w := range s.windows {
		if now.Sub(w.start) >= s.window {
			delete(s.windows, id)
		}
	}
	s.lastSweep = now
}
