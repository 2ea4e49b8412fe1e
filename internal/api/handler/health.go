package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/3d-marketplace/auth-api/internal/core/ports"
)

const readinessTimeout = 3 * time.Second

// HealthHandler handles GET /api/health, the liveness probe.
type HealthHandler struct {
	nowF func() time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{nowF: time.Now}
}

// Liveness confirms the process is serving.
//
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Router       /api/health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "OK",
		Message:   "3D Marketplace API is running",
		Timestamp: h.nowF().UTC(),
	})
}

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StorePinger checks the document store by reading it.
type StorePinger struct {
	Store ports.DocumentStore
}

func (p StorePinger) Ping(ctx context.Context) error {
	_, err := p.Store.Read(ctx)
	return err
}

// ReadinessHandler handles GET /api/health/ready.
type ReadinessHandler struct {
	deps map[string]Pinger
	log  zerolog.Logger
}

// NewReadinessHandler checks every entry of deps, keyed by the name reported
// in the response. Check failures are logged, never returned to the caller.
func NewReadinessHandler(deps map[string]Pinger, log zerolog.Logger) *ReadinessHandler {
	return &ReadinessHandler{deps: deps, log: log}
}

type dependencyStatus struct {
	Status string `json:"status"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness reports 503 when any dependency fails its check.
//
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /api/health/ready [get]
func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]dependencyStatus, len(names))
	healthy := true
	for _, name := range names {
		if err := h.deps[name].Ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			deps[name] = dependencyStatus{Status: "unhealthy"}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
