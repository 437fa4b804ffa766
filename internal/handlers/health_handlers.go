package handlers

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db        Pinger
	cache     Pinger
	storage   Pinger
	version   string
	startedAt time.Time
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(db, cache, storage Pinger, version string) *HealthHandlers {
	return &HealthHandlers{
		db:        db,
		cache:     cache,
		storage:   storage,
		version:   version,
		startedAt: time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version"`
}

type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// LivenessCheck determines if the application is running (basic liveness probe)
//
// @Summary Liveness
// @Tags Health
// @Produce json
// @Success 200 {object} HealthStatus
// @Router /health [get]
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, &HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startedAt).Truncate(time.Second).String(),
		Version:   h.version,
	})
}

// ReadinessCheck reports ready when postgres and redis answer.
//
// @Summary Readiness
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health/ready [get]
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if h.check(ctx, h.db).Status != "healthy" || h.check(ctx, h.cache).Status != "healthy" {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Critical services unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

// DetailedHealthCheck provides detailed health information
//
// @Summary Dependency health
// @Tags Health
// @Produce json
// @Success 200 {object} HealthStatus
// @Router /health/detailed [get]
func (h *HealthHandlers) DetailedHealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startedAt).Truncate(time.Second).String(),
		Version:   h.version,
		Checks: map[string]CheckResult{
			"database": h.check(ctx, h.db),
			"redis":    h.check(ctx, h.cache),
			"storage":  h.check(ctx, h.storage),
		},
	}
	for _, result := range health.Checks {
		if result.Status == "unhealthy" {
			health.Status = "degraded"
		}
	}
	c.Response().Header().Set("X-Goroutines", strconv.Itoa(runtime.NumGoroutine()))
	return c.JSON(http.StatusOK, health)
}

func (h *HealthHandlers) check(ctx context.Context, p Pinger) CheckResult {
	if p == nil {
		return CheckResult{Status: "disabled"}
	}
	start := time.Now()
	err := p.Ping(ctx)
	result := CheckResult{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		result.Status = "unhealthy"
		result.Message = err.Error()
	}
	return result
}
