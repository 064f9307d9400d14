package handler

import (
	"context"
	"net/http"
	"time"

	"hseqaudit/cmd/internal/contract"

	"github.com/labstack/echo/v4"
)

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

type DefaultHealthRoute struct {
	Database Pinger
	// Redis is nil when the in-process coordination is used.
	Redis Pinger
}

func NewHealthRoute(database, redis Pinger) *DefaultHealthRoute {
	return &DefaultHealthRoute{Database: database, Redis: redis}
}

// Health is also the Docker Compose healthcheck.
func (h *DefaultHealthRoute) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := contract.HealthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK

	if err := h.Database.Ping(ctx); err != nil {
		resp.Status, resp.Database = "degraded", "unreachable"
		status = http.StatusServiceUnavailable
	}

	if h.Redis != nil {
		resp.Redis = "ok"
		if err := h.Redis.Ping(ctx); err != nil {
			resp.Status, resp.Redis = "degraded", "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	return c.JSON(status, resp)
}
