package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func preflight(mw echo.MiddlewareFunc, origin string) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(mw)
	e.GET("/api/audits", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/audits", nil)
	req.Header.Set(echo.HeaderOrigin, origin)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCORS_ConfiguredOrigins(t *testing.T) {
	mw := NewCORSMiddleware([]string{"https://hseq.andes.cl"})

	rec := preflight(mw, "https://hseq.andes.cl")
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "https://hseq.andes.cl" {
		t.Errorf("allowed origin = %q", got)
	}
	if rec.Header().Get(echo.HeaderAccessControlAllowCredentials) != "true" {
		t.Error("configured origin should receive credentials")
	}

	rec = preflight(mw, "https://evil.example")
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Errorf("unknown origin was allowed: %q", got)
	}
	if rec.Header().Get(echo.HeaderAccessControlAllowCredentials) != "" {
		t.Error("unknown origin must not receive credentials")
	}
}

func TestCORS_NoOriginsMeansNoCredentials(t *testing.T) {
	rec := preflight(NewCORSMiddleware(nil), "https://evil.example")

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "*" {
		t.Errorf("allowed origin = %q, want *", got)
	}
	if rec.Header().Get(echo.HeaderAccessControlAllowCredentials) != "" {
		t.Error("wildcard CORS must not allow credentials")
	}
}
