package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type fakeTokens struct{}

func (fakeTokens) ParseTokenDataCtx(c echo.Context) (*utils.TokenData, error) {
	switch c.Request().Header.Get(echo.HeaderAuthorization) {
	case "Bearer good":
		return &utils.TokenData{UserID: 1}, nil
	case "Bearer inactive":
		return &utils.TokenData{UserID: 2}, nil
	case "Bearer broken-db":
		return &utils.TokenData{UserID: 3}, nil
	}
	return nil, errors.New("invalid token")
}

type fakeSessions struct{}

func (fakeSessions) ResolveSession(data *utils.TokenData) (*entity.User, apierror.ErrorResponse) {
	switch data.UserID {
	case 1:
		return &entity.User{Name: "Auditor", Role: entity.RoleAuditor, Active: true}, nil
	case 2:
		return nil, apierror.InactiveUserError
	}
	return nil, apierror.InternalServerError
}

var cfg = &AuthMiddlewareConfig{Tokens: fakeTokens{}, Sessions: fakeSessions{}}

func run(mw echo.MiddlewareFunc, authorization string, cookie bool) (*httptest.ResponseRecorder, *entity.User) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	if cookie {
		req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: "stale"})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *entity.User
	handler := mw(func(c echo.Context) error {
		seen = utils.OptionalUserFromContext(c)
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, seen
}

func TestAuthMiddleware(t *testing.T) {
	mw := NewAuthMiddleware(cfg)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid session", "Bearer good", http.StatusOK},
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"inactive user", "Bearer inactive", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, user := run(mw, tt.header, false)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if (tt.status == http.StatusOK) != (user != nil) {
				t.Errorf("user in context = %v", user)
			}
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	mw := NewOptionalAuthMiddleware(cfg)

	rec, user := run(mw, "", false)
	if rec.Code != http.StatusOK || user != nil {
		t.Errorf("anonymous: status %d user %v", rec.Code, user)
	}

	rec, user = run(mw, "Bearer good", false)
	if rec.Code != http.StatusOK || user == nil {
		t.Errorf("authenticated: status %d user %v", rec.Code, user)
	}

	rec, _ = run(mw, "", true)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("stale cookie: status %d, want 401", rec.Code)
	}
}

func TestPageAuthMiddleware(t *testing.T) {
	mw := NewPageAuthMiddleware(cfg, "/login")

	rec, _ := run(mw, "", false)
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/login" {
		t.Errorf("anonymous page: status %d location %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}

	rec, user := run(mw, "Bearer good", false)
	if rec.Code != http.StatusOK || user == nil {
		t.Errorf("signed in page: status %d", rec.Code)
	}

	rec, _ = run(mw, "Bearer broken-db", false)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("server failure: status %d, want 500", rec.Code)
	}
}
