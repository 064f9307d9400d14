package middleware

import (
	"net/http"

	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type SessionResolver interface {
	ResolveSession(data *utils.TokenData) (*entity.User, apierror.ErrorResponse)
}

type TokenParser interface {
	ParseTokenDataCtx(ctx echo.Context) (*utils.TokenData, error)
}

type AuthMiddlewareConfig struct {
	Tokens   TokenParser
	Sessions SessionResolver
}

// NewAuthMiddleware creates the handler with dependencies injected
func NewAuthMiddleware(cfg *AuthMiddlewareConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, apierr := authenticate(cfg, c)
			if apierr != nil {
				return c.JSON(apierr.Code(), apierr)
			}

			c.Set(utils.ContextUserKey, user)
			return next(c)
		}
	}
}

// NewOptionalAuthMiddleware sets the user when a valid session is present and
// lets anonymous requests through. Presenting a broken session still fails.
func NewOptionalAuthMiddleware(cfg *AuthMiddlewareConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !hasCredentials(c) {
				return next(c)
			}

			user, apierr := authenticate(cfg, c)
			if apierr != nil {
				return c.JSON(apierr.Code(), apierr)
			}

			c.Set(utils.ContextUserKey, user)
			return next(c)
		}
	}
}

// NewPageAuthMiddleware guards the server rendered pages, sending visitors
// without a usable session to the login page.
func NewPageAuthMiddleware(cfg *AuthMiddlewareConfig, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, apierr := authenticate(cfg, c)
			if apierr != nil {
				if apierr.Code() == http.StatusInternalServerError {
					return c.JSON(apierr.Code(), apierr)
				}
				return c.Redirect(http.StatusSeeOther, loginPath)
			}

			c.Set(utils.ContextUserKey, user)
			return next(c)
		}
	}
}

func authenticate(cfg *AuthMiddlewareConfig, c echo.Context) (*entity.User, apierror.ErrorResponse) {
	tokenData, err := cfg.Tokens.ParseTokenDataCtx(c)
	if err != nil {
		return nil, apierror.InvalidAuthTokenError
	}
	return cfg.Sessions.ResolveSession(tokenData)
}

func hasCredentials(c echo.Context) bool {
	if c.Request().Header.Get(echo.HeaderAuthorization) != "" {
		return true
	}
	_, err := c.Cookie(utils.SessionCookieName)
	return err == nil
}
