package handler

import (
	"context"
	"net/http"
	"time"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type UserService interface {
	GetUsers(actor *entity.User) ([]*contract.UserResponse, apierror.ErrorResponse)
	CreateUser(ctx context.Context, actor *entity.User, req *contract.CreateUserRequest) (*contract.UserResponse, apierror.ErrorResponse)
	Login(req *contract.LoginRequest) (*contract.SessionResponse, apierror.ErrorResponse)
	Me(actor *entity.User) *contract.UserResponse
}

type DefaultUserRoute struct {
	UserService UserService
	// SecureCookies marks the session cookie as HTTPS only.
	SecureCookies bool
}

func NewUserDefault(userService UserService, secureCookies bool) *DefaultUserRoute {
	return &DefaultUserRoute{UserService: userService, SecureCookies: secureCookies}
}

func (u *DefaultUserRoute) GetUsers(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	users, apierr := u.UserService.GetUsers(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"users": users}
	return c.JSON(http.StatusOK, &resp)
}

func (u *DefaultUserRoute) CreateUser(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	newUser, apierr := u.UserService.CreateUser(c.Request().Context(), user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, newUser)
}

func (u *DefaultUserRoute) Login(c echo.Context) error {
	var req contract.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := u.UserService.Login(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	exp, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	if err != nil {
		exp = time.Time{}
	}
	c.SetCookie(u.sessionCookie(resp.Token, exp, 0))
	return c.JSON(http.StatusOK, resp)
}

func (u *DefaultUserRoute) Logout(c echo.Context) error {
	c.SetCookie(u.sessionCookie("", time.Unix(0, 0), -1))
	return c.NoContent(http.StatusNoContent)
}

func (u *DefaultUserRoute) Me(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}
	return c.JSON(http.StatusOK, u.UserService.Me(user))
}

func (u *DefaultUserRoute) sessionCookie(value string, exp time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     utils.SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   u.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
