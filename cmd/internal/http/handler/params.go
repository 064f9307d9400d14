package handler

import (
	"strconv"
	"strings"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

func pathID(c echo.Context, name string) (int64, apierror.ErrorResponse) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.NewInvalidParamTypeError(name, "int")
	}
	return id, nil
}

// queryID reads an optional id filter; an absent or empty value yields nil.
func queryID(c echo.Context, name string) (*int64, apierror.ErrorResponse) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apierror.NewInvalidParamTypeError(name, "int")
	}
	return &id, nil
}

func queryBool(c echo.Context, name string) (*bool, apierror.ErrorResponse) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apierror.NewInvalidParamTypeError(name, "bool")
	}
	return &v, nil
}

func queryEnum(c echo.Context, name string) string {
	return strings.ToUpper(strings.TrimSpace(c.QueryParam(name)))
}

func pagination(c echo.Context) (int, int, apierror.ErrorResponse) {
	page, err := queryInt(c, "page", 1)
	if err != nil || page < 1 {
		return 0, 0, apierror.MalformedPaginationErr
	}

	size, err := queryInt(c, "pageSize", contract.DefaultPageSize)
	if err != nil || size < 1 {
		return 0, 0, apierror.MalformedPaginationErr
	}
	return page, min(size, contract.MaxPageSize), nil
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
