package handler

import (
	"context"
	"net/http"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type ChecklistService interface {
	GetItems(actor *entity.User, norm, clause string) ([]*contract.ChecklistItemResponse, apierror.ErrorResponse)
	GetTrinorma(actor *entity.User) (*contract.TrinormaResponse, apierror.ErrorResponse)
	CreateItem(actor *entity.User, req *contract.CreateChecklistItemRequest) (*contract.ChecklistItemResponse, apierror.ErrorResponse)
	Seed(ctx context.Context, actor *entity.User) (*contract.SeedResponse, apierror.ErrorResponse)
	GetDemoConfig() (*contract.DemoConfigResponse, apierror.ErrorResponse)
}

type DefaultChecklistRoute struct {
	ChecklistService ChecklistService
}

func NewChecklistRoute(checklistService ChecklistService) *DefaultChecklistRoute {
	return &DefaultChecklistRoute{ChecklistService: checklistService}
}

func (r *DefaultChecklistRoute) GetItems(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	items, apierr := r.ChecklistService.GetItems(user, queryEnum(c, "norm"), c.QueryParam("clause"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"items": items}
	return c.JSON(http.StatusOK, &resp)
}

func (r *DefaultChecklistRoute) GetTrinorma(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	resp, apierr := r.ChecklistService.GetTrinorma(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (r *DefaultChecklistRoute) CreateItem(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateChecklistItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	item, apierr := r.ChecklistService.CreateItem(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, item)
}

// Seed runs behind the optional auth middleware: anonymous callers are only
// accepted while the database has no users.
func (r *DefaultChecklistRoute) Seed(c echo.Context) error {
	resp, apierr := r.ChecklistService.Seed(c.Request().Context(), utils.OptionalUserFromContext(c))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (r *DefaultChecklistRoute) GetDemoConfig(c echo.Context) error {
	resp, apierr := r.ChecklistService.GetDemoConfig()
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}
