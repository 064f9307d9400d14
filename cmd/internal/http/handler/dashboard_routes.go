package handler

import (
	"net/http"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type DashboardService interface {
	GetStats(actor *entity.User) (*contract.DashboardStatsResponse, apierror.ErrorResponse)
}

type DefaultDashboardRoute struct {
	DashboardService DashboardService
}

func NewDashboardRoute(dashboardService DashboardService) *DefaultDashboardRoute {
	return &DefaultDashboardRoute{DashboardService: dashboardService}
}

func (d *DefaultDashboardRoute) GetStats(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	stats, apierr := d.DashboardService.GetStats(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, stats)
}
