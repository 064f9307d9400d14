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

type NCService interface {
	CreateNC(ctx context.Context, actor *entity.User, req *contract.CreateNCRequest) (*contract.NCResponse, apierror.ErrorResponse)
	GetNCs(actor *entity.User, req *contract.NCFilterRequest) ([]*contract.NCResponse, apierror.ErrorResponse)
	GetNCByID(actor *entity.User, id int64) (*contract.NCResponse, apierror.ErrorResponse)
	GetStats(actor *entity.User, companyID *int64) (*contract.NCStatsResponse, apierror.ErrorResponse)
	AddCAPA(ctx context.Context, actor *entity.User, ncID int64, req *contract.CreateCAPARequest) (*contract.CAPAResponse, apierror.ErrorResponse)
	UpdateCAPA(ctx context.Context, actor *entity.User, capaID int64, req *contract.UpdateCAPARequest) (*contract.CAPAResponse, apierror.ErrorResponse)
	CloseNC(ctx context.Context, actor *entity.User, id int64) (*contract.NCResponse, apierror.ErrorResponse)
}

type DefaultNCRoute struct {
	NCService NCService
}

func NewNCRoute(ncService NCService) *DefaultNCRoute {
	return &DefaultNCRoute{NCService: ncService}
}

func (n *DefaultNCRoute) GetNCs(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	auditID, apierr := queryID(c, "auditId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	companyID, apierr := queryID(c, "companyId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	ncs, apierr := n.NCService.GetNCs(user, &contract.NCFilterRequest{
		AuditID:   auditID,
		CompanyID: companyID,
		Severity:  queryEnum(c, "severity"),
		Status:    queryEnum(c, "status"),
	})
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"nonconformities": ncs}
	return c.JSON(http.StatusOK, &resp)
}

func (n *DefaultNCRoute) GetNC(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	nc, apierr := n.NCService.GetNCByID(user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, nc)
}

func (n *DefaultNCRoute) GetStats(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	companyID, apierr := queryID(c, "companyId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	stats, apierr := n.NCService.GetStats(user, companyID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, stats)
}

func (n *DefaultNCRoute) CreateNC(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateNCRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	nc, apierr := n.NCService.CreateNC(c.Request().Context(), user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, nc)
}

func (n *DefaultNCRoute) AddCAPA(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req contract.CreateCAPARequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	capa, apierr := n.NCService.AddCAPA(c.Request().Context(), user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, capa)
}

func (n *DefaultNCRoute) UpdateCAPA(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req contract.UpdateCAPARequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	capa, apierr := n.NCService.UpdateCAPA(c.Request().Context(), user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, capa)
}

func (n *DefaultNCRoute) CloseNC(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	nc, apierr := n.NCService.CloseNC(c.Request().Context(), user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, nc)
}
