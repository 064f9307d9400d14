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

type AuditService interface {
	CreateAudit(ctx context.Context, actor *entity.User, req *contract.CreateAuditRequest) (*contract.AuditResponse, apierror.ErrorResponse)
	GetAudits(actor *entity.User, req *contract.AuditFilterRequest) (*contract.PageResponse[*contract.AuditResponse], apierror.ErrorResponse)
	GetAuditByID(actor *entity.User, id int64) (*contract.AuditResponse, apierror.ErrorResponse)
	UpdateAudit(actor *entity.User, id int64, req *contract.UpdateAuditRequest) (*contract.AuditResponse, apierror.ErrorResponse)
	CompleteAudit(actor *entity.User, id int64, req *contract.CompleteAuditRequest) (*contract.AuditResponse, apierror.ErrorResponse)
	DeleteAudit(actor *entity.User, id int64) apierror.ErrorResponse
}

type DefaultAuditRoute struct {
	AuditService AuditService
}

func NewAuditRoute(auditService AuditService) *DefaultAuditRoute {
	return &DefaultAuditRoute{AuditService: auditService}
}

func (a *DefaultAuditRoute) GetAudits(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	companyID, apierr := queryID(c, "companyId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	page, pageSize, apierr := pagination(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	filter := &contract.AuditFilterRequest{
		CompanyID: companyID,
		Status:    queryEnum(c, "status"),
		Norm:      queryEnum(c, "norm"),
		Page:      page,
		PageSize:  pageSize,
	}

	audits, apierr := a.AuditService.GetAudits(user, filter)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, audits)
}

func (a *DefaultAuditRoute) GetAudit(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	audit, apierr := a.AuditService.GetAuditByID(user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, audit)
}

func (a *DefaultAuditRoute) CreateAudit(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateAuditRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	audit, apierr := a.AuditService.CreateAudit(c.Request().Context(), user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, audit)
}

func (a *DefaultAuditRoute) UpdateAudit(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req contract.UpdateAuditRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	audit, apierr := a.AuditService.UpdateAudit(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, audit)
}

func (a *DefaultAuditRoute) CompleteAudit(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	// The body is optional, the signature may be omitted.
	var req contract.CompleteAuditRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
		}
	}

	audit, apierr := a.AuditService.CompleteAudit(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, audit)
}

func (a *DefaultAuditRoute) DeleteAudit(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	if apierr := a.AuditService.DeleteAudit(user, id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}
