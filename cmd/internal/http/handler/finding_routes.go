package handler

import (
	"context"
	"mime/multipart"
	"net/http"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type FindingService interface {
	CreateFinding(actor *entity.User, req *contract.CreateFindingRequest) (*contract.FindingResponse, apierror.ErrorResponse)
	BulkCreateFindings(actor *entity.User, req *contract.BulkFindingsRequest) (*contract.BulkFindingsResponse, apierror.ErrorResponse)
	GetFindings(actor *entity.User, req *contract.FindingFilterRequest) ([]*contract.FindingResponse, apierror.ErrorResponse)
	UpdateFinding(actor *entity.User, id int64, req *contract.UpdateFindingRequest) (*contract.FindingResponse, apierror.ErrorResponse)
	DeleteFinding(actor *entity.User, id int64) apierror.ErrorResponse
	GetSummary(actor *entity.User, auditID int64) (*contract.FindingSummaryResponse, apierror.ErrorResponse)
	AttachEvidence(ctx context.Context, actor *entity.User, id int64, fileHeader *multipart.FileHeader) (*contract.FindingResponse, apierror.ErrorResponse)
}

type DefaultFindingRoute struct {
	FindingService FindingService
}

func NewFindingRoute(findingService FindingService) *DefaultFindingRoute {
	return &DefaultFindingRoute{FindingService: findingService}
}

func (f *DefaultFindingRoute) GetFindings(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	auditID, apierr := queryID(c, "auditId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	compliant, apierr := queryBool(c, "compliant")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	findings, apierr := f.FindingService.GetFindings(user, &contract.FindingFilterRequest{
		AuditID:   auditID,
		Compliant: compliant,
	})
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"findings": findings}
	return c.JSON(http.StatusOK, &resp)
}

func (f *DefaultFindingRoute) CreateFinding(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateFindingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	finding, apierr := f.FindingService.CreateFinding(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, finding)
}

func (f *DefaultFindingRoute) BulkCreateFindings(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.BulkFindingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := f.FindingService.BulkCreateFindings(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (f *DefaultFindingRoute) GetSummary(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	auditID, apierr := pathID(c, "auditId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	summary, apierr := f.FindingService.GetSummary(user, auditID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, summary)
}

func (f *DefaultFindingRoute) UpdateFinding(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req contract.UpdateFindingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	finding, apierr := f.FindingService.UpdateFinding(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, finding)
}

func (f *DefaultFindingRoute) DeleteFinding(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	if apierr := f.FindingService.DeleteFinding(user, id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (f *DefaultFindingRoute) AttachEvidence(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MissingEvidenceError)
	}

	finding, apierr := f.FindingService.AttachEvidence(c.Request().Context(), user, id, fileHeader)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, finding)
}
