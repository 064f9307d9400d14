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

type AnalysisService interface {
	RunAnalysis(ctx context.Context, actor *entity.User, req *contract.AnalyzeRequest) (*contract.AnalysisRunResponse, apierror.ErrorResponse)
	TestAnalysis(ctx context.Context, actor *entity.User, req *contract.TestAnalysisRequest) (*contract.TestAnalysisResponse, apierror.ErrorResponse)
	GetAnalysis(actor *entity.User, auditID int64) (*contract.AnalysisResponse, apierror.ErrorResponse)
}

type DefaultAnalysisRoute struct {
	AnalysisService AnalysisService
}

func NewAnalysisRoute(analysisService AnalysisService) *DefaultAnalysisRoute {
	return &DefaultAnalysisRoute{AnalysisService: analysisService}
}

func (a *DefaultAnalysisRoute) RunAnalysis(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := a.AnalysisService.RunAnalysis(c.Request().Context(), user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *DefaultAnalysisRoute) TestAnalysis(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.TestAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := a.AnalysisService.TestAnalysis(c.Request().Context(), user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *DefaultAnalysisRoute) GetAnalysis(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	auditID, apierr := pathID(c, "auditId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp, apierr := a.AnalysisService.GetAnalysis(user, auditID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}
