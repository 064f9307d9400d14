package handler

import (
	"fmt"
	"net/http"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/infrastructure/report"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type ReportService interface {
	GetAuditReport(actor *entity.User, auditID int64) (*report.AuditReport, apierror.ErrorResponse)
}

type DefaultReportRoute struct {
	ReportService ReportService
}

func NewReportRoute(reportService ReportService) *DefaultReportRoute {
	return &DefaultReportRoute{ReportService: reportService}
}

func (r *DefaultReportRoute) GetAuditReport(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := pathID(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	rep, apierr := r.ReportService.GetAuditReport(user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	f, err := report.Build(rep)
	if err != nil {
		config.LogError(config.GetLogger(), "handler", "GetAuditReport", "building workbook", id, err)
		return c.JSON(apierror.ReportGenerationError.Code(), apierror.ReportGenerationError)
	}
	defer f.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, report.ContentType)
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.FileName(rep.Audit)))
	res.WriteHeader(http.StatusOK)
	return f.Write(res)
}
