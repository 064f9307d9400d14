package web

import (
	"net/http"
	"strings"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type DashboardService interface {
	GetStats(actor *entity.User) (*contract.DashboardStatsResponse, apierror.ErrorResponse)
}

type AuditService interface {
	GetAudits(actor *entity.User, req *contract.AuditFilterRequest) (*contract.PageResponse[*contract.AuditResponse], apierror.ErrorResponse)
}

type NCService interface {
	GetNCs(actor *entity.User, req *contract.NCFilterRequest) ([]*contract.NCResponse, apierror.ErrorResponse)
	GetStats(actor *entity.User, companyID *int64) (*contract.NCStatsResponse, apierror.ErrorResponse)
}

type SettingsService interface {
	GetDemoConfig() (*contract.DemoConfigResponse, apierror.ErrorResponse)
}

type Pages struct {
	DashboardSvc DashboardService
	AuditSvc     AuditService
	NCSvc        NCService
	SettingsSvc  SettingsService
}

type pageData struct {
	Title  string
	Active string
	User   *entity.User
	Data   any
}

const reportListSize = 50

func (p *Pages) Login(c echo.Context) error {
	return c.Render(http.StatusOK, "login", &pageData{Title: "Ingresar"})
}

func (p *Pages) Dashboard(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	stats, apierr := p.DashboardSvc.GetStats(user)
	if apierr != nil {
		return renderError(c, user, apierr)
	}
	return c.Render(http.StatusOK, "dashboard", &pageData{Title: "Panel", Active: "dashboard", User: user, Data: stats})
}

func (p *Pages) AuditList(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	audits, apierr := p.AuditSvc.GetAudits(user, &contract.AuditFilterRequest{Page: 1, PageSize: contract.MaxPageSize})
	if apierr != nil {
		return renderError(c, user, apierr)
	}
	return c.Render(http.StatusOK, "audits", &pageData{Title: "Auditorías", Active: "audits", User: user, Data: audits})
}

// NewAudit serves the wizard. The page itself talks to the API.
func (p *Pages) NewAudit(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	return c.Render(http.StatusOK, "audit_new", &pageData{Title: "Nueva auditoría", Active: "audits", User: user})
}

func (p *Pages) NonConformities(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	filter := &contract.NCFilterRequest{
		Severity: strings.ToUpper(c.QueryParam("severity")),
		Status:   strings.ToUpper(c.QueryParam("status")),
	}
	ncs, apierr := p.NCSvc.GetNCs(user, filter)
	if apierr != nil {
		return renderError(c, user, apierr)
	}

	stats, apierr := p.NCSvc.GetStats(user, nil)
	if apierr != nil {
		return renderError(c, user, apierr)
	}

	data := struct {
		Items  []*contract.NCResponse
		Stats  *contract.NCStatsResponse
		Filter *contract.NCFilterRequest
	}{ncs, stats, filter}
	return c.Render(http.StatusOK, "nonconformities", &pageData{Title: "No conformidades", Active: "nonconformities", User: user, Data: data})
}

func (p *Pages) Reports(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	audits, apierr := p.AuditSvc.GetAudits(user, &contract.AuditFilterRequest{Page: 1, PageSize: reportListSize})
	if apierr != nil {
		return renderError(c, user, apierr)
	}

	data := struct {
		Audits    []*contract.AuditResponse
		CanExport bool
	}{audits.Items, user.Permissions().HasEffective(entity.PermissionExportReports)}
	return c.Render(http.StatusOK, "reports", &pageData{Title: "Informes", Active: "reports", User: user, Data: data})
}

func (p *Pages) Settings(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	demo, apierr := p.SettingsSvc.GetDemoConfig()
	if apierr != nil {
		return renderError(c, user, apierr)
	}
	return c.Render(http.StatusOK, "settings", &pageData{Title: "Configuración", Active: "settings", User: user, Data: demo})
}

func renderError(c echo.Context, user *entity.User, apierr apierror.ErrorResponse) error {
	if apierr.Code() >= http.StatusInternalServerError {
		config.GetLogger().Warnf("page %s failed with status %d", c.Request().URL.Path, apierr.Code())
	}

	message := http.StatusText(apierr.Code())
	if e, ok := apierr.(*apierror.APIError); ok {
		message = e.Message
	}

	data := struct {
		Status  int
		Message string
	}{apierr.Code(), message}
	return c.Render(apierr.Code(), "error", &pageData{Title: "Error", User: user, Data: data})
}
