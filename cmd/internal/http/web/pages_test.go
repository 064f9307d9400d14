package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type fakeDashboard struct {
	err apierror.ErrorResponse
}

func (f fakeDashboard) GetStats(*entity.User) (*contract.DashboardStatsResponse, apierror.ErrorResponse) {
	if f.err != nil {
		return nil, f.err
	}
	return &contract.DashboardStatsResponse{
		Audits:          &contract.AuditCountsResponse{Total: 3},
		OpenNCs:         2,
		CriticalOpenNCs: 1,
		ComplianceRate:  66.666,
		RecentAudits: []*contract.RecentAuditResponse{{
			AuditResponse: &contract.AuditResponse{
				Code:    "AUD-2026-0003",
				Company: &contract.AuditCompanyResponse{Name: "Minera Andes"},
				Norms:   []string{"ISO9001", "ISO45001"},
				Status:  "PENDING_REVIEW",
			},
			NCCount: 2,
		}},
		CriticalNCs: []*contract.NCResponse{{
			Code:        "NC-2026-0001",
			Description: "Política de SST no comunicada",
			DueDate:     "2026-10-26T00:00:00Z",
			Status:      "OPEN",
			Overdue:     true,
		}},
		ComplianceByNorm: []*contract.NormComplianceResponse{{Norm: "ISO45001", Evaluated: 3, Compliant: 2, ComplianceRate: 66.67}},
	}, nil
}

type fakeAudits struct {
	lastFilter *contract.AuditFilterRequest
}

func (f *fakeAudits) GetAudits(_ *entity.User, req *contract.AuditFilterRequest) (*contract.PageResponse[*contract.AuditResponse], apierror.ErrorResponse) {
	f.lastFilter = req
	items := []*contract.AuditResponse{{ID: 42, Code: "AUD-2026-0042", Norms: []string{"ISO14001"}, Status: "DRAFT", ScheduledAt: "2026-11-02T09:00:00Z"}}
	return &contract.PageResponse[*contract.AuditResponse]{Items: items, Total: 1, Page: req.Page, PageSize: req.PageSize}, nil
}

type fakeNCs struct {
	lastFilter *contract.NCFilterRequest
}

func (f *fakeNCs) GetNCs(_ *entity.User, req *contract.NCFilterRequest) ([]*contract.NCResponse, apierror.ErrorResponse) {
	f.lastFilter = req
	return []*contract.NCResponse{{ID: 5, Code: "NC-2026-0005", Severity: "CRITICAL", Status: "OPEN", DueDate: "2026-10-20T00:00:00Z"}}, nil
}

func (f *fakeNCs) GetStats(*entity.User, *int64) (*contract.NCStatsResponse, apierror.ErrorResponse) {
	return &contract.NCStatsResponse{Total: 1, BySeverity: map[string]int64{"CRITICAL": 1}}, nil
}

type fakeSettings struct{}

func (fakeSettings) GetDemoConfig() (*contract.DemoConfigResponse, apierror.ErrorResponse) {
	return &contract.DemoConfigResponse{LLMModel: "claude-3-5-sonnet", Integrations: &contract.IntegrationsResponse{Redis: true}}, nil
}

var pageUser = &entity.User{Name: "Supervisora", Email: "sup@andes.cl", Role: entity.RoleSupervisor, CompanyID: 1, Active: true}

func newPages(t *testing.T) (*echo.Echo, *Pages, *fakeAudits, *fakeNCs) {
	t.Helper()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("parsing templates: %v", err)
	}

	e := echo.New()
	e.Renderer = renderer
	audits := &fakeAudits{}
	ncs := &fakeNCs{}
	pages := &Pages{DashboardSvc: fakeDashboard{}, AuditSvc: audits, NCSvc: ncs, SettingsSvc: fakeSettings{}}
	return e, pages, audits, ncs
}

func serve(e *echo.Echo, h echo.HandlerFunc, target string, user *entity.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(utils.ContextUserKey, user)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestNewRenderer_ParsesEveryPage(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	for _, name := range []string{"login", "dashboard", "audits", "audit_new", "nonconformities", "reports", "settings", "error"} {
		if _, ok := r.pages[name]; !ok {
			t.Errorf("page %q was not parsed", name)
		}
	}
	if _, ok := r.pages["layout"]; ok {
		t.Error("layout must not be registered as a page")
	}
}

func TestPages_RenderWithUser(t *testing.T) {
	e, pages, _, _ := newPages(t)

	tests := []struct {
		name    string
		handler echo.HandlerFunc
		target  string
		want    []string
	}{
		{"dashboard", pages.Dashboard, "/", []string{"AUD-2026-0003", "Minera Andes", "ISO9001, ISO45001", "66.7%", `class="overdue"`, "2026-10-26"}},
		{"audits", pages.AuditList, "/audits", []string{"AUD-2026-0042", "2026-11-02", `data-analyze="42"`}},
		{"new audit", pages.NewAudit, "/audits/new", []string{"Checklist trinorma"}},
		{"reports", pages.Reports, "/reports", []string{"/api/reports/audits/42", "Descargar XLSX"}},
		{"settings", pages.Settings, "/settings", []string{"claude-3-5-sonnet", "sup@andes.cl"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(e, tc.handler, tc.target, pageUser)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
			}

			body := rec.Body.String()
			if !strings.Contains(body, "Supervisora") {
				t.Error("layout header with the user name is missing")
			}
			for _, w := range tc.want {
				if !strings.Contains(body, w) {
					t.Errorf("body does not contain %q", w)
				}
			}
		})
	}
}

func TestPages_RedirectWithoutUser(t *testing.T) {
	e, pages, _, _ := newPages(t)

	for _, h := range []echo.HandlerFunc{pages.Dashboard, pages.AuditList, pages.NewAudit, pages.NonConformities, pages.Reports, pages.Settings} {
		rec := serve(e, h, "/", nil)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("status = %d, want 303", rec.Code)
		}
		if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login" {
			t.Errorf("Location = %q, want /login", loc)
		}
	}
}

func TestLogin_RendersWithoutHeader(t *testing.T) {
	e, pages, _, _ := newPages(t)

	rec := serve(e, pages.Login, "/login", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="login"`) {
		t.Error("login form missing")
	}
	if strings.Contains(body, "<header>") {
		t.Error("anonymous page must not render the navigation header")
	}
}

func TestNonConformities_PassesNormalisedFilter(t *testing.T) {
	e, pages, _, ncs := newPages(t)

	rec := serve(e, pages.NonConformities, "/nonconformities?severity=critical&status=open", pageUser)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if ncs.lastFilter.Severity != "CRITICAL" || ncs.lastFilter.Status != "OPEN" {
		t.Errorf("filter = %+v, want CRITICAL/OPEN", ncs.lastFilter)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `<option value="CRITICAL" selected>`) {
		t.Error("severity filter is not kept selected")
	}
	if !strings.Contains(body, `data-close="5"`) {
		t.Error("open NC has no close button")
	}
}

func TestReports_HidesExportForAuditor(t *testing.T) {
	e, pages, audits, _ := newPages(t)
	auditor := &entity.User{Name: "Auditor", Role: entity.RoleAuditor, CompanyID: 1, Active: true}

	rec := serve(e, pages.Reports, "/reports", auditor)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Descargar XLSX") {
		t.Error("auditor must not see export links")
	}
	if audits.lastFilter.PageSize != reportListSize {
		t.Errorf("page size = %d, want %d", audits.lastFilter.PageSize, reportListSize)
	}
}

func TestDashboard_ServiceErrorRendersErrorPage(t *testing.T) {
	e, pages, _, _ := newPages(t)
	pages.DashboardSvc = fakeDashboard{err: apierror.InternalServerError}

	rec := serve(e, pages.Dashboard, "/", pageUser)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Error 500") {
		t.Error("error page not rendered")
	}
}
