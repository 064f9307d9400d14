package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
)

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)

	empty, apierr := env.dashboard.GetStats(env.auditor)
	if apierr != nil {
		t.Fatalf("stats failed with %d", apierr.Code())
	}
	if empty.Audits.Total != 0 || empty.ComplianceRate != 0 || len(empty.RecentAudits) != 0 {
		t.Errorf("empty dashboard not empty: %+v", empty)
	}
	if len(empty.ComplianceByNorm) != 3 {
		t.Errorf("%d norm rows, want 3", len(empty.ComplianceByNorm))
	}

	audit := env.newAudit(t, env.auditor)
	env.newAudit(t, env.auditor, "ISO14001")
	env.record(t, audit.ID, "ISO9001-4.1", true, "")
	env.record(t, audit.ID, "ISO9001-4.2", true, "")
	failing := env.record(t, audit.ID, "ISO45001-5.2", false, "")
	env.raiseNC(t, failing.ID)

	stats, apierr := env.dashboard.GetStats(env.auditor)
	if apierr != nil {
		t.Fatalf("stats failed with %d", apierr.Code())
	}
	if stats.Audits.Total != 2 || stats.Audits.ByStatus["IN_PROGRESS"] != 1 || stats.Audits.ByStatus["DRAFT"] != 1 {
		t.Errorf("unexpected audit counts %+v", stats.Audits)
	}
	if stats.OpenNCs != 1 || stats.CriticalOpenNCs != 1 || len(stats.CriticalNCs) != 1 {
		t.Errorf("open=%d critical=%d list=%d", stats.OpenNCs, stats.CriticalOpenNCs, len(stats.CriticalNCs))
	}
	if stats.ComplianceRate != 66.67 {
		t.Errorf("compliance rate = %v, want 66.67", stats.ComplianceRate)
	}

	for _, row := range stats.ComplianceByNorm {
		switch row.Norm {
		case "ISO9001":
			if row.ComplianceRate != 100 {
				t.Errorf("ISO9001 rate = %v", row.ComplianceRate)
			}
		case "ISO45001":
			if row.Evaluated != 1 || row.ComplianceRate != 0 {
				t.Errorf("ISO45001 row = %+v", row)
			}
		}
	}

	for _, r := range stats.RecentAudits {
		if r.ID == audit.ID && r.NCCount != 1 {
			t.Errorf("recent audit NC count = %d", r.NCCount)
		}
	}

	otherCompany := env.newCompany(t, "Minera Norte", "123456785")
	outsider := env.newUser(t, entity.RoleViewer, otherCompany, "viewer@minera.cl")
	foreign, _ := env.dashboard.GetStats(outsider)
	if foreign.Audits.Total != 0 || foreign.OpenNCs != 0 {
		t.Errorf("outsider dashboard leaks data: %+v", foreign)
	}
}

func TestReports(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)
	env.record(t, audit.ID, "ISO9001-4.1", true, "")
	env.record(t, audit.ID, "ISO45001-8.2", false, "Sin simulacro")

	if _, apierr := env.reports.GetAuditReport(env.auditor, audit.ID); apierr == nil {
		t.Error("auditors cannot export reports")
	}

	rep, apierr := env.reports.GetAuditReport(env.admin, audit.ID)
	if apierr != nil {
		t.Fatalf("report failed with %d", apierr.Code())
	}
	if rep.Audit == nil || rep.Audit.Code != audit.Code {
		t.Errorf("report audit = %+v", rep.Audit)
	}

	var buf bytes.Buffer
	name, err := env.reports.ExportAudit(&buf, audit.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasSuffix(name, ".xlsx") || !strings.Contains(name, audit.Code) {
		t.Errorf("file name = %s", name)
	}
	// xlsx files are zip archives
	if !bytes.HasPrefix(buf.Bytes(), []byte("PK")) {
		t.Error("export is not a workbook")
	}

	if _, err := env.reports.ExportAudit(&buf, audit.ID+999); !errors.Is(err, ErrAuditNotFound) {
		t.Errorf("missing audit: got %v", err)
	}
}

func TestDeleteFinding_ReturnsItemToPending(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)
	f := env.record(t, audit.ID, "ISO9001-4.1", true, "")

	if apierr := env.findings.DeleteFinding(env.auditor, f.ID); apierr != nil {
		t.Fatalf("delete failed with %d", apierr.Code())
	}

	list, _ := env.findings.GetFindings(env.auditor, &contract.FindingFilterRequest{AuditID: &audit.ID})
	if len(list) != 0 {
		t.Errorf("%d findings left", len(list))
	}
	env.record(t, audit.ID, "ISO9001-4.1", false, "reevaluado")
}
