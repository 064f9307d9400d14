package service

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/events"
	"hseqaudit/cmd/internal/infrastructure/webhook"
)

func TestRunAnalysis_HeuristicFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	audit := env.newAudit(t, env.auditor)
	env.record(t, audit.ID, "ISO9001-4.1", true, "")
	policy := env.record(t, audit.ID, "ISO45001-5.2", false, "Política sin difusión")
	skills := env.record(t, audit.ID, "ISO9001-7.2", false, "Sin matriz de competencias")

	res, apierr := env.analysis.RunAnalysis(ctx, env.auditor, &contract.AnalyzeRequest{AuditID: audit.ID})
	if apierr != nil {
		t.Fatalf("analysis failed with %d", apierr.Code())
	}

	if res.Source != string(entity.SourceHeuristic) || !res.Degraded {
		t.Errorf("source=%s degraded=%v, want heuristic and degraded", res.Source, res.Degraded)
	}
	if res.DegradedReason == nil || *res.DegradedReason != "DISABLED" {
		t.Errorf("degraded reason = %v", res.DegradedReason)
	}
	if res.RiskLevel != string(entity.RiskLow) {
		t.Errorf("risk = %s, want %s", res.RiskLevel, entity.RiskLow)
	}
	if res.AuditStatus != string(entity.AuditPendingReview) {
		t.Errorf("audit status = %s", res.AuditStatus)
	}
	if len(res.CreatedNCCodes) != 2 {
		t.Fatalf("created %v, want 2 NCs", res.CreatedNCCodes)
	}
	if !res.Notified || len(env.notifier.events(webhook.EventAuditAnalyzed)) != 1 {
		t.Error("analysis event was not dispatched")
	}

	stored, apierr := env.analysis.GetAnalysis(env.auditor, audit.ID)
	if apierr != nil {
		t.Fatalf("get analysis failed with %d", apierr.Code())
	}
	if stored.ID != res.ID {
		t.Errorf("stored analysis id %d, run returned %d", stored.ID, res.ID)
	}

	again, apierr := env.analysis.RunAnalysis(ctx, env.auditor, &contract.AnalyzeRequest{AuditID: audit.ID})
	if apierr != nil {
		t.Fatalf("second analysis failed with %d", apierr.Code())
	}
	if len(again.CreatedNCCodes) != 0 {
		t.Errorf("second run raised %v again", again.CreatedNCCodes)
	}
	if again.ID != res.ID {
		t.Error("second run should replace the stored analysis")
	}

	ncs, _ := env.ncs.GetNCs(env.auditor, &contract.NCFilterRequest{AuditID: &audit.ID})
	if len(ncs) != 2 {
		t.Fatalf("%d NCs after two runs, want 2", len(ncs))
	}

	want := map[int64]entity.Severity{policy.ID: entity.SeverityCritical, skills.ID: entity.SeverityMajor}
	for _, nc := range ncs {
		if nc.Severity != string(want[nc.FindingID]) {
			t.Errorf("NC %s of finding %d has severity %s, want %s", nc.Code, nc.FindingID, nc.Severity, want[nc.FindingID])
		}
	}
}

func TestRunAnalysis_BulkFindingsToHighRisk(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	audit := env.newAudit(t, env.auditor, "ISO9001", "ISO45001")

	failing := []struct {
		code    string
		comment string
	}{
		{"ISO9001-4.1", "Sin análisis de contexto"},
		{"ISO9001-4.2", ""},
		{"ISO9001-7.5", "Documentos sin control de versión"},
		{"ISO9001-9.2", "Programa 2026 no ejecutado"},
		{"ISO9001-9.3", ""},
		{"ISO45001-8.2", "Trabajo en altura sin evaluación de riesgo"},
	}

	items := []*contract.BulkFindingItem{{ChecklistItemID: env.itemID(t, "ISO9001-10.2"), Compliant: boolPtr(true)}}
	for _, f := range failing {
		items = append(items, &contract.BulkFindingItem{ChecklistItemID: env.itemID(t, f.code), Compliant: boolPtr(false), Comment: f.comment})
	}

	bulk, apierr := env.findings.BulkCreateFindings(env.auditor, &contract.BulkFindingsRequest{AuditID: audit.ID, Findings: items})
	if apierr != nil {
		t.Fatalf("bulk create failed with %d", apierr.Code())
	}
	if bulk.Count != len(items) {
		t.Fatalf("stored %d findings, want %d", bulk.Count, len(items))
	}

	inProgress, _ := env.audits.GetAuditByID(env.auditor, audit.ID)
	if inProgress.Status != string(entity.AuditInProgress) {
		t.Fatalf("audit status after findings = %s, want IN_PROGRESS", inProgress.Status)
	}

	res, apierr := env.analysis.RunAnalysis(ctx, env.auditor, &contract.AnalyzeRequest{AuditID: audit.ID})
	if apierr != nil {
		t.Fatalf("analysis failed with %d", apierr.Code())
	}
	if res.RiskLevel != string(entity.RiskHigh) {
		t.Errorf("risk = %s, want %s for %d non-compliant findings", res.RiskLevel, entity.RiskHigh, len(failing))
	}
	if len(res.CreatedNCCodes) != len(failing) {
		t.Errorf("created %d NCs, want %d", len(res.CreatedNCCodes), len(failing))
	}

	reviewed, _ := env.audits.GetAuditByID(env.auditor, audit.ID)
	if reviewed.Status != string(entity.AuditPendingReview) {
		t.Errorf("audit status after analysis = %s, want PENDING_REVIEW", reviewed.Status)
	}

	critical, _ := env.ncs.GetNCs(env.auditor, &contract.NCFilterRequest{AuditID: &audit.ID, Severity: string(entity.SeverityCritical)})
	if len(critical) != 1 || !strings.Contains(critical[0].Description, "8.2") {
		t.Errorf("expected the riesgo finding as the only CRITICAL NC, got %+v", critical)
	}

	sent := env.notifier.events(webhook.EventAuditAnalyzed)
	if len(sent) != 1 {
		t.Fatalf("%d analysis events, want 1", len(sent))
	}
	event, ok := sent[0].Data.(*events.AuditAnalyzed)
	if !ok {
		t.Fatalf("event data is %T", sent[0].Data)
	}
	if event.Critical != 1 || event.Major != len(failing)-1 || event.RiskLevel != string(entity.RiskHigh) {
		t.Errorf("unexpected event counts %+v", event)
	}
}

func TestRunAnalysis_BusyAudit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	audit := env.newAudit(t, env.auditor)
	env.record(t, audit.ID, "ISO9001-9.2", false, "")

	release, err := env.locker.Obtain(ctx, "analysis:"+strconv.FormatInt(audit.ID, 10), time.Minute)
	if err != nil {
		t.Fatalf("holding the analysis lock: %v", err)
	}

	_, apierr := env.analysis.RunAnalysis(ctx, env.auditor, &contract.AnalyzeRequest{AuditID: audit.ID})
	if apierr == nil || apierr.Code() != http.StatusConflict {
		t.Fatalf("analysis of a locked audit: got %v, want 409", apierr)
	}

	release()
	if _, apierr := env.analysis.RunAnalysis(ctx, env.auditor, &contract.AnalyzeRequest{AuditID: audit.ID}); apierr != nil {
		t.Fatalf("analysis after release failed with %d", apierr.Code())
	}
}

func TestRunAnalysis_CancelledAudit(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)
	if _, apierr := env.audits.UpdateAudit(env.auditor, audit.ID, &contract.UpdateAuditRequest{Status: strPtr("CANCELLED")}); apierr != nil {
		t.Fatalf("cancel failed with %d", apierr.Code())
	}

	_, apierr := env.analysis.RunAnalysis(context.Background(), env.auditor, &contract.AnalyzeRequest{AuditID: audit.ID})
	if apierr == nil || apierr.Code() != http.StatusConflict {
		t.Fatalf("cancelled audits cannot be analysed, got %v", apierr)
	}
}

func TestRunAnalysis_ViewerForbidden(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)
	viewer := env.newUser(t, entity.RoleViewer, env.companyID, "viewer@andes.cl")

	_, apierr := env.analysis.RunAnalysis(context.Background(), viewer, &contract.AnalyzeRequest{AuditID: audit.ID})
	if apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Fatalf("viewer analysis: got %v", apierr)
	}
}

func TestGetAnalysis_Missing(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)

	if _, apierr := env.analysis.GetAnalysis(env.auditor, audit.ID); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Errorf("audit without analysis: got %v", apierr)
	}
}

func TestTestAnalysis_StoresNothing(t *testing.T) {
	env := newTestEnv(t)

	res, apierr := env.analysis.TestAnalysis(context.Background(), env.auditor, &contract.TestAnalysisRequest{
		AuditType: "INTERNAL",
		Norms:     []string{"ISO45001"},
		Findings: []*contract.TestFinding{
			{ID: "a", Norm: "ISO45001", Clause: "6.1.2", Requirement: "Identificación de peligros y evaluación de riesgos", Compliant: boolPtr(false)},
			{ID: "b", Norm: "ISO45001", Clause: "7.2", Requirement: "Competencia", Compliant: boolPtr(true)},
		},
	})
	if apierr != nil {
		t.Fatalf("test analysis failed with %d", apierr.Code())
	}
	if len(res.NonConformities) != 1 || res.NonConformities[0].Severity != string(entity.SeverityCritical) {
		t.Errorf("unexpected NCs %+v", res.NonConformities)
	}

	stats, _ := env.ncs.GetStats(env.admin, nil)
	if stats.Total != 0 {
		t.Errorf("test analysis stored %d NCs", stats.Total)
	}
}
