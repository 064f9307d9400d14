package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils/apierror"
)

type fakeS3 struct {
	keys []string
}

func (f *fakeS3) UploadFile(_ context.Context, _ []byte, key string) (string, error) {
	f.keys = append(f.keys, key)
	return "https://evidence.example.com/" + key, nil
}

func (f *fakeS3) Enabled() bool {
	return true
}

func evidenceHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(content)
	_ = w.Close()

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestCreateFinding_MovesAuditInProgress(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)

	f := env.record(t, audit.ID, "ISO9001-4.1", false, "No hay análisis de contexto")
	if f.ChecklistItem == nil || f.ChecklistItem.Code != "ISO9001-4.1" {
		t.Errorf("checklist item not embedded: %+v", f.ChecklistItem)
	}

	got, _ := env.audits.GetAuditByID(env.auditor, audit.ID)
	if got.Status != string(entity.AuditInProgress) {
		t.Errorf("audit status = %s, want IN_PROGRESS", got.Status)
	}
}

func TestCreateFinding_DuplicateItem(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)
	env.record(t, audit.ID, "ISO9001-4.1", true, "")

	_, apierr := env.findings.CreateFinding(env.auditor, &contract.CreateFindingRequest{
		AuditID:         audit.ID,
		ChecklistItemID: env.itemID(t, "ISO9001-4.1"),
		Compliant:       boolPtr(false),
	})
	if apierr != apierror.DuplicateFindingError {
		t.Fatalf("expected DuplicateFindingError, got %#v", apierr)
	}
}

func TestBulkCreateFindings_LastEvaluationWins(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)
	contextItem := env.itemID(t, "ISO9001-4.1")
	policyItem := env.itemID(t, "ISO45001-5.2")

	resp, apierr := env.findings.BulkCreateFindings(env.auditor, &contract.BulkFindingsRequest{
		AuditID: audit.ID,
		Findings: []*contract.BulkFindingItem{
			{ChecklistItemID: contextItem, Compliant: boolPtr(false), Comment: "primera"},
			{ChecklistItemID: policyItem, Compliant: boolPtr(true)},
			{ChecklistItemID: contextItem, Compliant: boolPtr(true), Comment: "corregido"},
		},
	})
	if apierr != nil {
		t.Fatalf("bulk failed with %d", apierr.Code())
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}

	for _, f := range resp.Findings {
		if f.ChecklistItemID == contextItem && (f.Compliant == nil || !*f.Compliant || f.Comment != "corregido") {
			t.Errorf("last evaluation did not win: %+v", f)
		}
	}

	// a second pass overwrites instead of duplicating
	_, apierr = env.findings.BulkCreateFindings(env.auditor, &contract.BulkFindingsRequest{
		AuditID:  audit.ID,
		Findings: []*contract.BulkFindingItem{{ChecklistItemID: policyItem, Compliant: boolPtr(false)}},
	})
	if apierr != nil {
		t.Fatalf("second bulk failed with %d", apierr.Code())
	}

	summary, _ := env.findings.GetSummary(env.auditor, audit.ID)
	if summary.Total != 2 || summary.Compliant != 1 || summary.NonCompliant != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.ComplianceRate != 50 {
		t.Errorf("compliance rate = %v, want 50", summary.ComplianceRate)
	}
}

func TestBulkCreateFindings_UnknownItems(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)

	_, apierr := env.findings.BulkCreateFindings(env.auditor, &contract.BulkFindingsRequest{
		AuditID: audit.ID,
		Findings: []*contract.BulkFindingItem{
			{ChecklistItemID: env.itemID(t, "ISO9001-4.1"), Compliant: boolPtr(true)},
			{ChecklistItemID: 42, Compliant: boolPtr(true)},
		},
	})
	structured, ok := apierr.(*apierror.StructuredError)
	if !ok {
		t.Fatalf("expected structured error, got %#v", apierr)
	}
	if len(structured.Errors["findings[1].checklistItemId"]) == 0 {
		t.Errorf("missing per-index error: %v", structured.Errors)
	}
}

func TestBulkCreateFindings_KeepsNonComplianceWithNC(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)
	f := env.record(t, audit.ID, "ISO45001-6.1.2", false, "Matriz IPER desactualizada")
	nc := env.raiseNC(t, f.ID)
	itemID := env.itemID(t, "ISO45001-6.1.2")

	_, apierr := env.findings.BulkCreateFindings(env.auditor, &contract.BulkFindingsRequest{
		AuditID: audit.ID,
		Findings: []*contract.BulkFindingItem{
			{ChecklistItemID: env.itemID(t, "ISO45001-7.2"), Compliant: boolPtr(true)},
			{ChecklistItemID: itemID, Compliant: boolPtr(true)},
		},
	})
	structured, ok := apierr.(*apierror.StructuredError)
	if !ok || structured.Code() != http.StatusConflict {
		t.Fatalf("flipping a finding with an NC: got %#v", apierr)
	}
	if len(structured.Errors["findings[1].compliant"]) == 0 {
		t.Errorf("missing per-index error: %v", structured.Errors)
	}

	stored, _ := env.findings.GetFindings(env.auditor, &contract.FindingFilterRequest{AuditID: &audit.ID})
	if len(stored) != 1 || stored[0].Compliant == nil || *stored[0].Compliant {
		t.Fatalf("batch was partially applied: %+v", stored)
	}

	bulk, apierr := env.findings.BulkCreateFindings(env.auditor, &contract.BulkFindingsRequest{
		AuditID:  audit.ID,
		Findings: []*contract.BulkFindingItem{{ChecklistItemID: itemID, Compliant: boolPtr(false), Comment: "Matriz en revisión"}},
	})
	if apierr != nil {
		t.Fatalf("re-recording the non-compliance failed with %d", apierr.Code())
	}
	if got := bulk.Findings[0]; got.Comment != "Matriz en revisión" || got.NC == nil || got.NC.ID != nc.ID {
		t.Errorf("unexpected finding after re-recording %+v", got)
	}

	if _, apierr := env.findings.UpdateFinding(env.auditor, f.ID, &contract.UpdateFindingRequest{Compliant: contract.NullableBool{Set: true}}); apierr != apierror.FindingHasNCError {
		t.Errorf("resetting a finding with an NC: got %#v", apierr)
	}
}

func TestGetSummary_RoundsRate(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)
	env.record(t, audit.ID, "ISO9001-4.1", true, "")
	env.record(t, audit.ID, "ISO9001-4.2", true, "")
	env.record(t, audit.ID, "ISO9001-5.2", false, "")

	summary, apierr := env.findings.GetSummary(env.auditor, audit.ID)
	if apierr != nil {
		t.Fatalf("summary failed with %d", apierr.Code())
	}
	if summary.ComplianceRate != 66.67 {
		t.Errorf("compliance rate = %v, want 66.67", summary.ComplianceRate)
	}
}

func TestUpdateFinding_ExplicitNullResetsCompliance(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)
	f := env.record(t, audit.ID, "ISO9001-4.1", true, "ok")

	updated, apierr := env.findings.UpdateFinding(env.auditor, f.ID, &contract.UpdateFindingRequest{
		Compliant: contract.NullableBool{Set: true},
	})
	if apierr != nil {
		t.Fatalf("update failed with %d", apierr.Code())
	}
	if updated.Compliant != nil {
		t.Errorf("compliant = %v, want nil", *updated.Compliant)
	}
	if updated.Comment != "ok" {
		t.Errorf("comment changed to %q", updated.Comment)
	}
}

func TestAttachEvidence(t *testing.T) {
	env := newTestEnv(t)
	audit := env.newAudit(t, env.auditor)
	f := env.record(t, audit.ID, "ISO45001-8.2", false, "Sin simulacro")

	_, apierr := env.findings.AttachEvidence(context.Background(), env.auditor, f.ID, evidenceHeader(t, "acta.pdf", []byte("%PDF-1.4")))
	if apierr != apierror.StorageDisabledError {
		t.Fatalf("expected 503 without storage, got %#v", apierr)
	}

	s3 := &fakeS3{}
	env.findings.S3 = s3

	_, apierr = env.findings.AttachEvidence(context.Background(), env.auditor, f.ID, evidenceHeader(t, "script.exe", []byte("MZ")))
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("executable should be rejected, got %v", apierr)
	}

	updated, apierr := env.findings.AttachEvidence(context.Background(), env.auditor, f.ID, evidenceHeader(t, "acta.pdf", []byte("%PDF-1.4")))
	if apierr != nil {
		t.Fatalf("upload failed with %d", apierr.Code())
	}
	if len(updated.Evidence) != 1 || !strings.HasSuffix(updated.Evidence[0], ".pdf") {
		t.Errorf("evidence = %v", updated.Evidence)
	}
	if len(s3.keys) != 1 || !strings.HasPrefix(s3.keys[0], strconv.FormatInt(audit.ID, 10)+"/") {
		t.Errorf("object key = %v", s3.keys)
	}
}
