package service

import (
	"context"
	"net/http"
	"testing"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils/apierror"
)

func TestSeed_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	again, apierr := env.checklist.Seed(context.Background(), env.admin)
	if apierr != nil {
		t.Fatalf("reseed failed with %d", apierr.Code())
	}
	if again.CompanyID != env.companyID || again.AuditorID != env.auditor.ID {
		t.Errorf("reseed moved the demo tenant: %+v", again)
	}
	if again.ChecklistItems != len(trinormaItems) {
		t.Errorf("checklist items = %d, want %d", again.ChecklistItems, len(trinormaItems))
	}

	trinorma, _ := env.checklist.GetTrinorma(env.auditor)
	if trinorma.Total != len(trinormaItems) {
		t.Errorf("trinorma total = %d after reseed", trinorma.Total)
	}
}

func TestSeed_AnonymousOnlyOnEmptyDatabase(t *testing.T) {
	env := newTestEnv(t)

	if _, apierr := env.checklist.Seed(context.Background(), nil); apierr != apierror.SeedForbiddenError {
		t.Errorf("anonymous reseed: got %#v", apierr)
	}
	if _, apierr := env.checklist.Seed(context.Background(), env.auditor); apierr != apierror.SeedForbiddenError {
		t.Errorf("auditor reseed: got %#v", apierr)
	}
}

func TestGetTrinorma_GroupsByNorm(t *testing.T) {
	env := newTestEnv(t)

	res, apierr := env.checklist.GetTrinorma(env.auditor)
	if apierr != nil {
		t.Fatalf("trinorma failed with %d", apierr.Code())
	}
	if len(res.Groups) != 3 {
		t.Fatalf("%d groups, want 3", len(res.Groups))
	}

	want := []string{"ISO9001", "ISO45001", "ISO14001"}
	for i, g := range res.Groups {
		if g.Norm != want[i] {
			t.Errorf("group %d = %s, want %s", i, g.Norm, want[i])
		}
		for _, it := range g.Items {
			if it.Norm != g.Norm {
				t.Errorf("item %s filed under %s", it.Code, g.Norm)
			}
		}
	}
}

func TestGetItems_Filters(t *testing.T) {
	env := newTestEnv(t)

	items, apierr := env.checklist.GetItems(env.auditor, "ISO14001", "")
	if apierr != nil {
		t.Fatalf("list failed with %d", apierr.Code())
	}
	for _, it := range items {
		if it.Norm != "ISO14001" {
			t.Errorf("unexpected norm %s", it.Norm)
		}
	}

	items, _ = env.checklist.GetItems(env.auditor, "ISO45001", "5.2")
	if len(items) != 1 || items[0].Code != "ISO45001-5.2" {
		t.Errorf("clause filter returned %+v", items)
	}

	if _, apierr := env.checklist.GetItems(env.auditor, "ISO27001", ""); apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Errorf("unknown norm: got %v", apierr)
	}
}

func TestCreateItem(t *testing.T) {
	env := newTestEnv(t)
	req := &contract.CreateChecklistItemRequest{
		Code:          "ISO14001-9.3",
		Norm:          "ISO14001",
		Clause:        "9.3",
		Requirement:   "Revisión ambiental por la dirección",
		VerificationQ: "¿Existe acta de revisión?",
	}

	if _, apierr := env.checklist.CreateItem(env.auditor, req); apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Errorf("auditors cannot manage the checklist, got %v", apierr)
	}

	supervisor := env.newUser(t, entity.RoleSupervisor, env.companyID, "supervisor@andes.cl")
	item, apierr := env.checklist.CreateItem(supervisor, req)
	if apierr != nil {
		t.Fatalf("create failed with %d", apierr.Code())
	}
	if item.Code != "ISO14001-9.3" {
		t.Errorf("code = %s", item.Code)
	}

	if _, apierr := env.checklist.CreateItem(supervisor, req); apierr == nil || apierr.Code() != http.StatusConflict {
		t.Errorf("duplicate code: got %v", apierr)
	}
}

func TestGetDemoConfig(t *testing.T) {
	env := newTestEnv(t)

	cfg, apierr := env.checklist.GetDemoConfig()
	if apierr != nil {
		t.Fatalf("demo config failed with %d", apierr.Code())
	}
	if cfg.CompanyID == nil || *cfg.CompanyID != env.companyID {
		t.Errorf("company = %v", cfg.CompanyID)
	}
	if cfg.AuditorID == nil || *cfg.AuditorID != env.auditor.ID {
		t.Errorf("auditor = %v", cfg.AuditorID)
	}
	if cfg.LLMModel != "anthropic:test" {
		t.Errorf("model = %s", cfg.LLMModel)
	}
}
