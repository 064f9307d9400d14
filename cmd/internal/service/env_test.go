package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/analysis"
	"hseqaudit/cmd/internal/domain/database"
	"hseqaudit/cmd/internal/domain/database/repository"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/policy"
	"hseqaudit/cmd/internal/infrastructure/aws/storage"
	"hseqaudit/cmd/internal/infrastructure/coordination"
	"hseqaudit/cmd/internal/infrastructure/legal"
	"hseqaudit/cmd/internal/infrastructure/llm"
	"hseqaudit/cmd/internal/infrastructure/webhook"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/validators"

	"gorm.io/gorm"
)

type sentEvent struct {
	Event webhook.Event
	Data  any
}

type recordingNotifier struct {
	mu      sync.Mutex
	enabled bool
	sent    []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event webhook.Event, data any) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEvent{event, data})
	return n.enabled
}

func (n *recordingNotifier) Enabled() bool {
	return n.enabled
}

func (n *recordingNotifier) events(kind webhook.Event) []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []sentEvent
	for _, e := range n.sent {
		if e.Event == kind {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	notifier *recordingNotifier
	tokens   *utils.TokenVerifier
	locker   *coordination.LocalLocker

	users     *DefaultUserService
	companies *DefaultCompanyService
	checklist *DefaultChecklistService
	audits    *DefaultAuditService
	findings  *DefaultFindingService
	ncs       *DefaultNCService
	analysis  *DefaultAnalysisService
	dashboard *DefaultDashboardService
	reports   *DefaultReportService

	companyID int64
	admin     *entity.User
	auditor   *entity.User
}

// newTestEnv wires every service over a private in-memory database, with the
// LLM disabled so analyses run on the heuristic engine.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	validate := validators.New()
	recordPolicy := policy.NewRecordPolicy()
	userPolicy := policy.NewUserPolicy()

	companyRepo := repository.NewCompanyRepository(db)
	userRepo := repository.NewUserRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	findingRepo := repository.NewFindingRepository(db)
	ncRepo := repository.NewNCRepository(db)
	seqRepo := repository.NewSequenceRepository(db)

	locker := coordination.NewLocalLockerWithRetry(2, time.Millisecond)
	codes := NewCodeGenerator(coordination.NewDatabaseSequencer(seqRepo, CodeFloor(seqRepo)), seqRepo)

	s3Client, err := storage.NewStorageClient(context.Background(), "", "")
	if err != nil {
		t.Fatalf("storage client: %v", err)
	}

	tokens, err := utils.NewTokenVerifier("test-secret", "", time.Hour)
	if err != nil {
		t.Fatalf("token verifier: %v", err)
	}

	legalIndex := legal.NewIndex(legal.BuiltinDocuments())
	engine := analysis.NewEngine(llm.Disabled(), legalIndex, time.Second)
	notifier := &recordingNotifier{enabled: true}

	env := &testEnv{db: db, notifier: notifier, tokens: tokens, locker: locker}
	env.users = NewUserService(userRepo, companyRepo, validate, nil, userPolicy, tokens)
	env.companies = NewCompanyService(companyRepo, userPolicy, validate)
	env.checklist = &DefaultChecklistService{
		ChecklistRepo: checklistRepo,
		NormRefRepo:   repository.NewNormReferenceRepository(db),
		CompanyRepo:   companyRepo,
		UserRepo:      userRepo,
		Locker:        locker,
		Legal:         legalIndex,
		RecordPolicy:  recordPolicy,
		UserPolicy:    userPolicy,
		Validate:      validate,
		LLMModel:      "anthropic:test",
	}
	env.audits = NewAuditService(auditRepo, companyRepo, userRepo, codes, recordPolicy, validate)
	env.findings = NewFindingService(findingRepo, auditRepo, checklistRepo, s3Client, recordPolicy, validate)
	env.ncs = &DefaultNCService{
		NCRepo:       ncRepo,
		FindingRepo:  findingRepo,
		AuditRepo:    auditRepo,
		Analyzer:     engine,
		Codes:        codes,
		Locker:       locker,
		Notifier:     notifier,
		RecordPolicy: recordPolicy,
		Validate:     validate,
	}
	env.analysis = &DefaultAnalysisService{
		AnalysisRepo: repository.NewAnalysisRepository(db),
		AuditRepo:    auditRepo,
		NCRepo:       ncRepo,
		Analyzer:     engine,
		Codes:        codes,
		Locker:       locker,
		Notifier:     notifier,
		RecordPolicy: recordPolicy,
		Validate:     validate,
	}
	env.dashboard = NewDashboardService(auditRepo, findingRepo, ncRepo, recordPolicy)
	env.reports = NewReportService(auditRepo, recordPolicy)

	seeded, apierr := env.checklist.Seed(context.Background(), nil)
	if apierr != nil {
		t.Fatalf("bootstrap seed failed with status %d", apierr.Code())
	}
	env.companyID = seeded.CompanyID

	env.auditor = mustUser(t, userRepo, DemoAuditorMail)
	env.admin = mustUser(t, userRepo, DemoAdminMail)
	return env
}

func mustUser(t *testing.T, repo *repository.DefaultUserRepository, email string) *entity.User {
	t.Helper()
	user, err := repo.FindByEmail(email)
	if err != nil || user == nil {
		t.Fatalf("user %s not seeded: %v", email, err)
	}
	return user
}

// newUser stores a user of the given role in company.
func (e *testEnv) newUser(t *testing.T, role entity.Role, companyID int64, email string) *entity.User {
	t.Helper()
	user := &entity.User{Email: email, Name: "Usuario " + string(role), Role: role, CompanyID: companyID, Active: true}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return user
}

func (e *testEnv) newCompany(t *testing.T, name, rut string) int64 {
	t.Helper()
	company := &entity.Company{Name: name, RUT: rut}
	if err := e.db.Create(company).Error; err != nil {
		t.Fatalf("creating company: %v", err)
	}
	return company.ID
}

func (e *testEnv) newAudit(t *testing.T, actor *entity.User, norms ...string) *contract.AuditResponse {
	t.Helper()
	if len(norms) == 0 {
		norms = []string{"ISO9001", "ISO45001"}
	}

	audit, apierr := e.audits.CreateAudit(context.Background(), actor, &contract.CreateAuditRequest{
		CompanyID:   e.companyID,
		AuditorID:   e.auditor.ID,
		Type:        "INTERNAL",
		Norms:       norms,
		ScheduledAt: time.Now().Add(24 * time.Hour),
	})
	if apierr != nil {
		t.Fatalf("creating audit failed with status %d", apierr.Code())
	}
	return audit
}

func (e *testEnv) itemID(t *testing.T, code string) int64 {
	t.Helper()
	item, err := e.checklist.ChecklistRepo.FindByCode(code)
	if err != nil || item == nil {
		t.Fatalf("checklist item %s missing: %v", code, err)
	}
	return item.ID
}

func (e *testEnv) record(t *testing.T, auditID int64, code string, compliant bool, comment string) *contract.FindingResponse {
	t.Helper()
	f, apierr := e.findings.CreateFinding(e.auditor, &contract.CreateFindingRequest{
		AuditID:         auditID,
		ChecklistItemID: e.itemID(t, code),
		Compliant:       &compliant,
		Comment:         comment,
	})
	if apierr != nil {
		t.Fatalf("recording finding %s failed with status %d", code, apierr.Code())
	}
	return f
}

func boolPtr(v bool) *bool {
	return &v
}

func strPtr(v string) *string {
	return &v
}
