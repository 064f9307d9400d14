package service

import (
	"context"
	"errors"
	"time"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/database"
	"hseqaudit/cmd/internal/domain/database/repository"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/policy"
	"hseqaudit/cmd/internal/infrastructure/coordination"
	"hseqaudit/cmd/internal/infrastructure/legal"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
)

const (
	seedLockKey = "seed"
	seedLockTTL = 30 * time.Second
)

type ChecklistRepository interface {
	FindAll(filter repository.ChecklistFilter) ([]*entity.ChecklistItem, error)
	FindByIDs(ids []int64) ([]*entity.ChecklistItem, error)
	FindByCode(code string) (*entity.ChecklistItem, error)
	Create(item *entity.ChecklistItem) error
	UpsertByCode(items []*entity.ChecklistItem) error
	Count() (int64, error)
}

type NormReferenceRepository interface {
	FindAll() ([]*entity.NormReference, error)
	UpsertMany(refs []*entity.NormReference) error
}

// LegalReloader swaps the documents behind the legal lookup.
type LegalReloader interface {
	Reload(docs []legal.Document)
}

type DefaultChecklistService struct {
	ChecklistRepo ChecklistRepository
	NormRefRepo   NormReferenceRepository
	CompanyRepo   CompanyRepository
	UserRepo      UserRepository
	Locker        coordination.Locker
	Legal         LegalReloader
	RecordPolicy  *policy.RecordPolicy
	UserPolicy    *policy.UserPolicy
	Validate      *validator.Validate

	LLMModel     string
	Integrations contract.IntegrationsResponse
}

func (s *DefaultChecklistService) GetItems(actor *entity.User, norm, clause string) ([]*contract.ChecklistItemResponse, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionViewRecords); perr != nil {
		return nil, perr
	}

	if norm != "" && !entity.Norm(norm).Valid() {
		return nil, apierror.NewFieldError("norm", "Value must be one of: ISO9001 ISO45001 ISO14001")
	}

	items, err := s.ChecklistRepo.FindAll(repository.ChecklistFilter{Norm: entity.Norm(norm), Clause: clause})
	if err != nil {
		config.GetLogger().Errorf("failed to fetch checklist items: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.ChecklistItemResponse, len(items))
	for i, item := range items {
		resp[i] = toChecklistItemResponse(item)
	}
	return resp, nil
}

// GetTrinorma groups the whole checklist by norm, always listing the three
// norms in the same order even when one of them has no items.
func (s *DefaultChecklistService) GetTrinorma(actor *entity.User) (*contract.TrinormaResponse, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionViewRecords); perr != nil {
		return nil, perr
	}

	items, err := s.ChecklistRepo.FindAll(repository.ChecklistFilter{})
	if err != nil {
		config.GetLogger().Errorf("failed to fetch checklist items: %v", err)
		return nil, apierror.InternalServerError
	}

	groups := make(map[entity.Norm]*contract.TrinormaGroup, len(entity.Norms))
	resp := &contract.TrinormaResponse{Total: len(items), Groups: make([]*contract.TrinormaGroup, 0, len(entity.Norms))}
	for _, norm := range entity.Norms {
		g := &contract.TrinormaGroup{Norm: string(norm), Items: []*contract.ChecklistItemResponse{}}
		groups[norm] = g
		resp.Groups = append(resp.Groups, g)
	}

	for _, item := range items {
		if g, ok := groups[item.Norm]; ok {
			g.Items = append(g.Items, toChecklistItemResponse(item))
		}
	}
	return resp, nil
}

func (s *DefaultChecklistService) CreateItem(actor *entity.User, req *contract.CreateChecklistItemRequest) (*contract.ChecklistItemResponse, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionManageChecklist); perr != nil {
		return nil, perr
	}

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	existing, err := s.ChecklistRepo.FindByCode(req.Code)
	if err != nil {
		config.GetLogger().Errorf("failed to check checklist code %s: %v", req.Code, err)
		return nil, apierror.InternalServerError
	}
	if existing != nil {
		return nil, apierror.DuplicateCodeError
	}

	item := &entity.ChecklistItem{
		Code:          req.Code,
		Norm:          entity.Norm(req.Norm),
		Clause:        req.Clause,
		Requirement:   req.Requirement,
		VerificationQ: req.VerificationQ,
		LegalRef:      req.LegalRef,
	}
	if item.LegalRef != nil && *item.LegalRef == "" {
		item.LegalRef = nil
	}

	if err := s.ChecklistRepo.Create(item); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apierror.DuplicateCodeError
		}
		config.LogError(config.GetLogger(), "checklist_service", "CreateItem", "Creating checklist item", item.Code, err)
		return nil, apierror.InternalServerError
	}
	return toChecklistItemResponse(item), nil
}

// Seed loads the trinorma checklist, the legal corpus and the demo tenant.
// Every step is an upsert, so repeated calls converge to the same rows and ids.
func (s *DefaultChecklistService) Seed(ctx context.Context, actor *entity.User) (*contract.SeedResponse, apierror.ErrorResponse) {
	log := config.GetLogger()

	count, err := s.UserRepo.Count()
	if err != nil {
		log.Errorf("failed to count users: %v", err)
		return nil, apierror.InternalServerError
	}
	if perr := s.UserPolicy.CanSeed(actor, count); perr != nil {
		return nil, perr
	}

	release, err := s.Locker.Obtain(ctx, seedLockKey, seedLockTTL)
	if err != nil {
		if errors.Is(err, coordination.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			return nil, apierror.ResourceBusyError
		}
		config.LogError(log, "checklist_service", "Seed", "Obtaining seed lock", seedLockKey, err)
		return nil, apierror.InternalServerError
	}
	defer release()

	resp, err := s.seed()
	if err != nil {
		config.LogError(log, "checklist_service", "Seed", "Seeding demo data", nil, err)
		return nil, apierror.InternalServerError
	}

	log.Infof("seed finished: %d checklist items, %d norm references", resp.ChecklistItems, resp.NormReferences)
	return resp, nil
}

func (s *DefaultChecklistService) seed() (*contract.SeedResponse, error) {
	items := make([]*entity.ChecklistItem, len(trinormaItems))
	for i, it := range trinormaItems {
		items[i] = it.toEntity()
	}
	if err := s.ChecklistRepo.UpsertByCode(items); err != nil {
		return nil, err
	}

	docs := legalCorpus()
	refs := make([]*entity.NormReference, len(docs))
	for i, d := range docs {
		refs[i] = &entity.NormReference{
			Name:     d.Name,
			Article:  d.Article,
			Title:    d.Title,
			Content:  d.Content,
			Keywords: d.Keywords,
		}
	}
	if err := s.NormRefRepo.UpsertMany(refs); err != nil {
		return nil, err
	}

	company, err := s.CompanyRepo.FindByRUT(DemoCompanyRUT)
	if err != nil {
		return nil, err
	}
	if company == nil {
		company = &entity.Company{Name: DemoCompanyName, RUT: DemoCompanyRUT, Industry: "Construcción"}
		if err := s.CompanyRepo.Create(company); err != nil {
			return nil, err
		}
	}

	auditor, err := s.ensureUser(DemoAuditorMail, DemoAuditorName, entity.RoleAuditor, company.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ensureUser(DemoAdminMail, DemoAdminName, entity.RoleAdmin, company.ID); err != nil {
		return nil, err
	}

	if err := s.ReloadLegal(); err != nil {
		return nil, err
	}

	return &contract.SeedResponse{
		ChecklistItems: len(items),
		NormReferences: len(refs),
		CompanyID:      company.ID,
		AuditorID:      auditor.ID,
	}, nil
}

func (s *DefaultChecklistService) ensureUser(email, name string, role entity.Role, companyID int64) (*entity.User, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil || user != nil {
		return user, err
	}

	user = &entity.User{
		Email:     email,
		Name:      name,
		Role:      role,
		CompanyID: companyID,
		Active:    true,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ReloadLegal rebuilds the legal lookup from the stored norm references.
func (s *DefaultChecklistService) ReloadLegal() error {
	refs, err := s.NormRefRepo.FindAll()
	if err != nil {
		return err
	}

	docs := make([]legal.Document, len(refs))
	for i, r := range refs {
		docs[i] = legal.Document{
			Name:     r.Name,
			Article:  r.Article,
			Title:    r.Title,
			Content:  r.Content,
			Keywords: r.Keywords,
		}
	}
	s.Legal.Reload(docs)
	return nil
}

// GetDemoConfig is public: the frontend reads it before anyone signs in.
func (s *DefaultChecklistService) GetDemoConfig() (*contract.DemoConfigResponse, apierror.ErrorResponse) {
	log := config.GetLogger()
	integrations := s.Integrations
	resp := &contract.DemoConfigResponse{LLMModel: s.LLMModel, Integrations: &integrations}

	company, err := s.CompanyRepo.FindByRUT(DemoCompanyRUT)
	if err != nil {
		log.Errorf("failed to fetch demo company: %v", err)
		return nil, apierror.InternalServerError
	}
	if company != nil {
		resp.CompanyID = &company.ID
	}

	auditor, err := s.UserRepo.FindByEmail(DemoAuditorMail)
	if err != nil {
		log.Errorf("failed to fetch demo auditor: %v", err)
		return nil, apierror.InternalServerError
	}
	if auditor != nil {
		resp.AuditorID = &auditor.ID
	}
	return resp, nil
}

func toChecklistItemResponse(item *entity.ChecklistItem) *contract.ChecklistItemResponse {
	return &contract.ChecklistItemResponse{
		ID:            item.ID,
		Code:          item.Code,
		Norm:          string(item.Norm),
		Clause:        item.Clause,
		Requirement:   item.Requirement,
		VerificationQ: item.VerificationQ,
		LegalRef:      item.LegalRef,
	}
}
