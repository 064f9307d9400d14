package service

import (
	"context"
	"errors"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/database/repository"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/policy"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
)

type AuditRepository interface {
	FindAll(filter repository.AuditFilter) ([]*entity.Audit, int64, error)
	FindByID(id int64) (*entity.Audit, error)
	FindDetailed(id int64) (*entity.Audit, error)
	FindRecent(companyID *int64, limit int) ([]*entity.Audit, error)
	CountByStatus(companyID *int64) (map[entity.AuditStatus]int64, error)
	Create(audit *entity.Audit) error
	Save(audit *entity.Audit) error
	MarkInProgress(id int64) error
	UpdateStatus(id int64, status entity.AuditStatus) error
	Delete(id int64) error
}

type DefaultAuditService struct {
	AuditRepo    AuditRepository
	CompanyRepo  CompanyRepository
	UserRepo     UserRepository
	Codes        *CodeGenerator
	RecordPolicy *policy.RecordPolicy
	Validate     *validator.Validate
}

func NewAuditService(
	auditRepo AuditRepository,
	companyRepo CompanyRepository,
	userRepo UserRepository,
	codes *CodeGenerator,
	recordPolicy *policy.RecordPolicy,
	validate *validator.Validate,
) *DefaultAuditService {
	return &DefaultAuditService{
		AuditRepo:    auditRepo,
		CompanyRepo:  companyRepo,
		UserRepo:     userRepo,
		Codes:        codes,
		RecordPolicy: recordPolicy,
		Validate:     validate,
	}
}

func (s *DefaultAuditService) CreateAudit(ctx context.Context, actor *entity.User, req *contract.CreateAuditRequest) (*contract.AuditResponse, apierror.ErrorResponse) {
	log := config.GetLogger()
	if perr := s.RecordPolicy.Require(actor, entity.PermissionManageAudits); perr != nil {
		return nil, perr
	}

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	company, err := s.CompanyRepo.FindByID(req.CompanyID)
	if err != nil {
		log.Errorf("failed to fetch company %d: %v", req.CompanyID, err)
		return nil, apierror.InternalServerError
	}

	// foreign companies look exactly like missing ones
	if company == nil || !actor.SameCompany(company.ID) {
		return nil, apierror.NewFieldError("companyId", "Company does not exist")
	}

	auditor, err := s.UserRepo.FindByID(req.AuditorID)
	if err != nil {
		log.Errorf("failed to fetch auditor %d: %v", req.AuditorID, err)
		return nil, apierror.InternalServerError
	}
	if auditor == nil || !auditor.Active {
		return nil, apierror.NewFieldError("auditorId", "Auditor does not exist")
	}

	norms := make([]entity.Norm, len(req.Norms))
	for i, n := range req.Norms {
		norms[i] = entity.Norm(n)
	}

	audit := &entity.Audit{
		CompanyID:   company.ID,
		AuditorID:   auditor.ID,
		Type:        entity.AuditType(req.Type),
		Norms:       entity.JoinNorms(norms),
		Status:      entity.AuditDraft,
		ScheduledAt: utils.ToEpoch(req.ScheduledAt),
	}

	_, err = s.Codes.Create(ctx, AuditCodes, utils.YearOf(utils.NowUTC()), func(code string) error {
		audit.Code = code
		return s.AuditRepo.Create(audit)
	})
	if err != nil {
		if errors.Is(err, ErrCodeExhausted) {
			return nil, apierror.CodeExhaustedError
		}
		config.LogError(log, "audit_service", "CreateAudit", "Creating audit", req, err)
		return nil, apierror.InternalServerError
	}

	audit.Company = *company
	audit.Auditor = *auditor
	return toAuditResponse(audit, false), nil
}

func (s *DefaultAuditService) GetAudits(actor *entity.User, req *contract.AuditFilterRequest) (*contract.PageResponse[*contract.AuditResponse], apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionViewRecords); perr != nil {
		return nil, perr
	}

	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	companyID, perr := s.RecordPolicy.ScopeCompany(actor, req.CompanyID)
	if perr != nil {
		// asking for a foreign company yields an empty page
		return &contract.PageResponse[*contract.AuditResponse]{
			Items:    []*contract.AuditResponse{},
			Page:     req.Page,
			PageSize: req.PageSize,
		}, nil
	}

	audits, total, err := s.AuditRepo.FindAll(repository.AuditFilter{
		CompanyID: companyID,
		Status:    entity.AuditStatus(req.Status),
		Norm:      entity.Norm(req.Norm),
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		config.GetLogger().Errorf("failed to fetch audits: %v", err)
		return nil, apierror.InternalServerError
	}

	items := make([]*contract.AuditResponse, len(audits))
	for i, a := range audits {
		items[i] = toAuditResponse(a, false)
	}
	return &contract.PageResponse[*contract.AuditResponse]{
		Items:    items,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

func (s *DefaultAuditService) GetAuditByID(actor *entity.User, id int64) (*contract.AuditResponse, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionViewRecords); perr != nil {
		return nil, perr
	}

	audit, err := s.AuditRepo.FindDetailed(id)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch audit %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if perr := s.RecordPolicy.CanSeeAudit(actor, audit); perr != nil {
		return nil, perr
	}
	return toAuditResponse(audit, true), nil
}

func (s *DefaultAuditService) UpdateAudit(actor *entity.User, id int64, req *contract.UpdateAuditRequest) (*contract.AuditResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	audit, perr := s.modifiable(actor, id)
	if perr != nil {
		return nil, perr
	}

	updater := &auditUpdater{target: audit}
	updater.setStatus(req.Status)
	updater.setCompletedAt(req.CompletedAt)
	updater.setSignature(req.Signature)

	if updater.err != nil {
		return nil, updater.err
	}

	if updater.dirty {
		if err := s.AuditRepo.Save(audit); err != nil {
			config.LogError(config.GetLogger(), "audit_service", "UpdateAudit", "Saving audit", id, err)
			return nil, apierror.InternalServerError
		}
	}
	return toAuditResponse(audit, false), nil
}

// CompleteAudit signs and closes the audit. It does not trigger an analysis.
func (s *DefaultAuditService) CompleteAudit(actor *entity.User, id int64, req *contract.CompleteAuditRequest) (*contract.AuditResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	audit, perr := s.modifiable(actor, id)
	if perr != nil {
		return nil, perr
	}

	if audit.Status != entity.AuditCompleted && !audit.CanMoveTo(entity.AuditCompleted) {
		return nil, apierror.NewInvalidTransitionError(string(audit.Status), string(entity.AuditCompleted))
	}

	now := utils.NowUTC()
	audit.Status = entity.AuditCompleted
	audit.CompletedAt = &now
	if req.Signature != "" {
		audit.Signature = &req.Signature
	}

	if err := s.AuditRepo.Save(audit); err != nil {
		config.LogError(config.GetLogger(), "audit_service", "CompleteAudit", "Saving audit", id, err)
		return nil, apierror.InternalServerError
	}
	return toAuditResponse(audit, false), nil
}

func (s *DefaultAuditService) DeleteAudit(actor *entity.User, id int64) apierror.ErrorResponse {
	if _, perr := s.modifiable(actor, id); perr != nil {
		return perr
	}

	if err := s.AuditRepo.Delete(id); err != nil {
		config.LogError(config.GetLogger(), "audit_service", "DeleteAudit", "Deleting audit", id, err)
		return apierror.InternalServerError
	}
	return nil
}

func (s *DefaultAuditService) modifiable(actor *entity.User, id int64) (*entity.Audit, apierror.ErrorResponse) {
	audit, err := s.AuditRepo.FindByID(id)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch audit %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if perr := s.RecordPolicy.CanModifyAudit(actor, audit, entity.PermissionManageAudits); perr != nil {
		return nil, perr
	}
	return audit, nil
}

func toAuditResponse(a *entity.Audit, detailed bool) *contract.AuditResponse {
	norms := a.NormList()
	names := make([]string, len(norms))
	for i, n := range norms {
		names[i] = string(n)
	}

	resp := &contract.AuditResponse{
		ID:          a.ID,
		Code:        a.Code,
		CompanyID:   a.CompanyID,
		AuditorID:   a.AuditorID,
		Type:        string(a.Type),
		Norms:       names,
		Status:      string(a.Status),
		ScheduledAt: utils.FormatEpoch(a.ScheduledAt),
		CompletedAt: utils.FormatEpochPtr(a.CompletedAt),
		Signature:   a.Signature,
		CreatedAt:   utils.FormatEpoch(a.CreatedAt),
		UpdatedAt:   utils.FormatEpoch(a.UpdatedAt),
	}

	if a.Company.ID != 0 {
		resp.Company = &contract.AuditCompanyResponse{
			ID:   a.Company.ID,
			Name: a.Company.Name,
			RUT:  utils.FormatRUT(a.Company.RUT),
		}
	}
	if a.Auditor.ID != 0 {
		resp.Auditor = &contract.AuditorResponse{
			ID:    a.Auditor.ID,
			Name:  a.Auditor.Name,
			Email: a.Auditor.Email,
		}
	}

	if detailed {
		resp.Findings = make([]*contract.FindingResponse, len(a.Findings))
		for i, f := range a.Findings {
			resp.Findings[i] = toFindingResponse(f)
		}
		if a.Analysis != nil {
			resp.Analysis = toAnalysisResponse(a.Analysis)
		}
	}
	return resp
}
