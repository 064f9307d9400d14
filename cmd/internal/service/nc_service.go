package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/database"
	"hseqaudit/cmd/internal/domain/database/repository"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/events"
	"hseqaudit/cmd/internal/domain/policy"
	"hseqaudit/cmd/internal/infrastructure/coordination"
	"hseqaudit/cmd/internal/infrastructure/webhook"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
)

const ncLockTTL = 15 * time.Second

type NCRepository interface {
	FindAll(filter repository.NCFilter) ([]*entity.NonConformity, error)
	FindByID(id int64) (*entity.NonConformity, error)
	FindByCode(code string) (*entity.NonConformity, error)
	Create(nc *entity.NonConformity) error
	Save(nc *entity.NonConformity) error
	FindActionByID(id int64) (*entity.CAPAAction, error)
	CreateAction(action *entity.CAPAAction) error
	SaveAction(action *entity.CAPAAction) error
	CountOpenActions(ncID int64) (int64, error)
	Close(ncID int64, closedAt int64) (bool, error)
	Stats(companyID *int64, now int64) (*repository.NCStats, error)
	CountOpen(companyID *int64, severity entity.Severity) (int64, error)
	CountByAudits(auditIDs []int64) (map[int64]int64, error)
	FindRecentCritical(companyID *int64, limit int) ([]*entity.NonConformity, error)
	FindOverdueUnnotified(now int64, limit int) ([]*entity.NonConformity, error)
	MarkOverdueNotified(id int64, at int64) error
}

// Notifier delivers events to the automation webhook.
type Notifier interface {
	Notify(ctx context.Context, event webhook.Event, data any) bool
	Enabled() bool
}

func dispatch(ctx context.Context, n Notifier, e events.Event) bool {
	if n == nil {
		return false
	}
	return n.Notify(ctx, e.GetType(), e)
}

type DefaultNCService struct {
	NCRepo       NCRepository
	FindingRepo  FindingRepository
	AuditRepo    AuditRepository
	Analyzer     Analyzer
	Codes        *CodeGenerator
	Locker       coordination.Locker
	Notifier     Notifier
	RecordPolicy *policy.RecordPolicy
	Validate     *validator.Validate
}

// CreateNC raises a non-conformity on a non-compliant finding. Critical NCs
// are notified before returning; a failed notification keeps the NC.
func (s *DefaultNCService) CreateNC(ctx context.Context, actor *entity.User, req *contract.CreateNCRequest) (*contract.NCResponse, apierror.ErrorResponse) {
	log := config.GetLogger()

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	finding, err := s.FindingRepo.FindByID(req.FindingID)
	if err != nil {
		log.Errorf("failed to fetch finding %d: %v", req.FindingID, err)
		return nil, apierror.InternalServerError
	}
	if finding == nil {
		return nil, apierror.NotFoundError
	}

	if perr := s.RecordPolicy.CanModifyAudit(actor, &finding.Audit, entity.PermissionManageNCs); perr != nil {
		return nil, perr
	}

	if !finding.IsNonCompliant() {
		return nil, apierror.FindingCompliantError
	}
	if finding.NC != nil {
		return nil, apierror.FindingHasNCError
	}

	class, err := s.Analyzer.ClassifySeverity(ctx, finding.ChecklistItem.Requirement, finding.Comment)
	if err != nil {
		return nil, apierror.AnalysisAbortedError
	}

	nc := &entity.NonConformity{
		FindingID:      finding.ID,
		Severity:       class.Severity,
		Description:    req.Description,
		RootCause:      req.RootCause,
		LegalReference: req.LegalReference,
		Status:         entity.NCOpen,
		DueDate:        utils.ToEpoch(req.DueDate),
	}
	if perr := s.createWithCode(ctx, nc); perr != nil {
		return nil, perr
	}

	log.WithField("severity", nc.Severity).Infof("non-conformity %s raised on finding %d (%s)", nc.Code, finding.ID, class.Source)

	nc.Finding = *finding
	resp := toNCResponse(nc, utils.NowUTC())
	if nc.Severity == entity.SeverityCritical {
		notified := dispatch(ctx, s.Notifier, criticalEvent(nc, finding))
		resp.Notified = &notified
	}
	return resp, nil
}

// createWithCode persists nc under a freshly generated code. A finding that
// got its NC concurrently answers 409.
func (s *DefaultNCService) createWithCode(ctx context.Context, nc *entity.NonConformity) apierror.ErrorResponse {
	_, err := s.Codes.Create(ctx, NCCodes, utils.YearOf(utils.NowUTC()), func(code string) error {
		nc.Code = code
		return s.NCRepo.Create(nc)
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrCodeExhausted) {
		return apierror.CodeExhaustedError
	}
	if database.IsUniqueViolation(err) {
		return apierror.FindingHasNCError
	}
	config.LogError(config.GetLogger(), "nc_service", "createWithCode", "Creating non-conformity", nc.FindingID, err)
	return apierror.InternalServerError
}

func (s *DefaultNCService) AddCAPA(ctx context.Context, actor *entity.User, ncID int64, req *contract.CreateCAPARequest) (*contract.CAPAResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	if _, perr := s.modifiable(actor, ncID, entity.PermissionManageNCs); perr != nil {
		return nil, perr
	}

	release, perr := s.lock(ctx, ncID)
	if perr != nil {
		return nil, perr
	}
	defer release()

	if perr := s.ensureOpen(ncID); perr != nil {
		return nil, perr
	}

	action := &entity.CAPAAction{
		NonConformityID: ncID,
		Type:            entity.CAPAType(req.Type),
		Description:     req.Description,
		Responsible:     req.Responsible,
		DueDate:         utils.ToEpoch(req.DueDate),
		Status:          entity.CAPAPending,
	}

	if err := s.NCRepo.CreateAction(action); err != nil {
		config.LogError(config.GetLogger(), "nc_service", "AddCAPA", "Creating CAPA action", ncID, err)
		return nil, apierror.InternalServerError
	}
	return toCAPAResponse(action), nil
}

// UpdateCAPA edits an action. Verifying an action needs the same permission
// as closing NCs. It runs under the NC lock so a close cannot count the
// actions while one is being reopened.
func (s *DefaultNCService) UpdateCAPA(ctx context.Context, actor *entity.User, capaID int64, req *contract.UpdateCAPARequest) (*contract.CAPAResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	action, perr := s.findAction(capaID)
	if perr != nil {
		return nil, perr
	}

	perm := entity.PermissionManageNCs
	if req.Status != nil && entity.CAPAStatus(*req.Status) == entity.CAPAVerified {
		perm = entity.PermissionCloseNCs
	}

	if _, perr := s.modifiable(actor, action.NonConformityID, perm); perr != nil {
		return nil, perr
	}

	release, perr := s.lock(ctx, action.NonConformityID)
	if perr != nil {
		return nil, perr
	}
	defer release()

	if perr := s.ensureOpen(action.NonConformityID); perr != nil {
		return nil, perr
	}
	if action, perr = s.findAction(capaID); perr != nil {
		return nil, perr
	}

	if req.Status != nil {
		action.Status = entity.CAPAStatus(*req.Status)
	}
	if req.Description != nil && *req.Description != "" {
		action.Description = *req.Description
	}
	if req.Responsible != nil && *req.Responsible != "" {
		action.Responsible = *req.Responsible
	}
	if req.DueDate != nil {
		action.DueDate = utils.ToEpoch(*req.DueDate)
	}

	if err := s.NCRepo.SaveAction(action); err != nil {
		config.LogError(config.GetLogger(), "nc_service", "UpdateCAPA", "Saving CAPA action", capaID, err)
		return nil, apierror.InternalServerError
	}
	return toCAPAResponse(action), nil
}

func (s *DefaultNCService) findAction(capaID int64) (*entity.CAPAAction, apierror.ErrorResponse) {
	action, err := s.NCRepo.FindActionByID(capaID)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch CAPA action %d: %v", capaID, err)
		return nil, apierror.InternalServerError
	}
	if action == nil {
		return nil, apierror.NotFoundError
	}
	return action, nil
}

// ensureOpen re-reads the NC, callers hold its lock.
func (s *DefaultNCService) ensureOpen(ncID int64) apierror.ErrorResponse {
	nc, err := s.NCRepo.FindByID(ncID)
	if err != nil || nc == nil {
		config.GetLogger().Errorf("failed to reload non-conformity %d: %v", ncID, err)
		return apierror.InternalServerError
	}
	if nc.Status == entity.NCClosed {
		return apierror.NCAlreadyClosedError
	}
	return nil
}

// CloseNC closes the NC once every action is COMPLETED or VERIFIED.
func (s *DefaultNCService) CloseNC(ctx context.Context, actor *entity.User, id int64) (*contract.NCResponse, apierror.ErrorResponse) {
	log := config.GetLogger()

	nc, perr := s.modifiable(actor, id, entity.PermissionCloseNCs)
	if perr != nil {
		return nil, perr
	}
	if nc.Status == entity.NCClosed {
		return nil, apierror.NCAlreadyClosedError
	}

	release, perr := s.lock(ctx, id)
	if perr != nil {
		return nil, perr
	}
	defer release()

	closed, err := s.NCRepo.Close(id, utils.NowUTC())
	if err != nil {
		config.LogError(log, "nc_service", "CloseNC", "Closing non-conformity", id, err)
		return nil, apierror.InternalServerError
	}

	if !closed {
		open, err := s.NCRepo.CountOpenActions(id)
		if err != nil {
			log.Errorf("failed to count open actions of %d: %v", id, err)
			return nil, apierror.InternalServerError
		}
		if open > 0 {
			return nil, apierror.NCOpenActionsError
		}
		return nil, apierror.NCAlreadyClosedError
	}

	nc, err = s.NCRepo.FindByID(id)
	if err != nil || nc == nil {
		log.Errorf("failed to reload non-conformity %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	log.Infof("non-conformity %s closed", nc.Code)
	return toNCResponse(nc, utils.NowUTC()), nil
}

func (s *DefaultNCService) GetNCs(actor *entity.User, req *contract.NCFilterRequest) ([]*contract.NCResponse, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionViewRecords); perr != nil {
		return nil, perr
	}

	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	if req.AuditID != nil {
		audit, err := s.AuditRepo.FindByID(*req.AuditID)
		if err != nil {
			config.GetLogger().Errorf("failed to fetch audit %d: %v", *req.AuditID, err)
			return nil, apierror.InternalServerError
		}
		if perr := s.RecordPolicy.CanSeeAudit(actor, audit); perr != nil {
			return nil, perr
		}
	}

	companyID, perr := s.RecordPolicy.ScopeCompany(actor, req.CompanyID)
	if perr != nil {
		return []*contract.NCResponse{}, nil
	}

	ncs, err := s.NCRepo.FindAll(repository.NCFilter{
		AuditID:   req.AuditID,
		CompanyID: companyID,
		Severity:  entity.Severity(req.Severity),
		Status:    entity.NCStatus(req.Status),
	})
	if err != nil {
		config.GetLogger().Errorf("failed to fetch non-conformities: %v", err)
		return nil, apierror.InternalServerError
	}

	now := utils.NowUTC()
	resp := make([]*contract.NCResponse, len(ncs))
	for i, nc := range ncs {
		resp[i] = toNCResponse(nc, now)
	}
	return resp, nil
}

func (s *DefaultNCService) GetNCByID(actor *entity.User, id int64) (*contract.NCResponse, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionViewRecords); perr != nil {
		return nil, perr
	}

	nc, perr := s.visible(actor, id)
	if perr != nil {
		return nil, perr
	}
	return toNCResponse(nc, utils.NowUTC()), nil
}

func (s *DefaultNCService) GetStats(actor *entity.User, companyID *int64) (*contract.NCStatsResponse, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionViewRecords); perr != nil {
		return nil, perr
	}

	scope, perr := s.RecordPolicy.ScopeCompany(actor, companyID)
	if perr != nil {
		return emptyNCStats(), nil
	}

	stats, err := s.NCRepo.Stats(scope, utils.NowUTC())
	if err != nil {
		config.GetLogger().Errorf("failed to compute NC stats: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := emptyNCStats()
	resp.Total = stats.Total
	resp.Overdue = stats.Overdue
	for sev, n := range stats.BySeverity {
		resp.BySeverity[string(sev)] = n
	}
	for st, n := range stats.ByStatus {
		resp.ByStatus[string(st)] = n
	}
	return resp, nil
}

func (s *DefaultNCService) visible(actor *entity.User, id int64) (*entity.NonConformity, apierror.ErrorResponse) {
	nc, err := s.NCRepo.FindByID(id)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch non-conformity %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if nc == nil {
		return nil, apierror.NotFoundError
	}

	if perr := s.RecordPolicy.CanSeeAudit(actor, &nc.Finding.Audit); perr != nil {
		return nil, perr
	}
	return nc, nil
}

func (s *DefaultNCService) modifiable(actor *entity.User, id int64, perm entity.Permission) (*entity.NonConformity, apierror.ErrorResponse) {
	nc, perr := s.visible(actor, id)
	if perr != nil {
		return nil, perr
	}

	if perr := s.RecordPolicy.Require(actor, perm); perr != nil {
		return nil, perr
	}
	return nc, nil
}

func (s *DefaultNCService) lock(ctx context.Context, ncID int64) (func(), apierror.ErrorResponse) {
	release, err := s.Locker.Obtain(ctx, fmt.Sprintf("nc:%d", ncID), ncLockTTL)
	if err == nil {
		return release, nil
	}

	if errors.Is(err, coordination.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return nil, apierror.ResourceBusyError
	}
	config.LogError(config.GetLogger(), "nc_service", "lock", "Obtaining NC lock", ncID, err)
	return nil, apierror.InternalServerError
}

func criticalEvent(nc *entity.NonConformity, finding *entity.Finding) *events.CriticalNC {
	return &events.CriticalNC{
		NCID:           nc.ID,
		Code:           nc.Code,
		Severity:       string(nc.Severity),
		Description:    nc.Description,
		LegalReference: nc.LegalReference,
		AuditID:        finding.AuditID,
		AuditCode:      finding.Audit.Code,
		Requirement:    finding.ChecklistItem.Requirement,
		DueDate:        utils.FormatEpoch(nc.DueDate),
	}
}

func emptyNCStats() *contract.NCStatsResponse {
	resp := &contract.NCStatsResponse{
		BySeverity: make(map[string]int64, len(entity.Severities)),
		ByStatus:   make(map[string]int64, len(entity.NCStatuses)),
	}
	for _, sev := range entity.Severities {
		resp.BySeverity[string(sev)] = 0
	}
	for _, st := range entity.NCStatuses {
		resp.ByStatus[string(st)] = 0
	}
	return resp
}

func toCAPAResponse(a *entity.CAPAAction) *contract.CAPAResponse {
	return &contract.CAPAResponse{
		ID:              a.ID,
		NonConformityID: a.NonConformityID,
		Type:            string(a.Type),
		Description:     a.Description,
		Responsible:     a.Responsible,
		DueDate:         utils.FormatEpoch(a.DueDate),
		Status:          string(a.Status),
		CreatedAt:       utils.FormatEpoch(a.CreatedAt),
		UpdatedAt:       utils.FormatEpoch(a.UpdatedAt),
	}
}

func toNCResponse(nc *entity.NonConformity, now int64) *contract.NCResponse {
	resp := &contract.NCResponse{
		ID:             nc.ID,
		Code:           nc.Code,
		FindingID:      nc.FindingID,
		Severity:       string(nc.Severity),
		Description:    nc.Description,
		RootCause:      nc.RootCause,
		LegalReference: nc.LegalReference,
		Status:         string(nc.Status),
		DueDate:        utils.FormatEpoch(nc.DueDate),
		ClosedAt:       utils.FormatEpochPtr(nc.ClosedAt),
		Overdue:        nc.IsOverdue(now),
		CreatedAt:      utils.FormatEpoch(nc.CreatedAt),
		UpdatedAt:      utils.FormatEpoch(nc.UpdatedAt),
	}

	if nc.Finding.ID != 0 {
		resp.AuditID = nc.Finding.AuditID
		resp.AuditCode = nc.Finding.Audit.Code
		resp.Requirement = nc.Finding.ChecklistItem.Requirement
	}

	if len(nc.Actions) > 0 {
		resp.Actions = make([]*contract.CAPAResponse, len(nc.Actions))
		for i, a := range nc.Actions {
			resp.Actions[i] = toCAPAResponse(a)
		}
	}
	return resp
}
