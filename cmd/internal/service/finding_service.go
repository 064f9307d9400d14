package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/database"
	"hseqaudit/cmd/internal/domain/database/repository"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/policy"
	"hseqaudit/cmd/internal/infrastructure/aws/storage"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FindingRepository interface {
	FindAll(filter repository.FindingFilter) ([]*entity.Finding, error)
	FindByID(id int64) (*entity.Finding, error)
	Create(finding *entity.Finding) error
	UpsertMany(findings []*entity.Finding) error
	Save(finding *entity.Finding) error
	Delete(id int64) error
	CountByAudit(auditID int64) (*repository.FindingCounts, error)
	EvaluatedByNorm(companyID *int64) ([]repository.NormCompliance, error)
}

type DefaultFindingService struct {
	FindingRepo   FindingRepository
	AuditRepo     AuditRepository
	ChecklistRepo ChecklistRepository
	S3            storage.S3Client
	RecordPolicy  *policy.RecordPolicy
	Validate      *validator.Validate
}

func NewFindingService(
	findingRepo FindingRepository,
	auditRepo AuditRepository,
	checklistRepo ChecklistRepository,
	s3 storage.S3Client,
	recordPolicy *policy.RecordPolicy,
	validate *validator.Validate,
) *DefaultFindingService {
	return &DefaultFindingService{
		FindingRepo:   findingRepo,
		AuditRepo:     auditRepo,
		ChecklistRepo: checklistRepo,
		S3:            s3,
		RecordPolicy:  recordPolicy,
		Validate:      validate,
	}
}

func (s *DefaultFindingService) CreateFinding(actor *entity.User, req *contract.CreateFindingRequest) (*contract.FindingResponse, apierror.ErrorResponse) {
	log := config.GetLogger()

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	audit, perr := s.recordableAudit(actor, req.AuditID)
	if perr != nil {
		return nil, perr
	}

	items, err := s.ChecklistRepo.FindByIDs([]int64{req.ChecklistItemID})
	if err != nil {
		log.Errorf("failed to fetch checklist item %d: %v", req.ChecklistItemID, err)
		return nil, apierror.InternalServerError
	}
	if len(items) == 0 {
		return nil, apierror.NewFieldError("checklistItemId", "Checklist item does not exist")
	}

	finding := &entity.Finding{
		AuditID:         audit.ID,
		ChecklistItemID: req.ChecklistItemID,
		Compliant:       req.Compliant,
		Comment:         req.Comment,
		Evidence:        evidenceOf(req.Evidence),
	}

	if err := s.FindingRepo.Create(finding); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apierror.DuplicateFindingError
		}
		config.LogError(log, "finding_service", "CreateFinding", "Creating finding", req, err)
		return nil, apierror.InternalServerError
	}

	s.markInProgress(audit)
	finding.ChecklistItem = *items[0]
	return toFindingResponse(finding), nil
}

// BulkCreateFindings records a whole checklist pass at once. Items evaluated
// twice in the same batch keep the last evaluation, and items already
// evaluated in the audit are overwritten unless that would clear the
// non-compliance an NC was raised from.
func (s *DefaultFindingService) BulkCreateFindings(actor *entity.User, req *contract.BulkFindingsRequest) (*contract.BulkFindingsResponse, apierror.ErrorResponse) {
	log := config.GetLogger()

	if len(req.Findings) == 0 {
		return nil, apierror.EmptyBulkError
	}
	for _, item := range req.Findings {
		if item != nil {
			utils.Sanitize(item)
		}
	}
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	audit, perr := s.recordableAudit(actor, req.AuditID)
	if perr != nil {
		return nil, perr
	}

	latest := make(map[int64]*contract.BulkFindingItem, len(req.Findings))
	order := make([]int64, 0, len(req.Findings))
	for _, item := range req.Findings {
		if _, seen := latest[item.ChecklistItemID]; !seen {
			order = append(order, item.ChecklistItemID)
		}
		latest[item.ChecklistItemID] = item
	}

	items, err := s.ChecklistRepo.FindByIDs(order)
	if err != nil {
		log.Errorf("failed to fetch checklist items: %v", err)
		return nil, apierror.InternalServerError
	}

	known := make(map[int64]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}

	verr := apierror.NewStructured(http.StatusBadRequest)
	for i, item := range req.Findings {
		if !known[item.ChecklistItemID] {
			verr.Add(fmt.Sprintf("findings[%d].checklistItemId", i), "Checklist item does not exist")
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	existing, err := s.FindingRepo.FindAll(repository.FindingFilter{AuditID: &audit.ID})
	if err != nil {
		log.Errorf("failed to fetch findings of audit %d: %v", audit.ID, err)
		return nil, apierror.InternalServerError
	}
	withNC := make(map[int64]bool, len(existing))
	for _, f := range existing {
		if f.NC != nil {
			withNC[f.ChecklistItemID] = true
		}
	}

	conflict := apierror.NewStructured(http.StatusConflict)
	for i, item := range req.Findings {
		if withNC[item.ChecklistItemID] && !nonCompliant(item.Compliant) {
			conflict.Add(fmt.Sprintf("findings[%d].compliant", i), "Finding already has a non-conformity")
		}
	}
	if !conflict.Empty() {
		return nil, conflict
	}

	findings := make([]*entity.Finding, len(order))
	for i, id := range order {
		item := latest[id]
		findings[i] = &entity.Finding{
			AuditID:         audit.ID,
			ChecklistItemID: id,
			Compliant:       item.Compliant,
			Comment:         item.Comment,
			Evidence:        evidenceOf(item.Evidence),
		}
	}

	if err := s.FindingRepo.UpsertMany(findings); err != nil {
		config.LogError(log, "finding_service", "BulkCreateFindings", "Upserting findings", audit.ID, err)
		return nil, apierror.InternalServerError
	}
	s.markInProgress(audit)

	// re-read, upserted rows keep the ids they already had
	saved, err := s.FindingRepo.FindAll(repository.FindingFilter{AuditID: &audit.ID})
	if err != nil {
		log.Errorf("failed to fetch findings of audit %d: %v", audit.ID, err)
		return nil, apierror.InternalServerError
	}

	resp := &contract.BulkFindingsResponse{AuditID: audit.ID, Findings: make([]*contract.FindingResponse, 0, len(findings))}
	for _, f := range saved {
		if _, ok := latest[f.ChecklistItemID]; ok {
			resp.Findings = append(resp.Findings, toFindingResponse(f))
		}
	}
	resp.Count = len(resp.Findings)
	return resp, nil
}

func (s *DefaultFindingService) GetFindings(actor *entity.User, req *contract.FindingFilterRequest) ([]*contract.FindingResponse, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionViewRecords); perr != nil {
		return nil, perr
	}

	filter := repository.FindingFilter{AuditID: req.AuditID, Compliant: req.Compliant}
	if req.AuditID != nil {
		audit, err := s.AuditRepo.FindByID(*req.AuditID)
		if err != nil {
			config.GetLogger().Errorf("failed to fetch audit %d: %v", *req.AuditID, err)
			return nil, apierror.InternalServerError
		}
		if perr := s.RecordPolicy.CanSeeAudit(actor, audit); perr != nil {
			return nil, perr
		}
	} else {
		filter.CompanyID, _ = s.RecordPolicy.ScopeCompany(actor, nil)
	}

	findings, err := s.FindingRepo.FindAll(filter)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch findings: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.FindingResponse, len(findings))
	for i, f := range findings {
		resp[i] = toFindingResponse(f)
	}
	return resp, nil
}

func (s *DefaultFindingService) UpdateFinding(actor *entity.User, id int64, req *contract.UpdateFindingRequest) (*contract.FindingResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if req.Evidence != nil {
		for i := range *req.Evidence {
			(*req.Evidence)[i] = strings.TrimSpace((*req.Evidence)[i])
		}
	}
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	finding, perr := s.modifiable(actor, id)
	if perr != nil {
		return nil, perr
	}

	if req.Compliant.Set {
		if finding.NC != nil && !nonCompliant(req.Compliant.Value) {
			return nil, apierror.FindingHasNCError
		}
		finding.Compliant = req.Compliant.Value
	}
	if req.Comment != nil {
		finding.Comment = *req.Comment
	}
	if req.Evidence != nil {
		finding.Evidence = evidenceOf(*req.Evidence)
	}

	if err := s.FindingRepo.Save(finding); err != nil {
		config.LogError(config.GetLogger(), "finding_service", "UpdateFinding", "Saving finding", id, err)
		return nil, apierror.InternalServerError
	}
	return toFindingResponse(finding), nil
}

func (s *DefaultFindingService) DeleteFinding(actor *entity.User, id int64) apierror.ErrorResponse {
	if _, perr := s.modifiable(actor, id); perr != nil {
		return perr
	}

	if err := s.FindingRepo.Delete(id); err != nil {
		config.LogError(config.GetLogger(), "finding_service", "DeleteFinding", "Deleting finding", id, err)
		return apierror.InternalServerError
	}
	return nil
}

func (s *DefaultFindingService) GetSummary(actor *entity.User, auditID int64) (*contract.FindingSummaryResponse, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionViewRecords); perr != nil {
		return nil, perr
	}

	audit, err := s.AuditRepo.FindByID(auditID)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch audit %d: %v", auditID, err)
		return nil, apierror.InternalServerError
	}
	if perr := s.RecordPolicy.CanSeeAudit(actor, audit); perr != nil {
		return nil, perr
	}

	counts, err := s.FindingRepo.CountByAudit(auditID)
	if err != nil {
		config.GetLogger().Errorf("failed to count findings of audit %d: %v", auditID, err)
		return nil, apierror.InternalServerError
	}

	return &contract.FindingSummaryResponse{
		AuditID:        auditID,
		Total:          counts.Total,
		Compliant:      counts.Compliant,
		NonCompliant:   counts.NonCompliant,
		Pending:        counts.Total - counts.Compliant - counts.NonCompliant,
		ComplianceRate: percentage(counts.Compliant, counts.Total),
	}, nil
}

// AttachEvidence uploads the file to the evidence bucket and appends its URL
// to the finding.
func (s *DefaultFindingService) AttachEvidence(ctx context.Context, actor *entity.User, id int64, fileHeader *multipart.FileHeader) (*contract.FindingResponse, apierror.ErrorResponse) {
	finding, perr := s.modifiable(actor, id)
	if perr != nil {
		return nil, perr
	}

	if !s.S3.Enabled() {
		return nil, apierror.StorageDisabledError
	}

	ext, apierr := checkEvidenceFile(fileHeader)
	if apierr != nil {
		return nil, apierr
	}

	data, apierr := readEvidenceFile(fileHeader)
	if apierr != nil {
		return nil, apierr
	}

	key := fmt.Sprintf("%d/%s%s", finding.AuditID, uuid.NewString(), ext)
	url, err := s.S3.UploadFile(ctx, data, key)
	if err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, apierror.StorageDisabledError
		}
		config.LogError(config.GetLogger(), "finding_service", "AttachEvidence", "Uploading evidence", key, err)
		return nil, apierror.InternalServerError
	}

	finding.Evidence = append(finding.Evidence, url)
	if err := s.FindingRepo.Save(finding); err != nil {
		config.LogError(config.GetLogger(), "finding_service", "AttachEvidence", "Saving finding", id, err)
		return nil, apierror.InternalServerError
	}
	return toFindingResponse(finding), nil
}

func (s *DefaultFindingService) recordableAudit(actor *entity.User, auditID int64) (*entity.Audit, apierror.ErrorResponse) {
	audit, err := s.AuditRepo.FindByID(auditID)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch audit %d: %v", auditID, err)
		return nil, apierror.InternalServerError
	}

	if perr := s.RecordPolicy.CanModifyAudit(actor, audit, entity.PermissionRecordFindings); perr != nil {
		return nil, perr
	}
	return audit, nil
}

func (s *DefaultFindingService) modifiable(actor *entity.User, id int64) (*entity.Finding, apierror.ErrorResponse) {
	finding, err := s.FindingRepo.FindByID(id)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch finding %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if finding == nil {
		return nil, apierror.NotFoundError
	}

	if perr := s.RecordPolicy.CanModifyAudit(actor, &finding.Audit, entity.PermissionRecordFindings); perr != nil {
		return nil, perr
	}
	return finding, nil
}

func nonCompliant(compliant *bool) bool {
	return compliant != nil && !*compliant
}

func (s *DefaultFindingService) markInProgress(audit *entity.Audit) {
	if audit.Status != entity.AuditDraft {
		return
	}

	if err := s.AuditRepo.MarkInProgress(audit.ID); err != nil {
		config.LogError(config.GetLogger(), "finding_service", "markInProgress", "Moving audit to IN_PROGRESS", audit.ID, err)
	}
}

func checkEvidenceFile(fileHeader *multipart.FileHeader) (string, apierror.ErrorResponse) {
	if fileHeader.Size > contract.MaxEvidenceSizeBytes {
		return "", apierror.NewEvidenceTooLargeError(contract.MaxEvidenceSizeBytes)
	}

	if strings.TrimSpace(fileHeader.Filename) == "" {
		return "", apierror.MissingFileNameError
	}

	ext, ok := utils.CheckFileExt(fileHeader.Filename, contract.ValidEvidenceFileTypes)
	if !ok {
		return "", apierror.NewInvalidFileExtError(ext)
	}
	return ext, nil
}

func readEvidenceFile(fileHeader *multipart.FileHeader) ([]byte, apierror.ErrorResponse) {
	file, err := fileHeader.Open()
	if err != nil {
		config.GetLogger().Errorf("failed to open file: %v", err)
		return nil, apierror.InternalServerError
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, contract.MaxEvidenceSizeBytes+1))
	if err != nil {
		config.GetLogger().Errorf("failed to read file: %v", err)
		return nil, apierror.InternalServerError
	}

	if len(data) > contract.MaxEvidenceSizeBytes {
		return nil, apierror.NewEvidenceTooLargeError(contract.MaxEvidenceSizeBytes)
	}
	return data, nil
}

// percentage returns part/total*100 rounded to two decimals, 0 for an empty total.
func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(2).
		InexactFloat64()
}

func evidenceOf(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}

func toFindingResponse(f *entity.Finding) *contract.FindingResponse {
	resp := &contract.FindingResponse{
		ID:              f.ID,
		AuditID:         f.AuditID,
		ChecklistItemID: f.ChecklistItemID,
		Compliant:       f.Compliant,
		Comment:         f.Comment,
		Evidence:        evidenceOf(f.Evidence),
		CreatedAt:       utils.FormatEpoch(f.CreatedAt),
		UpdatedAt:       utils.FormatEpoch(f.UpdatedAt),
	}

	if f.ChecklistItem.ID != 0 {
		resp.ChecklistItem = toChecklistItemResponse(&f.ChecklistItem)
	}
	if f.NC != nil {
		resp.NC = &contract.FindingNCResponse{
			ID:       f.NC.ID,
			Code:     f.NC.Code,
			Severity: string(f.NC.Severity),
			Status:   string(f.NC.Status),
		}
	}
	return resp
}
