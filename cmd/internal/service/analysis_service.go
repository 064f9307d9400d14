package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/analysis"
	"hseqaudit/cmd/internal/domain/database"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/events"
	"hseqaudit/cmd/internal/domain/policy"
	"hseqaudit/cmd/internal/infrastructure/coordination"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

const (
	ncDueDays       = 30
	analysisLockTTL = 3 * time.Minute
)

// Analyzer is the analysis engine as seen by the services.
type Analyzer interface {
	Analyze(ctx context.Context, audit analysis.AuditContext, findings []analysis.Finding) analysis.Outcome
	ClassifySeverity(ctx context.Context, requirement, comment string) (analysis.Classification, error)
	Enabled() bool
}

type AnalysisRepository interface {
	FindByAuditID(auditID int64) (*entity.Analysis, error)
	Upsert(analysis *entity.Analysis) error
}

type DefaultAnalysisService struct {
	AnalysisRepo AnalysisRepository
	AuditRepo    AuditRepository
	NCRepo       NCRepository
	Analyzer     Analyzer
	Codes        *CodeGenerator
	Locker       coordination.Locker
	Notifier     Notifier
	RecordPolicy *policy.RecordPolicy
	Validate     *validator.Validate
}

// RunAnalysis analyses every finding of the audit, stores the result, raises
// an NC for each identified non-conformity whose finding has none yet and
// moves the audit to PENDING_REVIEW.
func (s *DefaultAnalysisService) RunAnalysis(ctx context.Context, actor *entity.User, req *contract.AnalyzeRequest) (*contract.AnalysisRunResponse, apierror.ErrorResponse) {
	log := config.GetLogger()

	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	audit, err := s.AuditRepo.FindByID(req.AuditID)
	if err != nil {
		log.Errorf("failed to fetch audit %d: %v", req.AuditID, err)
		return nil, apierror.InternalServerError
	}
	if perr := s.RecordPolicy.CanModifyAudit(actor, audit, entity.PermissionRunAnalysis); perr != nil {
		return nil, perr
	}
	if audit.Status == entity.AuditCancelled {
		return nil, apierror.NewInvalidTransitionError(string(audit.Status), string(entity.AuditPendingReview))
	}

	release, err := s.Locker.Obtain(ctx, fmt.Sprintf("analysis:%d", audit.ID), analysisLockTTL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apierror.AnalysisAbortedError
		}
		return nil, apierror.ResourceBusyError
	}
	defer release()

	// findings are loaded under the lock so NCs raised by a previous run are seen
	audit, err = s.AuditRepo.FindDetailed(audit.ID)
	if err != nil || audit == nil {
		log.Errorf("failed to load audit %d with findings: %v", req.AuditID, err)
		return nil, apierror.InternalServerError
	}

	findings := make([]analysis.Finding, len(audit.Findings))
	byID := make(map[string]*entity.Finding, len(audit.Findings))
	for i, f := range audit.Findings {
		findings[i] = toEngineFinding(f)
		byID[findings[i].ID] = f
	}

	outcome := s.Analyzer.Analyze(ctx, analysis.AuditContext{
		Code:  audit.Code,
		Type:  audit.Type,
		Norms: audit.NormList(),
	}, findings)

	if outcome.Kind == analysis.KindFatal {
		config.LogError(log, "analysis_service", "RunAnalysis", "Analysis aborted", audit.Code, outcome.Err)
		return nil, apierror.AnalysisAbortedError
	}
	res := outcome.Result

	record := &entity.Analysis{
		AuditID:         audit.ID,
		Summary:         res.Summary,
		RiskLevel:       res.RiskLevel,
		Recommendations: res.Recommendations,
		LegalFindings:   res.LegalFindings,
		Source:          res.Source,
	}
	if len(res.Raw) > 0 {
		record.RawResponse = datatypes.JSON(res.Raw)
	}
	if outcome.Degraded() {
		reason := string(outcome.Reason)
		record.DegradedReason = &reason
	}

	if err := s.AnalysisRepo.Upsert(record); err != nil {
		config.LogError(log, "analysis_service", "RunAnalysis", "Storing analysis", audit.Code, err)
		return nil, apierror.InternalServerError
	}

	// the upsert may have kept the id of a previous run
	stored, err := s.AnalysisRepo.FindByAuditID(audit.ID)
	if err != nil || stored == nil {
		log.Errorf("failed to reload analysis of audit %d: %v", audit.ID, err)
		return nil, apierror.InternalServerError
	}

	codes, counts := s.raiseNCs(ctx, res.NonConformities, byID)

	if err := s.AuditRepo.UpdateStatus(audit.ID, entity.AuditPendingReview); err != nil {
		config.LogError(log, "analysis_service", "RunAnalysis", "Moving audit to PENDING_REVIEW", audit.Code, err)
		return nil, apierror.InternalServerError
	}

	notified := dispatch(ctx, s.Notifier, &events.AuditAnalyzed{
		AuditID:        audit.ID,
		AuditCode:      audit.Code,
		RiskLevel:      string(res.RiskLevel),
		Source:         string(res.Source),
		Degraded:       outcome.Degraded(),
		Critical:       counts[entity.SeverityCritical],
		Major:          counts[entity.SeverityMajor],
		Minor:          counts[entity.SeverityMinor],
		CreatedNCCodes: codes,
	})

	log.WithField("source", res.Source).Infof("audit %s analysed: risk %s, %d NCs raised", audit.Code, res.RiskLevel, len(codes))

	return &contract.AnalysisRunResponse{
		AnalysisResponse: toAnalysisResponse(stored),
		NonConformities:  toIdentifiedNCResponses(res.NonConformities),
		CreatedNCCodes:   codes,
		AuditStatus:      string(entity.AuditPendingReview),
		Notified:         notified,
	}, nil
}

// raiseNCs creates the NCs the analysis identified. Findings that already
// have an NC, or that are not non-compliant, are skipped.
func (s *DefaultAnalysisService) raiseNCs(ctx context.Context, identified []analysis.IdentifiedNC, byID map[string]*entity.Finding) ([]string, map[entity.Severity]int) {
	log := config.GetLogger()
	codes := []string{}
	counts := make(map[entity.Severity]int, len(entity.Severities))
	due := utils.AddDays(utils.NowUTC(), ncDueDays)

	for _, inc := range identified {
		counts[inc.Severity]++

		f, ok := byID[inc.FindingID]
		if !ok {
			log.Warnf("analysis referenced unknown finding %q, skipping", inc.FindingID)
			continue
		}
		if f.NC != nil || !f.IsNonCompliant() {
			continue
		}

		nc := &entity.NonConformity{
			FindingID:      f.ID,
			Severity:       inc.Severity,
			Description:    inc.Description,
			LegalReference: inc.LegalReference,
			Status:         entity.NCOpen,
			DueDate:        due,
		}
		if inc.RootCause != "" {
			cause := inc.RootCause
			nc.RootCause = &cause
		}

		code, err := s.Codes.Create(ctx, NCCodes, utils.YearOf(utils.NowUTC()), func(code string) error {
			nc.Code = code
			return s.NCRepo.Create(nc)
		})
		if err != nil {
			if database.IsUniqueViolation(err) {
				continue
			}
			config.LogError(log, "analysis_service", "raiseNCs", "Creating non-conformity", f.ID, err)
			continue
		}
		codes = append(codes, code)
	}
	return codes, counts
}

// TestAnalysis runs the engine on ad-hoc findings without storing anything.
func (s *DefaultAnalysisService) TestAnalysis(ctx context.Context, actor *entity.User, req *contract.TestAnalysisRequest) (*contract.TestAnalysisResponse, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionRunAnalysis); perr != nil {
		return nil, perr
	}

	for _, f := range req.Findings {
		if f != nil {
			utils.Sanitize(f)
		}
	}
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	findings := make([]analysis.Finding, len(req.Findings))
	for i, f := range req.Findings {
		id := f.ID
		if id == "" {
			id = "f" + strconv.Itoa(i+1)
		}
		findings[i] = analysis.Finding{
			ID:          id,
			Norm:        entity.Norm(f.Norm),
			Clause:      f.Clause,
			Requirement: f.Requirement,
			Comment:     f.Comment,
			LegalRef:    f.LegalRef,
			Compliant:   f.Compliant,
		}
	}

	norms := make([]entity.Norm, len(req.Norms))
	for i, n := range req.Norms {
		norms[i] = entity.Norm(n)
	}
	auditType := entity.AuditType(req.AuditType)
	if auditType == "" {
		auditType = entity.AuditInternal
	}

	outcome := s.Analyzer.Analyze(ctx, analysis.AuditContext{Code: "TEST", Type: auditType, Norms: norms}, findings)
	if outcome.Kind == analysis.KindFatal {
		return nil, apierror.AnalysisAbortedError
	}

	res := outcome.Result
	resp := &contract.TestAnalysisResponse{
		Summary:         res.Summary,
		RiskLevel:       string(res.RiskLevel),
		NonConformities: toIdentifiedNCResponses(res.NonConformities),
		Recommendations: res.Recommendations,
		LegalFindings:   toLegalFindingResponses(res.LegalFindings),
		Source:          string(res.Source),
		Degraded:        outcome.Degraded(),
	}
	if outcome.Degraded() {
		reason := string(outcome.Reason)
		resp.DegradedReason = &reason
	}
	return resp, nil
}

func (s *DefaultAnalysisService) GetAnalysis(actor *entity.User, auditID int64) (*contract.AnalysisResponse, apierror.ErrorResponse) {
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

	stored, err := s.AnalysisRepo.FindByAuditID(auditID)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch analysis of audit %d: %v", auditID, err)
		return nil, apierror.InternalServerError
	}
	if stored == nil {
		return nil, apierror.AnalysisNotFoundError
	}
	return toAnalysisResponse(stored), nil
}

func toEngineFinding(f *entity.Finding) analysis.Finding {
	out := analysis.Finding{
		ID:          strconv.FormatInt(f.ID, 10),
		Norm:        f.ChecklistItem.Norm,
		Clause:      f.ChecklistItem.Clause,
		Requirement: f.ChecklistItem.Requirement,
		Comment:     f.Comment,
		Compliant:   f.Compliant,
	}
	if f.ChecklistItem.LegalRef != nil {
		out.LegalRef = *f.ChecklistItem.LegalRef
	}
	return out
}

func toAnalysisResponse(a *entity.Analysis) *contract.AnalysisResponse {
	recommendations := []string(a.Recommendations)
	if recommendations == nil {
		recommendations = []string{}
	}

	return &contract.AnalysisResponse{
		ID:              a.ID,
		AuditID:         a.AuditID,
		Summary:         a.Summary,
		RiskLevel:       string(a.RiskLevel),
		Recommendations: recommendations,
		LegalFindings:   toLegalFindingResponses(a.LegalFindings),
		Source:          string(a.Source),
		Degraded:        a.DegradedReason != nil,
		DegradedReason:  a.DegradedReason,
		CreatedAt:       utils.FormatEpoch(a.CreatedAt),
		UpdatedAt:       utils.FormatEpoch(a.UpdatedAt),
	}
}

func toLegalFindingResponses(findings []entity.LegalFinding) []*contract.LegalFindingResponse {
	resp := make([]*contract.LegalFindingResponse, len(findings))
	for i, f := range findings {
		resp[i] = &contract.LegalFindingResponse{
			Norm:           f.Norm,
			Article:        f.Article,
			Description:    f.Description,
			Recommendation: f.Recommendation,
		}
	}
	return resp
}

func toIdentifiedNCResponses(ncs []analysis.IdentifiedNC) []*contract.IdentifiedNCResponse {
	resp := make([]*contract.IdentifiedNCResponse, len(ncs))
	for i, nc := range ncs {
		resp[i] = &contract.IdentifiedNCResponse{
			FindingID:      nc.FindingID,
			Severity:       string(nc.Severity),
			Description:    nc.Description,
			LegalReference: nc.LegalReference,
			RootCause:      nc.RootCause,
		}
	}
	return resp
}
