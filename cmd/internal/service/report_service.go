package service

import (
	"errors"
	"io"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/policy"
	"hseqaudit/cmd/internal/infrastructure/report"
	"hseqaudit/cmd/internal/utils/apierror"
)

var ErrAuditNotFound = errors.New("audit not found")

type DefaultReportService struct {
	AuditRepo    AuditRepository
	RecordPolicy *policy.RecordPolicy
}

func NewReportService(auditRepo AuditRepository, recordPolicy *policy.RecordPolicy) *DefaultReportService {
	return &DefaultReportService{AuditRepo: auditRepo, RecordPolicy: recordPolicy}
}

// GetAuditReport loads the report of an audit visible to actor.
func (s *DefaultReportService) GetAuditReport(actor *entity.User, auditID int64) (*report.AuditReport, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionExportReports); perr != nil {
		return nil, perr
	}

	audit, err := s.AuditRepo.FindDetailed(auditID)
	if err != nil {
		config.GetLogger().Errorf("failed to fetch audit %d: %v", auditID, err)
		return nil, apierror.InternalServerError
	}
	if perr := s.RecordPolicy.CanSeeAudit(actor, audit); perr != nil {
		return nil, perr
	}
	return buildAuditReport(audit), nil
}

// ExportAudit writes the workbook of an audit without any permission check,
// for operator tooling.
func (s *DefaultReportService) ExportAudit(w io.Writer, auditID int64) (string, error) {
	audit, err := s.AuditRepo.FindDetailed(auditID)
	if err != nil {
		return "", err
	}
	if audit == nil {
		return "", ErrAuditNotFound
	}

	return report.FileName(audit), report.Write(w, buildAuditReport(audit))
}

func buildAuditReport(audit *entity.Audit) *report.AuditReport {
	r := &report.AuditReport{Audit: audit, Total: int64(len(audit.Findings))}
	for _, f := range audit.Findings {
		switch {
		case f.Compliant == nil:
			r.Pending++
		case *f.Compliant:
			r.Compliant++
		default:
			r.NonCompliant++
		}
	}
	r.ComplianceRate = percentage(r.Compliant, r.Total)
	return r
}
