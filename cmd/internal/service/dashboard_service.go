package service

import (
	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/policy"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"
)

const dashboardListSize = 5

type DefaultDashboardService struct {
	AuditRepo    AuditRepository
	FindingRepo  FindingRepository
	NCRepo       NCRepository
	RecordPolicy *policy.RecordPolicy
}

func NewDashboardService(auditRepo AuditRepository, findingRepo FindingRepository, ncRepo NCRepository, recordPolicy *policy.RecordPolicy) *DefaultDashboardService {
	return &DefaultDashboardService{
		AuditRepo:    auditRepo,
		FindingRepo:  findingRepo,
		NCRepo:       ncRepo,
		RecordPolicy: recordPolicy,
	}
}

func (s *DefaultDashboardService) GetStats(actor *entity.User) (*contract.DashboardStatsResponse, apierror.ErrorResponse) {
	if perr := s.RecordPolicy.Require(actor, entity.PermissionViewRecords); perr != nil {
		return nil, perr
	}

	scope, _ := s.RecordPolicy.ScopeCompany(actor, nil)
	resp, err := s.stats(scope)
	if err != nil {
		config.LogError(config.GetLogger(), "dashboard_service", "GetStats", "Computing dashboard", scope, err)
		return nil, apierror.InternalServerError
	}
	return resp, nil
}

func (s *DefaultDashboardService) stats(companyID *int64) (*contract.DashboardStatsResponse, error) {
	byStatus, err := s.AuditRepo.CountByStatus(companyID)
	if err != nil {
		return nil, err
	}

	audits := &contract.AuditCountsResponse{ByStatus: make(map[string]int64, len(entity.AuditStatuses))}
	for _, st := range entity.AuditStatuses {
		audits.ByStatus[string(st)] = byStatus[st]
		audits.Total += byStatus[st]
	}

	openNCs, err := s.NCRepo.CountOpen(companyID, "")
	if err != nil {
		return nil, err
	}
	criticalOpen, err := s.NCRepo.CountOpen(companyID, entity.SeverityCritical)
	if err != nil {
		return nil, err
	}

	evaluated, err := s.FindingRepo.EvaluatedByNorm(companyID)
	if err != nil {
		return nil, err
	}

	type tally struct{ evaluated, compliant int64 }
	perNorm := make(map[entity.Norm]*tally, len(entity.Norms))
	for _, n := range entity.Norms {
		perNorm[n] = &tally{}
	}

	var total, compliant int64
	for _, row := range evaluated {
		t, ok := perNorm[row.Norm]
		if !ok {
			continue
		}
		t.evaluated++
		total++
		if row.Compliant {
			t.compliant++
			compliant++
		}
	}

	byNorm := make([]*contract.NormComplianceResponse, 0, len(entity.Norms))
	for _, n := range entity.Norms {
		t := perNorm[n]
		byNorm = append(byNorm, &contract.NormComplianceResponse{
			Norm:           string(n),
			Evaluated:      t.evaluated,
			Compliant:      t.compliant,
			ComplianceRate: percentage(t.compliant, t.evaluated),
		})
	}

	recent, err := s.AuditRepo.FindRecent(companyID, dashboardListSize)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(recent))
	for i, a := range recent {
		ids[i] = a.ID
	}
	ncCounts, err := s.NCRepo.CountByAudits(ids)
	if err != nil {
		return nil, err
	}

	recentResp := make([]*contract.RecentAuditResponse, len(recent))
	for i, a := range recent {
		recentResp[i] = &contract.RecentAuditResponse{
			AuditResponse: toAuditResponse(a, false),
			NCCount:       ncCounts[a.ID],
		}
	}

	critical, err := s.NCRepo.FindRecentCritical(companyID, dashboardListSize)
	if err != nil {
		return nil, err
	}

	now := utils.NowUTC()
	criticalResp := make([]*contract.NCResponse, len(critical))
	for i, nc := range critical {
		criticalResp[i] = toNCResponse(nc, now)
	}

	return &contract.DashboardStatsResponse{
		Audits:           audits,
		OpenNCs:          openNCs,
		CriticalOpenNCs:  criticalOpen,
		ComplianceRate:   percentage(compliant, total),
		RecentAudits:     recentResp,
		CriticalNCs:      criticalResp,
		ComplianceByNorm: byNorm,
	}, nil
}
