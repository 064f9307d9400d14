package contract

type AuditCountsResponse struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

type RecentAuditResponse struct {
	*AuditResponse
	NCCount int64 `json:"ncCount"`
}

type NormComplianceResponse struct {
	Norm           string  `json:"norm"`
	Evaluated      int64   `json:"evaluated"`
	Compliant      int64   `json:"compliant"`
	ComplianceRate float64 `json:"complianceRate"`
}

type DashboardStatsResponse struct {
	Audits           *AuditCountsResponse      `json:"audits"`
	OpenNCs          int64                     `json:"openNcs"`
	CriticalOpenNCs  int64                     `json:"criticalOpenNcs"`
	ComplianceRate   float64                   `json:"complianceRate"`
	RecentAudits     []*RecentAuditResponse    `json:"recentAudits"`
	CriticalNCs      []*NCResponse             `json:"criticalNcs"`
	ComplianceByNorm []*NormComplianceResponse `json:"complianceByNorm"`
}
