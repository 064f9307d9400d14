package contract

type AnalyzeRequest struct {
	AuditID int64 `json:"auditId,string" validate:"required"`
}

type TestFinding struct {
	ID          string `json:"id" validate:"max=40"`
	Norm        string `json:"norm" validate:"omitempty,norm"`
	Clause      string `json:"clause" validate:"max=20"`
	Requirement string `json:"requirement" validate:"required,notblank,max=1000"`
	Comment     string `json:"comment" validate:"max=4000"`
	LegalRef    string `json:"legalRef" validate:"max=300"`
	Compliant   *bool  `json:"compliant"`
}

type TestAnalysisRequest struct {
	AuditType string         `json:"auditType" validate:"omitempty,oneof=INTERNAL EXTERNAL SURVEILLANCE CERTIFICATION"`
	Norms     []string       `json:"norms" validate:"omitempty,max=3,nodupes,dive,norm"`
	Findings  []*TestFinding `json:"findings" validate:"required,min=1,max=500,dive,required"`
}

type LegalFindingResponse struct {
	Norm           string `json:"norm"`
	Article        string `json:"article"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation,omitempty"`
}

type IdentifiedNCResponse struct {
	FindingID      string `json:"findingId"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	LegalReference string `json:"legalReference"`
	RootCause      string `json:"rootCause,omitempty"`
}

type AnalysisResponse struct {
	ID              int64                   `json:"id,string"`
	AuditID         int64                   `json:"auditId,string"`
	Summary         string                  `json:"summary"`
	RiskLevel       string                  `json:"riskLevel"`
	Recommendations []string                `json:"recommendations"`
	LegalFindings   []*LegalFindingResponse `json:"legalFindings"`
	Source          string                  `json:"source"`
	Degraded        bool                    `json:"degraded"`
	DegradedReason  *string                 `json:"degradedReason"`
	CreatedAt       string                  `json:"createdAt"`
	UpdatedAt       string                  `json:"updatedAt"`
}

type AnalysisRunResponse struct {
	*AnalysisResponse
	NonConformities []*IdentifiedNCResponse `json:"nonConformities"`
	CreatedNCCodes  []string                `json:"createdNcCodes"`
	AuditStatus     string                  `json:"auditStatus"`
	Notified        bool                    `json:"notified"`
}

type TestAnalysisResponse struct {
	Summary         string                  `json:"summary"`
	RiskLevel       string                  `json:"riskLevel"`
	NonConformities []*IdentifiedNCResponse `json:"nonConformities"`
	Recommendations []string                `json:"recommendations"`
	LegalFindings   []*LegalFindingResponse `json:"legalFindings"`
	Source          string                  `json:"source"`
	Degraded        bool                    `json:"degraded"`
	DegradedReason  *string                 `json:"degradedReason"`
}
