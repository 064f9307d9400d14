package contract

import "time"

type CreateAuditRequest struct {
	CompanyID   int64     `json:"companyId,string" validate:"required"`
	AuditorID   int64     `json:"auditorId,string" validate:"required"`
	Type        string    `json:"type" validate:"required,oneof=INTERNAL EXTERNAL SURVEILLANCE CERTIFICATION"`
	Norms       []string  `json:"norms" validate:"required,min=1,max=3,nodupes,dive,norm"`
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
}

type UpdateAuditRequest struct {
	Status      *string    `json:"status" validate:"omitempty,oneof=DRAFT IN_PROGRESS PENDING_REVIEW COMPLETED CANCELLED"`
	CompletedAt *time.Time `json:"completedAt"`
	Signature   *string    `json:"signature" validate:"omitempty,max=500000"`
}

type CompleteAuditRequest struct {
	Signature string `json:"signature" validate:"max=500000"`
}

type AuditFilterRequest struct {
	CompanyID *int64
	Status    string `validate:"omitempty,oneof=DRAFT IN_PROGRESS PENDING_REVIEW COMPLETED CANCELLED"`
	Norm      string `validate:"omitempty,norm"`
	Page      int    `validate:"min=1"`
	PageSize  int    `validate:"min=1,max=100"`
}

type AuditCompanyResponse struct {
	ID   int64  `json:"id,string"`
	Name string `json:"name"`
	RUT  string `json:"rut"`
}

type AuditorResponse struct {
	ID    int64  `json:"id,string"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuditResponse struct {
	ID          int64                 `json:"id,string"`
	Code        string                `json:"code"`
	CompanyID   int64                 `json:"companyId,string"`
	Company     *AuditCompanyResponse `json:"company,omitempty"`
	AuditorID   int64                 `json:"auditorId,string"`
	Auditor     *AuditorResponse      `json:"auditor,omitempty"`
	Type        string                `json:"type"`
	Norms       []string              `json:"norms"`
	Status      string                `json:"status"`
	ScheduledAt string                `json:"scheduledAt"`
	CompletedAt *string               `json:"completedAt"`
	Signature   *string               `json:"signature,omitempty"`
	CreatedAt   string                `json:"createdAt"`
	UpdatedAt   string                `json:"updatedAt"`
	Findings    []*FindingResponse    `json:"findings,omitempty"`
	Analysis    *AnalysisResponse     `json:"analysis,omitempty"`
}
