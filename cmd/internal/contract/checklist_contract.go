package contract

type CreateChecklistItemRequest struct {
	Code          string  `json:"code" validate:"required,notblank,max=40"`
	Norm          string  `json:"norm" validate:"required,norm"`
	Clause        string  `json:"clause" validate:"required,max=20"`
	Requirement   string  `json:"requirement" validate:"required,notblank,max=1000"`
	VerificationQ string  `json:"verificationQuestion" validate:"required,notblank,max=1000"`
	LegalRef      *string `json:"legalRef" validate:"omitempty,max=300"`
}

type ChecklistItemResponse struct {
	ID            int64   `json:"id,string"`
	Code          string  `json:"code"`
	Norm          string  `json:"norm"`
	Clause        string  `json:"clause"`
	Requirement   string  `json:"requirement"`
	VerificationQ string  `json:"verificationQuestion"`
	LegalRef      *string `json:"legalRef"`
}

type TrinormaGroup struct {
	Norm  string                   `json:"norm"`
	Items []*ChecklistItemResponse `json:"items"`
}

type TrinormaResponse struct {
	Total  int              `json:"total"`
	Groups []*TrinormaGroup `json:"groups"`
}

type SeedResponse struct {
	ChecklistItems int   `json:"checklistItems"`
	NormReferences int   `json:"normReferences"`
	CompanyID      int64 `json:"companyId,string"`
	AuditorID      int64 `json:"auditorId,string"`
}

type IntegrationsResponse struct {
	LLM             bool `json:"llm"`
	Webhook         bool `json:"webhook"`
	EvidenceStorage bool `json:"evidenceStorage"`
	Redis           bool `json:"redis"`
	IdentityInvites bool `json:"identityInvites"`
}

type DemoConfigResponse struct {
	CompanyID    *int64                `json:"companyId,string"`
	AuditorID    *int64                `json:"auditorId,string"`
	LLMModel     string                `json:"llmModel"`
	Integrations *IntegrationsResponse `json:"integrations"`
}
