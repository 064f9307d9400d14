package contract

import "time"

type CreateNCRequest struct {
	FindingID      int64     `json:"findingId,string" validate:"required"`
	Description    string    `json:"description" validate:"required,notblank,min=5,max=4000"`
	RootCause      *string   `json:"rootCause" validate:"omitempty,max=4000"`
	LegalReference string    `json:"legalReference" validate:"max=500"`
	DueDate        time.Time `json:"dueDate" validate:"required"`
}

type CreateCAPARequest struct {
	Type        string    `json:"type" validate:"required,oneof=CORRECTIVE PREVENTIVE IMPROVEMENT"`
	Description string    `json:"description" validate:"required,notblank,min=5,max=4000"`
	Responsible string    `json:"responsible" validate:"required,notblank,max=120"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
}

type UpdateCAPARequest struct {
	Status      *string    `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED VERIFIED"`
	Description *string    `json:"description" validate:"omitempty,min=5,max=4000"`
	Responsible *string    `json:"responsible" validate:"omitempty,max=120"`
	DueDate     *time.Time `json:"dueDate"`
}

type NCFilterRequest struct {
	AuditID   *int64
	CompanyID *int64
	Severity  string `validate:"omitempty,oneof=CRITICAL MAJOR MINOR"`
	Status    string `validate:"omitempty,oneof=OPEN IN_PROGRESS CLOSED"`
}

type CAPAResponse struct {
	ID              int64  `json:"id,string"`
	NonConformityID int64  `json:"nonConformityId,string"`
	Type            string `json:"type"`
	Description     string `json:"description"`
	Responsible     string `json:"responsible"`
	DueDate         string `json:"dueDate"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

type NCResponse struct {
	ID             int64           `json:"id,string"`
	Code           string          `json:"code"`
	FindingID      int64           `json:"findingId,string"`
	AuditID        int64           `json:"auditId,string,omitempty"`
	AuditCode      string          `json:"auditCode,omitempty"`
	Requirement    string          `json:"requirement,omitempty"`
	Severity       string          `json:"severity"`
	Description    string          `json:"description"`
	RootCause      *string         `json:"rootCause"`
	LegalReference string          `json:"legalReference"`
	Status         string          `json:"status"`
	DueDate        string          `json:"dueDate"`
	ClosedAt       *string         `json:"closedAt"`
	Overdue        bool            `json:"overdue"`
	Notified       *bool           `json:"notified,omitempty"`
	Actions        []*CAPAResponse `json:"actions,omitempty"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
}

type NCStatsResponse struct {
	Total      int64            `json:"total"`
	BySeverity map[string]int64 `json:"bySeverity"`
	ByStatus   map[string]int64 `json:"byStatus"`
	Overdue    int64            `json:"overdue"`
}
