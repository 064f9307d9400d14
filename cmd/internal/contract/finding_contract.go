package contract

const (
	MaxEvidenceSizeBytes = 10 * 1024 * 1024
	MaxBulkFindings      = 500
)

var ValidEvidenceFileTypes = []string{"pdf", "png", "jpg", "jpeg", "webp", "heic", "mp4", "docx", "xlsx"}

type CreateFindingRequest struct {
	AuditID         int64    `json:"auditId,string" validate:"required"`
	ChecklistItemID int64    `json:"checklistItemId,string" validate:"required"`
	Compliant       *bool    `json:"compliant"`
	Comment         string   `json:"comment" validate:"max=4000"`
	Evidence        []string `json:"evidence" validate:"omitempty,max=50,dive,url"`
}

type BulkFindingItem struct {
	ChecklistItemID int64    `json:"checklistItemId,string" validate:"required"`
	Compliant       *bool    `json:"compliant"`
	Comment         string   `json:"comment" validate:"max=4000"`
	Evidence        []string `json:"evidence" validate:"omitempty,max=50,dive,url"`
}

type BulkFindingsRequest struct {
	AuditID  int64              `json:"auditId,string" validate:"required"`
	Findings []*BulkFindingItem `json:"findings" validate:"required,min=1,max=500,dive,required"`
}

// UpdateFindingRequest is a partial update. An explicit null compliant resets
// the finding to pending.
type UpdateFindingRequest struct {
	Compliant NullableBool `json:"compliant"`
	Comment   *string      `json:"comment" validate:"omitempty,max=4000"`
	Evidence  *[]string    `json:"evidence" validate:"omitempty,max=50,dive,url"`
}

type FindingFilterRequest struct {
	AuditID   *int64
	Compliant *bool
}

type FindingNCResponse struct {
	ID       int64  `json:"id,string"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Status   string `json:"status"`
}

type FindingResponse struct {
	ID              int64                  `json:"id,string"`
	AuditID         int64                  `json:"auditId,string"`
	ChecklistItemID int64                  `json:"checklistItemId,string"`
	ChecklistItem   *ChecklistItemResponse `json:"checklistItem,omitempty"`
	Compliant       *bool                  `json:"compliant"`
	Comment         string                 `json:"comment"`
	Evidence        []string               `json:"evidence"`
	NC              *FindingNCResponse     `json:"nonConformity,omitempty"`
	CreatedAt       string                 `json:"createdAt"`
	UpdatedAt       string                 `json:"updatedAt"`
}

type BulkFindingsResponse struct {
	AuditID  int64              `json:"auditId,string"`
	Count    int                `json:"count"`
	Findings []*FindingResponse `json:"findings"`
}

type FindingSummaryResponse struct {
	AuditID        int64   `json:"auditId,string"`
	Total          int64   `json:"total"`
	Compliant      int64   `json:"compliant"`
	NonCompliant   int64   `json:"nonCompliant"`
	Pending        int64   `json:"pending"`
	ComplianceRate float64 `json:"complianceRate"`
}
