package entity

import "gorm.io/datatypes"

type LegalFinding struct {
	Norm           string `json:"norm"`
	Article        string `json:"article"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Analysis is the persisted outcome of analysing one audit.
type Analysis struct {
	Model
	AuditID         int64                             `gorm:"not null;uniqueIndex"`
	Summary         string                            `gorm:"not null"`
	RiskLevel       RiskLevel                         `gorm:"not null"`
	Recommendations datatypes.JSONSlice[string]       `gorm:"not null"`
	LegalFindings   datatypes.JSONSlice[LegalFinding] `gorm:"not null"`
	RawResponse     datatypes.JSON
	Source          AnalysisSource `gorm:"not null"`
	DegradedReason  *string
}

type NormReference struct {
	Model
	Name     string                      `gorm:"not null;uniqueIndex:idx_norm_ref_name_article"`
	Article  string                      `gorm:"not null;uniqueIndex:idx_norm_ref_name_article"`
	Title    string                      `gorm:"not null"`
	Content  string                      `gorm:"not null"`
	Keywords datatypes.JSONSlice[string] `gorm:"not null"`
}

// CodeSequence is the per-scope counter behind human readable codes, e.g.
// scope "AUD-2026".
type CodeSequence struct {
	Scope string `gorm:"primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

func (Analysis) TableName() string {
	return "analyses"
}
