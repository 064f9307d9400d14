package entity

import "gorm.io/datatypes"

type Finding struct {
	Model
	AuditID         int64 `gorm:"not null;uniqueIndex:idx_finding_audit_item"`
	ChecklistItemID int64 `gorm:"not null;uniqueIndex:idx_finding_audit_item;index"`
	// Compliant is tri-state, nil means not evaluated yet.
	Compliant *bool
	Comment   string                      `gorm:"not null;default:''"`
	Evidence  datatypes.JSONSlice[string] `gorm:"not null"`

	// Relations
	Audit         Audit          `gorm:"foreignKey:AuditID;references:ID;constraint:OnDelete:CASCADE"`
	ChecklistItem ChecklistItem  `gorm:"foreignKey:ChecklistItemID;references:ID;constraint:OnDelete:RESTRICT"`
	NC            *NonConformity `gorm:"foreignKey:FindingID;references:ID;constraint:OnDelete:CASCADE"`
}

func (f *Finding) IsNonCompliant() bool {
	return f.Compliant != nil && !*f.Compliant
}
