package entity

type ChecklistItem struct {
	Model
	Code          string `gorm:"not null;uniqueIndex"`
	Norm          Norm   `gorm:"not null;index"`
	Clause        string `gorm:"not null;index"`
	Requirement   string `gorm:"not null"`
	VerificationQ string `gorm:"column:verification_q;not null"`
	LegalRef      *string
}
