package entity

type NonConformity struct {
	Model
	Code              string   `gorm:"not null;uniqueIndex"`
	FindingID         int64    `gorm:"not null;uniqueIndex"`
	Severity          Severity `gorm:"not null;index"`
	Description       string   `gorm:"not null"`
	RootCause         *string
	LegalReference    string   `gorm:"not null;default:''"`
	Status            NCStatus `gorm:"not null;index"`
	DueDate           int64    `gorm:"not null;index"`
	ClosedAt          *int64
	OverdueNotifiedAt *int64

	// Relations
	Finding Finding       `gorm:"foreignKey:FindingID;references:ID;constraint:OnDelete:CASCADE"`
	Actions []*CAPAAction `gorm:"foreignKey:NonConformityID;references:ID;constraint:OnDelete:CASCADE"`
}

func (NonConformity) TableName() string {
	return "non_conformities"
}

func (n *NonConformity) IsOverdue(now int64) bool {
	return n.Status != NCClosed && n.DueDate < now
}

type CAPAAction struct {
	Model
	NonConformityID int64      `gorm:"not null;index"`
	Type            CAPAType   `gorm:"not null"`
	Description     string     `gorm:"not null"`
	Responsible     string     `gorm:"not null"`
	DueDate         int64      `gorm:"not null"`
	Status          CAPAStatus `gorm:"not null"`
}

func (CAPAAction) TableName() string {
	return "capa_actions"
}
