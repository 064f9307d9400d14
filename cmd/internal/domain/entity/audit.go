package entity

import "strings"

type Audit struct {
	Model
	Code        string      `gorm:"not null;uniqueIndex"`
	CompanyID   int64       `gorm:"not null;index"`
	AuditorID   int64       `gorm:"not null;index"`
	Type        AuditType   `gorm:"not null"`
	Norms       string      `gorm:"not null"` // space separated Norm values
	Status      AuditStatus `gorm:"not null;index"`
	ScheduledAt int64       `gorm:"not null"`
	CompletedAt *int64
	Signature   *string

	// Relations
	Company  Company    `gorm:"foreignKey:CompanyID;references:ID;constraint:OnDelete:RESTRICT"`
	Auditor  User       `gorm:"foreignKey:AuditorID;references:ID;constraint:OnDelete:RESTRICT"`
	Findings []*Finding `gorm:"foreignKey:AuditID;references:ID;constraint:OnDelete:CASCADE"`
	Analysis *Analysis  `gorm:"foreignKey:AuditID;references:ID;constraint:OnDelete:CASCADE"`
}

func JoinNorms(norms []Norm) string {
	parts := make([]string, len(norms))
	for i, n := range norms {
		parts[i] = string(n)
	}
	return strings.Join(parts, " ")
}

func (a *Audit) NormList() []Norm {
	if a.Norms == "" {
		return []Norm{}
	}
	fields := strings.Fields(a.Norms)
	norms := make([]Norm, len(fields))
	for i, f := range fields {
		norms[i] = Norm(f)
	}
	return norms
}

// auditTransitions lists the moves the system makes on its own: recording
// findings, running an analysis and completing an audit. A manual PATCH of the
// status bypasses it.
var auditTransitions = map[AuditStatus][]AuditStatus{
	AuditDraft:         {AuditInProgress, AuditCompleted, AuditCancelled},
	AuditInProgress:    {AuditPendingReview, AuditCompleted, AuditCancelled},
	AuditPendingReview: {AuditInProgress, AuditCompleted, AuditCancelled},
	AuditCompleted:     {AuditPendingReview},
	AuditCancelled:     {},
}

func (a *Audit) CanMoveTo(next AuditStatus) bool {
	if a.Status == next {
		return true
	}
	for _, allowed := range auditTransitions[a.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}
