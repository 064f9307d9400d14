// Package events holds the payloads posted to the notification webhook.
package events

import "hseqaudit/cmd/internal/infrastructure/webhook"

type Event interface {
	GetType() webhook.Event
}

// CriticalNC is sent synchronously when a CRITICAL non-conformity is raised.
type CriticalNC struct {
	NCID           int64  `json:"ncId,string"`
	Code           string `json:"code"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	LegalReference string `json:"legalReference"`
	AuditID        int64  `json:"auditId,string"`
	AuditCode      string `json:"auditCode"`
	Requirement    string `json:"requirement"`
	DueDate        string `json:"dueDate"`
}

func (*CriticalNC) GetType() webhook.Event {
	return webhook.EventCriticalNC
}

type AuditAnalyzed struct {
	AuditID        int64    `json:"auditId,string"`
	AuditCode      string   `json:"auditCode"`
	RiskLevel      string   `json:"riskLevel"`
	Source         string   `json:"source"`
	Degraded       bool     `json:"degraded"`
	Critical       int      `json:"critical"`
	Major          int      `json:"major"`
	Minor          int      `json:"minor"`
	CreatedNCCodes []string `json:"createdNcCodes"`
}

func (*AuditAnalyzed) GetType() webhook.Event {
	return webhook.EventAuditAnalyzed
}

type NCOverdue struct {
	NCID        int64  `json:"ncId,string"`
	Code        string `json:"code"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
	DaysOverdue int    `json:"daysOverdue"`
	AuditCode   string `json:"auditCode,omitempty"`
}

func (*NCOverdue) GetType() webhook.Event {
	return webhook.EventNCOverdue
}
