package entity

import "slices"

type Norm string

const (
	NormISO9001  Norm = "ISO9001"
	NormISO45001 Norm = "ISO45001"
	NormISO14001 Norm = "ISO14001"
)

// Norms lists the trinorma in presentation order.
var Norms = []Norm{NormISO9001, NormISO45001, NormISO14001}

func (n Norm) Valid() bool {
	return slices.Contains(Norms, n)
}

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleAuditor    Role = "AUDITOR"
	RoleSupervisor Role = "SUPERVISOR"
	RoleViewer     Role = "VIEWER"
)

type AuditType string

const (
	AuditInternal      AuditType = "INTERNAL"
	AuditExternal      AuditType = "EXTERNAL"
	AuditSurveillance  AuditType = "SURVEILLANCE"
	AuditCertification AuditType = "CERTIFICATION"
)

type AuditStatus string

const (
	AuditDraft         AuditStatus = "DRAFT"
	AuditInProgress    AuditStatus = "IN_PROGRESS"
	AuditPendingReview AuditStatus = "PENDING_REVIEW"
	AuditCompleted     AuditStatus = "COMPLETED"
	AuditCancelled     AuditStatus = "CANCELLED"
)

var AuditStatuses = []AuditStatus{AuditDraft, AuditInProgress, AuditPendingReview, AuditCompleted, AuditCancelled}

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
)

var Severities = []Severity{SeverityCritical, SeverityMajor, SeverityMinor}

func (s Severity) Valid() bool {
	return slices.Contains(Severities, s)
}

type NCStatus string

const (
	NCOpen       NCStatus = "OPEN"
	NCInProgress NCStatus = "IN_PROGRESS"
	NCClosed     NCStatus = "CLOSED"
)

var NCStatuses = []NCStatus{NCOpen, NCInProgress, NCClosed}

type CAPAType string

const (
	CAPACorrective  CAPAType = "CORRECTIVE"
	CAPAPreventive  CAPAType = "PREVENTIVE"
	CAPAImprovement CAPAType = "IMPROVEMENT"
)

type CAPAStatus string

const (
	CAPAPending    CAPAStatus = "PENDING"
	CAPAInProgress CAPAStatus = "IN_PROGRESS"
	CAPACompleted  CAPAStatus = "COMPLETED"
	CAPAVerified   CAPAStatus = "VERIFIED"
)

// Terminal reports whether the action no longer blocks closing its NC.
func (s CAPAStatus) Terminal() bool {
	return s == CAPACompleted || s == CAPAVerified
}

type RiskLevel string

const (
	RiskHigh   RiskLevel = "ALTO"
	RiskMedium RiskLevel = "MEDIO"
	RiskLow    RiskLevel = "BAJO"
)

func (r RiskLevel) Valid() bool {
	return r == RiskHigh || r == RiskMedium || r == RiskLow
}

type AnalysisSource string

const (
	SourceLLM        AnalysisSource = "LLM"
	SourceHeuristic  AnalysisSource = "HEURISTIC"
	SourceNoFindings AnalysisSource = "NO_FINDINGS"
)
