package analysis

import (
	"encoding/json"

	"hseqaudit/cmd/internal/domain/entity"
)

type Kind string

const (
	KindOK       Kind = "OK"
	KindDegraded Kind = "DEGRADED"
	// KindFatal is only produced when the caller gave up on the analysis.
	KindFatal Kind = "FATAL"
)

// Reason tells why a DEGRADED outcome fell back to the heuristic.
type Reason string

const (
	ReasonDisabled          Reason = "DISABLED"
	ReasonTransport         Reason = "TRANSPORT"
	ReasonTimeout           Reason = "TIMEOUT"
	ReasonRateLimited       Reason = "RATE_LIMITED"
	ReasonHTTPStatus        Reason = "HTTP_STATUS"
	ReasonEmptyContent      Reason = "EMPTY_CONTENT"
	ReasonMalformedResponse Reason = "MALFORMED_RESPONSE"
)

// Finding is the engine's view of an evaluated checklist item.
type Finding struct {
	ID          string
	Norm        entity.Norm
	Clause      string
	Requirement string
	Comment     string
	LegalRef    string
	Compliant   *bool
}

func (f Finding) NonCompliant() bool {
	return f.Compliant != nil && !*f.Compliant
}

type AuditContext struct {
	Code  string
	Type  entity.AuditType
	Norms []entity.Norm
}

type IdentifiedNC struct {
	FindingID      string          `json:"findingId"`
	Severity       entity.Severity `json:"severity"`
	Description    string          `json:"description"`
	LegalReference string          `json:"legalReference"`
	RootCause      string          `json:"rootCause,omitempty"`
}

type Result struct {
	Summary         string                `json:"summary"`
	RiskLevel       entity.RiskLevel      `json:"riskLevel"`
	NonConformities []IdentifiedNC        `json:"nonConformities"`
	Recommendations []string              `json:"recommendations"`
	LegalFindings   []entity.LegalFinding `json:"legalFindings"`
	Source          entity.AnalysisSource `json:"source"`
	Raw             json.RawMessage       `json:"-"`
}

// Outcome is the tagged result of one engine run. Result is set for OK and
// DEGRADED, Reason only for DEGRADED and Err only for FATAL.
type Outcome struct {
	Kind   Kind
	Result *Result
	Reason Reason
	Err    error
}

func (o Outcome) Degraded() bool {
	return o.Kind == KindDegraded
}

// Classification is the severity picked for a single finding.
type Classification struct {
	Severity entity.Severity
	Source   entity.AnalysisSource
	Reason   Reason
}
