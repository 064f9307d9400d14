package analysis

import (
	"fmt"
	"strings"

	"hseqaudit/cmd/internal/domain/entity"
)

var criticalMarkers = []string{"grave", "riesgo", "política", "politica", "legal"}

// HeuristicSeverity flags findings whose text mentions a critical marker.
func HeuristicSeverity(requirement, comment string) entity.Severity {
	text := strings.ToLower(requirement + " " + comment)
	for _, marker := range criticalMarkers {
		if strings.Contains(text, marker) {
			return entity.SeverityCritical
		}
	}
	return entity.SeverityMajor
}

func HeuristicRisk(nonCompliant int) entity.RiskLevel {
	switch {
	case nonCompliant > 5:
		return entity.RiskHigh
	case nonCompliant > 2:
		return entity.RiskMedium
	default:
		return entity.RiskLow
	}
}

func noFindingsResult(evaluated int) *Result {
	return &Result{
		Summary:         fmt.Sprintf("Se evaluaron %d requisitos sin hallazgos no conformes.", evaluated),
		RiskLevel:       entity.RiskLow,
		NonConformities: []IdentifiedNC{},
		Recommendations: []string{"Mantener el programa de auditorías internas y el seguimiento de indicadores."},
		LegalFindings:   []entity.LegalFinding{},
		Source:          entity.SourceNoFindings,
	}
}

func (e *Engine) heuristic(findings []Finding) *Result {
	nonCompliant := nonCompliantOf(findings)
	risk := HeuristicRisk(len(nonCompliant))

	res := &Result{
		Summary: fmt.Sprintf("Análisis heurístico: %d de %d requisitos evaluados presentan no conformidades. Nivel de riesgo %s.",
			len(nonCompliant), len(findings), risk),
		RiskLevel:       risk,
		NonConformities: make([]IdentifiedNC, 0, len(nonCompliant)),
		Recommendations: []string{},
		LegalFindings:   []entity.LegalFinding{},
		Source:          entity.SourceHeuristic,
	}

	seenLegal := map[string]bool{}
	for _, f := range nonCompliant {
		severity := HeuristicSeverity(f.Requirement, f.Comment)
		res.NonConformities = append(res.NonConformities, IdentifiedNC{
			FindingID:      f.ID,
			Severity:       severity,
			Description:    describe(f),
			LegalReference: f.LegalRef,
		})
		res.Recommendations = append(res.Recommendations,
			fmt.Sprintf("Definir una acción correctiva para %s %s: %s", f.Norm, f.Clause, f.Requirement))

		if severity != entity.SeverityCritical {
			continue
		}
		for _, m := range e.legalContext(f, 1) {
			key := m.Name + m.Article
			if seenLegal[key] {
				continue
			}
			seenLegal[key] = true
			res.LegalFindings = append(res.LegalFindings, entity.LegalFinding{
				Norm:        m.Name,
				Article:     m.Article,
				Description: m.Title,
			})
		}
	}
	return res
}

func describe(f Finding) string {
	if strings.TrimSpace(f.Comment) == "" {
		return fmt.Sprintf("Incumplimiento de %s %s: %s", f.Norm, f.Clause, f.Requirement)
	}
	return fmt.Sprintf("Incumplimiento de %s %s: %s", f.Norm, f.Clause, f.Comment)
}

func nonCompliantOf(findings []Finding) []Finding {
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if f.NonCompliant() {
			out = append(out, f)
		}
	}
	return out
}
