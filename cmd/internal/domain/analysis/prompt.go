package analysis

import (
	"fmt"
	"strings"

	"hseqaudit/cmd/internal/infrastructure/legal"
)

const systemPrompt = `Eres un auditor líder HSEQ con experiencia en ISO 9001, ISO 45001, ISO 14001 y en la legislación chilena de seguridad y salud en el trabajo (Ley 16.744, DS 44, DS 594).

Analiza los hallazgos de la auditoría y responde SOLO con JSON, sin texto adicional ni bloques de código, con esta forma exacta:
{
  "summary": "resumen ejecutivo",
  "riskLevel": "ALTO | MEDIO | BAJO",
  "nonConformities": [
    {"findingId": "id del hallazgo", "severity": "CRITICAL | MAJOR | MINOR", "description": "...", "legalReference": "...", "rootCause": "..."}
  ],
  "recommendations": ["..."],
  "legalFindings": [
    {"norm": "...", "article": "...", "description": "...", "recommendation": "..."}
  ]
}

Reglas:
- Usa únicamente los findingId entregados; a lo más una no conformidad por hallazgo.
- Sólo los hallazgos marcados NO CONFORME pueden generar no conformidades.
- Cita sólo normas y artículos presentes en el contexto legal o en los hallazgos.`

const severityPrompt = `Eres un auditor HSEQ. Clasifica la severidad de una no conformidad como CRITICAL, MAJOR o MINOR.
CRITICAL: riesgo grave para las personas, incumplimiento legal o de la política del sistema de gestión.
MAJOR: falla sistemática de un requisito. MINOR: desviación puntual.
Responde SOLO con JSON: {"severity": "CRITICAL | MAJOR | MINOR"}`

func buildPrompt(audit AuditContext, findings []Finding, refs []legal.Match) string {
	var b strings.Builder

	norms := make([]string, len(audit.Norms))
	for i, n := range audit.Norms {
		norms[i] = string(n)
	}
	fmt.Fprintf(&b, "Auditoría %s, tipo %s, normas: %s\n\n", audit.Code, audit.Type, strings.Join(norms, ", "))

	b.WriteString("Hallazgos:\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "- findingId=%s [%s %s] %s | resultado: %s", f.ID, f.Norm, f.Clause, f.Requirement, resultLabel(f))
		if c := strings.TrimSpace(f.Comment); c != "" {
			fmt.Fprintf(&b, " | comentario: %s", c)
		}
		if f.LegalRef != "" {
			fmt.Fprintf(&b, " | referencia: %s", f.LegalRef)
		}
		b.WriteByte('\n')
	}

	if len(refs) > 0 {
		b.WriteString("\nContexto legal:\n")
		for _, m := range refs {
			fmt.Fprintf(&b, "- %s %s (%s): %s\n", m.Name, m.Article, m.Title, m.Content)
		}
	}
	return b.String()
}

func buildSeverityPrompt(requirement, comment string) string {
	return fmt.Sprintf("Requisito: %s\nComentario del auditor: %s", requirement, comment)
}

func resultLabel(f Finding) string {
	switch {
	case f.Compliant == nil:
		return "PENDIENTE"
	case *f.Compliant:
		return "CONFORME"
	default:
		return "NO CONFORME"
	}
}
