package report

import (
	"fmt"
	"io"
	"strings"

	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/utils"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary  = "Resumen"
	SheetFindings = "Hallazgos"
	SheetNCs      = "NoConformidades"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AuditReport is everything rendered into the workbook. Audit must come with
// company, auditor, findings (items and NCs) and analysis preloaded.
type AuditReport struct {
	Audit          *entity.Audit
	Total          int64
	Compliant      int64
	NonCompliant   int64
	Pending        int64
	ComplianceRate float64
}

func FileName(audit *entity.Audit) string {
	return fmt.Sprintf("informe-%s.xlsx", audit.Code)
}

// Write renders the workbook into w.
func Write(w io.Writer, r *AuditReport) error {
	f, err := Build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Write(w)
}

func Build(r *AuditReport) (*excelize.File, error) {
	f := excelize.NewFile()

	// The default sheet is renamed rather than deleted so the workbook is never empty.
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetFindings); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetNCs); err != nil {
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := writeSummary(f, r, header); err != nil {
		return nil, err
	}
	if err := writeFindings(f, r.Audit, header); err != nil {
		return nil, err
	}
	if err := writeNCs(f, r.Audit, header); err != nil {
		return nil, err
	}
	return f, nil
}

func writeSummary(f *excelize.File, r *AuditReport, header int) error {
	a := r.Audit
	rows := [][]any{
		{"Código", a.Code},
		{"Empresa", a.Company.Name},
		{"RUT", utils.FormatRUT(a.Company.RUT)},
		{"Auditor", a.Auditor.Name},
		{"Tipo", string(a.Type)},
		{"Normas", strings.Join(strings.Fields(a.Norms), ", ")},
		{"Estado", string(a.Status)},
		{"Fecha programada", utils.FormatEpoch(a.ScheduledAt)},
		{"Fecha de cierre", completedAt(a.CompletedAt)},
		{"Total hallazgos", r.Total},
		{"Conformes", r.Compliant},
		{"No conformes", r.NonCompliant},
		{"Pendientes", r.Pending},
		{"Cumplimiento (%)", r.ComplianceRate},
	}
	if a.Analysis != nil {
		rows = append(rows,
			[]any{"Nivel de riesgo", string(a.Analysis.RiskLevel)},
			[]any{"Fuente del análisis", string(a.Analysis.Source)},
			[]any{"Resumen", a.Analysis.Summary},
		)
		for i, rec := range a.Analysis.Recommendations {
			rows = append(rows, []any{fmt.Sprintf("Recomendación %d", i+1), rec})
		}
	}

	if err := setRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), header); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "B", 28)
}

func writeFindings(f *excelize.File, a *entity.Audit, header int) error {
	rows := [][]any{{"Código", "Norma", "Cláusula", "Requisito", "Resultado", "Comentario", "Evidencias"}}
	for _, finding := range a.Findings {
		item := finding.ChecklistItem
		rows = append(rows, []any{
			item.Code,
			string(item.Norm),
			item.Clause,
			item.Requirement,
			complianceLabel(finding.Compliant),
			finding.Comment,
			strings.Join(finding.Evidence, "\n"),
		})
	}

	if err := setRows(f, SheetFindings, rows); err != nil {
		return err
	}
	return f.SetCellStyle(SheetFindings, "A1", "G1", header)
}

func writeNCs(f *excelize.File, a *entity.Audit, header int) error {
	rows := [][]any{{"Código", "Severidad", "Estado", "Descripción", "Referencia legal", "Vencimiento", "Acciones CAPA"}}
	for _, finding := range a.Findings {
		nc := finding.NC
		if nc == nil {
			continue
		}
		rows = append(rows, []any{
			nc.Code,
			string(nc.Severity),
			string(nc.Status),
			nc.Description,
			nc.LegalReference,
			utils.FormatEpoch(nc.DueDate),
			len(nc.Actions),
		})
	}

	if err := setRows(f, SheetNCs, rows); err != nil {
		return err
	}
	return f.SetCellStyle(SheetNCs, "A1", "G1", header)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func complianceLabel(compliant *bool) string {
	switch {
	case compliant == nil:
		return "Pendiente"
	case *compliant:
		return "Conforme"
	default:
		return "No conforme"
	}
}

func completedAt(millis *int64) string {
	if s := utils.FormatEpochPtr(millis); s != nil {
		return *s
	}
	return ""
}
