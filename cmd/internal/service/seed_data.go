package service

import (
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/infrastructure/legal"
)

const (
	DemoCompanyName = "Constructora Andes Demo SpA"
	DemoCompanyRUT  = "761234560"
	DemoAuditorName = "Auditora Demo"
	DemoAuditorMail = "auditor.demo@hseqaudit.cl"
	DemoAdminName   = "Administrador Demo"
	DemoAdminMail   = "admin.demo@hseqaudit.cl"
)

type seedItem struct {
	norm        entity.Norm
	clause      string
	requirement string
	question    string
	legalRef    string
}

func (s seedItem) toEntity() *entity.ChecklistItem {
	item := &entity.ChecklistItem{
		Code:          string(s.norm) + "-" + s.clause,
		Norm:          s.norm,
		Clause:        s.clause,
		Requirement:   s.requirement,
		VerificationQ: s.question,
	}
	if s.legalRef != "" {
		ref := s.legalRef
		item.LegalRef = &ref
	}
	return item
}

var trinormaItems = []seedItem{
	{entity.NormISO9001, "4.1", "Comprensión de la organización y de su contexto", "¿Se determinaron las cuestiones externas e internas pertinentes al propósito de la organización?", ""},
	{entity.NormISO9001, "4.2", "Necesidades y expectativas de las partes interesadas", "¿Existe un registro actualizado de partes interesadas y sus requisitos?", ""},
	{entity.NormISO9001, "5.2", "Política de la calidad", "¿La política de la calidad está documentada, comunicada y disponible?", ""},
	{entity.NormISO9001, "6.1", "Acciones para abordar riesgos y oportunidades", "¿Se planificaron acciones para abordar los riesgos y oportunidades del SGC?", ""},
	{entity.NormISO9001, "7.2", "Competencia", "¿Se conservan evidencias de la competencia del personal que afecta la calidad?", ""},
	{entity.NormISO9001, "7.5", "Información documentada", "¿La información documentada se controla, revisa y protege adecuadamente?", ""},
	{entity.NormISO9001, "8.4", "Control de los procesos, productos y servicios suministrados externamente", "¿Se evalúan y reevalúan los proveedores externos con criterios definidos?", ""},
	{entity.NormISO9001, "9.2", "Auditoría interna", "¿Se ejecuta un programa de auditorías internas planificado?", ""},
	{entity.NormISO9001, "9.3", "Revisión por la dirección", "¿La alta dirección revisa el SGC a intervalos planificados?", ""},
	{entity.NormISO9001, "10.2", "No conformidad y acción correctiva", "¿Se analizan las causas de las no conformidades y se verifica la eficacia de las acciones?", ""},

	{entity.NormISO45001, "4.1", "Contexto de la organización en SST", "¿Se consideraron las cuestiones internas y externas que afectan la seguridad y salud en el trabajo?", ""},
	{entity.NormISO45001, "5.2", "Política de SST", "¿La política de SST incluye el compromiso de eliminar peligros y reducir riesgos?", "DS 44 Art. 4"},
	{entity.NormISO45001, "5.4", "Consulta y participación de los trabajadores", "¿Funciona el Comité Paritario de Higiene y Seguridad con actas al día?", "Ley 16.744 Art. 66"},
	{entity.NormISO45001, "6.1.2", "Identificación de peligros y evaluación de riesgos", "¿Existe una matriz de identificación de peligros y evaluación de riesgos actualizada?", "DS 44 Art. 7"},
	{entity.NormISO45001, "6.1.3", "Determinación de requisitos legales", "¿Se mantiene un registro de requisitos legales de SST y su cumplimiento?", "Ley 16.744"},
	{entity.NormISO45001, "7.2", "Competencia y capacitación en SST", "¿Los trabajadores recibieron la obligación de informar (ODI) y capacitación en riesgos?", "DS 44 Art. 15"},
	{entity.NormISO45001, "8.1.2", "Eliminar peligros y reducir riesgos", "¿Se aplica la jerarquía de controles y se entregan los EPP necesarios?", "Ley 16.744 Art. 68"},
	{entity.NormISO45001, "8.2", "Preparación y respuesta ante emergencias", "¿Existe un plan de emergencia probado mediante simulacros?", "DS 594 Art. 44"},
	{entity.NormISO45001, "9.1.2", "Evaluación del cumplimiento", "¿Se evalúa periódicamente el cumplimiento de los requisitos legales de SST?", ""},
	{entity.NormISO45001, "10.2", "Incidentes, no conformidades y acciones correctivas", "¿Se investigan los incidentes y accidentes con análisis de causa raíz?", "Ley 16.744 Art. 76"},

	{entity.NormISO14001, "4.1", "Contexto ambiental de la organización", "¿Se identificaron las condiciones ambientales que afectan o son afectadas por la organización?", ""},
	{entity.NormISO14001, "5.2", "Política ambiental", "¿La política ambiental incluye el compromiso de protección del medio ambiente y prevención de la contaminación?", ""},
	{entity.NormISO14001, "6.1.2", "Aspectos ambientales", "¿Se identificaron los aspectos ambientales significativos de actividades, productos y servicios?", ""},
	{entity.NormISO14001, "6.1.3", "Requisitos legales y otros requisitos", "¿Se mantiene un registro de la legislación ambiental aplicable?", "Ley 19.300"},
	{entity.NormISO14001, "7.2", "Competencia ambiental", "¿El personal que afecta el desempeño ambiental está capacitado?", ""},
	{entity.NormISO14001, "8.1", "Control operacional ambiental", "¿Se controlan los procesos asociados a aspectos ambientales significativos?", ""},
	{entity.NormISO14001, "8.1.1", "Gestión de residuos", "¿Los residuos peligrosos se almacenan, rotulan y declaran según la normativa?", "DS 148 Art. 29"},
	{entity.NormISO14001, "8.2", "Preparación ante emergencias ambientales", "¿Existen kits antiderrames y procedimientos ante emergencias ambientales?", ""},
	{entity.NormISO14001, "9.1.2", "Evaluación del cumplimiento ambiental", "¿Se evalúa el cumplimiento de los requisitos legales ambientales?", ""},
	{entity.NormISO14001, "10.2", "No conformidad y acción correctiva ambiental", "¿Se gestionan las no conformidades ambientales y se verifican sus acciones?", ""},
}

// legalCorpus extends the built-in lookup documents with the rest of the
// references cited by the checklist.
func legalCorpus() []legal.Document {
	docs := legal.BuiltinDocuments()
	return append(docs,
		legal.Document{
			Name:    "Ley 16.744",
			Article: "Art. 66",
			Title:   "Comités Paritarios de Higiene y Seguridad",
			Content: "En toda empresa, faena, sucursal o agencia en que trabajen más de 25 personas se organizarán " +
				"Comités Paritarios de Higiene y Seguridad, que investigarán las causas de accidentes y enfermedades " +
				"profesionales y vigilarán el cumplimiento de las medidas de prevención.",
			Keywords: []string{"comite", "paritario", "participacion", "trabajadores", "investigacion"},
		},
		legal.Document{
			Name:    "Ley 16.744",
			Article: "Art. 76",
			Title:   "Denuncia de accidentes del trabajo",
			Content: "La entidad empleadora deberá denunciar al organismo administrador, inmediatamente de producido, " +
				"todo accidente o enfermedad que pueda ocasionar incapacidad para el trabajo o la muerte de la víctima.",
			Keywords: []string{"denuncia", "accidente", "incidente", "investigacion", "diat"},
		},
		legal.Document{
			Name:    "DS 44",
			Article: "Art. 15",
			Title:   "Información y capacitación de los trabajadores",
			Content: "La entidad empleadora deberá informar oportuna y convenientemente a sus trabajadores acerca de los " +
				"riesgos que entrañan sus labores, las medidas preventivas y los métodos de trabajo correctos, y " +
				"capacitarlos en materias de seguridad y salud en el trabajo.",
			Keywords: []string{"capacitacion", "informar", "odi", "competencia", "induccion"},
		},
		legal.Document{
			Name:    "DS 594",
			Article: "Art. 44",
			Title:   "Prevención y protección contra incendios",
			Content: "En todo lugar de trabajo deberán implementarse las medidas necesarias para la prevención de incendios " +
				"y contar con extintores adecuados, señalizados y con personal capacitado en su uso.",
			Keywords: []string{"incendio", "extintor", "emergencia", "simulacro", "evacuacion"},
		},
		legal.Document{
			Name:    "Ley 19.300",
			Article: "Art. 10",
			Title:   "Bases generales del medio ambiente: evaluación de impacto ambiental",
			Content: "Los proyectos o actividades susceptibles de causar impacto ambiental deberán someterse al sistema de " +
				"evaluación de impacto ambiental y cumplir las condiciones de su resolución de calificación.",
			Keywords: []string{"ambiental", "impacto", "evaluacion", "rca", "emisiones"},
		},
		legal.Document{
			Name:    "DS 148",
			Article: "Art. 29",
			Title:   "Reglamento sanitario sobre manejo de residuos peligrosos",
			Content: "Los sitios de almacenamiento de residuos peligrosos deberán contar con base impermeable, techo, " +
				"señalización y acceso restringido; los residuos no podrán almacenarse por más de seis meses.",
			Keywords: []string{"residuos", "peligrosos", "almacenamiento", "rotulado", "derrame"},
		},
	)
}
