package legal

// BuiltinDocuments is the minimal corpus used until norm references are seeded.
func BuiltinDocuments() []Document {
	return []Document{
		{
			Name:    "Ley 16.744",
			Article: "Art. 68",
			Title:   "Seguro social contra riesgos de accidentes del trabajo y enfermedades profesionales",
			Content: "Las empresas deberán implantar todas las medidas de higiene y seguridad en el trabajo " +
				"que les prescriban los organismos administradores del seguro. El incumplimiento será sancionado " +
				"con recargo de la cotización adicional. Las empresas deben proporcionar a sus trabajadores los " +
				"equipos e implementos de protección necesarios, sin costo para ellos.",
			Keywords: []string{"accidente", "enfermedad", "profesional", "epp", "proteccion", "seguro", "riesgo"},
		},
		{
			Name:    "DS 44",
			Article: "Art. 7",
			Title:   "Reglamento sobre gestión preventiva de los riesgos laborales para un entorno de trabajo seguro y saludable",
			Content: "La entidad empleadora deberá gestionar los riesgos laborales mediante una política de seguridad " +
				"y salud en el trabajo, una matriz de identificación de peligros y evaluación de riesgos, y un " +
				"programa de trabajo preventivo. Deberá informar a los trabajadores sobre los riesgos, las medidas " +
				"preventivas y los métodos de trabajo correctos.",
			Keywords: []string{"politica", "matriz", "peligros", "riesgos", "preventivo", "capacitacion", "informar"},
		},
		{
			Name:    "DS 594",
			Article: "Art. 3",
			Title:   "Reglamento sobre condiciones sanitarias y ambientales básicas en los lugares de trabajo",
			Content: "La empresa está obligada a mantener en los lugares de trabajo las condiciones sanitarias y " +
				"ambientales necesarias para proteger la vida y la salud de los trabajadores, incluyendo agua potable, " +
				"servicios higiénicos, ventilación, iluminación, control de ruido y manejo de residuos y sustancias peligrosas.",
			Keywords: []string{"sanitarias", "ambientales", "residuos", "ruido", "iluminacion", "ventilacion", "sustancias"},
		},
	}
}
