package survey

// ActivityTypes are the choices for the "most relevant activity" question
var ActivityTypes = []string{
	"Conferencia",
	"Workshop",
	"Panel de Egresados",
	"Mundialito mexicano",
	"Conversatorio",
	"Estancia de movilidad de Posgrado",
}

var defaultQuestions = []Question{
	{ID: 1, Prompt: "¿Cómo calificas la organización de la JII?", Kind: KindRating},
	{ID: 2, Prompt: "¿Cómo calificas los horarios de la JII?", Kind: KindRating},
	{ID: 3, Prompt: "¿Cómo calificas la duración de las actividades?", Kind: KindRating},
	{ID: 4, Prompt: "Especifica la razón principal por la que asististe a la JII:", Kind: KindShortText},
	{ID: 5, Prompt: "¿Cumplieron tus expectativas las actividades en las que participaste?", Kind: KindRating},
	{ID: 6, Prompt: "¿Los contenidos desarrollados resultaron útiles?", Kind: KindRating},
	{ID: 7, Prompt: "¿Qué tan relevante consideras que fue el nivel profesional de la JII?", Kind: KindRating},
	{ID: 8, Prompt: "¿Qué conferencia magistral te pareció la más relevante?", Kind: KindSingleChoice, OptionsFrom: OptionsFromConferences},
	{ID: 10, Prompt: "¿Qué actividad consideras que fue la de mayor relevancia?", Kind: KindSingleChoice, Options: ActivityTypes},
	{ID: 11, Prompt: "¿Cuáles fueron para ti los puntos fuertes de la JII? ¿Por qué?", Kind: KindLongText},
	{ID: 12, Prompt: "¿Qué parte te gustó menos? ¿Por qué?", Kind: KindLongText},
	{ID: 13, Prompt: "Propón tres temas de tu interés para la edición 2026 de la JII.", Kind: KindLongText},
	{ID: 14, Prompt: "¿Qué sugerencias podrías aportar para mejorar la próxima edición de la JII?", Kind: KindLongText},
	{ID: 15, Prompt: "En términos generales, ¿Cómo calificaría la Jornada de Ingeniería Industrial 2025?", Kind: KindRating},
	{ID: 16, Prompt: "Comentarios adicionales:", Kind: KindLongText, Optional: true},

	{ID: 17, Prompt: "Valora el workshop al que asististe (1=Muy Malo, 5=Excelente)", Kind: KindRating, Section: SectionWorkshop},
	{ID: 18, Prompt: "Comentarios sobre el workshop", Kind: KindLongText, Section: SectionWorkshop},

	{ID: 19, Prompt: "Valora el Mundialito Mexicano", Kind: KindRating, Section: SectionContest},
	{ID: 20, Prompt: "Comentarios sobre el Mundialito Mexicano", Kind: KindLongText, Section: SectionContest},
}

// Default returns the built-in question set
func Default() *Set {
	s, err := NewSet(defaultQuestions)
	if err != nil {
		panic("survey: invalid built-in questions: " + err.Error())
	}
	return s
}
