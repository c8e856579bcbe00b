package script

import "voice-outbound-service/internal/models"

// GeneratedDurationSeconds is the estimate attached to every extracted script.
const GeneratedDurationSeconds = 75

// DefaultDurationSeconds is the estimate attached to an all-defaults script.
const DefaultDurationSeconds = 60

type defaultTexts struct {
	introduction     string
	body             string
	valueProposition string
	callToAction     string
}

var defaults = map[models.Language]defaultTexts{
	models.LanguageFrench: {
		introduction:     "Bonjour, je vous appelle concernant votre entreprise.",
		body:             "J'ai remarqué que vous êtes en pleine expansion.",
		valueProposition: "Je peux vous aider à optimiser vos processus.",
		callToAction:     "Pouvons-nous convenir d'un rendez-vous ?",
	},
	models.LanguageEnglish: {
		introduction:     "Hello, I'm calling about your company.",
		body:             "I noticed that your business is growing quickly.",
		valueProposition: "I can help you streamline your processes.",
		callToAction:     "Could we schedule a short meeting this week?",
	},
	models.LanguageSpanish: {
		introduction:     "Hola, le llamo en relación con su empresa.",
		body:             "He visto que su empresa está en plena expansión.",
		valueProposition: "Puedo ayudarle a optimizar sus procesos.",
		callToAction:     "¿Podemos concertar una reunión esta semana?",
	},
	models.LanguageGerman: {
		introduction:     "Guten Tag, ich rufe wegen Ihres Unternehmens an.",
		body:             "Mir ist aufgefallen, dass Ihr Unternehmen stark wächst.",
		valueProposition: "Ich kann Ihnen helfen, Ihre Prozesse zu optimieren.",
		callToAction:     "Können wir diese Woche einen kurzen Termin vereinbaren?",
	},
	models.LanguageItalian: {
		introduction:     "Buongiorno, la chiamo a proposito della sua azienda.",
		body:             "Ho notato che la vostra azienda è in piena espansione.",
		valueProposition: "Posso aiutarvi a ottimizzare i vostri processi.",
		callToAction:     "Possiamo fissare un breve appuntamento questa settimana?",
	},
}

// textsFor falls back to French, the language the product ships with.
func textsFor(lang models.Language) defaultTexts {
	if t, ok := defaults[lang]; ok {
		return t
	}
	return defaults[models.LanguageFrench]
}

// DefaultCallToAction returns the canned closing line for lang.
func DefaultCallToAction(lang models.Language) string {
	return textsFor(lang).callToAction
}

// Default returns the all-defaults script for lang.
func Default(lang models.Language) models.Script {
	t := textsFor(lang)
	return models.Script{
		Introduction:     t.introduction,
		Body:             t.body,
		ValueProposition: t.valueProposition,
		Objections:       []string{},
		CallToAction:     t.callToAction,
		Language:         lang,
		DurationSeconds:  DefaultDurationSeconds,
	}
}
