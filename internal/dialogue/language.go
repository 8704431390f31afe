package dialogue

// Pack holds the fixed, user-visible strings for one locale. Reply content
// normally comes from the extractor; these cover the paths where no usable
// model reply exists.
type Pack struct {
	// Clarification is sent when the extractor's output could not be
	// parsed and the turn was dropped.
	Clarification string
	// Continuation is sent when the extractor produced a valid result
	// but an empty reply text.
	Continuation string
	// PromptLanguage names the language for the extraction instructions.
	PromptLanguage string
}

// DefaultLanguage is used when a session carries no locale.
const DefaultLanguage = "en"

var packs = map[string]Pack{
	"en": {
		Clarification:  "Sorry, I didn't quite catch that. Could you say it again?",
		Continuation:   "Got it. Let's keep going.",
		PromptLanguage: "English",
	},
	"es": {
		Clarification:  "Perdona, no te he entendido bien. ¿Puedes repetirlo?",
		Continuation:   "Entendido. Sigamos.",
		PromptLanguage: "Spanish",
	},
}

// PackFor returns the language pack for a locale, falling back to the
// default language for unknown locales.
func PackFor(language string) Pack {
	if p, ok := packs[language]; ok {
		return p
	}
	return packs[DefaultLanguage]
}

// KnownLanguage reports whether a locale has a language pack.
func KnownLanguage(language string) bool {
	_, ok := packs[language]
	return ok
}
