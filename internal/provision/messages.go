package provision

import (
	"fmt"
	"strings"

	"github.com/agencykit/onboard/internal/domain"
)

// completionText holds the localized pieces of the client-facing
// completion message.
type completionText struct {
	Interim    string
	Intro      string
	FolderLine string // takes the shared uploads URL
	InviteLine string // takes the invite URL
	Outro      string
}

var completionTexts = map[string]completionText{
	"en": {
		Interim:    "Perfect, that's everything I need! Give me a moment to set things up for you...",
		Intro:      "You're all set! Here's what I've prepared:",
		FolderLine: "You can upload your materials (logo, photos, brand assets) here: %s",
		InviteLine: "Please accept the access invitation for your marketing accounts: %s",
		Outro:      "Our team will review your profile and get back to you within one business day.",
	},
	"es": {
		Interim:    "¡Perfecto, eso es todo lo que necesito! Dame un momento para prepararlo todo...",
		Intro:      "¡Todo listo! Esto es lo que he preparado:",
		FolderLine: "Puedes subir tus materiales (logo, fotos, recursos de marca) aquí: %s",
		InviteLine: "Por favor acepta la invitación de acceso a tus cuentas de marketing: %s",
		Outro:      "Nuestro equipo revisará tu perfil y te contactará en un día laborable.",
	},
}

func completionTextFor(language string) completionText {
	if t, ok := completionTexts[language]; ok {
		return t
	}
	return completionTexts["en"]
}

// clientMessage assembles the final client-facing reply from whichever
// resources were actually created. A link appears only when its creating
// step succeeded; provisioning errors never surface to the client.
func clientMessage(sess *domain.Session, result *domain.ProvisioningResult) string {
	text := completionTextFor(sess.Language)

	lines := []string{text.Intro}
	if result.FolderURL != "" {
		lines = append(lines, fmt.Sprintf(text.FolderLine, result.FolderURL))
	}
	if result.InviteURL != "" {
		lines = append(lines, fmt.Sprintf(text.InviteLine, result.InviteURL))
	}
	lines = append(lines, text.Outro)
	return strings.Join(lines, "\n\n")
}
