// Package extract talks to the language-model extractor and defensively
// parses its output into a typed extraction result.
package extract

import (
	"context"

	"github.com/agencykit/onboard/internal/domain"
)

// Gateway is the external language-model extractor. Given the instruction
// set, prior conversation and the inbound message it returns free-form text
// that is expected, but not guaranteed, to contain a JSON object.
type Gateway interface {
	Extract(ctx context.Context, systemPrompt string, history []domain.Message, message string) (string, error)
}

// Extraction is the validated result of one extractor call.
type Extraction struct {
	// Message is the reply text to show the user.
	Message string `json:"message"`
	// Extracted maps slot keys to the values found in the user's message.
	Extracted map[string]string `json:"extracted"`
	// NextStep is the extractor's proposed next dialogue step. May be
	// empty, in which case the step table decides.
	NextStep string `json:"next_step"`
}
