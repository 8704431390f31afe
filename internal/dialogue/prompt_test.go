package dialogue

import (
	"strings"
	"testing"

	"github.com/agencykit/onboard/internal/domain"
)

func TestBuildSystemPromptListsMissingFields(t *testing.T) {
	t.Parallel()

	table := domain.OnboardingSteps()
	sess := &domain.Session{
		Channel:     domain.ChannelWhatsApp,
		Language:    "en",
		CurrentStep: "business_description",
		Answers: map[string]string{
			"name":          "John",
			"business_name": "Acme",
			"budget":        domain.SkippedValue,
		},
	}

	prompt := buildSystemPrompt(table, sess)

	missingLine := ""
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "Still missing:") {
			missingLine = line
		}
	}
	if missingLine == "" {
		t.Fatalf("prompt has no missing-fields line:\n%s", prompt)
	}
	for _, answered := range []string{"name", "business_name", "budget"} {
		if strings.Contains(missingLine, answered) {
			t.Fatalf("answered field %q listed as missing: %s", answered, missingLine)
		}
	}
	if !strings.Contains(missingLine, "business_description") || !strings.Contains(missingLine, "goals") {
		t.Fatalf("open fields not listed: %s", missingLine)
	}
	if strings.Contains(missingLine, domain.StepConfirmDetails) {
		t.Fatalf("confirmation node listed as a missing slot: %s", missingLine)
	}

	// Answered fields are checked off in the checklist instead.
	if !strings.Contains(prompt, "- [x] name:") || !strings.Contains(prompt, "- [ ] goals:") {
		t.Fatalf("checklist markers wrong:\n%s", prompt)
	}
}

func TestBuildSystemPromptOmitsMissingLineWhenComplete(t *testing.T) {
	t.Parallel()

	table := domain.OnboardingSteps()
	answers := make(map[string]string)
	for _, step := range table.Steps() {
		if step.Key != domain.StepConfirmDetails {
			answers[step.Key] = "x"
		}
	}
	sess := &domain.Session{
		Channel:     domain.ChannelWeb,
		Language:    "en",
		CurrentStep: domain.StepConfirmDetails,
		Answers:     answers,
	}

	prompt := buildSystemPrompt(table, sess)
	if strings.Contains(prompt, "Still missing:") {
		t.Fatalf("missing-fields line present with all slots answered:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Confirmation stage:") {
		t.Fatalf("confirmation rule absent at confirm node:\n%s", prompt)
	}
}
