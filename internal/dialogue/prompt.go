package dialogue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agencykit/onboard/internal/domain"
)

// channelRules describes how replies should be formatted per delivery
// channel. The rules are rendered into the extraction instructions; the
// dialogue logic itself never branches on channel.
var channelRules = map[domain.Channel]string{
	domain.ChannelWhatsApp: "Write short messages. Use *asterisks* for emphasis, no markdown headings, no links in bare angle brackets.",
	domain.ChannelTelegram: "Write short messages. Plain text only, no markdown. Emoji are fine in moderation.",
	domain.ChannelWeb:      "Standard markdown is allowed. Keep paragraphs short.",
}

// buildSystemPrompt assembles the fixed instruction set for one extraction
// call: slot descriptions, already-known answers, channel formatting rules,
// the confirmation-loop rule when the session sits on the confirmation
// node, and the required JSON output shape.
func buildSystemPrompt(table *domain.StepTable, sess *domain.Session) string {
	var b strings.Builder

	pack := PackFor(sess.Language)
	fmt.Fprintf(&b, "You are the onboarding assistant of a marketing agency. ")
	fmt.Fprintf(&b, "You interview a new client step by step and extract structured profile data from every message. ")
	fmt.Fprintf(&b, "Always answer in %s.\n\n", pack.PromptLanguage)

	if rules, ok := channelRules[sess.Channel]; ok {
		b.WriteString("Formatting: ")
		b.WriteString(rules)
		b.WriteString("\n\n")
	}

	b.WriteString("Fields to collect, in order:\n")
	for _, step := range table.Steps() {
		if step.Key == domain.StepConfirmDetails {
			continue
		}
		marker := " "
		if sess.Answered(step.Key) {
			marker = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s: %s\n", marker, step.Key, step.Description)
	}
	b.WriteString("\nIf the user declines to answer a field, record the literal value \"skipped\" for it and move on.\n")

	if missing := table.Unanswered(sess); len(missing) > 0 {
		fmt.Fprintf(&b, "\nStill missing: %s\n", strings.Join(missing, ", "))
	}

	if len(sess.Answers) > 0 {
		known, _ := json.Marshal(sess.Answers)
		fmt.Fprintf(&b, "\nAlready known (do not ask again, but update on correction):\n%s\n", known)
	}

	fmt.Fprintf(&b, "\nThe conversation is currently at step %q.\n", sess.CurrentStep)
	if sess.CurrentStep == domain.StepConfirmDetails {
		fmt.Fprintf(&b, "Confirmation stage: summarize the collected details and ask the user to confirm. "+
			"If the user corrects anything, put the corrected values into \"extracted\" and set \"next_step\" to %q so the summary is shown again. "+
			"Only when the user explicitly confirms, set \"next_step\" to %q.\n",
			domain.StepConfirmDetails, domain.StepComplete)
	}

	b.WriteString("\nRespond with a single JSON object and nothing else:\n")
	b.WriteString(`{"message": "<your reply to the user>", "extracted": {"<field>": "<value>"}, "next_step": "<next field key, or empty to let the system decide>"}`)
	b.WriteString("\n")

	return b.String()
}
