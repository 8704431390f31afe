package provision

import (
	"fmt"
	"strings"

	"github.com/agencykit/onboard/internal/domain"
)

// placeholder substitutes unanswered fields in rendered documents.
const placeholder = "N/A"

// section is one block of the intake document and the profile sheet. The
// order is fixed: contact, business, market, competitors, operations,
// channels, budget, goals and pains, free-form notes.
type section struct {
	Title string
	Slots []slotLine
}

type slotLine struct {
	Key   string
	Label string
}

var profileSections = []section{
	{"Contact", []slotLine{
		{"name", "Contact name"},
	}},
	{"Business", []slotLine{
		{"business_name", "Business name"},
		{"business_description", "What the business does"},
	}},
	{"Market", []slotLine{
		{"target_market", "Target market"},
	}},
	{"Competitors", []slotLine{
		{"competitors", "Main competitors"},
	}},
	{"Operations", []slotLine{
		{"operations", "Operations"},
	}},
	{"Channels", []slotLine{
		{"channels_have", "Channels in use"},
		{"channels_need", "Channels wanted"},
	}},
	{"Budget", []slotLine{
		{"budget", "Monthly budget"},
	}},
	{"Goals & Pains", []slotLine{
		{"goals", "Goals"},
		{"pains", "Pains"},
	}},
	{"Notes", []slotLine{
		{"notes", "Additional notes"},
	}},
}

// renderIntakeDocument produces the plain-text intake document body.
func renderIntakeDocument(sess *domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Client Intake: %s\n", sess.AnswerOr("business_name", placeholder))
	fmt.Fprintf(&b, "Onboarded via %s on %s\n", sess.Channel, sess.CreatedAt.Format("2006-01-02"))

	for _, sec := range profileSections {
		fmt.Fprintf(&b, "\n== %s ==\n", sec.Title)
		for _, line := range sec.Slots {
			fmt.Fprintf(&b, "%s: %s\n", line.Label, sess.AnswerOr(line.Key, placeholder))
		}
	}
	return b.String()
}

// renderProfileRows produces the spreadsheet rows mirroring the document
// sections. The first row of each section is its header band.
func renderProfileRows(sess *domain.Session) [][]string {
	rows := [][]string{{"Field", "Value"}}
	for _, sec := range profileSections {
		rows = append(rows, []string{sec.Title, ""})
		for _, line := range sec.Slots {
			rows = append(rows, []string{line.Label, sess.AnswerOr(line.Key, placeholder)})
		}
	}
	return rows
}

// renderTranscript produces the seed content of the conversation log.
func renderTranscript(sess *domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Onboarding transcript for %s (%s)\n\n", sess.AnswerOr("business_name", sess.SubjectKey), sess.SubjectKey)
	for _, m := range sess.History {
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.SentAt.Format("2006-01-02 15:04"), m.Role, m.Text)
	}
	return b.String()
}

// renderOperatorDigest enumerates every collected field plus the pipeline
// ledger for operator review.
func renderOperatorDigest(sess *domain.Session, result *domain.ProvisioningResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "client onboarded: %s (subject %s, result %s)\n",
		sess.AnswerOr("business_name", placeholder), sess.SubjectKey, result.Outcome())

	for _, sec := range profileSections {
		for _, line := range sec.Slots {
			fmt.Fprintf(&b, "  %s: %s\n", line.Key, sess.AnswerOr(line.Key, placeholder))
		}
	}
	fmt.Fprintf(&b, "  completed: %s\n", strings.Join(result.Steps, ", "))
	for _, e := range result.Errors {
		fmt.Fprintf(&b, "  FAILED %s: %s\n", e.Label, e.Message)
	}
	return b.String()
}
