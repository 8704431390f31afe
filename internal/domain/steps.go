package domain

import "fmt"

// StepComplete is the terminal sentinel: the dialogue is finished and
// provisioning should begin.
const StepComplete = "complete"

// StepConfirmDetails is the confirmation node. Its default successor is
// itself; only an explicit signal from the extractor exits the loop.
const StepConfirmDetails = "confirm_details"

// Step is one slot the dialogue collects, with its default successor.
type Step struct {
	Key         string
	DefaultNext string
	// Description is rendered into the extraction prompt so the model
	// knows what the slot means.
	Description string
}

// StepTable is the static, ordered definition of the slots to collect.
// It is immutable shared configuration; sessions only ever point into it.
type StepTable struct {
	steps []Step
	index map[string]int
}

// NewStepTable builds a table from ordered steps and verifies that every
// key has a reachable path to the terminal sentinel.
func NewStepTable(steps []Step) (*StepTable, error) {
	t := &StepTable{
		steps: steps,
		index: make(map[string]int, len(steps)),
	}
	for i, s := range steps {
		if s.Key == "" || s.Key == StepComplete {
			return nil, fmt.Errorf("invalid step key %q at position %d", s.Key, i)
		}
		if _, dup := t.index[s.Key]; dup {
			return nil, fmt.Errorf("duplicate step key %q", s.Key)
		}
		t.index[s.Key] = i
	}
	for _, s := range steps {
		if err := t.checkReachable(s.Key); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *StepTable) checkReachable(from string) error {
	seen := make(map[string]bool)
	cur := from
	for cur != StepComplete {
		i, ok := t.index[cur]
		if !ok {
			return fmt.Errorf("step %q references unknown successor %q", from, cur)
		}
		if seen[cur] {
			// A cycle is only legal on the last step: the confirmation
			// node self-loops and exits via an extractor override.
			if i == len(t.steps)-1 {
				return nil
			}
			return fmt.Errorf("step %q cannot reach %s", from, StepComplete)
		}
		seen[cur] = true
		cur = t.steps[i].DefaultNext
	}
	return nil
}

// First returns the key of the table's first step.
func (t *StepTable) First() string {
	return t.steps[0].Key
}

// Contains reports whether key is a step of the table.
func (t *StepTable) Contains(key string) bool {
	_, ok := t.index[key]
	return ok
}

// DefaultNext returns the default successor of key, or the terminal
// sentinel when key is unknown.
func (t *StepTable) DefaultNext(key string) string {
	i, ok := t.index[key]
	if !ok {
		return StepComplete
	}
	return t.steps[i].DefaultNext
}

// Steps returns the ordered step list.
func (t *StepTable) Steps() []Step {
	return t.steps
}

// NextStep resolves the successor of current given an optional override
// supplied by the extractor. A valid, non-empty override wins; anything
// else falls back to the table. While at the confirmation node, an
// override equal to the node itself means the user asked for a correction
// and the loop repeats.
func (t *StepTable) NextStep(current, override string) string {
	if override != "" && (override == StepComplete || t.Contains(override)) {
		return override
	}
	return t.DefaultNext(current)
}

// Unanswered returns the keys of steps that have no answer yet, in table
// order. The skipped sentinel counts as answered; the confirmation node is
// never reported since it carries no slot value of its own.
func (t *StepTable) Unanswered(s *Session) []string {
	var missing []string
	for _, step := range t.steps {
		if step.Key == StepConfirmDetails {
			continue
		}
		if !s.Answered(step.Key) {
			missing = append(missing, step.Key)
		}
	}
	return missing
}

// OnboardingSteps returns the standard client-intake step table. The order
// is linear except for the confirmation node, which self-transitions until
// the extractor signals the user confirmed.
func OnboardingSteps() *StepTable {
	t, err := NewStepTable([]Step{
		{Key: "name", DefaultNext: "business_name", Description: "The contact person's full name."},
		{Key: "business_name", DefaultNext: "business_description", Description: "The legal or trading name of the client's business."},
		{Key: "business_description", DefaultNext: "target_market", Description: "What the business does, in the client's own words."},
		{Key: "target_market", DefaultNext: "competitors", Description: "Who the business sells to: audience, segment, geography."},
		{Key: "competitors", DefaultNext: "operations", Description: "Main competitors the client is aware of."},
		{Key: "operations", DefaultNext: "channels_have", Description: "How the business operates day to day: team size, locations, online/offline."},
		{Key: "channels_have", DefaultNext: "channels_need", Description: "Marketing channels the business already uses (social media, ads, email, etc.)."},
		{Key: "channels_need", DefaultNext: "budget", Description: "Marketing channels the client wants to start using or improve."},
		{Key: "budget", DefaultNext: "goals", Description: "Approximate monthly marketing budget."},
		{Key: "goals", DefaultNext: "pains", Description: "Business goals for the next 6-12 months."},
		{Key: "pains", DefaultNext: "notes", Description: "Current pains and frustrations with marketing or growth."},
		{Key: "notes", DefaultNext: StepConfirmDetails, Description: "Anything else the client wants the team to know."},
		{Key: StepConfirmDetails, DefaultNext: StepConfirmDetails, Description: "Present the collected details and ask the user to confirm or correct them."},
	})
	if err != nil {
		// The standard table is static; a broken definition is a
		// programming error.
		panic(err)
	}
	return t
}
