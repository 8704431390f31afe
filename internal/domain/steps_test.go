package domain

import (
	"testing"
)

func TestOnboardingStepsReachComplete(t *testing.T) {
	t.Parallel()

	table := OnboardingSteps()
	if table.First() != "name" {
		t.Fatalf("expected first step to be name, got %q", table.First())
	}
	for _, s := range table.Steps() {
		if !table.Contains(s.Key) {
			t.Errorf("step %q missing from index", s.Key)
		}
	}
}

func TestNewStepTableRejectsUnreachable(t *testing.T) {
	t.Parallel()

	// A mid-table self-loop never reaches the terminal sentinel.
	_, err := NewStepTable([]Step{
		{Key: "a", DefaultNext: "a"},
		{Key: "b", DefaultNext: StepComplete},
	})
	if err == nil {
		t.Fatal("expected error for mid-table cycle")
	}

	_, err = NewStepTable([]Step{
		{Key: "a", DefaultNext: "ghost"},
	})
	if err == nil {
		t.Fatal("expected error for unknown successor")
	}

	_, err = NewStepTable([]Step{
		{Key: "a", DefaultNext: "b"},
		{Key: "a", DefaultNext: StepComplete},
	})
	if err == nil {
		t.Fatal("expected error for duplicate key")
	}
}

func TestNextStepResolution(t *testing.T) {
	t.Parallel()

	table := OnboardingSteps()

	tests := []struct {
		name     string
		current  string
		override string
		want     string
	}{
		{"no override follows table", "name", "", "business_name"},
		{"valid override wins", "name", "budget", "budget"},
		{"override to complete wins", "notes", StepComplete, StepComplete},
		{"unknown override falls back", "name", "nonsense", "business_name"},
		{"confirm loop repeats on correction", StepConfirmDetails, StepConfirmDetails, StepConfirmDetails},
		{"confirm exits on explicit complete", StepConfirmDetails, StepComplete, StepComplete},
		{"confirm self-transitions by default", StepConfirmDetails, "", StepConfirmDetails},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.NextStep(tt.current, tt.override); got != tt.want {
				t.Errorf("NextStep(%q, %q) = %q, want %q", tt.current, tt.override, got, tt.want)
			}
		})
	}
}

func TestUnansweredTreatsSkippedAsAnswered(t *testing.T) {
	t.Parallel()

	table := OnboardingSteps()
	s := &Session{Answers: map[string]string{}}

	missing := table.Unanswered(s)
	if len(missing) != len(table.Steps())-1 {
		t.Fatalf("expected all slots missing, got %d", len(missing))
	}

	s.Answers["name"] = "John"
	s.Answers["budget"] = SkippedValue

	missing = table.Unanswered(s)
	for _, key := range missing {
		if key == "name" || key == "budget" {
			t.Errorf("slot %q should count as answered", key)
		}
		if key == StepConfirmDetails {
			t.Error("confirmation node must not appear in unanswered slots")
		}
	}
}
