package extract

import (
	"errors"
	"testing"
)

func TestParseAcceptsBareJSON(t *testing.T) {
	t.Parallel()

	got, err := Parse(`{"message":"Thanks John!","extracted":{"name":"John"},"next_step":"business_name"}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.Message != "Thanks John!" {
		t.Errorf("unexpected message: %q", got.Message)
	}
	if got.Extracted["name"] != "John" {
		t.Errorf("unexpected extraction: %v", got.Extracted)
	}
	if got.NextStep != "business_name" {
		t.Errorf("unexpected next step: %q", got.NextStep)
	}
}

func TestParseTolerantForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{
			"markdown fence",
			"```json\n{\"message\":\"ok\",\"extracted\":{},\"next_step\":\"budget\"}\n```",
		},
		{
			"fence without language tag",
			"```\n{\"message\":\"ok\",\"extracted\":{},\"next_step\":\"budget\"}\n```",
		},
		{
			"leading prose",
			"Here is the result you asked for:\n{\"message\":\"ok\",\"extracted\":{},\"next_step\":\"budget\"}",
		},
		{
			"trailing prose",
			"{\"message\":\"ok\",\"extracted\":{},\"next_step\":\"budget\"}\nLet me know if you need more.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got.NextStep != "budget" {
				t.Errorf("unexpected next step: %q", got.NextStep)
			}
		})
	}
}

func TestParseCoercesScalars(t *testing.T) {
	t.Parallel()

	got, err := Parse(`{"message":"ok","extracted":{"budget":1500,"notes":null},"next_step":""}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.Extracted["budget"] != "1500" {
		t.Errorf("expected numeric coercion, got %q", got.Extracted["budget"])
	}
	if _, ok := got.Extracted["notes"]; ok {
		t.Error("null slot value must be dropped")
	}
}

func TestParseRejectsInvalidOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"plain text", "Sorry, I did not understand that."},
		{"empty", ""},
		{"truncated object", `{"message":"ok","extracted":{`},
		{"missing fields", `{"message":"ok"}`},
		{"wrong extracted type", `{"message":"ok","extracted":"name=John","next_step":""}`},
		{"nested slot value", `{"message":"ok","extracted":{"name":{"first":"John"}},"next_step":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
		})
	}
}
