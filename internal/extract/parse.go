package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParse is returned when the extractor's output contains no recoverable
// JSON object with the expected fields. The dialogue engine treats it as a
// soft failure: no session mutation, a clarification reply.
var ErrParse = errors.New("no recoverable extraction in model output")

// rawExtraction mirrors the wire shape before validation. Extracted is
// decoded loosely because models occasionally emit numbers or booleans for
// slot values.
type rawExtraction struct {
	Message   *string        `json:"message"`
	Extracted map[string]any `json:"extracted"`
	NextStep  *string        `json:"next_step"`
}

// Parse extracts a valid Extraction from raw model output. It tolerates a
// markdown code fence and leading or trailing prose around the object.
// Output that lacks the three expected fields, or whose fields have the
// wrong types, is rejected with ErrParse rather than trusted.
func Parse(raw string) (*Extraction, error) {
	body := stripFence(raw)

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrParse)
	}

	var decoded rawExtraction
	if err := json.Unmarshal([]byte(body[start:end+1]), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if decoded.Message == nil || decoded.NextStep == nil || decoded.Extracted == nil {
		return nil, fmt.Errorf("%w: missing required fields", ErrParse)
	}

	extracted := make(map[string]string, len(decoded.Extracted))
	for key, value := range decoded.Extracted {
		switch v := value.(type) {
		case string:
			extracted[key] = v
		case float64:
			extracted[key] = strings.TrimSuffix(fmt.Sprintf("%.2f", v), ".00")
		case bool:
			extracted[key] = fmt.Sprintf("%t", v)
		case nil:
			// null means "nothing extracted for this slot"
		default:
			return nil, fmt.Errorf("%w: slot %q has non-scalar value", ErrParse, key)
		}
	}

	return &Extraction{
		Message:   strings.TrimSpace(*decoded.Message),
		Extracted: extracted,
		NextStep:  strings.TrimSpace(*decoded.NextStep),
	}, nil
}

// stripFence removes a surrounding markdown code fence if present.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
