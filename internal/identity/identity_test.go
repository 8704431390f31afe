package identity

import (
	"errors"
	"testing"
)

func TestNormalizeSubjectKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"e164 kept as is", "+15550001234", "+15550001234", false},
		{"bare digits gain plus", "15550001234", "+15550001234", false},
		{"formatted phone stripped", "+1 (555) 000-1234", "+15550001234", false},
		{"handle lowercased", "SomeUser_99", "someuser_99", false},
		{"handle with allowed punctuation", "some.user-99", "some.user-99", false},
		{"at prefix removed", "@Acme:web", "acme:web", false},
		{"empty rejected", "   ", "", true},
		{"too short rejected", "ab", "", true},
		{"shell metacharacters rejected", "user;rm -rf", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeSubjectKey(tc.raw)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidSubjectKey) {
					t.Fatalf("expected ErrInvalidSubjectKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeSubjectKey(%q) failed: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("NormalizeSubjectKey(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}
