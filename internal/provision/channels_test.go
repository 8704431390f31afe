package provision

import (
	"reflect"
	"testing"
)

func TestDerivePlatforms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		have string
		need string
		want []string
	}{
		{
			name: "explicit mentions in order",
			have: "we post on Instagram and a FB page",
			need: "thinking about TikTok",
			want: []string{"instagram", "facebook", "tiktok"},
		},
		{
			name: "aliases collapse to one platform",
			have: "mostly IG, sometimes insta stories",
			need: "",
			want: []string{"instagram"},
		},
		{
			name: "advertising keywords map to google ads",
			have: "adwords campaigns",
			need: "more Google Ads",
			want: []string{"google_ads"},
		},
		{
			name: "no recognizable channels falls back to baseline",
			have: "word of mouth only",
			need: "not sure yet",
			want: baselinePlatforms,
		},
		{
			name: "skipped answers fall back to baseline",
			have: "skipped",
			need: "",
			want: baselinePlatforms,
		},
		{
			name: "messaging channels included",
			have: "we answer on WhatsApp and a Telegram group",
			need: "email newsletter",
			want: []string{"whatsapp", "telegram", "email"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := derivePlatforms(tc.have, tc.need)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("derivePlatforms(%q, %q) = %v, want %v", tc.have, tc.need, got, tc.want)
			}
		})
	}
}
