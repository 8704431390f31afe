package provision

import "strings"

// platformKeywords maps free-text marketing channel mentions to the
// canonical platform names used in access-grant invitations.
var platformKeywords = map[string]string{
	"instagram":  "instagram",
	"insta":      "instagram",
	"ig":         "instagram",
	"facebook":   "facebook",
	"fb":         "facebook",
	"meta":       "facebook",
	"tiktok":     "tiktok",
	"youtube":    "youtube",
	"yt":         "youtube",
	"linkedin":   "linkedin",
	"twitter":    "twitter",
	"google":     "google_ads",
	"adwords":    "google_ads",
	"ads":        "google_ads",
	"email":      "email",
	"newsletter": "email",
	"telegram":   "telegram",
	"whatsapp":   "whatsapp",
}

// baselinePlatforms is granted when no channel keyword matches at all.
var baselinePlatforms = []string{"instagram", "facebook"}

// derivePlatforms extracts the set of marketing platforms from the
// free-text channel answers, preserving first-mention order. Falls back to
// the baseline set when nothing matches.
func derivePlatforms(channelAnswers ...string) []string {
	var platforms []string
	seen := make(map[string]bool)

	for _, answer := range channelAnswers {
		for _, token := range tokenize(answer) {
			platform, ok := platformKeywords[token]
			if !ok || seen[platform] {
				continue
			}
			seen[platform] = true
			platforms = append(platforms, platform)
		}
	}

	if len(platforms) == 0 {
		return append([]string(nil), baselinePlatforms...)
	}
	return platforms
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}
