package placement

import "strings"

var scoreMessages = map[string]string{
	"0":        "Very Low - High eviction risk",
	"verylow":  "Very Low - High eviction risk",
	"1":        "Low - Moderate eviction risk",
	"low":      "Low - Moderate eviction risk",
	"2":        "Medium - Some eviction risk",
	"medium":   "Medium - Some eviction risk",
	"3":        "High - Low eviction risk",
	"high":     "High - Low eviction risk",
	"4":        "Very High - Minimal eviction risk",
	"veryhigh": "Very High - Minimal eviction risk",
}

// ScoreMessage explains a score to the user. Unavailable rows always read
// "Quota not available" whatever their score.
func ScoreMessage(score string, isAvailable bool) string {
	if !isAvailable {
		return "Quota not available"
	}
	if msg, ok := scoreMessages[strings.ToLower(score)]; ok {
		return msg
	}
	return "Score not available"
}

// IsAvailable only High and Medium scores with quota count as placeable.
func IsAvailable(score string, quotaAvailable bool) bool {
	return quotaAvailable && (strings.EqualFold(score, "High") || strings.EqualFold(score, "Medium"))
}
