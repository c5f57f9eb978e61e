// Package display turns a prediction into the strings and colors shown on the
// result panel.
package display

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// DefaultRiskLevel is used for any risk_level the service sends that is not
// one of Low, Medium or High.
const DefaultRiskLevel = RiskLow

// ParseRiskLevel matches the service's risk_level exactly. ok is false for
// anything else, in which case DefaultRiskLevel is returned.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return RiskLevel(s), true
	}
	return DefaultRiskLevel, false
}

// Tone names the palette entry, matching the page's CSS variables.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
)

type Profile struct {
	Level          RiskLevel
	Tone           Tone
	Color          string
	Background     string
	Border         string
	Recommendation string
}

var profiles = map[RiskLevel]Profile{
	RiskHigh: {
		Level:          RiskHigh,
		Tone:           ToneDanger,
		Color:          "#ef4444",
		Background:     "rgba(239, 68, 68, 0.1)",
		Border:         "rgba(239, 68, 68, 0.2)",
		Recommendation: "Immediate intervention required! Offer a discount or loyalty bonus immediately.",
	},
	RiskMedium: {
		Level:          RiskMedium,
		Tone:           ToneWarning,
		Color:          "#f59e0b",
		Background:     "rgba(245, 158, 11, 0.1)",
		Border:         "rgba(245, 158, 11, 0.2)",
		Recommendation: "Monitor usage patterns. Consider sending a satisfaction survey.",
	},
	RiskLow: {
		Level:          RiskLow,
		Tone:           ToneSuccess,
		Color:          "#10b981",
		Background:     "rgba(16, 185, 129, 0.1)",
		Border:         "rgba(16, 185, 129, 0.2)",
		Recommendation: "Customer is satisfied. No immediate action required.",
	},
}

// ProfileFor returns the profile of a known level, or the DefaultRiskLevel
// profile.
func ProfileFor(level RiskLevel) Profile {
	if p, ok := profiles[level]; ok {
		return p
	}
	return profiles[DefaultRiskLevel]
}

// Levels lists the known levels from lowest to highest.
func Levels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh}
}

func (l RiskLevel) String() string { return string(l) }
