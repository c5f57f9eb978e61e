package display

import (
	"fmt"
	"math"
	"time"

	"churn-console/internal/churn/client"
)

const (
	// EmptyLatency is shown before any prediction reported a latency.
	EmptyLatency = "--"

	ChurnLikely     = "Churn Likely"
	RetentionLikely = "Retention Likely"
)

// State is everything the result panel shows for one prediction.
type State struct {
	RiskLevel        string  `json:"riskLevel"`
	RiskScore        int     `json:"riskScore"`
	RiskScoreText    string  `json:"riskScoreText"`
	RiskLabel        string  `json:"riskLabel"`
	PredictionText   string  `json:"predictionText"`
	ConfidenceText   string  `json:"confidenceText"`
	LatencyText      string  `json:"latencyText"`
	Profile          Profile `json:"profile"`
	Gauge            string  `json:"gauge"`
	UnknownRiskLevel bool    `json:"unknownRiskLevel"`
}

// Render builds the display state of p. previousLatency is kept as the latency
// text when p carries no server latency.
func Render(p client.Prediction, previousLatency string) State {
	level, known := ParseRiskLevel(p.RiskLevel)
	profile := ProfileFor(level)
	score := RiskScore(p.ChurnProbability)

	latency := previousLatency
	if p.Latency != nil {
		latency = FormatLatency(*p.Latency)
	}
	if latency == "" {
		latency = EmptyLatency
	}

	return State{
		RiskLevel:        p.RiskLevel,
		RiskScore:        score,
		RiskScoreText:    fmt.Sprintf("%d%%", score),
		RiskLabel:        p.RiskLevel + " Risk",
		PredictionText:   PredictionText(p.ChurnPrediction),
		ConfidenceText:   FormatConfidence(p.Confidence),
		LatencyText:      latency,
		Profile:          profile,
		Gauge:            Gauge(profile.Color, score),
		UnknownRiskLevel: !known,
	}
}

// RiskScore is the churn probability as a whole percentage, rounded half away
// from zero.
func RiskScore(probability float64) int {
	return int(math.Round(probability * 100))
}

func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}

// FormatLatency renders a duration in whole milliseconds, e.g. "45ms".
func FormatLatency(d time.Duration) string {
	ms := math.Round(d.Seconds() * 1000)
	return fmt.Sprintf("%dms", int64(ms))
}

func PredictionText(prediction float64) string {
	if prediction == 1 {
		return ChurnLikely
	}
	return RetentionLikely
}

// Gauge is the CSS background of the circular gauge: the first score percent
// of the circle in color, the rest transparent.
func Gauge(color string, score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return fmt.Sprintf("conic-gradient(%s %d%%, transparent 0%%)", color, score)
}
