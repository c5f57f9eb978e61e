// cmd/tools/churn-predict/render.go
package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"churn-console/internal/churn/client"
	"churn-console/internal/churn/display"
)

const gaugeWidth = 20

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8")).Width(12)
	titleStyle = lipgloss.NewStyle().Bold(true)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// gaugeBar draws score percent of gaugeWidth cells filled.
func gaugeBar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score * gaugeWidth / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", gaugeWidth-filled)
}

func renderStatus(online bool) string {
	if online {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(display.ProfileFor(display.RiskLow).Color)).Render("● System Online")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(display.ProfileFor(display.RiskHigh).Color)).Render("● System Offline")
}

func renderResult(state display.State) string {
	color := lipgloss.Color(state.Profile.Color)
	accent := lipgloss.NewStyle().Foreground(color)

	rows := []string{
		row("Risk Score", accent.Render(gaugeBar(state.RiskScore))+" "+titleStyle.Render(state.RiskScoreText)),
		row("Risk Level", accent.Bold(true).Render(state.RiskLabel)),
		row("Prediction", state.PredictionText),
		row("Confidence", state.ConfidenceText),
		row("Latency", state.LatencyText),
		"",
		accent.Bold(true).Render("Recommended Action"),
		state.Profile.Recommendation,
	}
	if state.UnknownRiskLevel {
		rows = append(rows, "", labelStyle.UnsetWidth().Render(fmt.Sprintf("unknown risk level %q shown as %s", state.RiskLevel, state.Profile.Level)))
	}

	return panelStyle.BorderForeground(color).Render(strings.Join(rows, "\n"))
}

func renderBatch(batch *client.BatchPrediction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d customers, %d high risk, %.1fms\n",
		titleStyle.Render("Batch:"), batch.TotalCustomers, batch.HighRiskCount, batch.ProcessingTimeMS)

	for i, p := range batch.Predictions {
		state := display.Render(p, display.EmptyLatency)
		accent := lipgloss.NewStyle().Foreground(lipgloss.Color(state.Profile.Color))
		fmt.Fprintf(&b, "%3d  %s %4s  %-12s %-16s %s\n",
			i+1,
			accent.Render(gaugeBar(state.RiskScore)),
			state.RiskScoreText,
			accent.Render(state.RiskLabel),
			state.PredictionText,
			state.ConfidenceText,
		)
	}
	return b.String()
}

func renderModelInfo(info *client.ModelInfo) string {
	rows := []string{
		titleStyle.Render(info.ModelType),
		row("Dataset", info.Dataset),
		row("Features", fmt.Sprintf("%d", info.FeatureCount)),
		row("CV Accuracy", percent(info.Metrics.CVAccuracy)),
		row("CV Std", percent(info.Metrics.CVStd)),
		row("Test Acc.", percent(info.Metrics.TestAccuracy)),
	}
	if info.PaperReference != "" {
		rows = append(rows, row("Reference", info.PaperReference))
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return display.FormatConfidence(*v)
}
