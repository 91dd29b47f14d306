package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Session Report\n\n")
	sb.WriteString(fmt.Sprintf("Session: `%s`\n\n", r.SessionID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	if s := r.Summary; s != nil {
		sb.WriteString("## Session\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Mint | `%s` |\n", s.Mint))
		sb.WriteString(fmt.Sprintf("| Duration (s) | %.1f |\n", s.DurationSeconds))
		sb.WriteString(fmt.Sprintf("| Cycles | %d |\n", s.Cycles))
		sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", s.TotalTrades))
		sb.WriteString(fmt.Sprintf("| Successful | %d |\n", s.SuccessfulTrades))
		sb.WriteString(fmt.Sprintf("| Failed | %d |\n", s.FailedTrades))
		sb.WriteString(fmt.Sprintf("| Trades / Minute | %.2f |\n", s.TradesPerMinute))
		sb.WriteString(fmt.Sprintf("| Success Rate | %.1f%% |\n", s.SuccessRate))
		sb.WriteString(fmt.Sprintf("| Interrupted | %t |\n", s.Interrupted))
		sb.WriteString("\n")
	}

	sb.WriteString("## Legs\n\n")
	if r.Legs.Total() == 0 {
		sb.WriteString("No trades journaled for this session.\n\n")
		return sb.String()
	}
	sb.WriteString("| Direction | Legs | Failed |\n")
	sb.WriteString("|-----------|------|--------|\n")
	sb.WriteString(fmt.Sprintf("| buy | %d | %d |\n", r.Legs.Buys, r.Legs.BuysFailed))
	sb.WriteString(fmt.Sprintf("| sell | %d | %d |\n", r.Legs.Sells, r.Legs.SellsFailed))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Window: %s to %s\n\n",
		time.UnixMilli(r.Legs.FirstStartMs).UTC().Format(time.RFC3339),
		time.UnixMilli(r.Legs.LastEndMs).UTC().Format(time.RFC3339)))

	sb.WriteString("## Endpoints\n\n")
	sb.WriteString("| Endpoint | Legs | Successes | Attempts | Success Rate |\n")
	sb.WriteString("|----------|------|-----------|----------|--------------|\n")
	for _, row := range r.Endpoints {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.1f%% |\n",
			row.Endpoint, row.Legs, row.Successes, row.Attempts, row.SuccessRate()))
	}
	sb.WriteString("\n")

	if a := r.Attempts; a.Available {
		sb.WriteString("## Attempts\n\n")
		sb.WriteString(fmt.Sprintf("Total: %d | Rotations: %d\n\n", a.Total, a.Rotations))

		outcomes := make([]string, 0, len(a.ByOutcome))
		for k := range a.ByOutcome {
			outcomes = append(outcomes, k)
		}
		sort.Strings(outcomes)

		sb.WriteString("| Outcome | Count |\n")
		sb.WriteString("|---------|-------|\n")
		for _, k := range outcomes {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", k, a.ByOutcome[k]))
		}
		sb.WriteString("\n")

		l := a.LatencyMs
		sb.WriteString(fmt.Sprintf("Latency (ms): min %d, p50 %d, p90 %d, max %d, mean %.1f\n\n",
			l.Min, l.P50, l.P90, l.Max, l.Mean))
	}

	return sb.String()
}
