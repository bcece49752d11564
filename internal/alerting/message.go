package alerting

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strings"

	"jackpot-alerts/internal/amount"
)

// ErrInvalidInput indicates a malformed message request.
var ErrInvalidInput = errors.New("alerting: invalid input")

// Subject returns the email subject for a crossing.
func Subject(feed string, current float64) string {
	return fmt.Sprintf("%s jackpot reached %s", feed, amount.Format(current))
}

// BuildMessage renders the HTML body announcing that a feed crossed the threshold.
func BuildMessage(feed string, previous, current, threshold float64, nextDrawing string) (string, error) {
	if strings.TrimSpace(feed) == "" {
		return "", fmt.Errorf("%w: feed label is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(nextDrawing) == "" {
		return "", fmt.Errorf("%w: next drawing label is empty", ErrInvalidInput)
	}
	for name, v := range map[string]float64{"previous": previous, "current": current, "threshold": threshold} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("%w: %s amount must be finite, got %v", ErrInvalidInput, name, v)
		}
	}

	label := html.EscapeString(feed)
	builder := strings.Builder{}
	builder.WriteString("<html><body>\n")
	builder.WriteString(fmt.Sprintf("<h2>%s jackpot alert</h2>\n", label))
	builder.WriteString(fmt.Sprintf("<p>The %s jackpot has crossed your threshold of %s.</p>\n", label, amount.Format(threshold)))
	builder.WriteString("<table cellpadding=\"4\">\n")
	writeRow(&builder, "Lottery", label)
	writeRow(&builder, "Current jackpot", amount.Format(current))
	writeRow(&builder, "Previous jackpot", amount.Format(previous))
	writeRow(&builder, "Threshold", amount.Format(threshold))
	writeRow(&builder, "Next drawing", html.EscapeString(nextDrawing))
	builder.WriteString("</table>\n")
	builder.WriteString("</body></html>\n")
	return builder.String(), nil
}

func writeRow(b *strings.Builder, key, value string) {
	b.WriteString(fmt.Sprintf("<tr><th align=\"left\">%s</th><td>%s</td></tr>\n", key, value))
}
