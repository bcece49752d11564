// Package threshold resolves the configured jackpot threshold and annotates feed results against it.
package threshold

import (
	"math"
	"strconv"
	"strings"

	"jackpot-alerts/internal/amount"
	"jackpot-alerts/internal/fetcher"
)

// DefaultMillions is the fallback threshold ($1.5B) used when no valid override is configured.
const DefaultMillions = 1500

// Config is the resolved threshold for one run.
type Config struct {
	AmountMillions float64
}

// Display renders the threshold with the shared amount formatter.
func (c Config) Display() string {
	return amount.Format(c.AmountMillions)
}

// Annotated is a feed result plus its threshold verdict.
type Annotated struct {
	fetcher.FeedResult
	ExceedsThreshold bool `json:"exceedsThreshold"`
}

// Summary aggregates the verdicts of one evaluation.
type Summary struct {
	Exceeded       bool     `json:"exceeded"`
	ExceedingFeeds []string `json:"exceedingFeedIds"`
}

// Resolve parses the configured override. Unparseable, NaN, infinite or
// non-positive values fall back to the supplied default.
func Resolve(raw string, fallback float64) Config {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return Config{AmountMillions: fallback}
	}
	return Config{AmountMillions: value}
}

// Evaluate annotates every result. A failed result never exceeds the threshold.
// ExceedingFeeds keeps input order.
func Evaluate(results []fetcher.FeedResult, cfg Config) ([]Annotated, Summary) {
	annotated := make([]Annotated, 0, len(results))
	summary := Summary{ExceedingFeeds: []string{}}

	for _, res := range results {
		exceeds := !res.Failed() && res.AmountMillions >= cfg.AmountMillions
		annotated = append(annotated, Annotated{FeedResult: res, ExceedsThreshold: exceeds})
		if exceeds {
			summary.Exceeded = true
			summary.ExceedingFeeds = append(summary.ExceedingFeeds, res.Name)
		}
	}
	return annotated, summary
}
