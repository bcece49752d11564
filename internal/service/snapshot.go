package service

import (
	"encoding/json"
	"time"

	"jackpot-alerts/internal/threshold"
)

// Snapshot is the evaluated view of one fetch round.
type Snapshot struct {
	Timestamp time.Time
	// Keys holds the JSON key of each feed, index-aligned with Results.
	Keys      []string
	Results   []threshold.Annotated
	Threshold threshold.Config
	Summary   threshold.Summary
}

type thresholdView struct {
	Amount         float64  `json:"amount"`
	Display        string   `json:"display"`
	Exceeded       bool     `json:"exceeded"`
	ExceedingFeeds []string `json:"exceedingFeedIds"`
}

// MarshalJSON renders the snapshot with one top-level member per feed key.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Results)+2)
	out["timestamp"] = s.Timestamp.UTC().Format(time.RFC3339Nano)
	for i, res := range s.Results {
		key := res.Name
		if i < len(s.Keys) && s.Keys[i] != "" {
			key = s.Keys[i]
		}
		out[key] = res
	}

	exceeding := s.Summary.ExceedingFeeds
	if exceeding == nil {
		exceeding = []string{}
	}
	out["threshold"] = thresholdView{
		Amount:         s.Threshold.AmountMillions,
		Display:        s.Threshold.Display(),
		Exceeded:       s.Summary.Exceeded,
		ExceedingFeeds: exceeding,
	}
	return json.Marshal(out)
}

// Result returns the annotated result for the given feed name.
func (s Snapshot) Result(name string) (threshold.Annotated, bool) {
	for _, res := range s.Results {
		if res.Name == name {
			return res, true
		}
	}
	return threshold.Annotated{}, false
}
