package fetcher

import (
	"context"
	"fmt"

	"jackpot-alerts/internal/amount"
)

const (
	// DisplayError marks a feed whose source could not be reached.
	DisplayError = "Error"
	// DisplayNotFound marks a feed whose source answered without a usable figure.
	DisplayNotFound = "Not found"
)

// FeedResult is the normalised outcome of one feed fetch.
// Error is non-empty iff the fetch failed, in which case AmountMillions is 0.
type FeedResult struct {
	Name           string  `json:"name"`
	Jackpot        string  `json:"jackpot"`
	AmountMillions float64 `json:"amountMillions"`
	NextDrawing    string  `json:"nextDrawing"`
	Error          string  `json:"error,omitempty"`
}

// Failed reports whether the fetch produced an error.
func (r FeedResult) Failed() bool {
	return r.Error != ""
}

// Feed retrieves the current jackpot for one lottery. Fetch never returns an
// error: failures are folded into the result.
type Feed interface {
	Name() string
	Key() string
	Fetch(ctx context.Context) FeedResult
}

// Found builds a successful result.
func Found(name string, millions float64, nextDrawing string) FeedResult {
	if nextDrawing == "" {
		nextDrawing = DisplayNotFound
	}
	return FeedResult{
		Name:           name,
		Jackpot:        amount.Format(millions),
		AmountMillions: millions,
		NextDrawing:    nextDrawing,
	}
}

// Unavailable builds the result for a transport failure.
func Unavailable(name string, err error) FeedResult {
	return FeedResult{
		Name:        name,
		Jackpot:     DisplayError,
		NextDrawing: DisplayError,
		Error:       fmt.Sprintf("fetch %s: %v", name, err),
	}
}

// Unparseable builds the result for a response without a jackpot figure.
func Unparseable(name, nextDrawing, reason string) FeedResult {
	if nextDrawing == "" {
		nextDrawing = DisplayNotFound
	}
	return FeedResult{
		Name:        name,
		Jackpot:     DisplayNotFound,
		NextDrawing: nextDrawing,
		Error:       fmt.Sprintf("%s jackpot amount not found: %s", name, reason),
	}
}

func recoverResult(name string, result *FeedResult) {
	if r := recover(); r != nil {
		*result = Unavailable(name, fmt.Errorf("panic: %v", r))
	}
}
