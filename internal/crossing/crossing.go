// Package crossing decides whether a feed moved from below to at-or-above the threshold.
package crossing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput signals a broken caller contract (NaN or infinite amounts).
var ErrInvalidInput = errors.New("crossing: invalid input")

// Decision is the outcome of comparing one feed's previous and current amounts.
type Decision struct {
	Feed              string  `json:"feed"`
	PreviousMillions  float64 `json:"previousMillions"`
	CurrentMillions   float64 `json:"currentMillions"`
	ThresholdMillions float64 `json:"thresholdMillions"`
	Crossed           bool    `json:"crossed"`
}

// Detect reports a crossing iff previous < threshold and current >= threshold.
// Downward movement never crosses.
func Detect(previous, current, threshold float64) (Decision, error) {
	for _, arg := range []struct {
		name  string
		value float64
	}{
		{"previous", previous},
		{"current", current},
		{"threshold", threshold},
	} {
		if math.IsNaN(arg.value) || math.IsInf(arg.value, 0) {
			return Decision{}, fmt.Errorf("%w: %s must be a finite number, got %v", ErrInvalidInput, arg.name, arg.value)
		}
	}

	return Decision{
		PreviousMillions:  previous,
		CurrentMillions:   current,
		ThresholdMillions: threshold,
		Crossed:           previous < threshold && current >= threshold,
	}, nil
}
