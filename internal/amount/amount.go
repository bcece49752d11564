// Package amount normalises jackpot figures to millions and renders them for display.
package amount

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnparseable is returned when a text does not contain a recognisable monetary figure.
var ErrUnparseable = errors.New("amount: no monetary figure found")

var (
	thousand = decimal.NewFromInt(1000)
	million  = decimal.NewFromInt(1_000_000)

	figurePattern = regexp.MustCompile(`(?i)\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(billion|million|bn|b|m)?\b`)
)

// Format renders an amount expressed in millions. Values of 1000 and above are
// shown in billions with two decimals, everything else in whole millions.
func Format(millions float64) string {
	d := decimal.NewFromFloat(millions)
	if d.GreaterThanOrEqual(thousand) {
		return fmt.Sprintf("$%s Billion", d.Div(thousand).StringFixed(2))
	}
	return fmt.Sprintf("$%s Million", d.StringFixed(0))
}

// FromDollars converts a raw dollar amount to millions.
func FromDollars(dollars decimal.Decimal) float64 {
	return dollars.Div(million).InexactFloat64()
}

// Parse extracts the first monetary figure from text such as "$1.7 Billion",
// "$500 Million" or "$1,250,000,000" and returns it in millions.
func Parse(text string) (float64, error) {
	m := figurePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, ErrUnparseable
	}

	value, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnparseable, m[1])
	}

	switch strings.ToLower(m[2]) {
	case "billion", "bn", "b":
		return value.Mul(thousand).InexactFloat64(), nil
	case "million", "m":
		return value.InexactFloat64(), nil
	default:
		return FromDollars(value), nil
	}
}
