package common

import "math"

// RoundMoney rounds a currency amount to 2 decimal places using half-up
// rounding. Calculators round once at the end of a computation, never on
// intermediate values.
func RoundMoney(amount float64) float64 {
	return math.Floor(amount*100+0.5) / 100
}

// MinorToMajor converts a gateway minor-unit amount (e.g. kobo, cents) to the
// major currency unit.
func MinorToMajor(minor int64) float64 {
	return float64(minor) / 100
}

// MajorToMinor converts a major-unit amount to the gateway's minor unit.
func MajorToMinor(major float64) int64 {
	return int64(math.Floor(major*100 + 0.5))
}
