package billing

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidReading = errors.New("invalid meter reading")
	ErrInvalidProfile = errors.New("invalid billing profile")
)

// numericPrefix matches the longest leading decimal number, the same prefix
// a lenient float parser would consume ("12.5abc" -> "12.5").
var numericPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseAmount parses a user-submitted numeric field. It fails open: input
// that has no leading number, or that parses to a non-finite value, yields 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	m := numericPrefix.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// Exponent overflow; the prefix itself is well formed.
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseAmountStrict parses a numeric field and rejects anything that is not
// a complete finite number. An empty string is zero.
func ParseAmountStrict(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidReading, s)
	}
	return v, nil
}

// Validate rejects negative or non-finite counters.
func (r Reading) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"bwReading", r.BWReading},
		{"colorReading", r.ColorReading},
		{"spoilCopies", r.SpoilCopies},
	} {
		if err := checkNonNegative(f.name, f.v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidReading, err)
		}
	}
	return nil
}

// Validate rejects negative or non-finite rates, fees and allowances.
func (p Profile) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"bwRate", p.BWRate},
		{"colorRate", p.ColorRate},
		{"freeBw", p.FreeBW},
		{"freeColor", p.FreeColor},
		{"rentalFee", p.RentalFee},
		{"minUsageCharge", p.MinUsageCharge},
	} {
		if err := checkNonNegative(f.name, f.v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
	}
	return nil
}

func checkNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number", name)
	}
	if v < 0 {
		return fmt.Errorf("%s must not be negative (got %v)", name, v)
	}
	return nil
}
