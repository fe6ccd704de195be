package proposal

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidRateRange = errors.New("invalid rate range")

// RateRange is a percentage band; a single value has Min == Max.
type RateRange struct {
	Min float64
	Max float64
}

func (r RateRange) Mid() float64 { return (r.Min + r.Max) / 2 }

// String renders "min-max" with both bounds rounded to 2 decimals.
func (r RateRange) String() string {
	return FormatRate(r.Min) + "-" + FormatRate(r.Max)
}

// ParseRateRange accepts "12-15", "12.5", "12,5 - 15%" and similar.
func ParseRateRange(s string) (RateRange, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return RateRange{}, ErrInvalidRateRange
	}
	parts := strings.SplitN(s, "-", 2)
	lo, err := parseRate(parts[0])
	if err != nil {
		return RateRange{}, err
	}
	if len(parts) == 1 {
		return RateRange{Min: lo, Max: lo}, nil
	}
	hi, err := parseRate(parts[1])
	if err != nil {
		return RateRange{}, err
	}
	if hi < lo {
		return RateRange{}, ErrInvalidRateRange
	}
	return RateRange{Min: lo, Max: hi}, nil
}

func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, ErrInvalidRateRange
	}
	return f, nil
}

func Round2(v float64) float64 { return math.Round(v*100) / 100 }

func FormatRate(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', -1, 64)
}
