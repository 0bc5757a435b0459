package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
)

// sentinels are textual markers upstreams use in place of a missing value
var sentinels = map[string]struct{}{
	"":     {},
	"none": {},
	"null": {},
	"n/a":  {},
	"na":   {},
	"-":    {},
}

// ParseNumeric converts an upstream textual number into a finite float.
// Sentinels, non-numeric text, NaN and infinities yield an absent value.
// It never panics and never substitutes zero.
func ParseNumeric(s string) null.Float {
	s = strings.TrimSpace(s)
	if _, ok := sentinels[strings.ToLower(s)]; ok {
		return null.Float{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

// ParseCount converts an upstream textual count into an integer.
// Fractional values are truncated; anything ParseNumeric rejects is absent.
func ParseCount(s string) null.Int {
	f := ParseNumeric(s)
	if !f.Valid || math.Abs(f.Float64) >= math.MaxInt64 {
		return null.Int{}
	}
	return null.IntFrom(int64(f.Float64))
}

// FloatOr returns the value of f, or def when f is absent.
func FloatOr(f null.Float, def float64) float64 {
	if f.Valid {
		return f.Float64
	}
	return def
}
