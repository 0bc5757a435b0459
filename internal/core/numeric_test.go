package core

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumeric_Sentinels(t *testing.T) {
	for _, in := range []string{"None", "none", "", "  ", "-", "N/A", "null", "abc", "12abc", "NaN", "Inf", "-Infinity", "1e400"} {
		got := ParseNumeric(in)
		assert.False(t, got.Valid, "ParseNumeric(%q) should be absent", in)
		assert.Zero(t, got.Float64)
	}
}

func TestParseNumeric_Values(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0", 0},
		{"0.0000", 0},
		{"148.79", 148.79},
		{" -0.16 ", -0.16},
		{"2.5E3", 2500},
		{"2999852990464", 2999852990464},
	}

	for _, tt := range tests {
		got := ParseNumeric(tt.in)
		if !got.Valid {
			t.Fatalf("ParseNumeric(%q) unexpectedly absent", tt.in)
		}
		if got.Float64 != tt.want {
			t.Errorf("ParseNumeric(%q) = %v, want %v", tt.in, got.Float64, tt.want)
		}
	}
}

func TestParseNumeric_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		x := (r.Float64() - 0.5) * math.Pow(10, float64(r.Intn(12)))
		got := ParseNumeric(strconv.FormatFloat(x, 'f', -1, 64))
		if !got.Valid {
			t.Fatalf("round trip of %v lost the value", x)
		}
		assert.InDelta(t, x, got.Float64, 1e-9*math.Max(1, math.Abs(x)))
	}
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, int64(67903927), ParseCount("67903927").Int64)
	assert.Equal(t, int64(12), ParseCount("12.9").Int64)
	assert.False(t, ParseCount("None").Valid)
	assert.False(t, ParseCount("9.3e30").Valid)
}

func TestFloatOr(t *testing.T) {
	assert.Equal(t, 0.0, FloatOr(ParseNumeric("None"), 0))
	assert.Equal(t, 3.5, FloatOr(ParseNumeric("3.5"), 0))
}
