package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/newthinker/finscope/internal/core"
)

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	sma := SMA(prices, 3)

	// [10,11,12]=11 [11,12,13]=12 [12,13,14]=13 [13,14,15]=14
	expected := []float64{11, 12, 13, 14}

	if len(sma) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(sma))
	}
	for i, v := range expected {
		if sma[i] != v {
			t.Errorf("sma[%d] = %f, want %f", i, sma[i], v)
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	if sma := SMA([]float64{10, 11}, 5); len(sma) != 0 {
		t.Errorf("expected empty slice, got %d values", len(sma))
	}
	if sma := SMA([]float64{10, 11}, 0); len(sma) != 0 {
		t.Errorf("expected empty slice for zero period, got %d values", len(sma))
	}
}

func TestEMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}
	ema := EMA(prices, 3)

	if len(ema) != 4 {
		t.Fatalf("expected 4 values, got %d", len(ema))
	}
	if ema[0] != 11 {
		t.Errorf("first EMA should equal SMA, got %f", ema[0])
	}
	// k = 0.5: 11 -> 12 -> 13 -> 14
	if math.Abs(ema[3]-14) > 1e-9 {
		t.Errorf("expected last EMA 14, got %f", ema[3])
	}
}

func TestRSI(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5}
	if got := RSI(rising, 4); len(got) != 1 || got[0] != 100 {
		t.Errorf("expected RSI 100 for a steady rise, got %v", got)
	}

	flat := []float64{5, 5, 5}
	if got := RSI(flat, 2); len(got) != 1 || got[0] != 50 {
		t.Errorf("expected RSI 50 for a flat series, got %v", got)
	}

	// gains 2, losses 1 over two steps: avg gain 1, avg loss 0.5, RS 2
	mixed := []float64{10, 12, 11}
	got := RSI(mixed, 2)
	if len(got) != 1 || math.Abs(got[0]-100.0*2/3) > 1e-9 {
		t.Errorf("expected RSI 66.67, got %v", got)
	}

	if got := RSI([]float64{1, 2}, 2); len(got) != 0 {
		t.Errorf("expected no values with period+1 prices missing, got %v", got)
	}
}

func TestClosesAndLast(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	closes := Closes([]core.Candle{
		{Time: day, Close: 1.5},
		{Time: day.AddDate(0, 0, 1), Close: 2.5},
	})
	if len(closes) != 2 || closes[1] != 2.5 {
		t.Errorf("unexpected closes %v", closes)
	}

	if v := Last(closes); !v.Valid || v.Float64 != 2.5 {
		t.Errorf("unexpected last %v", v)
	}
	if v := Last(nil); v.Valid {
		t.Error("expected null for empty input")
	}
}
