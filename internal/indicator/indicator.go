// Package indicator computes moving averages and momentum locally from
// candles already fetched, for context in analysis reports.
package indicator

import (
	"github.com/guregu/null/v6"
	"github.com/newthinker/finscope/internal/core"
)

// Closes returns the closing prices of candles in the order given.
func Closes(candles []core.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// SMA calculates the simple moving average.
// Returns a slice of length len(prices) - period + 1, empty when too short.
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	var sum float64
	for _, p := range prices[:period] {
		sum += p
	}
	result = append(result, sum/float64(period))

	// rolling window
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}
	return result
}

// EMA calculates the exponential moving average seeded with the SMA of the
// first period prices.
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)
	k := 2.0 / float64(period+1)

	var sum float64
	for _, p := range prices[:period] {
		sum += p
	}
	ema := sum / float64(period)
	result = append(result, ema)

	for _, p := range prices[period:] {
		ema = (p-ema)*k + ema
		result = append(result, ema)
	}
	return result
}

// RSI calculates the relative strength index with Wilder smoothing.
// Needs period+1 prices; returns len(prices) - period values.
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) <= period {
		return []float64{}
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		gain, loss = accumulate(gain, loss, prices[i]-prices[i-1])
	}
	gain /= float64(period)
	loss /= float64(period)

	result := make([]float64, 0, len(prices)-period)
	result = append(result, rsi(gain, loss))

	for i := period + 1; i < len(prices); i++ {
		var g, l float64
		g, l = accumulate(g, l, prices[i]-prices[i-1])
		gain = (gain*float64(period-1) + g) / float64(period)
		loss = (loss*float64(period-1) + l) / float64(period)
		result = append(result, rsi(gain, loss))
	}
	return result
}

func accumulate(gain, loss, delta float64) (float64, float64) {
	if delta > 0 {
		return gain + delta, loss
	}
	return gain, loss - delta
}

func rsi(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// Last returns the final value, or null for an empty slice.
func Last(values []float64) null.Float {
	if len(values) == 0 {
		return null.Float{}
	}
	return null.FloatFrom(values[len(values)-1])
}
