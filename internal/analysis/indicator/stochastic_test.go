package indicator

import (
	"testing"

	"kandle/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStochasticZeroRangeDefaultsTo50(t *testing.T) {
	candles := make([]market.Candle, 20)
	for i := range candles {
		candles[i] = market.Candle{Time: int64(i+1) * 60, High: 100, Low: 100, Close: 100}
	}
	points := Stochastic(candles, StochasticParams{KPeriod: 14, DPeriod: 3, Smooth: 3})
	require.NotEmpty(t, points)
	for _, p := range points {
		assert.InDelta(t, 50.0, p.K, 1e-9)
		assert.InDelta(t, 50.0, p.D, 1e-9)
	}
}

func TestStochasticCloseAtHighPinsAt100(t *testing.T) {
	candles := make([]market.Candle, 25)
	for i := range candles {
		base := 100 + float64(i)
		candles[i] = market.Candle{Time: int64(i+1) * 60, High: base, Low: base - 10, Close: base}
	}
	points := Stochastic(candles, StochasticParams{KPeriod: 14, DPeriod: 3, Smooth: 3})
	require.NotEmpty(t, points)
	for _, p := range points {
		assert.InDelta(t, 100.0, p.K, 1e-9)
		assert.InDelta(t, 100.0, p.D, 1e-9)
	}
}

func TestStochasticMinimumInput(t *testing.T) {
	p := StochasticParams{KPeriod: 14, DPeriod: 3, Smooth: 3}
	// needs kPeriod + dPeriod + smooth - 2 = 18 candles
	candles := make([]market.Candle, 17)
	for i := range candles {
		candles[i] = market.Candle{Time: int64(i+1) * 60, High: 101, Low: 99, Close: 100}
	}
	assert.Empty(t, Stochastic(candles, p))

	candles = append(candles, market.Candle{Time: 18 * 60, High: 101, Low: 99, Close: 100})
	assert.Len(t, Stochastic(candles, p), 1)
}
