package indicator

import (
	"testing"

	"kandle/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatRangeCandles(n int, rng float64) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		out[i] = market.Candle{
			Time:  int64(i+1) * 60,
			Open:  100,
			High:  100 + rng/2,
			Low:   100 - rng/2,
			Close: 100,
		}
	}
	return out
}

func TestATRConstantTrueRange(t *testing.T) {
	// every bar has TR = 4, so the smoothed average must stay exactly 4
	candles := flatRangeCandles(30, 4)
	points := ATR(candles, ATRParams{Period: 14})
	require.NotEmpty(t, points)
	// TR is defined from the second candle, so the first ATR lands on index period
	assert.Equal(t, candles[14].Time, points[0].Time)
	assert.Len(t, points, 30-14)
	for _, p := range points {
		assert.InDelta(t, 4.0, p.Value, 1e-9)
	}
}

func TestATRMinimumInput(t *testing.T) {
	assert.Empty(t, ATR(flatRangeCandles(14, 4), ATRParams{Period: 14}))
	assert.Len(t, ATR(flatRangeCandles(15, 4), ATRParams{Period: 14}), 1)
}

func uptrendCandles(n int) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		base := 100 + float64(i)
		out[i] = market.Candle{
			Time:  int64(i+1) * 60,
			Open:  base,
			High:  base + 1,
			Low:   base,
			Close: base + 0.5,
		}
	}
	return out
}

func TestADXStraightUptrend(t *testing.T) {
	candles := uptrendCandles(40)
	points := ADX(candles, ADXParams{Period: 14})
	require.NotEmpty(t, points)
	// first output lands on candle index 2*period-1
	assert.Equal(t, candles[2*14-1].Time, points[0].Time)
	assert.Len(t, points, 40-2*14+1)
	for _, p := range points {
		assert.Greater(t, p.PlusDI, 0.0)
		assert.InDelta(t, 0.0, p.MinusDI, 1e-9)
		// every DX is 100 in a one-sided trend, so ADX is pinned there
		assert.InDelta(t, 100.0, p.ADX, 1e-9)
	}
}

func TestADXFlatSeriesIsZero(t *testing.T) {
	candles := flatRangeCandles(40, 2)
	points := ADX(candles, ADXParams{Period: 14})
	require.NotEmpty(t, points)
	for _, p := range points {
		assert.InDelta(t, 0.0, p.PlusDI, 1e-9)
		assert.InDelta(t, 0.0, p.MinusDI, 1e-9)
		assert.InDelta(t, 0.0, p.ADX, 1e-9)
	}
}

func TestADXMinimumInput(t *testing.T) {
	assert.Empty(t, ADX(uptrendCandles(2*14-1), ADXParams{Period: 14}))
	assert.Len(t, ADX(uptrendCandles(2*14), ADXParams{Period: 14}), 1)
}
