package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateFiveMinuteBuckets(t *testing.T) {
	// three 1-minute bars in one 5-minute bucket, one in the next
	candles := []Candle{
		{Time: 600, Open: 10, High: 12, Low: 9, Close: 11, Volume: 100},
		{Time: 660, Open: 11, High: 14, Low: 10, Close: 13, Volume: 200},
		{Time: 720, Open: 13, High: 13, Low: 8, Close: 9, Volume: 50},
		{Time: 900, Open: 9, High: 10, Low: 9, Close: 10, Volume: 75},
	}
	out := Aggregate(candles, 5)
	require.Len(t, out, 2)

	first := out[0]
	assert.Equal(t, int64(600), first.Time)
	assert.Equal(t, 10.0, first.Open)
	assert.Equal(t, 14.0, first.High)
	assert.Equal(t, 8.0, first.Low)
	assert.Equal(t, 9.0, first.Close)
	assert.Equal(t, 350.0, first.Volume)

	second := out[1]
	assert.Equal(t, int64(900), second.Time)
	assert.Equal(t, 75.0, second.Volume)
}

func TestAggregateBucketFloorAlignment(t *testing.T) {
	// 13:07 belongs to the 13:05 bucket, not 13:07
	candles := []Candle{{Time: 47220, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}}
	out := Aggregate(candles, 5)
	require.Len(t, out, 1)
	assert.Equal(t, int64(47100), out[0].Time)
}

func TestAggregateIdempotentAtSameInterval(t *testing.T) {
	candles := []Candle{
		{Time: 0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Time: 300, Open: 1.5, High: 3, Low: 1, Close: 2, Volume: 20},
	}
	once := Aggregate(candles, 5)
	twice := Aggregate(once, 5)
	assert.Equal(t, once, twice)
}

func TestAggregateRejectsBadInterval(t *testing.T) {
	candles := ascendingCandles(100)
	assert.Nil(t, Aggregate(candles, 0))
	assert.Nil(t, Aggregate(nil, 5))
}

func TestHeikinAshiFirstBarSeed(t *testing.T) {
	candles := []Candle{{Time: 60, Open: 10, High: 14, Low: 8, Close: 12, Volume: 100}}
	out := HeikinAshi(candles)
	require.Len(t, out, 1)
	assert.InDelta(t, 11.0, out[0].Open, 1e-9)  // (O+C)/2
	assert.InDelta(t, 11.0, out[0].Close, 1e-9) // (O+H+L+C)/4
	assert.Equal(t, int64(60), out[0].Time)
	assert.Equal(t, 100.0, out[0].Volume)
}

func TestHeikinAshiChainsOnPreviousOutput(t *testing.T) {
	candles := []Candle{
		{Time: 60, Open: 10, High: 14, Low: 8, Close: 12},
		{Time: 120, Open: 12, High: 16, Low: 11, Close: 15},
	}
	out := HeikinAshi(candles)
	require.Len(t, out, 2)
	// second haOpen = (prevHAOpen + prevHAClose) / 2, not from the raw bar
	assert.InDelta(t, (out[0].Open+out[0].Close)/2, out[1].Open, 1e-9)
	assert.InDelta(t, (12.0+16+11+15)/4, out[1].Close, 1e-9)
}

func TestHeikinAshiInvariants(t *testing.T) {
	candles := []Candle{
		{Time: 60, Open: 10, High: 14, Low: 8, Close: 12},
		{Time: 120, Open: 12, High: 16, Low: 11, Close: 15},
		{Time: 180, Open: 15, High: 15.5, Low: 12, Close: 13},
		{Time: 240, Open: 13, High: 13.2, Low: 9, Close: 9.5},
	}
	for _, ha := range HeikinAshi(candles) {
		lo, hi := ha.Open, ha.Close
		if lo > hi {
			lo, hi = hi, lo
		}
		assert.LessOrEqual(t, ha.Low, lo)
		assert.GreaterOrEqual(t, ha.High, hi)
	}
}
