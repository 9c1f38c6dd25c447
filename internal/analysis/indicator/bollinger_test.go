package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBollingerConstantSeriesCollapses(t *testing.T) {
	candles := candlesFromCloses(50, 50, 50, 50, 50)
	points := Bollinger(candles, BollingerParams{Period: 3, StdDev: 2})
	require.Len(t, points, 3)
	for _, p := range points {
		assert.InDelta(t, 50.0, p.Middle, 1e-9)
		assert.InDelta(t, 50.0, p.Upper, 1e-9)
		assert.InDelta(t, 50.0, p.Lower, 1e-9)
	}
}

func TestBollingerPopulationStdDev(t *testing.T) {
	candles := candlesFromCloses(1, 2, 3)
	points := Bollinger(candles, BollingerParams{Period: 3, StdDev: 2})
	require.Len(t, points, 1)
	// population std-dev of [1 2 3] = sqrt(2/3)
	sd := math.Sqrt(2.0 / 3.0)
	assert.InDelta(t, 2.0, points[0].Middle, 1e-9)
	assert.InDelta(t, 2.0+2*sd, points[0].Upper, 1e-9)
	assert.InDelta(t, 2.0-2*sd, points[0].Lower, 1e-9)
}

func TestBollingerDefaultMultiplier(t *testing.T) {
	candles := candlesFromCloses(1, 2, 3)
	withDefault := Bollinger(candles, BollingerParams{Period: 3})
	explicit := Bollinger(candles, BollingerParams{Period: 3, StdDev: 2})
	assert.Equal(t, explicit, withDefault)
}
