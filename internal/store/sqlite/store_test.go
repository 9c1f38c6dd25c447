package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"kandle/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ArchiveStore {
	t.Helper()
	s, err := NewArchiveStore(filepath.Join(t.TempDir(), "candles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleCandles() []market.Candle {
	return []market.Candle{
		{Time: 100, Open: 10, High: 12, Low: 9, Close: 11, Volume: 1000},
		{Time: 200, Open: 11, High: 13, Low: 10, Close: 12, Volume: 2000},
		{Time: 300, Open: 12, High: 14, Low: 11, Close: 13, Volume: 3000},
	}
}

func TestSaveAndLoadCandles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCandles(ctx, "alphavantage", "aapl", market.ResDay, sampleCandles()))

	got, err := s.LoadCandles(ctx, "alphavantage", "AAPL", market.ResDay, 100, 300)
	require.NoError(t, err)
	assert.Equal(t, sampleCandles(), got)

	// 范围裁剪
	got, err = s.LoadCandles(ctx, "alphavantage", "AAPL", market.ResDay, 150, 250)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(200), got[0].Time)
}

func TestSaveCandlesUpsertsOnConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCandles(ctx, "alphavantage", "AAPL", market.ResDay, sampleCandles()))

	// provider 回填修正最后一根未收盘 K 线
	revised := []market.Candle{{Time: 300, Open: 12, High: 15, Low: 11, Close: 14.5, Volume: 5000}}
	require.NoError(t, s.SaveCandles(ctx, "alphavantage", "AAPL", market.ResDay, revised))

	got, err := s.LoadCandles(ctx, "alphavantage", "AAPL", market.ResDay, 0, 1000)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 14.5, got[2].Close)
	assert.Equal(t, 5000.0, got[2].Volume)
}

func TestCandlesKeyedBySourceAndResolution(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCandles(ctx, "alphavantage", "AAPL", market.ResDay, sampleCandles()[:1]))
	require.NoError(t, s.SaveCandles(ctx, "mock", "AAPL", market.ResDay, sampleCandles()[:2]))
	require.NoError(t, s.SaveCandles(ctx, "alphavantage", "AAPL", market.ResWeek, sampleCandles()))

	got, err := s.LoadCandles(ctx, "alphavantage", "AAPL", market.ResDay, 0, 1000)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.LoadCandles(ctx, "mock", "AAPL", market.ResDay, 0, 1000)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.LoadCandles(ctx, "alphavantage", "AAPL", market.ResWeek, 0, 1000)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSaveCandlesEmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.SaveCandles(context.Background(), "mock", "AAPL", market.ResDay, nil))
}

func TestProfileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	profile := market.CompanyProfile{
		Symbol:    "AAPL",
		Name:      "Apple Inc",
		Exchange:  "NASDAQ",
		Currency:  "USD",
		MarketCap: 2.9e12,
	}
	require.NoError(t, s.SaveProfile(ctx, profile))

	got, savedAt, found, err := s.LoadProfile(ctx, "aapl")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, profile, got)
	assert.False(t, savedAt.IsZero())

	// upsert 覆盖旧快照
	profile.Name = "Apple Inc."
	require.NoError(t, s.SaveProfile(ctx, profile))
	got, _, found, err = s.LoadProfile(ctx, "AAPL")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Apple Inc.", got.Name)
}

func TestLoadProfileMissing(t *testing.T) {
	s := newTestStore(t)
	_, _, found, err := s.LoadProfile(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveProfileRequiresSymbol(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.SaveProfile(context.Background(), market.CompanyProfile{}))
}
