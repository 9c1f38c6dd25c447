package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"kandle/internal/market"
	"kandle/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) (*Source, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	src, err := New(Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
	}, ratelimit.New(1000, time.Minute), nil)
	require.NoError(t, err)
	return src, srv
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, nil, nil)
	assert.Error(t, err)
}

func TestNewRejectsBadTimezone(t *testing.T) {
	_, err := New(Config{APIKey: "k", ProviderTimezone: "Mars/Olympus"}, nil, nil)
	assert.Error(t, err)
}

func TestCandlesDailyHappyPath(t *testing.T) {
	var gotQuery atomic.Value
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Write([]byte(`{
			"Time Series (Daily)": {
				"2024-01-02": {"1. open": "101", "2. high": "103", "3. low": "100", "4. close": "102", "5. volume": "900"},
				"2024-01-01": {"1. open": "100", "2. high": "102", "3. low": "99", "4. close": "101", "5. volume": "1000"}
			}
		}`))
	})

	from := time.Date(2023, 12, 1, 0, 0, 0, 0, time.Local).Unix()
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local).Unix()
	candles, err := src.Candles(context.Background(), "aapl", market.ResDay, from, to)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Less(t, candles[0].Time, candles[1].Time)
	assert.Equal(t, 101.0, candles[0].Close)

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, "TIME_SERIES_DAILY", q.Get("function"))
	assert.Equal(t, "AAPL", q.Get("symbol"))
	assert.Equal(t, "compact", q.Get("outputsize"))
	assert.Equal(t, "test-key", q.Get("apikey"))
}

func TestCandlesReturnFullSeriesWithoutTrimming(t *testing.T) {
	// 负载里有区间之外的日期，也要完整返回：调用方按整段缓存后自行裁剪
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"Time Series (Daily)": {
				"2024-01-02": {"1. open": "101", "2. high": "103", "3. low": "100", "4. close": "102", "5. volume": "900"},
				"2024-01-01": {"1. open": "100", "2. high": "102", "3. low": "99", "4. close": "101", "5. volume": "1000"}
			}
		}`))
	})

	from := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC).Unix()
	to := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC).Unix()
	candles, err := src.Candles(context.Background(), "AAPL", market.ResDay, from, to)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Less(t, candles[0].Time, from)
}

func TestCandlesIntradayIntervalParam(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_INTRADAY", r.URL.Query().Get("function"))
		assert.Equal(t, "5min", r.URL.Query().Get("interval"))
		w.Write([]byte(`{
			"Time Series (5min)": {
				"2024-01-02 09:30:00": {"1. open": "10", "2. high": "11", "3. low": "9", "4. close": "10.5", "5. volume": "500"}
			}
		}`))
	})

	candles, err := src.Candles(context.Background(), "AAPL", market.Res5Min, 0, time.Now().Unix())
	require.NoError(t, err)
	assert.Len(t, candles, 1)
}

func TestCandlesNoteBecomesRateLimitAndRetries(t *testing.T) {
	var calls atomic.Int32
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"Note": "5 calls per minute"}`))
	})

	_, err := src.Candles(context.Background(), "AAPL", market.ResDay, 0, 1000)
	var apiErr *market.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, market.ErrRateLimit, apiErr.Kind)
	assert.Equal(t, time.Minute, apiErr.RetryAfter)
	// 瞬时错误按 MaxAttempts 重试
	assert.Equal(t, int32(3), calls.Load())
}

func TestCandlesInvalidKeyShortCircuits(t *testing.T) {
	var calls atomic.Int32
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"Error Message": "the parameter apikey is invalid or missing"}`))
	})

	_, err := src.Candles(context.Background(), "AAPL", market.ResDay, 0, 1000)
	var apiErr *market.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, market.ErrInvalidAPIKey, apiErr.Kind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCandlesBadSymbolShortCircuits(t *testing.T) {
	var calls atomic.Int32
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	})

	_, err := src.Candles(context.Background(), "NOPE", market.ResDay, 0, 1000)
	var apiErr *market.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, market.ErrInvalidSymbol, apiErr.Kind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCandlesRetryAfterServerError(t *testing.T) {
	var calls atomic.Int32
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{
			"Time Series (Daily)": {
				"2024-01-01": {"1. open": "100", "2. high": "102", "3. low": "99", "4. close": "101", "5. volume": "1000"}
			}
		}`))
	})

	from := time.Date(2023, 12, 1, 0, 0, 0, 0, time.Local).Unix()
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local).Unix()
	candles, err := src.Candles(context.Background(), "AAPL", market.ResDay, from, to)
	require.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   market.ErrorKind
	}{
		{http.StatusUnauthorized, market.ErrUnauthorized},
		{http.StatusForbidden, market.ErrForbidden},
		{http.StatusNotFound, market.ErrNotFound},
	}
	for _, tc := range cases {
		src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := src.Quote(context.Background(), "AAPL")
		var apiErr *market.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, tc.kind, apiErr.Kind, "status %d", tc.status)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})
	_, err := src.Quote(context.Background(), "AAPL")
	var apiErr *market.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, market.ErrUnknown, apiErr.Kind)
}

func TestQuoteHappyPath(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		w.Write([]byte(`{
			"Global Quote": {
				"01. symbol": "AAPL",
				"05. price": "187.25",
				"08. previous close": "185.00",
				"09. change": "2.25",
				"10. change percent": "1.2162%"
			}
		}`))
	})

	q, err := src.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 187.25, q.Price)
}

func TestQuoteEmptyPayloadIsInvalidSymbol(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"Global Quote": {}}`))
	})
	_, err := src.Quote(context.Background(), "NOPE")
	var apiErr *market.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, market.ErrInvalidSymbol, apiErr.Kind)
}

func TestSearchSymbols(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SYMBOL_SEARCH", r.URL.Query().Get("function"))
		assert.Equal(t, "apple", r.URL.Query().Get("keywords"))
		w.Write([]byte(`{
			"bestMatches": [
				{"1. symbol": "AAPL", "2. name": "Apple Inc", "9. matchScore": "1.0000"}
			]
		}`))
	})

	matches, err := src.SearchSymbols(context.Background(), " apple ")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "AAPL", matches[0].Symbol)
}

func TestCompanyProfileNotFound(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	})
	_, err := src.CompanyProfile(context.Background(), "NOPE")
	var apiErr *market.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, market.ErrNotFound, apiErr.Kind)
}

func TestAuditSinkReceivesRecords(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"Global Quote": {"01. symbol": "AAPL", "05. price": "1.0"}
		}`))
	})

	var records []CallRecord
	src.SetAuditSink(func(r CallRecord) { records = append(records, r) })

	_, err := src.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "GLOBAL_QUOTE", records[0].Function)
	assert.Equal(t, "ok", records[0].Outcome)
	assert.NotEmpty(t, records[0].TraceID)
}

func TestCanceledContextDoesNotConsumeQuota(t *testing.T) {
	limiter := ratelimit.New(5, time.Minute)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	src, err := New(Config{APIKey: "k", BaseURL: srv.URL, MaxAttempts: 1}, limiter, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Quote(ctx, "AAPL")
	require.Error(t, err)
	assert.Equal(t, 0, limiter.Pending())
}
