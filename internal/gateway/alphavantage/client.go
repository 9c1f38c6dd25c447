// Package alphavantage implements the live market.Source against the
// Alpha Vantage query API, including in-band error detection, retry and
// rate-limit admission.
package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kandle/internal/logger"
	"kandle/internal/market"
	"kandle/internal/metrics"
	"kandle/internal/ratelimit"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// SourceName 是缓存键里的数据源判别符。
const SourceName = "alphavantage"

// CallRecord 是单次上游调用的审计记录。
type CallRecord struct {
	TraceID  string
	Function string
	Symbol   string
	Outcome  string
	ErrKind  string
	Latency  time.Duration
	At       time.Time
}

// Source 基于 Alpha Vantage HTTP API 实现 market.Source。
// 每次调用走 BUILD_REQUEST -> RATE_LIMIT_WAIT -> SEND -> PARSE ->
// (ERROR | NORMALIZE) 状态机；缓存由上层 market.Service 负责。
type Source struct {
	cfg     Config
	client  *http.Client
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	loc     *time.Location
	audit   func(CallRecord)
}

func New(cfg Config, limiter *ratelimit.Limiter, m *metrics.Metrics) (*Source, error) {
	final := cfg.withDefaults()
	if final.APIKey == "" {
		return nil, fmt.Errorf("alphavantage: api key is required")
	}
	loc, err := time.LoadLocation(final.ProviderTimezone)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: invalid provider timezone %q: %w", final.ProviderTimezone, err)
	}
	if limiter == nil {
		limiter = ratelimit.New(5, time.Minute)
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Source{
		cfg:     final,
		client:  &http.Client{Timeout: final.HTTPTimeout},
		limiter: limiter,
		metrics: m,
		loc:     loc,
	}, nil
}

func (s *Source) Name() string { return SourceName }

// SetAuditSink 注册调用审计回调（可选）。
func (s *Source) SetAuditSink(fn func(CallRecord)) { s.audit = fn }

func (s *Source) Close() error { return nil }

func (s *Source) Candles(ctx context.Context, symbol string, res market.Resolution, from, to int64) ([]market.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, market.NewAPIError(market.ErrInvalidSymbol, "symbol is required")
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	var function, seriesKey string
	switch {
	case res.Intraday():
		function = "TIME_SERIES_INTRADAY"
		interval := fmt.Sprintf("%dmin", res.Minutes())
		params.Set("interval", interval)
		seriesKey = fmt.Sprintf("Time Series (%s)", interval)
	case res == market.ResDay:
		function = "TIME_SERIES_DAILY"
		seriesKey = "Time Series (Daily)"
	case res == market.ResWeek:
		function = "TIME_SERIES_WEEKLY"
		seriesKey = "Weekly Time Series"
	case res == market.ResMonth:
		function = "TIME_SERIES_MONTHLY"
		seriesKey = "Monthly Time Series"
	default:
		return nil, market.NewAPIError(market.ErrUnknown, fmt.Sprintf("unsupported resolution %q", res))
	}
	if function == "TIME_SERIES_INTRADAY" || function == "TIME_SERIES_DAILY" {
		params.Set("outputsize", market.OutputSize(from, to))
	}
	body, err := s.fetch(ctx, function, symbol, params)
	if err != nil {
		return nil, err
	}
	series := body.Get(escapeKey(seriesKey))
	if !series.Exists() {
		return nil, market.NewAPIError(market.ErrUnknown, fmt.Sprintf("response missing %q", seriesKey))
	}
	// 返回完整归一化序列，不做区间裁剪：上层按完整负载缓存后再裁剪，
	// 缓存条目才能跨区间复用
	return normalizeSeries(series, res.Intraday(), s.loc), nil
}

func (s *Source) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return market.Quote{}, market.NewAPIError(market.ErrInvalidSymbol, "symbol is required")
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	body, err := s.fetch(ctx, "GLOBAL_QUOTE", symbol, params)
	if err != nil {
		return market.Quote{}, err
	}
	quote := body.Get("Global Quote")
	if !quote.Exists() || quote.Get("01\\. symbol").String() == "" {
		return market.Quote{}, market.NewAPIError(market.ErrInvalidSymbol, fmt.Sprintf("no quote for %s", symbol))
	}
	return normalizeQuote(quote), nil
}

func (s *Source) SearchSymbols(ctx context.Context, query string) ([]market.SymbolMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("keywords", query)
	body, err := s.fetch(ctx, "SYMBOL_SEARCH", query, params)
	if err != nil {
		return nil, err
	}
	return normalizeMatches(body.Get("bestMatches")), nil
}

func (s *Source) CompanyProfile(ctx context.Context, symbol string) (market.CompanyProfile, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return market.CompanyProfile{}, market.NewAPIError(market.ErrInvalidSymbol, "symbol is required")
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	body, err := s.fetch(ctx, "OVERVIEW", symbol, params)
	if err != nil {
		return market.CompanyProfile{}, err
	}
	profile := normalizeProfile(body)
	if profile.Symbol == "" {
		return market.CompanyProfile{}, market.NewAPIError(market.ErrNotFound, fmt.Sprintf("no profile for %s", symbol))
	}
	return profile, nil
}

// fetch 执行带重试的上游调用。invalid_api_key/invalid_symbol 属调用方
// 错误，立即短路；其余错误按线性退避重试。
func (s *Source) fetch(ctx context.Context, function, subject string, params url.Values) (gjson.Result, error) {
	traceID := uuid.NewString()
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			s.metrics.UpstreamRetries.Inc()
			backoff := time.Duration(attempt-1) * s.cfg.RetryBackoff
			logger.Debugf("[alphavantage] retry %s %s attempt=%d backoff=%s trace=%s",
				function, subject, attempt, backoff, traceID)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return gjson.Result{}, &market.APIError{Kind: market.ErrNetwork, Detail: ctx.Err().Error()}
			case <-timer.C:
			}
		}
		body, err := s.doCall(ctx, traceID, function, subject, params)
		if err == nil {
			return body, nil
		}
		lastErr = err
		var apiErr *market.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Kind == market.ErrInvalidAPIKey || apiErr.Kind == market.ErrInvalidSymbol {
				return gjson.Result{}, err
			}
		}
	}
	return gjson.Result{}, lastErr
}

func (s *Source) doCall(ctx context.Context, traceID, function, subject string, params url.Values) (gjson.Result, error) {
	query := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set("function", function)
	query.Set("apikey", s.cfg.APIKey)

	waitStart := time.Now()
	if err := s.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, &market.APIError{Kind: market.ErrNetwork, Detail: err.Error()}
	}
	if waited := time.Since(waitStart); waited > time.Millisecond {
		s.metrics.LimiterWaits.Inc()
		s.metrics.LimiterWaitSeconds.Observe(waited.Seconds())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		// 请求未发出，归还已占用的窗口名额
		s.limiter.Release()
		return gjson.Result{}, &market.APIError{Kind: market.ErrUnknown, Detail: err.Error()}
	}

	if ctx.Err() != nil {
		// 在请求发出前被放弃：不计入窗口配额
		s.limiter.Release()
		return gjson.Result{}, &market.APIError{Kind: market.ErrNetwork, Detail: ctx.Err().Error()}
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	s.metrics.UpstreamLatency.Observe(latency.Seconds())
	if err != nil {
		s.record(traceID, function, subject, "error", string(market.ErrNetwork), latency)
		return gjson.Result{}, &market.APIError{Kind: market.ErrNetwork, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := market.ErrorFromStatus(resp.StatusCode)
		s.record(traceID, function, subject, "error", string(apiErr.Kind), latency)
		return gjson.Result{}, apiErr
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		s.record(traceID, function, subject, "error", string(market.ErrNetwork), latency)
		return gjson.Result{}, &market.APIError{Kind: market.ErrNetwork, Detail: err.Error()}
	}
	if !gjson.ValidBytes(raw) {
		s.record(traceID, function, subject, "error", string(market.ErrUnknown), latency)
		return gjson.Result{}, market.NewAPIError(market.ErrUnknown, "response is not valid JSON")
	}
	body := gjson.ParseBytes(raw)
	// 200 不代表成功，必须先检查响应体内嵌错误
	if apiErr := detectInBandError(body); apiErr != nil {
		s.record(traceID, function, subject, "error", string(apiErr.Kind), latency)
		return gjson.Result{}, apiErr
	}
	s.record(traceID, function, subject, "ok", "", latency)
	return body, nil
}

func (s *Source) record(traceID, function, subject, outcome, errKind string, latency time.Duration) {
	s.metrics.UpstreamCalls.WithLabelValues(function, outcome).Inc()
	if s.audit != nil {
		s.audit(CallRecord{
			TraceID:  traceID,
			Function: function,
			Symbol:   subject,
			Outcome:  outcome,
			ErrKind:  errKind,
			Latency:  latency,
			At:       time.Now(),
		})
	}
}

// escapeKey 转义 gjson 路径里的点号。
func escapeKey(key string) string {
	return strings.ReplaceAll(key, ".", "\\.")
}
