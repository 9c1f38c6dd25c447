package market

import (
	"context"
	"strconv"
	"strings"
	"time"

	"kandle/internal/cache"
	"kandle/internal/logger"
	"kandle/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// Archive 是 K 线落盘仓库。写入尽力而为，读取用于上游不可用时的降级兜底。
type Archive interface {
	SaveCandles(ctx context.Context, source, symbol string, res Resolution, candles []Candle) error
	LoadCandles(ctx context.Context, source, symbol string, res Resolution, from, to int64) ([]Candle, error)
}

// TTLConfig 按数据类别配置缓存存活时间。
type TTLConfig struct {
	Quote    time.Duration
	Intraday time.Duration
	Series   time.Duration
	Search   time.Duration
	Profile  time.Duration
}

func (t TTLConfig) withDefaults() TTLConfig {
	if t.Quote <= 0 {
		t.Quote = time.Minute
	}
	if t.Intraday <= 0 {
		t.Intraday = time.Minute
	}
	if t.Series <= 0 {
		t.Series = 15 * time.Minute
	}
	if t.Search <= 0 {
		t.Search = 10 * time.Minute
	}
	if t.Profile <= 0 {
		t.Profile = time.Hour
	}
	return t
}

// CandleSet 是一次 K 线查询的结果。Degraded 表示上游失败后由归档兜底。
type CandleSet struct {
	Candles  []Candle `json:"candles"`
	Source   string   `json:"source"`
	Degraded bool     `json:"degraded"`
}

// seriesEntry 是缓存里的 K 线负载及其已覆盖的请求区间。缓存键不带区间
// 维度，命中必须先验证覆盖：窄区间请求写入的条目不能顶替宽区间请求。
type seriesEntry struct {
	candles []Candle
	from    int64
	to      int64
}

func (e seriesEntry) covers(from, to int64) bool {
	return e.from <= from && to <= e.to
}

// Service 编排数据管线：缓存查询、并发去重、上游拉取、归档写穿与降级。
// 缓存键携带数据源判别符，切换数据源后旧源的条目自然失效而非被覆盖。
type Service struct {
	source  Source
	cache   *cache.Cache
	ttls    TTLConfig
	metrics *metrics.Metrics
	archive Archive
	sf      singleflight.Group
}

func NewService(source Source, c *cache.Cache, ttls TTLConfig, m *metrics.Metrics) *Service {
	if c == nil {
		c = cache.New(0)
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		source:  source,
		cache:   c,
		ttls:    ttls.withDefaults(),
		metrics: m,
	}
}

// SetArchive 挂接落盘仓库（可选）。
func (s *Service) SetArchive(a Archive) { s.archive = a }

// UseSource 切换活跃数据源。缓存无需清空：键里带 source 维度。
func (s *Service) UseSource(src Source) {
	if src != nil {
		s.source = src
	}
}

func (s *Service) SourceName() string { return s.source.Name() }

// Candles 返回 [from, to] 内的 K 线。缓存保存数据源的完整归一化负载
// 及其覆盖区间，仅当请求区间被覆盖时命中并裁剪返回；未命中（含覆盖不足）
// 经 singleflight 拉取上游并覆盖写缓存，成功后尽力写归档。上游瞬时失败
// 且归档有数据时降级返回归档内容。
func (s *Service) Candles(ctx context.Context, symbol string, res Resolution, from, to int64) (CandleSet, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return CandleSet{}, NewAPIError(ErrInvalidSymbol, "symbol is required")
	}
	src := s.source
	key := cache.Key(src.Name(), symbol, string(res), OutputSize(from, to))
	if v, ok := s.cache.Get(key); ok {
		if entry, ok := v.(seriesEntry); ok && entry.covers(from, to) {
			s.metrics.CacheHits.WithLabelValues("candles").Inc()
			return CandleSet{Candles: FilterRange(entry.candles, from, to), Source: src.Name()}, nil
		}
	}
	s.metrics.CacheMisses.WithLabelValues("candles").Inc()

	// 去重键带上区间：同 key 不同区间的并发请求不能共享一次拉取
	sfKey := cache.Key(key, strconv.FormatInt(from, 10), strconv.FormatInt(to, 10))
	v, err, _ := s.sf.Do(sfKey, func() (any, error) {
		candles, err := src.Candles(ctx, symbol, res, from, to)
		if err != nil {
			return nil, err
		}
		ttl := s.ttls.Series
		if res.Intraday() {
			ttl = s.ttls.Intraday
		}
		s.cache.Set(key, seriesEntry{candles: candles, from: from, to: to}, ttl)
		s.saveArchive(ctx, src.Name(), symbol, res, candles)
		return candles, nil
	})
	if err != nil {
		if set, ok := s.archiveFallback(ctx, src.Name(), symbol, res, from, to, err); ok {
			return set, nil
		}
		return CandleSet{}, err
	}
	return CandleSet{Candles: FilterRange(v.([]Candle), from, to), Source: src.Name()}, nil
}

func (s *Service) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return Quote{}, NewAPIError(ErrInvalidSymbol, "symbol is required")
	}
	src := s.source
	key := cache.Key(src.Name(), symbol, "quote")
	if v, ok := s.cache.Get(key); ok {
		s.metrics.CacheHits.WithLabelValues("quote").Inc()
		return v.(Quote), nil
	}
	s.metrics.CacheMisses.WithLabelValues("quote").Inc()

	v, err, _ := s.sf.Do(key, func() (any, error) {
		q, err := src.Quote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, q, s.ttls.Quote)
		return q, nil
	})
	if err != nil {
		return Quote{}, err
	}
	return v.(Quote), nil
}

func (s *Service) SearchSymbols(ctx context.Context, query string) ([]SymbolMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	src := s.source
	key := cache.Key(src.Name(), strings.ToLower(query), "search")
	if v, ok := s.cache.Get(key); ok {
		s.metrics.CacheHits.WithLabelValues("search").Inc()
		return v.([]SymbolMatch), nil
	}
	s.metrics.CacheMisses.WithLabelValues("search").Inc()

	v, err, _ := s.sf.Do(key, func() (any, error) {
		matches, err := src.SearchSymbols(ctx, query)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, matches, s.ttls.Search)
		return matches, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]SymbolMatch), nil
}

func (s *Service) CompanyProfile(ctx context.Context, symbol string) (CompanyProfile, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return CompanyProfile{}, NewAPIError(ErrInvalidSymbol, "symbol is required")
	}
	src := s.source
	key := cache.Key(src.Name(), symbol, "profile")
	if v, ok := s.cache.Get(key); ok {
		s.metrics.CacheHits.WithLabelValues("profile").Inc()
		return v.(CompanyProfile), nil
	}
	s.metrics.CacheMisses.WithLabelValues("profile").Inc()

	v, err, _ := s.sf.Do(key, func() (any, error) {
		p, err := src.CompanyProfile(ctx, symbol)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, p, s.ttls.Profile)
		return p, nil
	})
	if err != nil {
		return CompanyProfile{}, err
	}
	return v.(CompanyProfile), nil
}

// ClearExpiredCache 供后台周期清理调用。
func (s *Service) ClearExpiredCache() int { return s.cache.ClearExpired() }

func (s *Service) saveArchive(ctx context.Context, source, symbol string, res Resolution, candles []Candle) {
	if s.archive == nil || len(candles) == 0 {
		return
	}
	if err := s.archive.SaveCandles(ctx, source, symbol, res, candles); err != nil {
		logger.Warnf("[market] archive save failed symbol=%s res=%s: %v", symbol, res, err)
	}
}

// archiveFallback 在上游瞬时失败时尝试用归档数据降级。调用方错误
// （无效 symbol/key）不兜底，直接上抛。
func (s *Service) archiveFallback(ctx context.Context, source, symbol string, res Resolution, from, to int64, cause error) (CandleSet, bool) {
	if s.archive == nil {
		return CandleSet{}, false
	}
	if apiErr, ok := cause.(*APIError); ok && !apiErr.Transient() {
		return CandleSet{}, false
	}
	candles, err := s.archive.LoadCandles(ctx, source, symbol, res, from, to)
	if err != nil || len(candles) == 0 {
		return CandleSet{}, false
	}
	logger.Warnf("[market] serving archived candles symbol=%s res=%s after upstream error: %v", symbol, res, cause)
	return CandleSet{Candles: candles, Source: "archive", Degraded: true}, true
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
