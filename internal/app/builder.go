package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"kandle/internal/analysis/indicator"
	"kandle/internal/cache"
	kcfg "kandle/internal/config"
	"kandle/internal/gateway/alphavantage"
	"kandle/internal/logger"
	"kandle/internal/market"
	"kandle/internal/market/mock"
	"kandle/internal/metrics"
	"kandle/internal/ratelimit"
	"kandle/internal/store/fetchlog"
	"kandle/internal/store/sqlite"
	charthttp "kandle/internal/transport/http"

	"github.com/prometheus/client_golang/prometheus"
)

// AppBuilder 逐层装配依赖，测试可通过 option 替换数据源。
type AppBuilder struct {
	cfg *kcfg.Config

	sourceFn func(*kcfg.Config, *ratelimit.Limiter, *metrics.Metrics) (market.Source, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *kcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:      cfg,
		sourceFn: buildSource,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithSource 替换数据源构造逻辑（测试用）。
func WithSource(fn func(*kcfg.Config, *ratelimit.Limiter, *metrics.Metrics) (market.Source, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.sourceFn = fn
		}
	}
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	registry, err := indicator.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("初始化指标目录失败: %w", err)
	}
	if path := strings.TrimSpace(cfg.Indicators.OverlayPath); path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := registry.WatchOverlay(path); err != nil {
				return nil, fmt.Errorf("加载指标 overlay 失败: %w", err)
			}
			logger.Infof("✓ 指标 overlay 已加载: %s", path)
		} else {
			logger.Debugf("indicator overlay %s not present, using builtin defaults", path)
		}
	}

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	limiter := ratelimit.New(cfg.RateLimit.Quota, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)

	source, err := b.sourceFn(cfg, limiter, m)
	if err != nil {
		return nil, err
	}
	logger.Infof("✓ 数据源: %s", source.Name())

	respCache := cache.New(cfg.Cache.Capacity)
	svc := market.NewService(source, respCache, market.TTLConfig{
		Quote:    time.Duration(cfg.Cache.QuoteTTLSeconds) * time.Second,
		Intraday: time.Duration(cfg.Cache.IntradayTTLSeconds) * time.Second,
		Series:   time.Duration(cfg.Cache.SeriesTTLSeconds) * time.Second,
		Search:   time.Duration(cfg.Cache.SearchTTLSeconds) * time.Second,
		Profile:  time.Duration(cfg.Cache.ProfileTTLSeconds) * time.Second,
	}, m)

	var closers []func()
	closers = append(closers, func() { _ = source.Close() })

	var fetchStore *fetchlog.Store
	if cfg.Store.Enabled {
		archive, err := sqlite.NewArchiveStore(cfg.Store.ArchivePath)
		if err != nil {
			return nil, fmt.Errorf("初始化归档存储失败: %w", err)
		}
		svc.SetArchive(archive)
		closers = append(closers, func() { _ = archive.Close() })
		logger.Infof("✓ K 线归档: %s", cfg.Store.ArchivePath)

		fetchStore, err = fetchlog.New(cfg.Store.FetchLogPath)
		if err != nil {
			return nil, fmt.Errorf("初始化 fetch log 失败: %w", err)
		}
		closers = append(closers, func() { _ = fetchStore.Close() })

		if av, ok := source.(*alphavantage.Source); ok {
			sink := fetchStore
			av.SetAuditSink(func(rec alphavantage.CallRecord) {
				if err := sink.Append(context.Background(), fetchlog.Record{
					TraceID:  rec.TraceID,
					Function: rec.Function,
					Symbol:   rec.Symbol,
					Outcome:  rec.Outcome,
					ErrKind:  rec.ErrKind,
					Latency:  rec.Latency,
					At:       rec.At,
				}); err != nil {
					logger.Warnf("fetch log append failed: %v", err)
				}
			})
		}
	}

	server, err := charthttp.NewServer(charthttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Router:   charthttp.NewRouter(svc, registry, fetchStore),
		Gatherer: promReg,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 HTTP 服务失败: %w", err)
	}

	return &App{
		cfg:    cfg,
		server: server,
		closer: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
		clearExpired: svc.ClearExpiredCache,
	}, nil
}

func buildSource(cfg *kcfg.Config, limiter *ratelimit.Limiter, m *metrics.Metrics) (market.Source, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Market.Source)) {
	case "mock", "":
		return mock.New(), nil
	case "alphavantage":
		return alphavantage.New(alphavantage.Config{
			APIKey:           cfg.Market.APIKey,
			BaseURL:          cfg.Market.BaseURL,
			HTTPTimeout:      time.Duration(cfg.Market.TimeoutSeconds) * time.Second,
			ProviderTimezone: cfg.Market.ProviderTimezone,
			MaxAttempts:      cfg.Market.MaxAttempts,
			RetryBackoff:     time.Duration(cfg.Market.RetryBackoffSeconds) * time.Second,
		}, limiter, m)
	default:
		return nil, fmt.Errorf("unsupported market source %q", cfg.Market.Source)
	}
}
