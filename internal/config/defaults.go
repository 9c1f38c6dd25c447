package config

import "strings"

// 默认值常量
const (
	defaultAppEnv       = "dev"
	defaultAppLogLevel  = "info"
	defaultAppHTTPAddr  = ":8880"
	defaultAppLogPath   = "data/logs/kandle.log"
	defaultMarketSource = "mock"
	defaultMarketREST   = "https://www.alphavantage.co/query"
	defaultMarketTZ     = "US/Eastern"
	defaultMarketTO     = 15
	defaultMarketTries  = 3
	defaultMarketRetry  = 1
	defaultLimitQuota   = 5
	defaultLimitWindow  = 60
	defaultCacheCap     = 256
	defaultTTLQuote     = 60
	defaultTTLIntraday  = 60
	defaultTTLSeries    = 900
	defaultTTLSearch    = 600
	defaultTTLProfile   = 3600
	defaultArchivePath  = "data/db/candles.db"
	defaultFetchLogPath = "data/db/fetchlog.db"
	defaultOverlayPath  = "configs/indicators.yaml"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.RateLimit.applyDefaults(keys)
	c.Cache.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Indicators.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.source", &m.Source, defaultMarketSource),
		stringFieldDefault("market.base_url", &m.BaseURL, defaultMarketREST),
		stringFieldDefault("market.provider_timezone", &m.ProviderTimezone, defaultMarketTZ),
		intFieldDefault("market.timeout_seconds", &m.TimeoutSeconds, defaultMarketTO),
		intFieldDefault("market.max_attempts", &m.MaxAttempts, defaultMarketTries),
		intFieldDefault("market.retry_backoff_seconds", &m.RetryBackoffSeconds, defaultMarketRetry),
	)
}

func (r *RateLimitConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("rate_limit.quota", &r.Quota, defaultLimitQuota),
		intFieldDefault("rate_limit.window_seconds", &r.WindowSeconds, defaultLimitWindow),
	)
}

func (c *CacheConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("cache.capacity", &c.Capacity, defaultCacheCap),
		intFieldDefault("cache.quote_ttl_seconds", &c.QuoteTTLSeconds, defaultTTLQuote),
		intFieldDefault("cache.intraday_ttl_seconds", &c.IntradayTTLSeconds, defaultTTLIntraday),
		intFieldDefault("cache.series_ttl_seconds", &c.SeriesTTLSeconds, defaultTTLSeries),
		intFieldDefault("cache.search_ttl_seconds", &c.SearchTTLSeconds, defaultTTLSearch),
		intFieldDefault("cache.profile_ttl_seconds", &c.ProfileTTLSeconds, defaultTTLProfile),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.archive_path", &s.ArchivePath, defaultArchivePath),
		stringFieldDefault("store.fetch_log_path", &s.FetchLogPath, defaultFetchLogPath),
	)
}

func (i *IndicatorConfig) applyDefaults(keys keySet) {
	if i == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("indicators.overlay_path", &i.OverlayPath, defaultOverlayPath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
