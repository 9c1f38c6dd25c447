package config

import "strings"

// Config 是 kandle 的主配置载体。
type Config struct {
	App        AppConfig       `toml:"app" yaml:"app"`
	Market     MarketConfig    `toml:"market" yaml:"market"`
	RateLimit  RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
	Cache      CacheConfig     `toml:"cache" yaml:"cache"`
	Store      StoreConfig     `toml:"store" yaml:"store"`
	Indicators IndicatorConfig `toml:"indicators" yaml:"indicators"`
}

type AppConfig struct {
	Env      string `toml:"env" yaml:"env"`
	LogLevel string `toml:"log_level" yaml:"log_level"`
	HTTPAddr string `toml:"http_addr" yaml:"http_addr"`
	LogPath  string `toml:"log_path" yaml:"log_path"`
}

// MarketConfig 描述活跃数据源与上游访问参数。
type MarketConfig struct {
	Source              string `toml:"source" yaml:"source"` // "alphavantage" | "mock"
	APIKey              string `toml:"api_key" yaml:"api_key"`
	BaseURL             string `toml:"base_url" yaml:"base_url"`
	ProviderTimezone    string `toml:"provider_timezone" yaml:"provider_timezone"`
	TimeoutSeconds      int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
	MaxAttempts         int    `toml:"max_attempts" yaml:"max_attempts"`
	RetryBackoffSeconds int    `toml:"retry_backoff_seconds" yaml:"retry_backoff_seconds"`
}

type RateLimitConfig struct {
	Quota         int `toml:"quota" yaml:"quota"`
	WindowSeconds int `toml:"window_seconds" yaml:"window_seconds"`
}

// CacheConfig 控制响应缓存容量与各数据类别的 TTL。
type CacheConfig struct {
	Capacity           int `toml:"capacity" yaml:"capacity"`
	QuoteTTLSeconds    int `toml:"quote_ttl_seconds" yaml:"quote_ttl_seconds"`
	IntradayTTLSeconds int `toml:"intraday_ttl_seconds" yaml:"intraday_ttl_seconds"`
	SeriesTTLSeconds   int `toml:"series_ttl_seconds" yaml:"series_ttl_seconds"`
	SearchTTLSeconds   int `toml:"search_ttl_seconds" yaml:"search_ttl_seconds"`
	ProfileTTLSeconds  int `toml:"profile_ttl_seconds" yaml:"profile_ttl_seconds"`
}

type StoreConfig struct {
	Enabled      bool   `toml:"enabled" yaml:"enabled"`
	ArchivePath  string `toml:"archive_path" yaml:"archive_path"`
	FetchLogPath string `toml:"fetch_log_path" yaml:"fetch_log_path"`
}

type IndicatorConfig struct {
	OverlayPath string `toml:"overlay_path" yaml:"overlay_path"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
