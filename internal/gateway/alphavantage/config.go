package alphavantage

import (
	"strings"
	"time"
)

type Config struct {
	APIKey      string
	BaseURL     string
	HTTPTimeout time.Duration

	// ProviderTimezone 是 intraday 时间串的解析时区（IANA 名称）。
	ProviderTimezone string

	MaxAttempts  int
	RetryBackoff time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	out.APIKey = strings.TrimSpace(out.APIKey)
	out.BaseURL = strings.TrimSpace(out.BaseURL)
	if out.BaseURL == "" {
		out.BaseURL = "https://www.alphavantage.co/query"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	out.ProviderTimezone = strings.TrimSpace(out.ProviderTimezone)
	if out.ProviderTimezone == "" {
		out.ProviderTimezone = "US/Eastern"
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 3
	}
	if out.RetryBackoff <= 0 {
		out.RetryBackoff = time.Second
	}
	return out
}
