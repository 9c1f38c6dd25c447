package config

import (
	"fmt"
	"strings"
	"time"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.RateLimit.validate(); err != nil {
		return err
	}
	if err := c.Cache.validate(); err != nil {
		return err
	}
	return nil
}

func (m *MarketConfig) validate() error {
	source := strings.ToLower(strings.TrimSpace(m.Source))
	switch source {
	case "mock":
	case "alphavantage":
		if strings.TrimSpace(m.APIKey) == "" {
			return fmt.Errorf("market.api_key is required when market.source is alphavantage")
		}
	default:
		return fmt.Errorf("market.source must be \"alphavantage\" or \"mock\", got %q", m.Source)
	}
	if _, err := time.LoadLocation(m.ProviderTimezone); err != nil {
		return fmt.Errorf("market.provider_timezone is not a valid IANA name: %w", err)
	}
	return nil
}

func (r *RateLimitConfig) validate() error {
	if r.Quota <= 0 {
		return fmt.Errorf("rate_limit.quota must be > 0")
	}
	if r.WindowSeconds <= 0 {
		return fmt.Errorf("rate_limit.window_seconds must be > 0")
	}
	return nil
}

func (c *CacheConfig) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be > 0")
	}
	return nil
}
