package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorFromStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   ErrorKind
	}{
		{401, ErrUnauthorized},
		{403, ErrForbidden},
		{404, ErrNotFound},
		{429, ErrRateLimit},
		{500, ErrServer},
		{503, ErrServer},
		{418, ErrUnknown},
	}
	for _, tc := range cases {
		err := ErrorFromStatus(tc.status)
		assert.Equal(t, tc.kind, err.Kind, "status %d", tc.status)
		assert.Equal(t, tc.status, err.StatusCode)
	}
	assert.Equal(t, time.Minute, ErrorFromStatus(429).RetryAfter)
	assert.Zero(t, ErrorFromStatus(500).RetryAfter)
}

func TestAPIErrorMessageIsStable(t *testing.T) {
	for kind, want := range userMessages {
		assert.Equal(t, want, (&APIError{Kind: kind}).Message())
	}
	// 未知类型回落到通用文案
	assert.Equal(t, userMessages[ErrUnknown], (&APIError{Kind: ErrorKind("weird")}).Message())
}

func TestAPIErrorTransient(t *testing.T) {
	transient := []ErrorKind{ErrNetwork, ErrServer, ErrRateLimit}
	for _, k := range transient {
		assert.True(t, (&APIError{Kind: k}).Transient(), string(k))
	}
	terminal := []ErrorKind{ErrInvalidSymbol, ErrInvalidAPIKey, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrUnknown}
	for _, k := range terminal {
		assert.False(t, (&APIError{Kind: k}).Transient(), string(k))
	}
}

func TestAPIErrorError(t *testing.T) {
	assert.Equal(t, "rate_limit", (&APIError{Kind: ErrRateLimit}).Error())
	assert.Equal(t, "invalid_symbol: no such ticker", NewAPIError(ErrInvalidSymbol, "no such ticker").Error())
}

func TestParseResolution(t *testing.T) {
	for _, raw := range []string{"1", "5", "15", "30", "60", "D", "W", "M", "d", " w "} {
		_, err := ParseResolution(raw)
		assert.NoError(t, err, raw)
	}
	for _, raw := range []string{"", "2", "1h", "day", "240"} {
		_, err := ParseResolution(raw)
		assert.Error(t, err, raw)
	}
}

func TestResolutionIntradayAndDuration(t *testing.T) {
	assert.True(t, Res5Min.Intraday())
	assert.False(t, ResDay.Intraday())
	assert.Equal(t, 15, Res15Min.Minutes())
	assert.Equal(t, 0, ResWeek.Minutes())
	assert.Equal(t, 24*time.Hour, ResDay.Duration())
	assert.Equal(t, 5*time.Minute, Res5Min.Duration())
}
