package alphavantage

import (
	"strings"
	"time"

	"kandle/internal/market"

	"github.com/tidwall/gjson"
)

// detectInBandError 检查 HTTP 200 响应体内嵌的错误哨兵字段。
// Alpha Vantage 在限频、参数错误与推广提示时仍返回 200，必须先于
// 归一化拦截；返回 nil 表示响应体可以继续解析。
func detectInBandError(body gjson.Result) *market.APIError {
	if msg := body.Get("Error Message"); msg.Exists() {
		detail := msg.String()
		if looksLikeKeyError(detail) {
			return &market.APIError{Kind: market.ErrInvalidAPIKey, Detail: detail}
		}
		return &market.APIError{Kind: market.ErrInvalidSymbol, Detail: detail}
	}
	if note := body.Get("Note"); note.Exists() {
		return &market.APIError{
			Kind:       market.ErrRateLimit,
			RetryAfter: time.Minute,
			Detail:     note.String(),
		}
	}
	if info := body.Get("Information"); info.Exists() {
		detail := info.String()
		if looksLikeKeyError(detail) {
			return &market.APIError{Kind: market.ErrInvalidAPIKey, Detail: detail}
		}
		// Information 目前只用于限频与套餐提示
		return &market.APIError{
			Kind:       market.ErrRateLimit,
			RetryAfter: time.Minute,
			Detail:     detail,
		}
	}
	return nil
}

func looksLikeKeyError(detail string) bool {
	lower := strings.ToLower(detail)
	return strings.Contains(lower, "apikey") || strings.Contains(lower, "api key")
}
