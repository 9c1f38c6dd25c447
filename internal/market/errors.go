package market

import (
	"fmt"
	"time"
)

// ErrorKind 是 API 错误分类，全部上游失败在网关边界归一化到该枚举。
type ErrorKind string

const (
	ErrNetwork       ErrorKind = "network"
	ErrRateLimit     ErrorKind = "rate_limit"
	ErrInvalidSymbol ErrorKind = "invalid_symbol"
	ErrInvalidAPIKey ErrorKind = "invalid_api_key"
	ErrUnauthorized  ErrorKind = "unauthorized"
	ErrForbidden     ErrorKind = "forbidden"
	ErrNotFound      ErrorKind = "not_found"
	ErrServer        ErrorKind = "server_error"
	ErrUnknown       ErrorKind = "unknown"
)

// userMessages 是每个错误类型对应的唯一人类可读文案（稳定映射，供 UI 与测试使用）。
var userMessages = map[ErrorKind]string{
	ErrNetwork:       "Network error. Please check your connection and try again.",
	ErrRateLimit:     "API rate limit reached. Please wait a moment before retrying.",
	ErrInvalidSymbol: "Unknown symbol. Please check the ticker and try again.",
	ErrInvalidAPIKey: "Invalid API key. Please update your key in the settings.",
	ErrUnauthorized:  "Unauthorized. The API rejected the provided credentials.",
	ErrForbidden:     "Access denied by the data provider.",
	ErrNotFound:      "The requested resource was not found.",
	ErrServer:        "The data provider is experiencing issues. Please try again later.",
	ErrUnknown:       "An unexpected error occurred. Please try again.",
}

// APIError 携带错误类型、可选的 HTTP 状态码与建议重试间隔。
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	RetryAfter time.Duration
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return string(e.Kind)
}

// Message 返回错误类型对应的稳定用户文案。
func (e *APIError) Message() string {
	if msg, ok := userMessages[e.Kind]; ok {
		return msg
	}
	return userMessages[ErrUnknown]
}

// Transient 报告该错误是否值得重试。
func (e *APIError) Transient() bool {
	switch e.Kind {
	case ErrNetwork, ErrServer, ErrRateLimit:
		return true
	}
	return false
}

// NewAPIError 构造带详情的 APIError。
func NewAPIError(kind ErrorKind, detail string) *APIError {
	return &APIError{Kind: kind, Detail: detail}
}

// ErrorFromStatus 把传输层 HTTP 状态码映射为 APIError。
// 200 不经此处；响应体内嵌错误由网关单独检测。
func ErrorFromStatus(status int) *APIError {
	kind := ErrUnknown
	var retryAfter time.Duration
	switch {
	case status == 401:
		kind = ErrUnauthorized
	case status == 403:
		kind = ErrForbidden
	case status == 404:
		kind = ErrNotFound
	case status == 429:
		kind = ErrRateLimit
		retryAfter = time.Minute
	case status >= 500:
		kind = ErrServer
	}
	return &APIError{Kind: kind, StatusCode: status, RetryAfter: retryAfter}
}
