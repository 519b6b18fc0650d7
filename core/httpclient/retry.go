package httpclient

import (
	"errors"
	"net/http"
	"time"
)

// RetryPolicy 定义重试策略。
type RetryPolicy interface {
	ShouldRetry(req *http.Request, resp *http.Response, err error, attempt int) (bool, time.Duration, error)
}

// RetryConfig 配置指数退避重试。
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// RetryUnsafe 为 true 时 POST/PATCH 也会在网络错误或 5xx 后重试。
	RetryUnsafe bool
	Logger      Logger
}

// ExponentialBackoffRetry 实现指数退避重试，只处理网络错误与 5xx。
// 401/403 由 Client 与 Authenticator 处理，不经过这里。
type ExponentialBackoffRetry struct {
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
	retryUnsafe bool
	logger      Logger
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

// NewExponentialBackoffRetry 创建重试策略。
func NewExponentialBackoffRetry(cfg RetryConfig) *ExponentialBackoffRetry {
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger{}
	}
	return &ExponentialBackoffRetry{
		maxRetries:  cfg.MaxRetries,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
		retryUnsafe: cfg.RetryUnsafe,
		logger:      logger,
	}
}

// ShouldRetry 根据错误类型、状态码决定是否重试。
func (r *ExponentialBackoffRetry) ShouldRetry(req *http.Request, resp *http.Response, err error, attempt int) (bool, time.Duration, error) {
	if r == nil {
		return false, 0, nil
	}
	if attempt >= r.maxRetries {
		return false, 0, nil
	}
	if req != nil && req.Context().Err() != nil {
		return false, 0, nil
	}
	if req != nil && !r.retryUnsafe && !idempotent(req.Method) {
		return false, 0, nil
	}
	delay := r.backoff(attempt)

	if resp != nil && resp.StatusCode >= http.StatusInternalServerError {
		r.logger.Debugf("服务端错误，第 %d 次重试", attempt+1)
		return true, delay, nil
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		r.logger.Debugf("网络错误，第 %d 次重试", attempt+1)
		return true, delay, nil
	}

	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return false, 0, nil
	}

	var he *HTTPError
	if errors.As(err, &he) && he.Status >= http.StatusInternalServerError {
		r.logger.Debugf("服务端错误(code=%d)，第 %d 次重试", he.Status, attempt+1)
		return true, delay, nil
	}
	return false, 0, nil
}

func (r *ExponentialBackoffRetry) backoff(attempt int) time.Duration {
	base := r.baseDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	max := r.maxDelay
	if max <= 0 {
		max = 2 * time.Second
	}
	delay := base << attempt
	if delay > max {
		delay = max
	}
	return delay
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete, "":
		return true
	}
	return false
}
