package httpclient

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// TestExponentialBackoffRetry_BackoffClamp 验证指数退避的初始值与上限。
func TestExponentialBackoffRetry_BackoffClamp(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   150 * time.Millisecond,
	}
	retry := NewExponentialBackoffRetry(cfg)

	if delay := retry.backoff(0); delay != 100*time.Millisecond {
		t.Fatalf("首次退避应为 100ms，实际 %v", delay)
	}
	if delay := retry.backoff(2); delay != 150*time.Millisecond {
		t.Fatalf("退避应被上限 150ms 截断，实际 %v", delay)
	}
}

// TestExponentialBackoffRetry_ShouldRetry 覆盖不同错误场景的重试判定。
func TestExponentialBackoffRetry_ShouldRetry(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)

	t.Run("server_error", func(t *testing.T) {
		cfg := DefaultRetryConfig()
		cfg.MaxRetries = 3
		cfg.BaseDelay = 50 * time.Millisecond
		cfg.MaxDelay = 200 * time.Millisecond
		retry := NewExponentialBackoffRetry(cfg)

		should, delay, err := retry.ShouldRetry(req, &http.Response{StatusCode: http.StatusInternalServerError}, nil, 0)
		if err != nil {
			t.Fatalf("不期望错误: %v", err)
		}
		if !should {
			t.Fatalf("500 场景应触发重试")
		}
		if delay != cfg.BaseDelay {
			t.Fatalf("退避时间应为 %v，实际 %v", cfg.BaseDelay, delay)
		}
	})

	t.Run("network_error", func(t *testing.T) {
		cfg := DefaultRetryConfig()
		cfg.MaxRetries = 2
		retry := NewExponentialBackoffRetry(cfg)

		should, _, err := retry.ShouldRetry(req, nil, &NetworkError{Err: errors.New("dial failed")}, 1)
		if err != nil {
			t.Fatalf("不期望错误: %v", err)
		}
		if !should {
			t.Fatalf("网络错误应触发重试")
		}
	})

	t.Run("decode_error", func(t *testing.T) {
		retry := NewExponentialBackoffRetry(DefaultRetryConfig())

		should, _, _ := retry.ShouldRetry(req, nil, &DecodeError{Status: http.StatusOK, Err: errors.New("bad json")}, 0)
		if should {
			t.Fatalf("解码错误不应重试")
		}
	})

	t.Run("unauthorized_not_handled_here", func(t *testing.T) {
		retry := NewExponentialBackoffRetry(DefaultRetryConfig())

		should, _, _ := retry.ShouldRetry(req, &http.Response{StatusCode: http.StatusUnauthorized}, &HTTPError{Status: http.StatusUnauthorized}, 0)
		if should {
			t.Fatalf("401 由 Authenticator 处理，退避策略不应重试")
		}
	})

	t.Run("non_retriable_status", func(t *testing.T) {
		retry := NewExponentialBackoffRetry(DefaultRetryConfig())

		should, _, _ := retry.ShouldRetry(req, nil, &HTTPError{Code: "BadRequest", Status: http.StatusBadRequest}, 0)
		if should {
			t.Fatalf("4xx 不应重试")
		}
	})

	t.Run("unsafe_method", func(t *testing.T) {
		post, _ := http.NewRequest(http.MethodPost, "https://example.com", nil)
		cfg := DefaultRetryConfig()
		if should, _, _ := NewExponentialBackoffRetry(cfg).ShouldRetry(post, &http.Response{StatusCode: http.StatusBadGateway}, nil, 0); should {
			t.Fatalf("POST 默认不应重试")
		}
		cfg.RetryUnsafe = true
		if should, _, _ := NewExponentialBackoffRetry(cfg).ShouldRetry(post, &http.Response{StatusCode: http.StatusBadGateway}, nil, 0); !should {
			t.Fatalf("开启 RetryUnsafe 后 POST 应重试")
		}
	})

	t.Run("canceled_context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		canceled, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://example.com", nil)
		should, _, _ := NewExponentialBackoffRetry(DefaultRetryConfig()).ShouldRetry(canceled, nil, &NetworkError{Err: ctx.Err()}, 0)
		if should {
			t.Fatalf("上下文已取消时不应重试")
		}
	})

	t.Run("max_attempts_reached", func(t *testing.T) {
		cfg := DefaultRetryConfig()
		cfg.MaxRetries = 1
		retry := NewExponentialBackoffRetry(cfg)

		should, _, err := retry.ShouldRetry(req, &http.Response{StatusCode: http.StatusInternalServerError}, nil, cfg.MaxRetries)
		if err != nil {
			t.Fatalf("不期望错误: %v", err)
		}
		if should {
			t.Fatalf("超过最大重试次数后应停止重试")
		}
	})
}
