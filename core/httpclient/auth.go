package httpclient

import (
	"context"
	"net/http"
)

// Authenticator 为请求注入凭证，并在收到 401 后协调刷新。
type Authenticator interface {
	// Authorize 在发送前调用：若刷新进行中则等待其结束，随后写入凭证。
	// 返回值为凭证版本号，收到 401 时原样传给 Refresh。
	Authorize(ctx context.Context, req *http.Request) (uint64, error)
	// Refresh 在请求收到 401 后调用。同一版本号的并发调用只触发一次实际刷新，
	// 返回 nil 表示可以用新凭证重发。
	Refresh(ctx context.Context, generation uint64) error
}

type retriedKey struct{}

// WithRetried 标记请求已因 401 重试过，再次 401 时不会继续刷新。
func WithRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

// IsRetried 判断上下文是否带有重试标记。
func IsRetried(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}
