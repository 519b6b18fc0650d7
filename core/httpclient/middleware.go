package httpclient

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader 请求追踪头。
const RequestIDHeader = "X-Request-ID"

// Middleware 是请求预处理钩子，用于注入 UA、Content-Type、追踪 ID 等。
type Middleware func(req *http.Request) error

// PrepareChain 代表按顺序执行的中间件集合。
type PrepareChain []Middleware

// Apply 依次执行链路中的中间件，遇到错误立即返回。
func (c PrepareChain) Apply(req *http.Request) error {
	for _, mw := range c {
		if mw == nil {
			continue
		}
		if err := mw(req); err != nil {
			return err
		}
	}
	return nil
}

// WithHeader 设置请求头。
func WithHeader(key, value string) Middleware {
	return func(req *http.Request) error {
		req.Header.Set(key, value)
		return nil
	}
}

// WithUserAgent 设置 User-Agent。
func WithUserAgent(ua string) Middleware {
	return WithHeader("User-Agent", ua)
}

// WithContentType 设置 Content-Type。
func WithContentType(ct string) Middleware {
	return WithHeader("Content-Type", ct)
}

// WithAccept 设置 Accept。
func WithAccept(accept string) Middleware {
	return WithHeader("Accept", accept)
}

// WithRequestID 在缺失时生成 X-Request-ID，重试沿用同一个值。
func WithRequestID() Middleware {
	return func(req *http.Request) error {
		if req.Header.Get(RequestIDHeader) == "" {
			req.Header.Set(RequestIDHeader, uuid.NewString())
		}
		return nil
	}
}
