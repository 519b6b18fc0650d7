package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// DefaultTimeout 单次请求的默认超时。
const DefaultTimeout = 30 * time.Second

// Logger 由外部注入，满足 core 层无输出原则。
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger 默认空日志实现。
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Errorf(string, ...any) {}

// Client 为统一 HTTP 客户端封装。
type Client struct {
	HTTP    *http.Client
	Jar     http.CookieJar
	BaseURL string
	Header  http.Header
	Prepare PrepareChain
	Retry   RetryPolicy
	Limiter RateLimiter
	Auth    Authenticator
	Logger  Logger
	Metrics *Metrics

	noJar bool
}

// Option 配置客户端。
type Option func(*Client)

// WithHTTPClient 自定义 http.Client。
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.HTTP = httpClient
	}
}

// WithCookieJar 设置 CookieJar。
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.Jar = jar
	}
}

// WithoutCookieJar 不保存任何响应 Cookie。服务端代多个用户调用后端时必须使用，
// 否则一个用户的 Set-Cookie 会随后续其他用户的请求发出。
func WithoutCookieJar() Option {
	return func(c *Client) {
		c.noJar = true
	}
}

// WithBaseURL 设置相对路径请求的基础地址，例如同源的 http://localhost:3000。
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.BaseURL = base
	}
}

// WithTimeout 设置单次请求超时。
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.HTTP != nil && timeout > 0 {
			c.HTTP.Timeout = timeout
		}
	}
}

// WithDefaultHeader 设置每个请求默认携带的请求头，请求自身已设置时不覆盖。
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) {
		if c.Header == nil {
			c.Header = http.Header{}
		}
		c.Header.Set(key, value)
	}
}

// WithRetryPolicy 设置重试策略。
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.Retry = policy
	}
}

// WithRateLimiter 设置限流。
func WithRateLimiter(limiter RateLimiter) Option {
	return func(c *Client) {
		c.Limiter = limiter
	}
}

// WithAuthenticator 设置凭证注入与 401 刷新协调器。
func WithAuthenticator(auth Authenticator) Option {
	return func(c *Client) {
		c.Auth = auth
	}
}

// WithLogger 注入日志。
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.Logger = logger
	}
}

// WithMetrics 注入指标采集。
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.Metrics = m
	}
}

// WithMiddlewares 设置请求中间件链。
func WithMiddlewares(mw ...Middleware) Option {
	return func(c *Client) {
		c.Prepare = append(c.Prepare, mw...)
	}
}

// NewClient 创建带默认超时、重试、CookieJar 的客户端。
func NewClient(opts ...Option) *Client {
	// cookiejar.New(nil) 传入 nil 时不会返回错误
	jar, _ := cookiejar.New(nil)
	client := &Client{
		HTTP:    &http.Client{Jar: jar, Timeout: DefaultTimeout},
		Jar:     jar,
		Header:  http.Header{"Accept": []string{"application/json"}},
		Prepare: PrepareChain{},
		Logger:  NopLogger{},
	}
	client.Retry = NewExponentialBackoffRetry(DefaultRetryConfig())
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.HTTP == nil {
		client.HTTP = &http.Client{Timeout: DefaultTimeout}
	}
	if client.Logger == nil {
		client.Logger = NopLogger{}
	}
	if client.noJar {
		return client.DetachCookieJar()
	}
	if client.Jar == nil {
		client.Jar = client.HTTP.Jar
	}
	if client.Jar == nil {
		j, _ := cookiejar.New(nil)
		client.Jar = j
	}
	if client.HTTP.Jar == nil {
		client.HTTP.Jar = client.Jar
	}
	return client
}

// DetachCookieJar 返回不带 CookieJar 的浅拷贝，http.Client 也一并拷贝，原客户端不受影响。
func (c *Client) DetachCookieJar() *Client {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Jar = nil
	cp.noJar = true
	if c.HTTP != nil {
		h := *c.HTTP
		h.Jar = nil
		cp.HTTP = &h
	} else {
		cp.HTTP = &http.Client{Timeout: DefaultTimeout}
	}
	return &cp
}

// Cookies 读取当前 jar 中的 cookies。
func (c *Client) Cookies(u *url.URL) []*http.Cookie {
	if c == nil || c.Jar == nil {
		return nil
	}
	return c.Jar.Cookies(u)
}

// Use 添加中间件。
func (c *Client) Use(mw ...Middleware) {
	c.Prepare = append(c.Prepare, mw...)
}

// Do 发送请求并按需解码 JSON。
// 401 时经 Authenticator 刷新凭证后重发一次；403 记录后原样返回；
// 网络错误与 5xx 交给 RetryPolicy 决定是否退避重试。
func (c *Client) Do(req *http.Request, out any) error {
	if req == nil {
		return errors.New("httpclient: 请求为空")
	}
	if c.HTTP == nil {
		return errors.New("httpclient: http.Client 未配置")
	}
	ctx := req.Context()
	retried := IsRetried(ctx)
	attempt := 0
	sends := 0
	for {
		clonedReq, cloneErr := c.cloneRequest(req, sends)
		if cloneErr != nil {
			return cloneErr
		}
		sends++

		var generation uint64
		if c.Auth != nil {
			g, authErr := c.Auth.Authorize(ctx, clonedReq)
			if authErr != nil {
				return authErr
			}
			generation = g
		}

		start := time.Now()
		resp, err := c.execute(clonedReq, out)
		status := statusOf(resp, err)
		c.Metrics.ObserveRequest(clonedReq.Method, status, time.Since(start))
		c.Logger.Debugf("httpclient: %s %s -> %d (%s)", clonedReq.Method, clonedReq.URL.Redacted(), status, time.Since(start))
		if err == nil {
			return nil
		}

		switch status {
		case http.StatusUnauthorized:
			if c.Auth == nil || retried {
				return err
			}
			c.Logger.Debugf("httpclient: %s %s 返回 401，刷新凭证后重试", clonedReq.Method, clonedReq.URL.Path)
			if refreshErr := c.Auth.Refresh(ctx, generation); refreshErr != nil {
				return refreshErr
			}
			retried = true
			continue
		case http.StatusForbidden:
			c.Logger.Errorf("httpclient: %s %s 无权限(403): %v", clonedReq.Method, clonedReq.URL.Path, err)
			return err
		}

		if c.Retry == nil {
			return err
		}
		retry, wait, policyErr := c.Retry.ShouldRetry(clonedReq, resp, err, attempt)
		if policyErr != nil {
			return policyErr
		}
		if !retry {
			return err
		}
		attempt++
		if wait > 0 {
			if sleepErr := sleepContext(ctx, wait); sleepErr != nil {
				return err
			}
		}
	}
}

func (c *Client) execute(req *http.Request, out any) (*http.Response, error) {
	if c.Prepare != nil {
		if err := c.Prepare.Apply(req); err != nil {
			return nil, err
		}
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(req.Context(), req); err != nil {
			return nil, err
		}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return resp, readHTTPError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return resp, nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber() // 保留数字精度
	if decodeErr := dec.Decode(out); decodeErr != nil {
		if decodeErr == io.EOF {
			// 空响应体，视为成功
			return resp, nil
		}
		return resp, &DecodeError{Status: resp.StatusCode, Err: decodeErr}
	}
	if ok, okType := out.(OkRsp); okType && !ok.IsSuccess() {
		return resp, toHTTPError(ok, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) cloneRequest(req *http.Request, attempt int) (*http.Request, error) {
	cloned := req.Clone(req.Context())
	cloned.Header = req.Header.Clone()
	if cloned.Header == nil {
		cloned.Header = http.Header{}
	}
	cloned.GetBody = req.GetBody
	cloned.ContentLength = req.ContentLength
	cloned.TransferEncoding = append([]string(nil), req.TransferEncoding...)
	if req.Body != nil && req.Body != http.NoBody {
		if attempt == 0 {
			cloned.Body = req.Body
		} else {
			if req.GetBody == nil {
				return nil, fmt.Errorf("httpclient: 请求体不可重试")
			}
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			cloned.Body = body
		}
	}
	for key, values := range c.Header {
		if cloned.Header.Get(key) == "" {
			cloned.Header[key] = append([]string(nil), values...)
		}
	}
	return cloned, nil
}

func statusOf(resp *http.Response, err error) int {
	var he *HTTPError
	if errors.As(err, &he) && he.Status > 0 {
		return he.Status
	}
	if resp != nil {
		return resp.StatusCode
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
