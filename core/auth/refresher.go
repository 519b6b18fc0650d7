package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/dnslin/printdash/core/httpclient"
)

// DefaultRefreshPath 同源刷新接口，依赖 Cookie 中的刷新令牌。
const DefaultRefreshPath = "/api/auth/refresh"

// Refresher 定义刷新凭证的能力，由 Manager 以单飞方式调用。
type Refresher interface {
	Refresh(ctx context.Context) (*Session, error)
}

// RefresherFunc 让普通函数满足 Refresher。
type RefresherFunc func(ctx context.Context) (*Session, error)

func (f RefresherFunc) Refresh(ctx context.Context) (*Session, error) {
	return f(ctx)
}

// CookieRefresher 调用 POST /api/auth/refresh，刷新令牌随 CookieJar 发送。
type CookieRefresher struct {
	client *httpclient.Client
	path   string
	now    func() time.Time
	logger httpclient.Logger
}

// CookieRefresherOption 自定义 CookieRefresher。
type CookieRefresherOption func(*CookieRefresher)

// WithRefreshPath 替换刷新接口地址。
func WithRefreshPath(path string) CookieRefresherOption {
	return func(r *CookieRefresher) {
		r.path = path
	}
}

// WithRefresherLogger 注入日志。
func WithRefresherLogger(logger httpclient.Logger) CookieRefresherOption {
	return func(r *CookieRefresher) {
		r.logger = logger
	}
}

// WithRefresherNow 替换时间来源。
func WithRefresherNow(now func() time.Time) CookieRefresherOption {
	return func(r *CookieRefresher) {
		r.now = now
	}
}

// NewCookieRefresher 创建刷新器。client 会被浅拷贝并去掉 Authenticator，
// 刷新请求本身不能再等待刷新。
func NewCookieRefresher(client *httpclient.Client, opts ...CookieRefresherOption) *CookieRefresher {
	if client == nil {
		client = httpclient.NewClient()
	}
	cp := *client
	cp.Auth = nil
	r := &CookieRefresher{
		client: &cp,
		path:   DefaultRefreshPath,
		now:    time.Now,
		logger: httpclient.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.logger == nil {
		r.logger = httpclient.NopLogger{}
	}
	return r
}

type tokenPayload struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn,omitempty"`
	Data        *struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn,omitempty"`
	} `json:"data,omitempty"`
}

func (p *tokenPayload) session(now time.Time) (*Session, error) {
	token, expiresIn := p.AccessToken, p.ExpiresIn
	if token == "" && p.Data != nil {
		token, expiresIn = p.Data.AccessToken, p.Data.ExpiresIn
	}
	if token == "" {
		return nil, ErrEmptyToken
	}
	return NewSession(token, expiresIn, now), nil
}

// Refresh 请求新的访问令牌。
func (r *CookieRefresher) Refresh(ctx context.Context) (*Session, error) {
	var payload tokenPayload
	err := r.client.Send(ctx, &httpclient.Request{Method: http.MethodPost, Path: r.path, Retried: true}, &payload)
	if err != nil {
		r.logger.Errorf("auth: 刷新访问令牌失败: %v", err)
		return nil, err
	}
	session, err := payload.session(r.now())
	if err != nil {
		return nil, err
	}
	r.logger.Debugf("auth: 访问令牌已刷新，过期时间 %s", session.ExpiresAt)
	return session, nil
}
