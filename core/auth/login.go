package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/dnslin/printdash/core/httpclient"
)

// Credentials 表示账号口令组合。
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginEndpoints 允许替换登录相关接口地址，便于测试或自定义环境。
type LoginEndpoints struct {
	LoginPath  string
	LogoutPath string
}

func defaultLoginEndpoints() LoginEndpoints {
	return LoginEndpoints{
		LoginPath:  "/api/auth/login",
		LogoutPath: "/api/auth/logout",
	}
}

// LoginClient 负责邮箱密码登录与登出。刷新令牌由同源接口写入 Cookie。
type LoginClient struct {
	client    *httpclient.Client
	logger    httpclient.Logger
	endpoints LoginEndpoints
	now       func() time.Time
}

// LoginOption 自定义登录客户端。
type LoginOption func(*LoginClient)

// WithLoginLogger 注入日志。
func WithLoginLogger(logger httpclient.Logger) LoginOption {
	return func(l *LoginClient) {
		l.logger = logger
	}
}

// WithLoginEndpoints 替换默认接口地址。
func WithLoginEndpoints(ep LoginEndpoints) LoginOption {
	return func(l *LoginClient) {
		l.endpoints = ep
	}
}

// WithLoginNow 替换时间来源，便于测试。
func WithLoginNow(now func() time.Time) LoginOption {
	return func(l *LoginClient) {
		l.now = now
	}
}

// NewLoginClient 创建登录客户端，同样去掉 Authenticator。
func NewLoginClient(client *httpclient.Client, opts ...LoginOption) *LoginClient {
	if client == nil {
		client = httpclient.NewClient()
	}
	cp := *client
	cp.Auth = nil
	l := &LoginClient{
		client:    &cp,
		logger:    httpclient.NopLogger{},
		endpoints: defaultLoginEndpoints(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.logger == nil {
		l.logger = httpclient.NopLogger{}
	}
	return l
}

// Login 提交邮箱密码，返回新会话。
func (l *LoginClient) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}
	var payload tokenPayload
	req := &httpclient.Request{Method: http.MethodPost, Path: l.endpoints.LoginPath, Body: creds, Retried: true}
	if err := l.client.Send(ctx, req, &payload); err != nil {
		return nil, err
	}
	session, err := payload.session(l.now())
	if err != nil {
		return nil, err
	}
	l.logger.Debugf("auth: 登录成功 %s", creds.Email)
	return session, nil
}

// Logout 通知服务端清理 Cookie。
func (l *LoginClient) Logout(ctx context.Context) error {
	return l.client.Send(ctx, &httpclient.Request{Method: http.MethodPost, Path: l.endpoints.LogoutPath, Retried: true}, nil)
}
