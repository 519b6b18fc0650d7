package console

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	coreerrors "github.com/dnslin/printdash/core/errors"
	"github.com/dnslin/printdash/core/httpclient"
)

// ErrEmptyID 资源 ID 为空。
var ErrEmptyID = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "console: 资源 ID 不能为空")

// Client 封装控制台后端各资源的调用。所有路径均为同源 /api/<resource>。
type Client struct {
	http   *httpclient.Client
	logger httpclient.Logger
}

// Option 自定义客户端配置。
type Option func(*Client)

// WithLogger 注入日志接口。
func WithLogger(logger httpclient.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient 创建客户端，http 通常已配置 auth.Manager 作为 Authenticator。
func NewClient(http *httpclient.Client, opts ...Option) *Client {
	cli := &Client{
		http:   http,
		logger: httpclient.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cli)
		}
	}
	if cli.http == nil {
		cli.http = httpclient.NewClient(httpclient.WithLogger(cli.logger))
	}
	return cli
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil || c.http == nil {
		return coreerrors.New(coreerrors.ErrCodeInvalidConfig, "console: 客户端未初始化")
	}
	err := c.http.Send(ctx, &httpclient.Request{Method: method, Path: path, Query: query, Body: body}, out)
	if err != nil {
		c.logger.Debugf("console: %s %s 失败: %v", method, path, err)
		return toError(err)
	}
	return nil
}

// resourcePath 拼接 /api/<resource>/<id>/<sub...>，ID 做路径转义。
func resourcePath(resource string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/api/")
	b.WriteString(resource)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	return nil
}

func list[T any](ctx context.Context, c *Client, path string, opts []ListOption) (*Page[T], error) {
	params := NewListParams(opts...)
	var raw json.RawMessage
	if err := c.send(ctx, http.MethodGet, path, params.Query(), nil, &raw); err != nil {
		return nil, err
	}
	return decodePage[T](raw, params)
}

func get[T any](ctx context.Context, c *Client, path string, query url.Values) (*T, error) {
	var raw json.RawMessage
	if err := c.send(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}
	return decodeItem[T](raw)
}

func write[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var raw json.RawMessage
	if err := c.send(ctx, method, path, nil, body, &raw); err != nil {
		return nil, err
	}
	return decodeItem[T](raw)
}

func remove(ctx context.Context, c *Client, path string) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil, nil)
}
