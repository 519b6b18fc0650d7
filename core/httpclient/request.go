package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request 描述一次出站调用。
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Header  http.Header
	Retried bool // 已因 401 重试过
}

// Send 按描述构造请求并发送，out 非空时解码 JSON 响应。
func (c *Client) Send(ctx context.Context, r *Request, out any) error {
	req, err := c.NewRequest(ctx, r)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

// NewRequest 将 Request 转换为 *http.Request，请求体可通过 GetBody 重放。
func (c *Client) NewRequest(ctx context.Context, r *Request) (*http.Request, error) {
	if r == nil {
		return nil, errors.New("httpclient: 请求描述为空")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if r.Retried {
		ctx = WithRetried(ctx)
	}
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}
	u, err := c.resolve(r.Path, r.Query)
	if err != nil {
		return nil, err
	}

	payload, contentType, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	for key, values := range r.Header {
		req.Header[key] = append([]string(nil), values...)
	}
	if payload != nil {
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
	}
	return req, nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	u := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = JoinURL(c.BaseURL, path)
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return "", fmt.Errorf("httpclient: 非法地址 %q: %w", u, err)
	}
	if len(query) > 0 {
		q := parsed.Query()
		for k, vs := range query {
			for _, v := range vs {
				if v == "" {
					continue
				}
				q.Add(k, v)
			}
		}
		parsed.RawQuery = q.Encode()
	}
	return parsed.String(), nil
}

func encodeBody(body any) ([]byte, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return v, "application/octet-stream", nil
	case url.Values:
		return []byte(v.Encode()), "application/x-www-form-urlencoded", nil
	case json.RawMessage:
		return v, "application/json", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("httpclient: 请求体编码失败: %w", err)
		}
		return data, "application/json", nil
	}
}

// JoinURL 拼接基础地址与路径。
func JoinURL(base, path string) string {
	if base == "" {
		return path
	}
	base = strings.TrimSuffix(base, "/")
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}
