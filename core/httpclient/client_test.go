package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type mockResponse struct {
	ResCode    int    `json:"res_code"`
	ResMessage string `json:"res_message"`
}

func (m *mockResponse) IsSuccess() bool {
	return m.ResCode == 0
}

func (m *mockResponse) Error() string {
	return fmt.Sprintf("%d: %s", m.ResCode, m.ResMessage)
}

func (m *mockResponse) Code() string {
	return strconv.Itoa(m.ResCode)
}

func (m *mockResponse) Message() string {
	return m.ResMessage
}

// fakeAuth 记录刷新次数，每次刷新后凭证版本递增。
type fakeAuth struct {
	generation uint64
	refreshed  int
	err        error
}

func (a *fakeAuth) Authorize(ctx context.Context, req *http.Request) (uint64, error) {
	req.Header.Set("Authorization", "Bearer tok-"+strconv.FormatUint(a.generation, 10))
	return a.generation, nil
}

func (a *fakeAuth) Refresh(ctx context.Context, generation uint64) error {
	a.refreshed++
	if a.err != nil {
		return a.err
	}
	a.generation = generation + 1
	return nil
}

type countingLogger struct {
	errors int
}

func (l *countingLogger) Debugf(string, ...any) {}
func (l *countingLogger) Errorf(string, ...any) { l.errors++ }

func TestDoSuccess(t *testing.T) {
	client := NewClient(WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"res_code":0,"res_message":"ok"}`), nil
		}),
	}))
	req, _ := http.NewRequest(http.MethodGet, "http://mock/success", nil)
	var rsp mockResponse
	if err := client.Do(req, &rsp); err != nil {
		t.Fatalf("预期成功，得到错误: %v", err)
	}
	if rsp.ResCode != 0 {
		t.Fatalf("业务码解析错误: %+v", rsp)
	}
}

func TestBusinessErrorNoRetry(t *testing.T) {
	calls := 0
	client := NewClient(WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			calls++
			return jsonResponse(http.StatusOK, `{"res_code":1,"res_message":"failed"}`), nil
		}),
	}))
	req, _ := http.NewRequest(http.MethodGet, "http://mock/business", nil)
	var rsp mockResponse
	err := client.Do(req, &rsp)
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("错误类型应为 HTTPError，实际: %v", err)
	}
	if he.Code != "1" || he.Message != "failed" {
		t.Fatalf("业务错误解析不正确: %+v", he)
	}
	if calls != 1 {
		t.Fatalf("业务错误不应重试，实际请求 %d 次", calls)
	}
}

func TestUnauthorizedRefreshAndRetryOnce(t *testing.T) {
	attempt := 0
	var tokens []string
	auth := &fakeAuth{}
	client := NewClient(
		WithAuthenticator(auth),
		WithHTTPClient(&http.Client{
			Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				attempt++
				tokens = append(tokens, req.Header.Get("Authorization"))
				if attempt == 1 {
					return jsonResponse(http.StatusUnauthorized, `{"message":"token expired"}`), nil
				}
				return jsonResponse(http.StatusOK, `{"res_code":0}`), nil
			}),
		}),
	)
	req, _ := http.NewRequest(http.MethodPost, "http://mock/auth", bytes.NewBufferString(`{"a":1}`))
	var rsp mockResponse
	if err := client.Do(req, &rsp); err != nil {
		t.Fatalf("刷新后应重试成功: %v", err)
	}
	if auth.refreshed != 1 {
		t.Fatalf("刷新调用次数不正确，得到 %d", auth.refreshed)
	}
	if attempt != 2 {
		t.Fatalf("请求次数不正确，得到 %d", attempt)
	}
	if tokens[0] != "Bearer tok-0" || tokens[1] != "Bearer tok-1" {
		t.Fatalf("重试应携带新凭证，实际 %v", tokens)
	}
}

func TestSecondUnauthorizedPropagates(t *testing.T) {
	attempt := 0
	auth := &fakeAuth{}
	client := NewClient(
		WithAuthenticator(auth),
		WithHTTPClient(&http.Client{
			Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				attempt++
				return jsonResponse(http.StatusUnauthorized, `{"message":"still expired"}`), nil
			}),
		}),
	)
	req, _ := http.NewRequest(http.MethodGet, "http://mock/auth", nil)
	err := client.Do(req, nil)
	var he *HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusUnauthorized {
		t.Fatalf("第二次 401 应原样返回，实际: %v", err)
	}
	if auth.refreshed != 1 || attempt != 2 {
		t.Fatalf("只允许刷新一次并重试一次，refresh=%d attempt=%d", auth.refreshed, attempt)
	}
}

func TestRetriedRequestIsNotRefreshedAgain(t *testing.T) {
	attempt := 0
	auth := &fakeAuth{}
	client := NewClient(
		WithAuthenticator(auth),
		WithHTTPClient(&http.Client{
			Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				attempt++
				return jsonResponse(http.StatusUnauthorized, ``), nil
			}),
		}),
	)
	err := client.Send(context.Background(), &Request{Method: http.MethodGet, Path: "http://mock/devices", Retried: true}, nil)
	if err == nil {
		t.Fatal("预期 401 错误")
	}
	if auth.refreshed != 0 || attempt != 1 {
		t.Fatalf("已标记重试的请求不应再刷新，refresh=%d attempt=%d", auth.refreshed, attempt)
	}
}

func TestRefreshFailureReturned(t *testing.T) {
	refreshErr := errors.New("刷新失败")
	auth := &fakeAuth{err: refreshErr}
	client := NewClient(
		WithAuthenticator(auth),
		WithHTTPClient(&http.Client{
			Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusUnauthorized, ``), nil
			}),
		}),
	)
	req, _ := http.NewRequest(http.MethodGet, "http://mock/auth", nil)
	if err := client.Do(req, nil); !errors.Is(err, refreshErr) {
		t.Fatalf("刷新失败应返回刷新错误，实际: %v", err)
	}
}

func TestForbiddenLoggedNotRetried(t *testing.T) {
	attempt := 0
	auth := &fakeAuth{}
	logger := &countingLogger{}
	client := NewClient(
		WithAuthenticator(auth),
		WithLogger(logger),
		WithHTTPClient(&http.Client{
			Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				attempt++
				return jsonResponse(http.StatusForbidden, `{"error":"Forbidden resource"}`), nil
			}),
		}),
	)
	req, _ := http.NewRequest(http.MethodGet, "http://mock/forbidden", nil)
	err := client.Do(req, nil)
	var he *HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusForbidden {
		t.Fatalf("403 应原样返回，实际: %v", err)
	}
	if he.DisplayMessage() != "Forbidden resource" {
		t.Fatalf("展示文本错误: %q", he.DisplayMessage())
	}
	if attempt != 1 || auth.refreshed != 0 {
		t.Fatalf("403 不应重试或刷新，attempt=%d refresh=%d", attempt, auth.refreshed)
	}
	if logger.errors != 1 {
		t.Fatalf("403 应记录一次错误日志，实际 %d", logger.errors)
	}
}

func TestNetworkRetry(t *testing.T) {
	transport := &flakyTransport{
		failures: 1,
		inner: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"res_code":0,"res_message":"ok"}`), nil
		}),
	}
	policy := NewExponentialBackoffRetry(RetryConfig{
		MaxRetries: 1,
		BaseDelay:  1 * time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Logger:     NopLogger{},
	})
	client := NewClient(
		WithHTTPClient(&http.Client{Transport: transport}),
		WithRetryPolicy(policy),
	)
	req, _ := http.NewRequest(http.MethodGet, "http://mock/network", nil)
	var rsp mockResponse
	if err := client.Do(req, &rsp); err != nil {
		t.Fatalf("网络错误后应重试成功: %v", err)
	}
	if transport.attempts != 2 {
		t.Fatalf("应尝试 2 次，实际 %d", transport.attempts)
	}
}

func TestPostNotRetriedOnServerError(t *testing.T) {
	calls := 0
	client := NewClient(WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusBadGateway, ``), nil
	})}))
	req, _ := http.NewRequest(http.MethodPost, "http://mock/create", bytes.NewBufferString("{}"))
	if err := client.Do(req, nil); err == nil {
		t.Fatal("预期 502 错误")
	}
	if calls != 1 {
		t.Fatalf("POST 默认不重试，实际请求 %d 次", calls)
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewTokenBucketLimiter(5, 1, nil)
	client := NewClient(
		WithRateLimiter(limiter),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"res_code":0,"res_message":"ok"}`), nil
		})}),
	)
	start := time.Now()
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, "http://mock/ratelimit", nil)
		var rsp mockResponse
		if err := client.Do(req, &rsp); err != nil {
			t.Fatalf("限流请求失败: %v", err)
		}
	}
	elapsed := time.Since(start)
	if elapsed < 150*time.Millisecond {
		t.Fatalf("限流未生效，耗时过短: %v", elapsed)
	}
}

func TestDecodeError(t *testing.T) {
	client := NewClient(WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `invalid json`), nil
		}),
	}))
	req, _ := http.NewRequest(http.MethodGet, "http://mock/decode", nil)
	var rsp mockResponse
	err := client.Do(req, &rsp)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("错误类型应为 DecodeError，实际: %v", err)
	}
}

func TestBodyWithoutGetBodyCannotRetry(t *testing.T) {
	policy := NewExponentialBackoffRetry(RetryConfig{
		MaxRetries: 1,
		BaseDelay:  1 * time.Millisecond,
		MaxDelay:   1 * time.Millisecond,
		Logger:     NopLogger{},
	})
	client := NewClient(
		WithRetryPolicy(policy),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusInternalServerError, ``), nil
		})}),
	)

	req, _ := http.NewRequest(http.MethodPut, "http://mock/body", bytes.NewBufferString("data"))
	req.GetBody = nil // 模拟无法重试的场景
	err := client.Do(req, &mockResponse{})
	if err == nil {
		t.Fatal("预期因无法重试请求体而失败")
	}
	if err.Error() != "httpclient: 请求体不可重试" {
		t.Fatalf("错误信息不符合预期: %v", err)
	}
}

func TestErrorEnvelopeShapes(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		display string
	}{
		{"message_string", http.StatusBadRequest, `{"message":"Serial number already exists"}`, "Serial number already exists"},
		{"message_array", http.StatusUnprocessableEntity, `{"message":["name is required","email must be an email"]}`, "name is required; email must be an email"},
		{"error_field", http.StatusConflict, `{"error":"Conflict"}`, "Conflict"},
		{"empty_body", http.StatusNotFound, ``, "Not Found"},
		{"not_json", http.StatusBadRequest, `<html>bad</html>`, "Bad Request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := NewClient(WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tc.status, tc.body), nil
			})}))
			req, _ := http.NewRequest(http.MethodGet, "http://mock/err", nil)
			err := client.Do(req, nil)
			var he *HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("错误类型应为 HTTPError，实际: %v", err)
			}
			if he.Status != tc.status {
				t.Fatalf("状态码不匹配，得到 %d", he.Status)
			}
			if got := he.DisplayMessage(); got != tc.display {
				t.Fatalf("展示文本不匹配，得到 %q，期望 %q", got, tc.display)
			}
		})
	}
}

func TestSendBuildsRequest(t *testing.T) {
	var got struct {
		method, path, query, contentType, accept, requestID string
		body                                                map[string]any
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.contentType = r.Header.Get("Content-Type")
		got.accept = r.Header.Get("Accept")
		got.requestID = r.Header.Get(RequestIDHeader)
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"dev-1"}`)
	}))
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.URL+"/"), WithMiddlewares(WithRequestID()))
	var out struct {
		ID string `json:"id"`
	}
	err := client.Send(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/api/devices",
		Query:  url.Values{"page": {"1"}, "search": {""}},
		Body:   map[string]any{"serialNumber": "SN-1"},
	}, &out)
	if err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if got.method != http.MethodPost || got.path != "/api/devices" || got.query != "page=1" {
		t.Fatalf("请求行不正确: %+v", got)
	}
	if got.contentType != "application/json" || got.accept != "application/json" {
		t.Fatalf("请求头不正确: content-type=%s accept=%s", got.contentType, got.accept)
	}
	if got.requestID == "" {
		t.Fatalf("应生成 X-Request-ID")
	}
	if got.body["serialNumber"] != "SN-1" || out.ID != "dev-1" {
		t.Fatalf("请求体或响应解析错误: body=%v out=%+v", got.body, out)
	}
}

func TestMetricsObserved(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	client := NewClient(WithMetrics(metrics), WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	})}))
	req, _ := http.NewRequest(http.MethodGet, "http://mock/metrics", nil)
	if err := client.Do(req, nil); err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("采集指标失败: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != "printdash_http_client_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	if total != 1 {
		t.Fatalf("请求计数应为 1，实际 %v", total)
	}
}

type flakyTransport struct {
	failures int
	inner    http.RoundTripper
	attempts int
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("模拟网络失败")
	}
	return f.inner.RoundTrip(req)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "application/json")
	rec.WriteHeader(status)
	rec.Body.WriteString(body)
	return rec.Result()
}

// TestWithoutCookieJar 验证不保存 Set-Cookie，后续请求不会带上前一次响应的 Cookie。
func TestWithoutCookieJar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/set" {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "user-a", Path: "/"})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"cookie": r.Header.Get("Cookie")})
	}))
	defer srv.Close()

	get := func(c *Client, path string) string {
		t.Helper()
		var out map[string]string
		if err := c.Send(context.Background(), &Request{Path: path}, &out); err != nil {
			t.Fatalf("请求 %s 失败: %v", path, err)
		}
		return out["cookie"]
	}

	c := NewClient(WithBaseURL(srv.URL), WithoutCookieJar())
	if c.Jar != nil || c.HTTP.Jar != nil {
		t.Fatal("WithoutCookieJar 不应创建 CookieJar")
	}
	get(c, "/set")
	if got := get(c, "/echo"); got != "" {
		t.Fatalf("不应回放上次响应的 Cookie，实际 %q", got)
	}
	if cookies := c.Cookies(mustURL(t, srv.URL)); cookies != nil {
		t.Fatalf("无 jar 时 Cookies 应为空，实际 %v", cookies)
	}

	shared := NewClient(WithBaseURL(srv.URL))
	get(shared, "/set")
	detached := shared.DetachCookieJar()
	if got := get(detached, "/echo"); got != "" {
		t.Fatalf("DetachCookieJar 后不应携带 Cookie，实际 %q", got)
	}
	if got := get(shared, "/echo"); got != "sid=user-a" {
		t.Fatalf("原客户端的 jar 应保持不变，实际 %q", got)
	}
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("解析地址失败: %v", err)
	}
	return u
}
