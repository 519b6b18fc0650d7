package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dnslin/printdash/core/auth"
	"github.com/dnslin/printdash/core/httpclient"
	"github.com/dnslin/printdash/core/model"
	"github.com/dnslin/printdash/core/policy"
	"github.com/dnslin/printdash/core/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	body   string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recorded
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (b *fakeBackend) last() recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1]
}

func newConsole(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *fakeBackend) {
	t.Helper()
	b := &fakeBackend{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.requests = append(b.requests, recorded{method: r.Method, path: r.URL.EscapedPath(), query: r.URL.Query(), body: string(body)})
		b.mu.Unlock()
		b.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	hc := httpclient.NewClient(httpclient.WithBaseURL(srv.URL), httpclient.WithRetryPolicy(nil))
	return NewClient(hc), b
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func TestListDevices_DefaultsAndEnvelope(t *testing.T) {
	c, b := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"data":[{"id":"d1","serialNumber":"SN1","status":"online"},{"id":"d2","serialNumber":"SN2","status":"offline"}],
			"pagination":{"page":1,"limit":10,"total":12,"totalPages":2}}`)
	})
	page, err := c.ListDevices(context.Background(), WithSearch("  "), WithFilter("status", ""))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, model.DeviceOnline, page.Items[0].Status)
	assert.Equal(t, model.Pagination{Page: 1, Limit: 10, Total: 12, TotalPages: 2}, page.Pagination)
	assert.True(t, page.Pagination.HasNext())

	req := b.last()
	assert.Equal(t, "/api/devices", req.path)
	assert.Equal(t, url.Values{"page": {"1"}, "limit": {"10"}}, req.query)
}

func TestList_EnvelopeShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want model.Pagination
	}{
		{"raw_array", `[{"id":"c1"},{"id":"c2"},{"id":"c3"}]`, model.Pagination{Page: 1, Limit: 10, Total: 3, TotalPages: 1}},
		{"success_data", `{"success":true,"data":[{"id":"c1"}]}`, model.Pagination{Page: 1, Limit: 10, Total: 1, TotalPages: 1}},
		{"nested_items", `{"data":{"items":[{"id":"c1"}],"pagination":{"page":2,"pageSize":1,"totalItems":5}}}`, model.Pagination{Page: 2, Limit: 1, Total: 5, TotalPages: 5}},
		{"meta", `{"data":[{"id":"c1"}],"meta":{"page":1,"limit":1,"total":2,"totalPages":2}}`, model.Pagination{Page: 1, Limit: 1, Total: 2, TotalPages: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, tc.body)
			})
			page, err := c.ListCustomers(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "c1", page.Items[0].ID)
			assert.Equal(t, tc.want, page.Pagination)
		})
	}
}

func TestList_BusinessFailure(t *testing.T) {
	c, _ := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"success":false,"message":["limit must be positive"]}`)
	})
	_, err := c.ListUsers(context.Background())
	require.Error(t, err)
	assert.Equal(t, "limit must be positive", DisplayMessage(err))
}

func TestList_QueryOptions(t *testing.T) {
	c, b := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `[]`)
	})
	prefs := model.FilterPreferences{
		Limit:   25,
		Sort:    map[string]string{"devices": "-updatedAt"},
		Filters: map[string]map[string]string{"devices": {"status": "online", "model": ""}},
	}
	_, err := c.ListDevicesByCustomer(context.Background(), "cus-1", WithPreferences(prefs, "devices"), WithPage(3), WithSearch(" hp "))
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"page": {"3"}, "limit": {"25"}, "search": {"hp"},
		"sortBy": {"updatedAt"}, "sortOrder": {"desc"},
		"status": {"online"}, "customerId": {"cus-1"},
	}, b.last().query)
}

func TestCRUD_PathsAndBodies(t *testing.T) {
	c, b := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, 200, `{"success":true,"data":{"id":"x/1","name":"Acme","serialNumber":"SN"}}`)
		}
	})
	ctx := context.Background()

	d, err := c.GetDevice(ctx, "x/1")
	require.NoError(t, err)
	assert.Equal(t, "x/1", d.ID)
	assert.Equal(t, "/api/devices/x%2F1", b.last().path)

	_, err = c.CreateCustomer(ctx, model.CustomerInput{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, b.last().method)
	assert.JSONEq(t, `{"name":"Acme"}`, b.last().body)

	_, err = c.UpdateUser(ctx, "u1", model.UserInput{Role: model.RoleViewer})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, b.last().method)
	assert.Equal(t, "/api/users/u1", b.last().path)

	require.NoError(t, c.DeleteContract(ctx, "k1"))
	assert.Equal(t, http.MethodDelete, b.last().method)
	assert.Equal(t, "/api/contracts/k1", b.last().path)

	require.NoError(t, c.ResetPassword(ctx, "u1", "N3w!"))
	assert.Equal(t, "/api/users/u1/reset-password", b.last().path)
	assert.JSONEq(t, `{"newPassword":"N3w!"}`, b.last().body)

	_, err = c.AssignConsumable(ctx, "t1", "d9")
	require.NoError(t, err)
	assert.Equal(t, "/api/consumables/t1/assign", b.last().path)

	end := time.Date(2027, 12, 31, 0, 0, 0, 0, time.UTC)
	_, err = c.RenewContract(ctx, "k1", end)
	require.NoError(t, err)
	assert.JSONEq(t, `{"endDate":"2027-12-31T00:00:00Z"}`, b.last().body)

	_, err = c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/api/users/me", b.last().path)
}

func TestCRUD_EmptyID(t *testing.T) {
	c, b := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{}`)
	})
	_, err := c.GetPolicy(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyID)
	assert.ErrorIs(t, c.DeleteDevice(context.Background(), ""), ErrEmptyID)
	assert.ErrorIs(t, c.ResetPassword(context.Background(), "u1", ""), ErrEmptyPassword)
	assert.Empty(t, b.requests)
}

func TestPolicies_WithBuilder(t *testing.T) {
	c, b := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/policies/p1/evaluate" {
			writeJSON(w, 200, `{"policyId":"p1","matched":true}`)
			return
		}
		writeJSON(w, 201, `{"id":"p1","name":"color-limit","type":"print"}`)
	})
	builder := policy.NewBuilder(policy.And).Where("colorMode", policy.OpEq, "color").Where("pages", policy.OpGt, 50)
	in, err := PolicyInputFrom(model.PolicyInput{Name: "color-limit", Type: model.PolicyPrint}, builder)
	require.NoError(t, err)
	p, err := c.CreatePolicy(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	var sent map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(b.last().body), &sent))
	assert.JSONEq(t, `{"$and":[{"colorMode":{"$eq":"color"}},{"pages":{"$gt":50}}]}`, string(sent["conditions"]))

	ev, err := c.EvaluatePolicy(context.Background(), "p1", map[string]any{"pages": 80})
	require.NoError(t, err)
	assert.True(t, ev.Matched)
}

func TestPricing(t *testing.T) {
	c, b := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			writeJSON(w, 200, `{"pricePerBWPageVND":"1000","pricePerColorPageVND":"3000","pricePerBWPageUSD":"0.04","pricePerColorPageUSD":"0.12","exchangeRate":"25000"}`)
			return
		}
		writeJSON(w, 200, `{"data":{"pricePerBWPageVND":"1000","pricePerColorPageVND":"3000","exchangeRate":25000}}`)
	})
	rates, err := c.GetPricing(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "/api/devices/d1/pricing", b.last().path)
	assert.True(t, rates.ExchangeRate.Equal(decimal.NewFromInt(25000)))

	_, err = c.UpdatePricing(context.Background(), "d1", pricing.Rates{})
	assert.ErrorIs(t, err, pricing.ErrInvalidRate)

	derived, err := rates.WithDerivedUSD()
	require.NoError(t, err)
	_, err = c.UpdatePricing(context.Background(), "d1", derived)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, b.last().method)
	assert.Contains(t, b.last().body, `"pricePerBWPageUSD":"0.04"`)
}

func TestReports(t *testing.T) {
	c, b := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/reports/usage" {
			writeJSON(w, 200, `{"points":[{"date":"2026-01-01","bwPages":10,"colorPages":2}],"totalPages":12}`)
			return
		}
		writeJSON(w, 200, `{"data":{"customerId":"c1","lines":[{"deviceId":"d1","bwPages":100,"colorPages":10,"amountVND":"40000"}],"totalVND":"40000"}}`)
	})
	rng := model.ReportRange{CustomerID: "c1", From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)}
	bill, err := c.BillingReport(context.Background(), rng)
	require.NoError(t, err)
	assert.Equal(t, "40000", bill.TotalVND)
	assert.Equal(t, url.Values{"customerId": {"c1"}, "from": {"2026-01-01"}, "to": {"2026-01-31"}}, b.last().query)

	usage, err := c.UsageReport(context.Background(), model.ReportRange{DeviceID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), usage.TotalPages)
	assert.Equal(t, url.Values{"deviceId": {"d1"}}, b.last().query)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   Kind
		msg    string
	}{
		{400, `{"message":["name should not be empty","email must be an email"],"error":"Bad Request","statusCode":400}`, KindValidation, "name should not be empty; email must be an email"},
		{403, `{"message":"Forbidden resource"}`, KindForbidden, "Forbidden resource"},
		{404, `{"error":"device not found"}`, KindNotFound, "device not found"},
		{409, `{"message":"serial already exists"}`, KindConflict, "serial already exists"},
		{429, ``, KindRateLimited, "Too Many Requests"},
		{500, `oops`, KindServer, "Internal Server Error"},
		{418, `{}`, KindUnknown, "I'm a teapot"},
	}
	for _, tc := range cases {
		t.Run(strconv.Itoa(tc.status), func(t *testing.T) {
			c, _ := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})
			_, err := c.GetDevice(context.Background(), "d1")
			var ce *Error
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tc.kind, ce.Kind)
			assert.Equal(t, tc.status, ce.Status)
			assert.Equal(t, tc.msg, DisplayMessage(err))
			assert.True(t, IsKind(err, tc.kind))
			var he *httpclient.HTTPError
			assert.True(t, errors.As(err, &he))
		})
	}
}

func TestDisplayMessage_Fallbacks(t *testing.T) {
	assert.Empty(t, DisplayMessage(nil))
	assert.Equal(t, "登录已过期，请重新登录", DisplayMessage(&auth.LoginRequiredError{RedirectTo: "/login"}))
	assert.Equal(t, "请求超时，请稍后重试", DisplayMessage(fmt.Errorf("wrap: %w", context.DeadlineExceeded)))
	assert.Equal(t, "网络连接失败，请稍后重试", DisplayMessage(toError(&httpclient.NetworkError{Err: errors.New("dial")})))
	assert.Equal(t, "boom", DisplayMessage(errors.New("boom")))

	lre := &auth.LoginRequiredError{RedirectTo: "/login"}
	assert.Same(t, lre, toError(lre))

	_, err := (&Client{}).GetDevice(context.Background(), "")
	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(err, KindNotFound))
	assert.Equal(t, "console: 资源 ID 不能为空", DisplayMessage(err))
}

func TestCollect(t *testing.T) {
	var calls atomic.Int32
	c, _ := newConsole(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		switch page {
		case 1:
			writeJSON(w, 200, `{"data":[{"id":"a"},{"id":"b"}],"pagination":{"page":1,"limit":2,"total":3,"totalPages":2}}`)
		default:
			writeJSON(w, 200, `{"data":[{"id":"c"}],"pagination":{"page":2,"limit":2,"total":3,"totalPages":2}}`)
		}
	})
	all, err := Collect(context.Background(), c.ListConsumables, WithLimit(2))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[2].ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var mu sync.Mutex
	var got []string
	record := func(q string) func() {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, q)
		}
	}
	d.Trigger(record("h"))
	d.Trigger(record("hp"))
	d.Trigger(record("hp l"))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"hp l"}, got)
	mu.Unlock()

	d.Trigger(record("cancelled"))
	d.Cancel()
	assert.False(t, d.Pending())
	time.Sleep(40 * time.Millisecond)

	d.Trigger(record("flushed"))
	d.Flush()
	mu.Lock()
	assert.Equal(t, []string{"hp l", "flushed"}, got)
	mu.Unlock()
	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	assert.Len(t, got, 2)
	mu.Unlock()
}

func TestClient_RefreshOn401(t *testing.T) {
	var devicesCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh":
			writeJSON(w, 200, `{"accessToken":"fresh"}`)
		case "/api/devices":
			devicesCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeJSON(w, 401, `{"message":"Unauthorized"}`)
				return
			}
			writeJSON(w, 200, `[{"id":"d1"}]`)
		}
	}))
	defer srv.Close()

	base := httpclient.NewClient(httpclient.WithBaseURL(srv.URL))
	m := auth.NewManager(auth.NewCookieRefresher(base))
	hc := httpclient.NewClient(httpclient.WithBaseURL(srv.URL), httpclient.WithAuthenticator(m))
	page, err := NewClient(hc).ListDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int32(2), devicesCalls.Load())
}
