package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/dnslin/printdash/core/httpclient"
	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("签名失败: %v", err)
	}
	return s
}

func TestExpiryFromJWT(t *testing.T) {
	exp := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	got, ok := ExpiryFromJWT(signedToken(t, exp))
	if !ok || !got.Equal(exp) {
		t.Fatalf("exp = %v ok=%v", got, ok)
	}
	if _, ok := ExpiryFromJWT("not-a-jwt"); ok {
		t.Fatalf("非法令牌不应解析成功")
	}
	if _, ok := ExpiryFromJWT(""); ok {
		t.Fatalf("空令牌不应解析成功")
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	var nilSession *Session
	if !nilSession.Expired(now) {
		t.Fatalf("nil 会话应视为过期")
	}
	if (&Session{AccessToken: "a"}).Expired(now) {
		t.Fatalf("未知过期时间不应视为过期")
	}
	if !(&Session{AccessToken: "a", ExpiresAt: now}).Expired(now) {
		t.Fatalf("到期时刻应视为过期")
	}
}

func TestNewSession_ExpiresIn(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSession("opaque", 60, now)
	if !s.ExpiresAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("ExpiresAt = %v", s.ExpiresAt)
	}
	if !NewSession("opaque", 0, now).ExpiresAt.IsZero() {
		t.Fatalf("不透明令牌且无 expiresIn 时应为零值")
	}
}

func TestCookieRefresher(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	token := signedToken(t, exp)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != DefaultRefreshPath {
			http.NotFound(w, r)
			return
		}
		if c, err := r.Cookie("refresh_token"); err != nil || c.Value != "rt-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": token})
	}))
	defer srv.Close()

	client := httpclient.NewClient(httpclient.WithBaseURL(srv.URL))
	r := NewCookieRefresher(client)
	if _, err := r.Refresh(context.Background()); err == nil {
		t.Fatalf("缺少刷新 Cookie 时应失败")
	}

	client.Jar.SetCookies(mustParse(t, srv.URL), []*http.Cookie{{Name: "refresh_token", Value: "rt-1", Path: "/"}})
	session, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if session.AccessToken != token || !session.ExpiresAt.Equal(exp) {
		t.Fatalf("会话不符: %+v", session)
	}
}

func TestCookieRefresher_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()
	r := NewCookieRefresher(httpclient.NewClient(httpclient.WithBaseURL(srv.URL)))
	if _, err := r.Refresh(context.Background()); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("期望 ErrEmptyToken, got %v", err)
	}
}

func TestCookieRefresher_DropsAuthenticator(t *testing.T) {
	m := NewManager(nil)
	client := httpclient.NewClient(httpclient.WithAuthenticator(m))
	r := NewCookieRefresher(client)
	if r.client.Auth != nil {
		t.Fatalf("刷新客户端不应带 Authenticator")
	}
	if client.Auth == nil {
		t.Fatalf("不应修改原客户端")
	}
}

func TestLoginClient(t *testing.T) {
	var gotBody Credentials
	logout := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			if gotBody.Password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"message":"邮箱或密码错误","statusCode":401}`)
				return
			}
			fmt.Fprint(w, `{"data":{"accessToken":"tok-login","expiresIn":900}}`)
		case "/api/auth/logout":
			logout++
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lc := NewLoginClient(httpclient.NewClient(httpclient.WithBaseURL(srv.URL)), WithLoginNow(func() time.Time { return now }))

	if _, err := lc.Login(context.Background(), Credentials{Email: "a@b.c"}); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("期望 ErrMissingCredentials, got %v", err)
	}

	_, err := lc.Login(context.Background(), Credentials{Email: "a@b.c", Password: "wrong"})
	var he *httpclient.HTTPError
	if !errors.As(err, &he) || he.DisplayMessage() != "邮箱或密码错误" {
		t.Fatalf("错误不符: %v", err)
	}

	session, err := lc.Login(context.Background(), Credentials{Email: "a@b.c", Password: "secret"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if session.AccessToken != "tok-login" || !session.ExpiresAt.Equal(now.Add(15*time.Minute)) {
		t.Fatalf("会话不符: %+v", session)
	}
	if gotBody.Email != "a@b.c" {
		t.Fatalf("请求体不符: %+v", gotBody)
	}
	if err := lc.Logout(context.Background()); err != nil || logout != 1 {
		t.Fatalf("登出失败: %v logout=%d", err, logout)
	}
}

func TestLoginRequiredError(t *testing.T) {
	cause := errors.New("refresh expired")
	err := error(&LoginRequiredError{RedirectTo: "/login", Err: cause})
	if !errors.Is(err, ErrLoginRequired) || !errors.Is(err, cause) {
		t.Fatalf("errors.Is 不符")
	}
	if err.Error() == "" {
		t.Fatalf("错误文本为空")
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("解析地址失败: %v", err)
	}
	return u
}
