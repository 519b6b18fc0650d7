package proxy

import (
	"net/http"
	"time"
)

const (
	// AccessCookie 访问令牌 Cookie 名。
	AccessCookie = "access_token"
	// RefreshCookie 刷新令牌 Cookie 名，只随 /api/auth 请求发送。
	RefreshCookie = "refresh_token"
	refreshPath   = "/api/auth"
)

type cookieJar struct {
	secure     bool
	domain     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (j cookieJar) cookie(name, value, path string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   j.domain,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl / time.Second)
	}
	return c
}

func (j cookieJar) setAccess(w http.ResponseWriter, token string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = j.accessTTL
	}
	http.SetCookie(w, j.cookie(AccessCookie, token, "/", ttl))
}

func (j cookieJar) setRefresh(w http.ResponseWriter, token string) {
	http.SetCookie(w, j.cookie(RefreshCookie, token, refreshPath, j.refreshTTL))
}

func (j cookieJar) clear(w http.ResponseWriter) {
	for _, c := range []*http.Cookie{
		j.cookie(AccessCookie, "", "/", 0),
		j.cookie(RefreshCookie, "", refreshPath, 0),
	} {
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
