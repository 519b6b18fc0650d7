package proxy

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dnslin/printdash/core/auth"
	"github.com/dnslin/printdash/core/httpclient"
	"go.uber.org/zap"
)

const maxAuthBody = 1 << 20

// backendTokens 后端认证接口的返回，兼容 data 包装。
type backendTokens struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	ExpiresIn    int             `json:"expiresIn,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
	Data         *backendTokens  `json:"data,omitempty"`
}

func (t *backendTokens) unwrap() *backendTokens {
	if t.AccessToken == "" && t.Data != nil {
		return t.Data
	}
	return t
}

func (t *backendTokens) ttl() time.Duration {
	return time.Duration(t.ExpiresIn) * time.Second
}

type tokenResponse struct {
	AccessToken string          `json:"accessToken"`
	ExpiresIn   int             `json:"expiresIn,omitempty"`
	User        json.RawMessage `json:"user,omitempty"`
}

// handleLogin 转发账号密码，令牌写入 HttpOnly Cookie，响应体不含刷新令牌。
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAuthBody)).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "请求体格式错误")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "邮箱和密码不能为空")
		return
	}
	var raw backendTokens
	err := s.api.Send(r.Context(), &httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   creds,
		Header: forwardHeaders(r),
	}, &raw)
	if err != nil {
		s.relayError(w, r, "login", err)
		return
	}
	tokens := raw.unwrap()
	if tokens.AccessToken == "" {
		writeError(w, http.StatusBadGateway, "后端未返回访问令牌")
		return
	}
	s.cookies.setAccess(w, tokens.AccessToken, tokens.ttl())
	if tokens.RefreshToken != "" {
		s.cookies.setRefresh(w, tokens.RefreshToken)
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tokens.AccessToken, ExpiresIn: tokens.ExpiresIn, User: tokens.User})
}

// handleRefresh 用 refresh_token Cookie 换取新的访问令牌。
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refresh := cookieValue(r, RefreshCookie)
	if refresh == "" {
		writeError(w, http.StatusUnauthorized, "缺少刷新令牌")
		return
	}
	var raw backendTokens
	err := s.api.Send(r.Context(), &httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/refresh",
		Body:   map[string]string{"refreshToken": refresh},
		Header: forwardHeaders(r),
	}, &raw)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) && (he.Status == http.StatusUnauthorized || he.Status == http.StatusForbidden) {
			s.cookies.clear(w)
			writeError(w, http.StatusUnauthorized, he.DisplayMessage())
			return
		}
		s.relayError(w, r, "refresh", err)
		return
	}
	tokens := raw.unwrap()
	if tokens.AccessToken == "" {
		s.cookies.clear(w)
		writeError(w, http.StatusUnauthorized, "刷新失败")
		return
	}
	s.cookies.setAccess(w, tokens.AccessToken, tokens.ttl())
	if tokens.RefreshToken != "" && tokens.RefreshToken != refresh {
		s.cookies.setRefresh(w, tokens.RefreshToken)
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tokens.AccessToken, ExpiresIn: tokens.ExpiresIn})
}

// handleLogout 尽力通知后端，无论结果如何都清理 Cookie。
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	header := forwardHeaders(r)
	if token := cookieValue(r, AccessCookie); token != "" && header.Get("Authorization") == "" {
		header.Set("Authorization", "Bearer "+token)
	}
	var body any
	if refresh := cookieValue(r, RefreshCookie); refresh != "" {
		body = map[string]string{"refreshToken": refresh}
	}
	err := s.api.Send(r.Context(), &httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/logout",
		Body:   body,
		Header: header,
	}, nil)
	if err != nil {
		s.log.Warn("backend logout failed", zap.Error(err), zap.String("request_id", r.Header.Get(httpclient.RequestIDHeader)))
	}
	s.cookies.clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// relayError 保留后端状态码与文案，网络错误映射为 502。
func (s *Server) relayError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		writeError(w, he.Status, he.DisplayMessage())
		return
	}
	s.log.Error("auth relay failed", zap.String("op", op), zap.Error(err),
		zap.String("request_id", r.Header.Get(httpclient.RequestIDHeader)))
	writeError(w, http.StatusBadGateway, "后端服务不可用")
}

func forwardHeaders(r *http.Request) http.Header {
	h := http.Header{}
	for _, key := range []string{httpclient.RequestIDHeader, "Authorization", "User-Agent", "Accept-Language"} {
		if v := r.Header.Get(key); v != "" {
			h.Set(key, v)
		}
	}
	return h
}
