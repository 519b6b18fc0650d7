package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session 记录当前的访问凭证。刷新凭证保存在 HttpOnly Cookie 中，不进入这里。
type Session struct {
	AccessToken string    `json:"accessToken,omitempty" yaml:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty" yaml:"expires_at,omitempty"`
}

// NewSession 根据访问令牌创建会话；expiresIn 为 0 时从 JWT exp 声明推断过期时间。
func NewSession(accessToken string, expiresIn int, now time.Time) *Session {
	s := &Session{AccessToken: accessToken}
	if expiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(expiresIn) * time.Second)
	} else if exp, ok := ExpiryFromJWT(accessToken); ok {
		s.ExpiresAt = exp
	}
	return s
}

// GetAccessToken 返回访问令牌，nil 安全。
func (s *Session) GetAccessToken() string {
	if s == nil {
		return ""
	}
	return s.AccessToken
}

// Expired 判断会话是否过期。未知过期时间视为未过期。
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// Clone 返回会话的浅拷贝，避免直接暴露内部指针。
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// ExpiryFromJWT 不校验签名，仅读取 exp 声明。签名由后端负责校验。
func ExpiryFromJWT(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
