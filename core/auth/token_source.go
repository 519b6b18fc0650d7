package auth

import (
	"context"

	"golang.org/x/oauth2"
)

type tokenSource struct {
	ctx context.Context
	m   *Manager
}

// TokenSource 将 Manager 适配为 oauth2.TokenSource，供只认 oauth2 的调用方使用。
// 没有令牌时会触发一次刷新。
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	if ctx == nil {
		ctx = context.Background()
	}
	return &tokenSource{ctx: ctx, m: m}
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	generation, token, err := s.m.current(s.ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		if err := s.m.Refresh(s.ctx, generation); err != nil {
			return nil, err
		}
		if _, token, err = s.m.current(s.ctx); err != nil {
			return nil, err
		}
	}
	tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	if session := s.m.Session(); session != nil {
		tok.Expiry = session.ExpiresAt
	}
	return tok, nil
}
