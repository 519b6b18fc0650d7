package auth

import (
	"fmt"

	coreerrors "github.com/dnslin/printdash/core/errors"
)

// DefaultLoginPath 会话无法恢复时建议跳转的登录页。
const DefaultLoginPath = "/login"

var (
	// ErrSessionStoreNil 在未注入存储时返回。
	ErrSessionStoreNil = coreerrors.New(coreerrors.ErrCodeInvalidConfig, "auth: SessionStore 未设置")
	// ErrRefresherNil 需要刷新但未配置刷新器时返回。
	ErrRefresherNil = coreerrors.New(coreerrors.ErrCodeInvalidConfig, "auth: 未配置刷新器")
	// ErrEmptyToken 刷新或登录接口未返回 accessToken。
	ErrEmptyToken = coreerrors.New(coreerrors.ErrCodeInvalidState, "auth: 接口未返回 accessToken")
	// ErrMissingCredentials 登录缺少邮箱或密码。
	ErrMissingCredentials = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "auth: 邮箱或密码为空")
	// ErrLoginRequired 会话失效且刷新失败，调用方应引导用户重新登录。
	ErrLoginRequired = coreerrors.New(coreerrors.ErrCodeUnauthenticated, "auth: 需要重新登录")
)

// LoginRequiredError 表示刷新失败，等待中的请求全部以此错误结束。
// 是否跳转由持有 Manager 的应用决定，RedirectTo 只是建议地址。
type LoginRequiredError struct {
	RedirectTo string
	Err        error
}

func (e *LoginRequiredError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return ErrLoginRequired.Message
	}
	return fmt.Sprintf("%s: %v", ErrLoginRequired.Message, e.Err)
}

// Unwrap 暴露刷新失败的原因。
func (e *LoginRequiredError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is 使 errors.Is(err, ErrLoginRequired) 成立。
func (e *LoginRequiredError) Is(target error) bool {
	return target == ErrLoginRequired
}
