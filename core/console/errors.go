package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dnslin/printdash/core/auth"
	coreerrors "github.com/dnslin/printdash/core/errors"
	"github.com/dnslin/printdash/core/httpclient"
)

// Kind 错误类别，供界面决定提示方式。
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindRateLimited  Kind = "rate_limited"
	KindServer       Kind = "server"
	KindNetwork      Kind = "network"
	KindUnknown      Kind = "unknown"
)

// Error 表示资源调用失败，Message 可直接展示。
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Status  int
	Raw     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Status > 0 {
		return fmt.Sprintf("console: [%s] %d %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("console: [%s] %s", e.Kind, e.Message)
}

// Unwrap 允许 errors.Is/As 解构底层错误。
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Raw
}

// IsKind 判断错误链上是否为指定类别。请求前的本地校验错误按错误码归类。
func IsKind(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	switch coreerrors.CodeOf(err) {
	case coreerrors.ErrCodeInvalidArgument:
		return kind == KindValidation
	case coreerrors.ErrCodeNotFound:
		return kind == KindNotFound
	}
	return false
}

func kindOf(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusTooManyRequests:
		return KindRateLimited
	}
	if status >= http.StatusInternalServerError && status < 600 {
		return KindServer
	}
	return KindUnknown
}

// toError 将 httpclient 错误转换为 *Error；需要重新登录与上下文取消保持原样。
func toError(err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, auth.ErrLoginRequired) || errors.Is(err, context.Canceled) {
		return err
	}
	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		return &Error{
			Kind:    kindOf(he.Status),
			Message: he.DisplayMessage(),
			Details: append([]string(nil), he.Details...),
			Status:  he.Status,
			Raw:     err,
		}
	}
	var ne *httpclient.NetworkError
	if errors.As(err, &ne) {
		return &Error{Kind: KindNetwork, Message: "网络连接失败，请稍后重试", Raw: err}
	}
	return err
}

// DisplayMessage 返回适合弹出提示的文本。
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		if ce.Message != "" {
			return ce.Message
		}
		if len(ce.Details) > 0 {
			return ce.Details[0]
		}
	}
	if errors.Is(err, auth.ErrLoginRequired) {
		return "登录已过期，请重新登录"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "请求超时，请稍后重试"
	}
	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		return he.DisplayMessage()
	}
	var ne *httpclient.NetworkError
	if errors.As(err, &ne) {
		return "网络连接失败，请稍后重试"
	}
	return coreerrors.MessageOf(err)
}
