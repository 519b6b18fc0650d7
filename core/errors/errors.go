// Package errors 定义 printdash 各层共用的结构化错误。
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code 错误类别，跨包比较时只看 Code。
type Code string

const (
	ErrCodeUnknown         Code = "UNKNOWN"
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeInvalidArgument Code = "INVALID_ARGUMENT" // 表单或参数校验失败
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"   // 依赖缺失或配置错误
	ErrCodeInvalidState    Code = "INVALID_STATE"    // 响应结构或流程状态不符合预期
	ErrCodeUnauthenticated Code = "UNAUTHENTICATED"  // 刷新失败，需要重新登录
)

// CoreError 带错误码的错误。Raw 为底层原因，可为空。
type CoreError struct {
	Code    Code
	Message string
	Raw     error
}

func (e *CoreError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Raw != nil {
		msg = e.Raw.Error()
	}
	switch {
	case msg == "" && e.Code == "":
		return "printdash: 未知错误"
	case msg == "":
		return fmt.Sprintf("printdash: [%s]", e.Code)
	case e.Code == "":
		return msg
	}
	return fmt.Sprintf("printdash: [%s] %s", e.Code, msg)
}

func (e *CoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Raw
}

// Is 同一实例或错误码相同即视为匹配，包级 sentinel 依赖这一点。
func (e *CoreError) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	if e == target {
		return true
	}
	t, ok := target.(*CoreError)
	return ok && e.Code != "" && e.Code == t.Code
}

// New 创建 CoreError。
func New(code Code, message string) *CoreError {
	return &CoreError{Code: code, Message: message}
}

// Wrap 附带底层错误，message 为空时沿用底层错误文本。
func Wrap(code Code, message string, raw error) *CoreError {
	if message == "" && raw != nil {
		message = raw.Error()
	}
	return &CoreError{Code: code, Message: message, Raw: raw}
}

// CodeOf 返回错误链上第一个带码 CoreError 的错误码，没有则为 ErrCodeUnknown。
func CodeOf(err error) Code {
	var ce *CoreError
	for err != nil {
		if !stderrors.As(err, &ce) {
			break
		}
		if ce.Code != "" {
			return ce.Code
		}
		err = ce.Raw
	}
	return ErrCodeUnknown
}

// MessageOf 返回错误链上第一个 CoreError 的消息，不含错误码前缀。
func MessageOf(err error) string {
	var ce *CoreError
	if stderrors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
