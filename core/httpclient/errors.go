package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody 错误响应体读取上限。
const maxErrorBody = 64 << 10

// HTTPError 表示状态码 >= 400 的响应，Body 保留原始响应体。
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details []string
	Body    []byte
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("http %d: %s: %s", e.Status, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	case e.Code != "":
		return fmt.Sprintf("http %d: %s", e.Status, e.Code)
	default:
		return fmt.Sprintf("http 状态码: %d", e.Status)
	}
}

// DisplayMessage 返回适合直接展示给用户的错误文本。
func (e *HTTPError) DisplayMessage() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if len(e.Details) > 0 {
		return strings.Join(e.Details, "; ")
	}
	if e.Code != "" {
		return e.Code
	}
	if text := http.StatusText(e.Status); text != "" {
		return text
	}
	return fmt.Sprintf("请求失败(status=%d)", e.Status)
}

// NetworkError 包装底层网络错误，便于区分可重试场景。
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("网络错误: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError 表示响应解码失败。
type DecodeError struct {
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("解码失败(status=%d): %v", e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Messages 兼容 message 字段为字符串或字符串数组两种形态。
type Messages []string

func (m *Messages) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*m = Messages{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = many
	return nil
}

// ErrorEnvelope 是后端错误响应的统一结构。
type ErrorEnvelope struct {
	Message    Messages `json:"message,omitempty"`
	Err        string   `json:"error,omitempty"`
	Code       string   `json:"code,omitempty"`
	StatusCode int      `json:"statusCode,omitempty"`
}

// toError 按 message → error → 状态码文本 的顺序归一化。
func (env *ErrorEnvelope) toError(status int, body []byte) *HTTPError {
	he := &HTTPError{Status: status, Code: env.Code, Body: body}
	switch len(env.Message) {
	case 0:
	case 1:
		he.Message = env.Message[0]
	default:
		he.Details = append([]string(nil), env.Message...)
	}
	if he.Message == "" && len(he.Details) == 0 {
		he.Message = env.Err
	}
	if he.Message == "" && len(he.Details) == 0 {
		he.Message = http.StatusText(status)
	}
	return he
}

// OkRsp 用于判断 2xx 响应中的业务层是否成功。
type OkRsp interface {
	error
	IsSuccess() bool
}

type coder interface {
	Code() string
}

type messager interface {
	Message() string
}

func readHTTPError(resp *http.Response) *HTTPError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env ErrorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		return env.toError(resp.StatusCode, body)
	}
	he := statusToErr(resp.StatusCode)
	he.Body = body
	return he
}

func toHTTPError(err error, status int) *HTTPError {
	if err == nil {
		return nil
	}
	if he, ok := err.(*HTTPError); ok {
		if he.Status == 0 {
			he.Status = status
		}
		return he
	}
	code := ""
	msg := err.Error()
	if c, ok := err.(coder); ok {
		code = c.Code()
	}
	if m, ok := err.(messager); ok {
		msg = m.Message()
	}
	return &HTTPError{Code: code, Message: msg, Status: status}
}

func statusToErr(status int) *HTTPError {
	return &HTTPError{
		Status:  status,
		Code:    fmt.Sprintf("HTTP_%d", status),
		Message: http.StatusText(status),
	}
}
