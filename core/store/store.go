package store

import "errors"

// ErrNotFound 表示存储中尚无数据。
var ErrNotFound = errors.New("store: 数据不存在")

// SessionStore 抽象会话存储，由业务方约定具体 Session 结构体。
type SessionStore[T any] interface {
	SaveSession(session T) error
	LoadSession() (T, error)
	ClearSession() error
}

// TokenStore 抽象 token/refresh token/cookie 的持久化。
type TokenStore[T any] interface {
	SaveTokens(tokens T) error
	LoadTokens() (T, error)
	ClearTokens() error
}

// ConfigStore 抽象用户偏好或客户端配置的存储。
type ConfigStore[T any] interface {
	SaveConfig(cfg T) error
	LoadConfig() (T, error)
	ClearConfig() error
}
