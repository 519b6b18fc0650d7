package store

import "sync"

// MemoryStore 进程内存储，同时满足 SessionStore 与 TokenStore。
// Clone 非空时读写都经过拷贝，避免调用方修改内部状态。
type MemoryStore[T any] struct {
	mu    sync.RWMutex
	value T
	has   bool
	Clone func(T) T
}

// NewMemoryStore 创建内存存储。
func NewMemoryStore[T any](clone func(T) T) *MemoryStore[T] {
	return &MemoryStore[T]{Clone: clone}
}

func (m *MemoryStore[T]) copy(v T) T {
	if m.Clone == nil {
		return v
	}
	return m.Clone(v)
}

// SaveSession 保存会话。
func (m *MemoryStore[T]) SaveSession(session T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = m.copy(session)
	m.has = true
	return nil
}

// LoadSession 读取会话，不存在时返回 ErrNotFound。
func (m *MemoryStore[T]) LoadSession() (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.has {
		var zero T
		return zero, ErrNotFound
	}
	return m.copy(m.value), nil
}

// ClearSession 清空会话。
func (m *MemoryStore[T]) ClearSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	m.value = zero
	m.has = false
	return nil
}

func (m *MemoryStore[T]) SaveTokens(tokens T) error { return m.SaveSession(tokens) }
func (m *MemoryStore[T]) LoadTokens() (T, error)    { return m.LoadSession() }
func (m *MemoryStore[T]) ClearTokens() error        { return m.ClearSession() }
