package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileConfigStore 以 YAML 文件持久化配置，写入先落临时文件再重命名。
type FileConfigStore[T any] struct {
	mu   sync.Mutex
	path string
}

// NewFileConfigStore 创建文件配置存储。
func NewFileConfigStore[T any](path string) *FileConfigStore[T] {
	return &FileConfigStore[T]{path: path}
}

// Path 返回文件路径。
func (s *FileConfigStore[T]) Path() string {
	return s.path
}

// SaveConfig 写入配置。
func (s *FileConfigStore[T]) SaveConfig(cfg T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("store: 序列化配置失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// LoadConfig 读取配置，文件不存在时返回 ErrNotFound。
func (s *FileConfigStore[T]) LoadConfig() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cfg T
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, ErrNotFound
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("store: 解析配置失败: %w", err)
	}
	return cfg, nil
}

// ClearConfig 删除配置文件。
func (s *FileConfigStore[T]) ClearConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
