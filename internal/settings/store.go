package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store 持有进程内唯一的一份设置，并负责读写设置文件
type Store struct {
	mu      sync.RWMutex
	path    string
	current Settings
}

// NewStore 以默认设置创建，不读取磁盘
func NewStore(path string) *Store {
	return &Store{path: path, current: Defaults()}
}

// OpenStore 创建并立即加载设置文件 (宽松模式)
func OpenStore(path string) (*Store, error) {
	loaded, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := NewStore(path)
	s.current = loaded
	return s, nil
}

// Path 返回设置文件路径
func (s *Store) Path() string {
	return s.path
}

// Load 读取设置文件，宽松模式：
// 文件不存在或内容损坏时回退到默认值，而不是报错
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	parsed, err := Parse(data)
	if err != nil {
		slog.Warn("设置文件无法解析，使用默认设置", "path", path, "err", err)
		return Defaults(), nil
	}
	return parsed, nil
}

// Reload 重新从磁盘加载设置，严格模式：
// 文件缺失、写了一半或无法解析时返回错误，内存中的设置保持不变
func (s *Store) Reload() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	loaded, err := Parse(data)
	if err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return loaded.Clone(), nil
}

// Snapshot 返回当前设置的深拷贝
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update 在锁内修改设置，归一化后落盘
// 落盘失败时内存中的设置保持不变
func (s *Store) Update(fn func(*Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	if err := fn(&next); err != nil {
		return err
	}

	// 走一遍 JSON 归一化，保证写入磁盘的内容和加载时一致
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	normalized, err := Parse(data)
	if err != nil {
		return err
	}

	if err := writeFile(s.path, normalized); err != nil {
		return err
	}
	s.current = normalized
	return nil
}

// Import 导入一份完整的设置 JSON
// 任何解析错误都会拒绝整个导入，现有设置保持不变
func (s *Store) Import(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return fmt.Errorf("import rejected: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFile(s.path, parsed); err != nil {
		return err
	}
	s.current = parsed
	return nil
}

// Export 导出当前设置 (带缩进)
func (s *Store) Export() ([]byte, error) {
	return json.MarshalIndent(s.Snapshot(), "", "  ")
}

// Save 将当前设置写回磁盘
func (s *Store) Save() error {
	return writeFile(s.path, s.Snapshot())
}

// writeFile 先写临时文件再重命名，避免写到一半的设置文件
func writeFile(path string, st Settings) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
