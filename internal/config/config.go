package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config 对应 config.yaml 的根结构
type Config struct {
	Vault  VaultConfig  `yaml:"vault"`
	System SystemConfig `yaml:"system"`
}

// VaultConfig 目标库相关配置
type VaultConfig struct {
	// 所有 target_path 都相对于该目录解析，且不允许越出
	Root string `yaml:"root"`
	// 同步任务设置 (JSON)，相对路径基于 Root
	SettingsFile string `yaml:"settings_file"`
}

// SystemConfig 系统配置
type SystemConfig struct {
	DBPath     string `yaml:"db_path"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
	LogMaxSize int    `yaml:"log_max_size_mb"`
	LogBackups int    `yaml:"log_max_backups"`
	LogMaxAge  int    `yaml:"log_max_age_days"`
}

const (
	DefaultSettingsFile = ".vaultsync/settings.json"
	DefaultDBPath       = ".vaultsync/history.db"
	DefaultLogLevel     = "info"
	DefaultLogMaxSize   = 10
	DefaultLogBackups   = 3
)

// LoadConfig 读取并解析配置文件
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	// 配置文件所在目录作为相对路径的基准
	if err := cfg.normalize(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize 校验必填项并补全默认值
func (c *Config) normalize(baseDir string) error {
	if c.Vault.Root == "" {
		return errors.New("vault.root is required")
	}
	if !filepath.IsAbs(c.Vault.Root) {
		c.Vault.Root = filepath.Join(baseDir, c.Vault.Root)
	}
	c.Vault.Root = filepath.Clean(c.Vault.Root)

	info, err := os.Stat(c.Vault.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("vault.root does not exist: %s", c.Vault.Root)
		}
		return fmt.Errorf("stat vault.root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault.root is not a directory: %s", c.Vault.Root)
	}

	if c.Vault.SettingsFile == "" {
		c.Vault.SettingsFile = DefaultSettingsFile
	}
	c.Vault.SettingsFile = c.resolve(c.Vault.SettingsFile)

	if c.System.DBPath == "" {
		c.System.DBPath = DefaultDBPath
	}
	c.System.DBPath = c.resolve(c.System.DBPath)

	if c.System.LogFile != "" {
		c.System.LogFile = c.resolve(c.System.LogFile)
	}
	if c.System.LogLevel == "" {
		c.System.LogLevel = DefaultLogLevel
	}
	if c.System.LogMaxSize <= 0 {
		c.System.LogMaxSize = DefaultLogMaxSize
	}
	if c.System.LogBackups <= 0 {
		c.System.LogBackups = DefaultLogBackups
	}

	// 确保数据库目录存在
	if err := os.MkdirAll(filepath.Dir(c.System.DBPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	return nil
}

// resolve 将相对路径解析到 vault 根目录下
func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Vault.Root, p)
}
