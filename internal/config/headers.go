package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"github.com/spf13/viper"
)

const (
	// DefaultHeadersFile 默认请求头配置文件
	DefaultHeadersFile = "configs/headers.yaml"

	// MaxConfigFileSize 配置文件最大大小 (1MB)
	MaxConfigFileSize = 1 * 1024 * 1024
)

//go:embed headers_template.yaml
var defaultHeaderTemplate string

// HeaderConfigLoader 请求头配置文件加载器
type HeaderConfigLoader struct {
	configPath string
}

// NewHeaderConfigLoader 创建加载器,路径为空时使用默认路径
func NewHeaderConfigLoader(configPath string) *HeaderConfigLoader {
	if configPath == "" {
		configPath = DefaultHeadersFile
	}
	return &HeaderConfigLoader{configPath: configPath}
}

// Path 返回配置文件路径
func (hcl *HeaderConfigLoader) Path() string {
	return hcl.configPath
}

// EnsureConfigExists 配置文件不存在时写入模板
func (hcl *HeaderConfigLoader) EnsureConfigExists() error {
	_, err := os.Stat(hcl.configPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("无法访问配置文件 [%s]: %w", hcl.configPath, err)
	}

	dir := filepath.Dir(hcl.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("无法创建配置目录 [%s]: %w", dir, err)
	}
	if err := os.WriteFile(hcl.configPath, []byte(defaultHeaderTemplate), 0644); err != nil {
		return fmt.Errorf("无法生成配置文件 [%s]: %w", hcl.configPath, err)
	}
	return nil
}

// ValidateFileSize 检查配置文件大小
func (hcl *HeaderConfigLoader) ValidateFileSize() error {
	info, err := os.Stat(hcl.configPath)
	if err != nil {
		return fmt.Errorf("无法读取配置文件信息 [%s]: %w", hcl.configPath, err)
	}
	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: hcl.configPath,
			Cause:    fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)", info.Size(), MaxConfigFileSize),
		}
	}
	return nil
}

// LoadConfig 读取request_header段
// 文件不存在时先生成模板;文件为空或没有request_header时返回空map
func (hcl *HeaderConfigLoader) LoadConfig() (*models.HeaderConfig, error) {
	if err := hcl.EnsureConfigExists(); err != nil {
		return nil, err
	}
	if err := hcl.ValidateFileSize(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(hcl.configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, &models.ConfigError{FilePath: hcl.configPath, Cause: err}
	}

	var cfg models.HeaderConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &models.ConfigError{
			FilePath: hcl.configPath,
			Field:    "request_header",
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}
	if cfg.RequestHeader == nil {
		cfg.RequestHeader = make(map[string]string)
	}
	return &cfg, nil
}
