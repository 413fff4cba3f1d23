package main

import (
	"fmt"
	"strings"

	"github.com/RecoveryAshes/scrapdynamics/internal/core"
	"github.com/RecoveryAshes/scrapdynamics/internal/export"
	"github.com/RecoveryAshes/scrapdynamics/internal/models"
)

// ValidateFlags 在开始爬取前验证合并后的配置
func ValidateFlags(targetURL string, config *core.Config) error {
	if targetURL != "" {
		if err := models.ValidateURL(targetURL); err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
	}

	if err := config.Crawl.Validate(); err != nil {
		return err
	}

	if config.Output.Path != "" {
		if _, err := export.FormatFromPath(config.Output.Path); err != nil {
			return err
		}
	}
	return nil
}

// ParseExpressions 解析 -e name=regex 参数
// 值为空表示禁用同名的默认表达式
func ParseExpressions(values []string) (map[string]string, error) {
	exprs := make(map[string]string, len(values))
	for _, raw := range values {
		name, pattern, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("抽取表达式缺少'='分隔符,应为 'name=regex': %q", raw)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return nil, fmt.Errorf("抽取表达式名称为空: %q", raw)
		}
		exprs[name] = pattern
	}
	return exprs, nil
}
