package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ValidateURL 验证起始URL: 必须是带主机名的http/https绝对地址
func ValidateURL(urlStr string) error {
	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return fmt.Errorf("URL不能为空")
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议: %s", urlStr)
	}
	if parsed.Host == "" {
		return &MalformedURLError{URL: urlStr}
	}
	return nil
}

// generateID 生成会话ID
func generateID() string {
	return uuid.NewString()
}
