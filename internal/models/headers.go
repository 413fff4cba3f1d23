package models

import (
	"fmt"
	"net/http"
	"strings"
)

// HeaderConfig 请求头配置文件结构
type HeaderConfig struct {
	// RequestHeader 自定义请求头 (名称 -> 值)
	RequestHeader map[string]string `mapstructure:"request_header" yaml:"request_header"`
}

// CliHeaders 命令行 -H 参数,每项格式为 "Name: Value"
type CliHeaders []string

// Parse 解析为 http.Header,同名头部后者覆盖前者
func (ch CliHeaders) Parse() (http.Header, error) {
	result := make(http.Header, len(ch))
	for i, raw := range ch {
		name, value, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, fmt.Errorf("参数 --header 第%d项缺少冒号分隔符,应为 'Name: Value': %q", i+1, raw)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("参数 --header 第%d项头部名称为空", i+1)
		}
		result.Set(name, strings.TrimSpace(value))
	}
	return result, nil
}

// ToHeader 将配置文件中的请求头转换为 http.Header
func (hc *HeaderConfig) ToHeader() http.Header {
	h := make(http.Header, len(hc.RequestHeader))
	for name, value := range hc.RequestHeader {
		h.Set(name, value)
	}
	return h
}
