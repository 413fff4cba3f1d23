package models

import "fmt"

// MalformedURLError 无法从URL中提取域名
type MalformedURLError struct {
	URL string
}

// Error 实现error接口
func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("无法从URL中提取域名: %q", e.URL)
}

// FetchError 页面抓取失败
type FetchError struct {
	URL   string
	Cause error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("抓取失败 [%s]", e.URL)
	}
	return fmt.Sprintf("抓取失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// VerificationError 头部校验未通过 (状态码或Content-Type不符)
type VerificationError struct {
	URL        string
	StatusCode int
	Reason     string
}

// Error 实现error接口
func (e *VerificationError) Error() string {
	return fmt.Sprintf("校验未通过 [%s] (状态码=%d): %s", e.URL, e.StatusCode, e.Reason)
}

// TooManyRedirectsError 重定向跳数超过上限
type TooManyRedirectsError struct {
	URL   string
	Hops  int
	Chain []string
}

// Error 实现error接口
func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("重定向次数过多 [%s]: 已跟随%d跳", e.URL, e.Hops)
}

// EmptyResultError 没有任何记录可投影
type EmptyResultError struct{}

// Error 实现error接口
func (e *EmptyResultError) Error() string {
	return "结果为空: 没有已访问的URL"
}

// ValidationError 头部验证错误
// 表示头部验证失败的详细信息
type ValidationError struct {
	// Field 出错的字段 ("name" 或 "value")
	Field string

	// HeaderName 头部名称
	HeaderName string

	// Reason 错误原因
	Reason string

	// Suggestion 修复建议 (可选)
	Suggestion string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置错误
// 配置文件解析失败、字段非法或正则表达式无法编译
type ConfigError struct {
	// FilePath 配置文件路径 (可选)
	FilePath string

	// Field 出错的配置项 (可选)
	Field string

	// Cause 底层错误
	Cause error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	switch {
	case e.FilePath != "" && e.Field != "":
		return fmt.Sprintf("配置文件错误 [%s] %s: %v", e.FilePath, e.Field, e.Cause)
	case e.FilePath != "":
		return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
	case e.Field != "":
		return fmt.Sprintf("配置错误 [%s]: %v", e.Field, e.Cause)
	default:
		return fmt.Sprintf("配置错误: %v", e.Cause)
	}
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
