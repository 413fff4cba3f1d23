package models

import (
	"context"
	"net/http"
)

// Fetcher 页面抓取接口
// 失败时返回 ("", false),不返回错误也不panic
type Fetcher interface {
	Fetch(ctx context.Context, url string) (content string, ok bool)
}

// VerifyResult 头部校验结果
type VerifyResult struct {
	OK         bool   // 状态码2xx且Content-Type在允许列表中
	RedirectTo string // 301/302时的Location原始值
	StatusCode int
	Reason     string // 未通过时的原因
}

// Verifier 抓取前的头部校验接口 (不自动跟随重定向)
type Verifier interface {
	Verify(ctx context.Context, url string) VerifyResult
}

// ProgressReporter 进度报告接口
type ProgressReporter interface {
	// StartDepth 开始处理新的一层
	StartDepth(depth, maxDepth, urlTotal int)
	// Advance 当前层处理完一个URL
	Advance()
	// Finish 遍历结束
	Finish()
}

// HeaderProvider HTTP头部提供者
// 返回的头部已按优先级合并(默认 < 配置 < 命令行)
type HeaderProvider interface {
	GetHeaders() (http.Header, error)
}
