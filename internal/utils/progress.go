package utils

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// NewProgressBar 创建进度条
func NewProgressBar(w io.Writer, max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

// BarReporter 每层一个终端进度条
type BarReporter struct {
	w   io.Writer
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewBarReporter 创建进度条报告器,w为nil时输出到stderr
func NewBarReporter(w io.Writer) *BarReporter {
	if w == nil {
		w = os.Stderr
	}
	return &BarReporter{w: w}
}

// StartDepth 结束上一层的进度条并为新一层创建进度条
func (r *BarReporter) StartDepth(depth, maxDepth, urlTotal int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		_ = r.bar.Finish()
	}
	r.bar = NewProgressBar(r.w, urlTotal, fmt.Sprintf("深度 %d/%d", depth, maxDepth))
}

// Advance 当前层完成一个URL
func (r *BarReporter) Advance() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

// Finish 结束最后一个进度条
func (r *BarReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}

// LogReporter 以日志形式报告进度 (关闭进度条时使用)
type LogReporter struct {
	mu       sync.Mutex
	depth    int
	total    int
	done     int
	maxDepth int
}

// NewLogReporter 创建日志进度报告器
func NewLogReporter() *LogReporter {
	return &LogReporter{}
}

// StartDepth 记录新一层的开始
func (r *LogReporter) StartDepth(depth, maxDepth, urlTotal int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.depth, r.maxDepth, r.total, r.done = depth, maxDepth, urlTotal, 0
	Infof("深度 %d/%d: 待处理 %d 个URL", depth, maxDepth, urlTotal)
}

// Advance 记录进度
func (r *LogReporter) Advance() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done++
	Debugf("深度 %d/%d: %d/%d", r.depth, r.maxDepth, r.done, r.total)
}

// Finish 记录结束
func (r *LogReporter) Finish() {
	Debug("遍历进度报告结束")
}
