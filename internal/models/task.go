package models

import (
	"encoding/json"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待执行
	TaskStatusRunning   TaskStatus = "running"   // 执行中
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
	TaskStatusCancelled TaskStatus = "cancelled" // 已取消
)

// CrawlState 遍历状态机
type CrawlState string

const (
	StateIdle      CrawlState = "idle"      // 未开始
	StateSeeding   CrawlState = "seeding"   // 抓取起始页
	StateExpanding CrawlState = "expanding" // 逐层扩展
	StateDone      CrawlState = "done"      // 结束
)

// FetchMode 抓取方式
type FetchMode string

const (
	ModeRequest FetchMode = "request" // 普通HTTP请求
	ModeBrowser FetchMode = "browser" // 脚本化浏览器
)

// TaskStats 任务统计
type TaskStats struct {
	Records         int     `json:"records"`           // 记录数
	Verified        int     `json:"verified"`          // 校验通过数
	SkippedDomain   int     `json:"skipped_domain"`    // 域名限制跳过
	SkippedVisited  int     `json:"skipped_visited"`   // 已访问跳过
	VerifyFailed    int     `json:"verify_failed"`     // 校验失败
	TooManyRedirect int     `json:"too_many_redirect"` // 重定向超限
	FetchFailed     int     `json:"fetch_failed"`      // 抓取失败
	DepthReached    int     `json:"depth_reached"`     // 实际完成的深度
	Duration        float64 `json:"duration"`          // 总耗时(秒)
}

// CrawlTask 爬取任务
type CrawlTask struct {
	ID          string     `json:"id"` // 会话ID (UUID)
	SeedURL     string     `json:"seed_url"`
	Domain      string     `json:"domain"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Mode   FetchMode  `json:"mode"`
	Status TaskStatus `json:"status"`
	State  CrawlState `json:"state"`

	Stats        TaskStats `json:"stats"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// NewCrawlTask 创建新任务
func NewCrawlTask(seedURL, domain string, mode FetchMode) *CrawlTask {
	return &CrawlTask{
		ID:        generateID(),
		SeedURL:   seedURL,
		Domain:    domain,
		CreatedAt: time.Now(),
		Mode:      mode,
		Status:    TaskStatusPending,
		State:     StateIdle,
	}
}

// ToJSON 序列化为JSON
func (t *CrawlTask) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
