package models

import (
	"encoding/json"
	"time"
)

// CrawlReport 爬取报告,与结果文件一起保存
type CrawlReport struct {
	TaskID  string    `json:"task_id"`
	SeedURL string    `json:"seed_url"`
	Domain  string    `json:"domain"`
	Mode    FetchMode `json:"mode"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	Stats TaskStats `json:"stats"`

	// 结果文件
	OutputPath string `json:"output_path"`
	Format     string `json:"format"`
	Rows       int    `json:"rows"`

	// 配置快照
	Settings CrawlSettings `json:"settings"`
}

// ToJSON 序列化为JSON
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CrawlReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
