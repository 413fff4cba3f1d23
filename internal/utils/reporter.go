package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
)

// Reporter 报告生成器
type Reporter struct {
	outputDir string
	domain    string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string, domain string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		domain:    domain,
	}
}

// ReportPath 报告文件路径: <outputDir>/reports/<domain>_crawl_report.json
func (r *Reporter) ReportPath() string {
	name := SanitizeFileName(r.domain) + "_crawl_report.json"
	return filepath.Join(r.outputDir, "reports", name)
}

// GenerateReport 保存爬取报告,返回报告路径
func (r *Reporter) GenerateReport(report *models.CrawlReport) (string, error) {
	path := r.ReportPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	if err := r.saveJSONReport(path, report); err != nil {
		return "", err
	}

	Infof("✅ 报告已生成: %s", path)
	return path, nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}
