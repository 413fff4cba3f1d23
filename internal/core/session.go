package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/RecoveryAshes/scrapdynamics/internal/crawlers"
	"github.com/RecoveryAshes/scrapdynamics/internal/export"
	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"github.com/RecoveryAshes/scrapdynamics/internal/utils"
)

// SessionResult 单个会话的结果
type SessionResult struct {
	Task       models.CrawlTask
	Stats      models.TaskStats
	Table      *models.Table
	OutputPath string
	ReportPath string
}

// Runner 按配置组装抓取器并执行爬取会话
type Runner struct {
	config         *Config
	headerProvider models.HeaderProvider

	// 结果表格输出 (默认stdout)
	out io.Writer
	// 进度条输出 (默认stderr)
	progressOut io.Writer
}

// NewRunner 创建会话执行器
func NewRunner(config *Config, headerProvider models.HeaderProvider) *Runner {
	return &Runner{
		config:         config,
		headerProvider: headerProvider,
		out:            os.Stdout,
		progressOut:    os.Stderr,
	}
}

// SetOutput 设置结果表格和进度条的输出位置
func (r *Runner) SetOutput(out, progress io.Writer) {
	if out != nil {
		r.out = out
	}
	if progress != nil {
		r.progressOut = progress
	}
}

// newFetcher 根据配置创建抓取器,返回的close函数用于释放浏览器
func (r *Runner) newFetcher(settings models.CrawlSettings, workers int) (models.Fetcher, func(), error) {
	timeout := time.Duration(settings.Timeout) * time.Second
	if !settings.SimulateHuman {
		return crawlers.NewRequestFetcher(timeout, r.headerProvider), func() {}, nil
	}

	bf, err := crawlers.NewBrowserFetcher(crawlers.BrowserOptions{
		Headless:        settings.Headless,
		Timeout:         timeout,
		ScrollFirstPage: settings.ScrollFirstPage,
		ScrollAllPages:  settings.ScrollAllPages,
		MaxPages:        workers,
	}, r.headerProvider)
	if err != nil {
		return nil, nil, err
	}
	return bf, func() {
		if err := bf.Close(); err != nil {
			utils.Warnf("关闭浏览器失败: %v", err)
		}
	}, nil
}

// newReporter 根据配置选择进度报告方式
func (r *Runner) newReporter(settings models.CrawlSettings) models.ProgressReporter {
	if settings.ProgressBar {
		return utils.NewBarReporter(r.progressOut)
	}
	return utils.NewLogReporter()
}

// Run 执行一次完整的爬取会话: 遍历、投影、导出、打印、报告
// outputPath为空时不写文件
func (r *Runner) Run(ctx context.Context, seedURL, outputPath string) (*SessionResult, error) {
	settings := r.config.Crawl.Clone()

	// 浏览器标签页数与并发数一致
	workers := settings.Workers
	if workers == 0 {
		workers = crawlers.NewResourceMonitor(crawlers.DefaultResourceMonitorConfig(settings.SimulateHuman)).CalculateMaxWorkers()
		settings.Workers = workers
	}

	// 先校验输出格式,避免爬取结束后才发现扩展名错误
	if outputPath != "" {
		if _, err := export.FormatFromPath(outputPath); err != nil {
			return nil, err
		}
	}

	fetcher, closeFetcher, err := r.newFetcher(settings, workers)
	if err != nil {
		return nil, err
	}
	defer closeFetcher()

	verifier := crawlers.NewHeadVerifier(time.Duration(settings.Timeout)*time.Second, settings.ValidContentType, r.headerProvider)

	crawler, err := NewCrawler(seedURL, settings, fetcher, verifier, WithReporter(r.newReporter(settings)))
	if err != nil {
		return nil, err
	}

	crawlErr := crawler.Start(ctx)

	result := &SessionResult{
		Task:  crawler.Task(),
		Stats: crawler.GetStats(),
	}

	table, err := crawler.Project()
	if err != nil {
		return result, errors.Join(crawlErr, err)
	}
	result.Table = table

	format := ""
	if outputPath != "" {
		f, err := export.Write(outputPath, table)
		if err != nil {
			return result, errors.Join(crawlErr, err)
		}
		format = f.String()
		result.OutputPath = outputPath
	}

	if r.config.Output.ShowResults {
		if err := export.RenderTable(r.out, fmt.Sprintf("%s (%d)", crawler.Domain(), table.Len()), table); err != nil {
			utils.Warnf("打印结果失败: %v", err)
		}
	}

	if r.config.Output.Report {
		reporter := utils.NewReporter(r.config.Output.ReportDir, crawler.Domain())
		path, err := reporter.GenerateReport(crawler.BuildReport(outputPath, format, table.Len()))
		if err != nil {
			utils.Warnf("生成报告失败: %v", err)
		} else {
			result.ReportPath = path
		}
	}

	return result, crawlErr
}
