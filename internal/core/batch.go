package core

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/RecoveryAshes/scrapdynamics/internal/crawlers"
	"github.com/RecoveryAshes/scrapdynamics/internal/utils"
)

// sessionRunner 执行单个会话 (测试中可替换)
type sessionRunner interface {
	Run(ctx context.Context, seedURL, outputPath string) (*SessionResult, error)
}

// BatchCrawler 批量爬取器
// 每个起始URL是一个独立会话,账本互不共享
type BatchCrawler struct {
	runner        sessionRunner
	outputPath    string
	batchDelay    time.Duration
	continueOnErr bool

	// 用于计算每个会话的输出文件后缀
	normalizer *crawlers.LinkNormalizer
}

// BatchResult 单个URL的批量爬取结果
type BatchResult struct {
	URL         string
	Success     bool
	Error       error
	Records     int
	OutputPath  string
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量爬取摘要
type BatchSummary struct {
	TotalURLs     int
	SuccessCount  int
	FailCount     int
	TotalRecords  int
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchCrawler 创建批量爬取器
// outputPath非空时,每个会话写入 <name>_<序号>_<domain><ext>
func NewBatchCrawler(config *Config, runner sessionRunner, batchDelay int, continueOnErr bool) (*BatchCrawler, error) {
	normalizer, err := crawlers.NewLinkNormalizer(config.Crawl)
	if err != nil {
		return nil, err
	}
	return &BatchCrawler{
		runner:        runner,
		outputPath:    config.Output.Path,
		batchDelay:    time.Duration(batchDelay) * time.Second,
		continueOnErr: continueOnErr,
		normalizer:    normalizer,
	}, nil
}

// CrawlBatch 批量爬取URL列表
func (bc *BatchCrawler) CrawlBatch(ctx context.Context, urls []string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量爬取: %d个URL", len(urls))

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Results:   make([]BatchResult, 0, len(urls)),
	}

	startTime := time.Now()

	for i, targetURL := range urls {
		if ctx.Err() != nil {
			utils.Warn("批量爬取被中断")
			break
		}

		utils.Infof("==================== [%d/%d] ====================", i+1, len(urls))
		utils.Infof("目标URL: %s", targetURL)

		result := bc.crawlSingleURL(ctx, i, targetURL)
		summary.Results = append(summary.Results, result)

		if result.Success {
			summary.SuccessCount++
			summary.TotalRecords += result.Records
		} else {
			summary.FailCount++
			utils.Errorf("❌ 爬取失败: %v", result.Error)

			if !bc.continueOnErr {
				utils.Warn("批量爬取中止 (--continue-on-error=false)")
				break
			}
		}

		if i < len(urls)-1 && bc.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个URL...", bc.batchDelay.Seconds())
			select {
			case <-ctx.Done():
			case <-time.After(bc.batchDelay):
			}
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()
	bc.printSummary(summary)

	return summary, ctx.Err()
}

// outputPathFor 计算单个会话的输出文件
// 后缀带上序号,同一域名的多个起始URL不会互相覆盖
func (bc *BatchCrawler) outputPathFor(index int, targetURL string) string {
	if bc.outputPath == "" {
		return ""
	}
	suffix := strconv.Itoa(index + 1)
	if domain, err := bc.normalizer.DomainOf(targetURL); err == nil && domain != "" {
		suffix += "_" + domain
	}
	return utils.SuffixPath(bc.outputPath, suffix)
}

// crawlSingleURL 爬取单个URL
func (bc *BatchCrawler) crawlSingleURL(ctx context.Context, index int, targetURL string) BatchResult {
	result := BatchResult{
		URL:         targetURL,
		ProcessedAt: time.Now(),
	}
	startTime := time.Now()

	session, err := bc.runner.Run(ctx, targetURL, bc.outputPathFor(index, targetURL))
	result.Duration = time.Since(startTime).Seconds()
	if session != nil {
		result.Records = session.Stats.Records
		result.OutputPath = session.OutputPath
	}
	if err != nil {
		result.Error = fmt.Errorf("爬取失败: %w", err)
		return result
	}

	result.Success = true
	return result
}

// printSummary 打印批量爬取摘要
func (bc *BatchCrawler) printSummary(summary *BatchSummary) {
	utils.Info("==================================================")
	utils.Info("📊 批量爬取摘要")
	utils.Info("==================================================")
	utils.Infof("总URL数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📦 总记录数: %d", summary.TotalRecords)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("失败的URL:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.URL, result.Error)
			}
		}
	}
}
