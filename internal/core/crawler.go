package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/scrapdynamics/internal/crawlers"
	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"github.com/RecoveryAshes/scrapdynamics/internal/utils"
	"golang.org/x/sync/errgroup"
)

// seedFetcher 起始页使用单独抓取策略的Fetcher (浏览器首页滚动)
type seedFetcher interface {
	FetchSeed(ctx context.Context, url string) (string, bool)
}

// nopReporter 不输出进度
type nopReporter struct{}

func (nopReporter) StartDepth(int, int, int) {}
func (nopReporter) Advance()                 {}
func (nopReporter) Finish()                  {}

// Crawler 深度受限的广度优先遍历
// 状态: Idle → Seeding → Expanding(1..Depth) → Done
type Crawler struct {
	seedURL  string
	domain   string
	settings models.CrawlSettings

	fetcher  models.Fetcher
	verifier models.Verifier
	reporter models.ProgressReporter
	monitor  *crawlers.ResourceMonitor

	store      *crawlers.URLStore
	normalizer *crawlers.LinkNormalizer

	// 本会话已尝试过的URL (无论成功与否都不再重试)
	attemptedMu sync.Mutex
	attempted   map[string]struct{}

	// 保护task和stats
	mu    sync.Mutex
	task  *models.CrawlTask
	stats models.TaskStats
}

// Option 爬取器选项
type Option func(*Crawler)

// WithReporter 设置进度报告器
func WithReporter(r models.ProgressReporter) Option {
	return func(c *Crawler) {
		if r != nil {
			c.reporter = r
		}
	}
}

// NewCrawler 创建爬取器
// 配置错误(非法正则、XPath、起始URL)在这里返回,遍历过程中不会再出现
func NewCrawler(seedURL string, settings models.CrawlSettings, fetcher models.Fetcher, verifier models.Verifier, opts ...Option) (*Crawler, error) {
	if fetcher == nil || verifier == nil {
		return nil, errors.New("fetcher和verifier不能为空")
	}

	settings = settings.Clone()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	seedURL = strings.TrimSpace(seedURL)
	if err := models.ValidateURL(seedURL); err != nil {
		return nil, fmt.Errorf("起始URL无效: %w", err)
	}

	if _, err := crawlers.RestrictByXPath("<html></html>", settings.XPathRestrictLinkCrawl); err != nil {
		return nil, err
	}

	store, err := crawlers.NewURLStoreFromSettings(settings)
	if err != nil {
		return nil, err
	}
	domain, err := store.Normalizer().DomainOf(seedURL)
	if err != nil {
		return nil, err
	}

	mode := models.ModeRequest
	if settings.SimulateHuman {
		mode = models.ModeBrowser
	}

	c := &Crawler{
		seedURL:    seedURL,
		domain:     domain,
		settings:   settings,
		fetcher:    fetcher,
		verifier:   verifier,
		reporter:   nopReporter{},
		store:      store,
		normalizer: store.Normalizer(),
		attempted:  make(map[string]struct{}),
		task:       models.NewCrawlTask(seedURL, domain, mode),
	}
	for _, opt := range opts {
		opt(c)
	}
	if settings.Workers == 0 {
		c.monitor = crawlers.NewResourceMonitor(crawlers.DefaultResourceMonitorConfig(settings.SimulateHuman))
	}
	return c, nil
}

// Start 执行遍历
// 单个URL的失败只记录并跳过;ctx取消时停止并返回ctx.Err(),已收集的记录保留
func (c *Crawler) Start(ctx context.Context) error {
	startTime := time.Now()
	c.mu.Lock()
	c.task.Status = models.TaskStatusRunning
	c.task.StartedAt = &startTime
	taskID := c.task.ID
	c.mu.Unlock()

	utils.Infof("🚀 开始爬取任务 [%s]", taskID)
	utils.Infof("起始URL: %s", c.seedURL)
	utils.Infof("域名: %s", c.domain)
	utils.Infof("深度: %d, 限制域名: %v, 抓取方式: %s", c.settings.Depth, c.settings.RestrictToDomain, c.task.Mode)

	c.setState(models.StateSeeding)
	c.seed(ctx)

	workers := c.workerCount()
	if c.settings.Depth > 0 {
		utils.Debugf("并发数: %d", workers)
	}

	for depth := 1; depth <= c.settings.Depth; depth++ {
		if ctx.Err() != nil {
			break
		}
		c.setState(models.StateExpanding)

		layer := c.store.Frontier()
		utils.Debugf("深度 %d/%d: 本层 %d 个链接", depth, c.settings.Depth, len(layer))
		c.reporter.StartDepth(depth, c.settings.Depth, len(layer))
		c.runLayer(ctx, layer, workers)

		c.mu.Lock()
		c.stats.DepthReached = depth
		c.mu.Unlock()
	}
	c.reporter.Finish()

	return c.finish(ctx, startTime)
}

// finish 更新任务状态和统计
func (c *Crawler) finish(ctx context.Context, startTime time.Time) error {
	end := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Records = c.store.Len()
	c.stats.Duration = end.Sub(startTime).Seconds()
	c.task.State = models.StateDone
	c.task.CompletedAt = &end
	c.task.Stats = c.stats

	if err := ctx.Err(); err != nil {
		c.task.Status = models.TaskStatusCancelled
		c.task.ErrorMessage = err.Error()
		utils.Warnf("⚠️  爬取被中断: 已收集 %d 条记录", c.stats.Records)
		return err
	}

	c.task.Status = models.TaskStatusCompleted
	utils.Infof("✅ 爬取任务完成: %d 条记录, 耗时 %.2f秒", c.stats.Records, c.stats.Duration)
	return nil
}

// seed 抓取起始页并写入账本,失败时账本保持为空
func (c *Crawler) seed(ctx context.Context) {
	c.claim(c.seedURL)

	var (
		content string
		ok      bool
	)
	if sf, isSeed := c.fetcher.(seedFetcher); isSeed {
		content, ok = sf.FetchSeed(ctx, c.seedURL)
	} else {
		content, ok = c.fetcher.Fetch(ctx, c.seedURL)
	}
	if !ok {
		c.count(func(s *models.TaskStats) { s.FetchFailed++ })
		utils.Warnf("起始页抓取失败: %s", c.seedURL)
		return
	}

	restricted, err := crawlers.RestrictByXPath(content, c.settings.XPathRestrictLinkCrawl)
	if err != nil {
		utils.Warnf("XPath限制失败,使用完整页面: %v", err)
		restricted = content
	}

	if _, err := c.store.Add(c.seedURL, restricted); err != nil {
		utils.Warnf("起始页记录失败: %v", err)
	}
}

// runLayer 处理一层链接
// workers为1时按顺序处理;否则使用有界errgroup
func (c *Crawler) runLayer(ctx context.Context, layer []string, workers int) {
	if workers <= 1 {
		for _, link := range layer {
			if ctx.Err() != nil {
				return
			}
			c.visit(ctx, link)
			c.reporter.Advance()
		}
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, link := range layer {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			c.visit(gctx, link)
			c.reporter.Advance()
			return nil
		})
	}
	_ = g.Wait()
}

// visit 校验、抓取并记录单个URL,所有失败都降级为跳过
func (c *Crawler) visit(ctx context.Context, link string) {
	if c.settings.RestrictToDomain && !c.inDomain(link) {
		c.count(func(s *models.TaskStats) { s.SkippedDomain++ })
		return
	}
	if !c.claim(link) {
		c.count(func(s *models.TaskStats) { s.SkippedVisited++ })
		return
	}

	if err := c.verify(ctx, link); err != nil {
		var tooMany *models.TooManyRedirectsError
		if errors.As(err, &tooMany) {
			c.count(func(s *models.TaskStats) { s.TooManyRedirect++ })
			utils.Warnf("跳过: %v", err)
		} else {
			c.count(func(s *models.TaskStats) { s.VerifyFailed++ })
			utils.Debugf("跳过: %v", err)
		}
		return
	}
	c.count(func(s *models.TaskStats) { s.Verified++ })

	content, ok := c.fetcher.Fetch(ctx, link)
	if !ok {
		c.count(func(s *models.TaskStats) { s.FetchFailed++ })
		utils.Debugf("抓取失败,跳过: %s", link)
		return
	}

	if _, err := c.store.Add(link, content); err != nil {
		utils.Warnf("跳过: %v", err)
	}
}

// verify 校验URL,301/302按Location继续校验,最多跟随MaxRedirects跳
func (c *Crawler) verify(ctx context.Context, link string) error {
	current := link
	chain := []string{link}

	for hops := 0; ; hops++ {
		result := c.verifier.Verify(ctx, current)
		if result.OK {
			return nil
		}
		if result.RedirectTo == "" {
			return &models.VerificationError{URL: current, StatusCode: result.StatusCode, Reason: result.Reason}
		}
		if hops >= c.settings.MaxRedirects {
			return &models.TooManyRedirectsError{URL: link, Hops: hops, Chain: chain}
		}
		current = c.normalizer.Normalize(current, result.RedirectTo)
		chain = append(chain, current)
	}
}

// inDomain 检查URL的主机是否包含起始域名
func (c *Crawler) inDomain(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.Contains(parsed.Host, c.domain)
}

// claim 标记URL为已尝试,已在账本或已尝试过时返回false
func (c *Crawler) claim(link string) bool {
	if c.store.Has(link) {
		return false
	}
	c.attemptedMu.Lock()
	defer c.attemptedMu.Unlock()
	if _, seen := c.attempted[link]; seen {
		return false
	}
	c.attempted[link] = struct{}{}
	return true
}

// workerCount 本次遍历的并发数
func (c *Crawler) workerCount() int {
	if c.settings.Workers > 0 {
		return c.settings.Workers
	}
	if c.monitor == nil {
		return 1
	}
	return c.monitor.CalculateMaxWorkers()
}

func (c *Crawler) count(update func(*models.TaskStats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
}

func (c *Crawler) setState(state models.CrawlState) {
	c.mu.Lock()
	c.task.State = state
	c.mu.Unlock()
}

// Project 把账本投影为列式表格
func (c *Crawler) Project() (*models.Table, error) {
	return c.store.Project()
}

// Records 返回所有记录 (按插入顺序)
func (c *Crawler) Records() []models.URLRecord {
	return c.store.Records()
}

// Domain 起始URL的域名
func (c *Crawler) Domain() string {
	return c.domain
}

// GetStats 获取统计信息
func (c *Crawler) GetStats() models.TaskStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.Records = c.store.Len()
	return stats
}

// Task 返回任务快照
func (c *Crawler) Task() models.CrawlTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.task
}

// BuildReport 生成爬取报告
func (c *Crawler) BuildReport(outputPath, format string, rows int) *models.CrawlReport {
	task := c.Task()
	report := &models.CrawlReport{
		TaskID:     task.ID,
		SeedURL:    task.SeedURL,
		Domain:     task.Domain,
		Mode:       task.Mode,
		Stats:      c.GetStats(),
		OutputPath: outputPath,
		Format:     format,
		Rows:       rows,
		Settings:   c.settings.Clone(),
	}
	if task.StartedAt != nil {
		report.StartTime = *task.StartedAt
	}
	if task.CompletedAt != nil {
		report.EndTime = *task.CompletedAt
	}
	report.Duration = report.Stats.Duration
	return report
}
