package crawlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"github.com/RecoveryAshes/scrapdynamics/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// ErrBrowserUnavailable 浏览器无法启动或连接
var ErrBrowserUnavailable = errors.New("浏览器不可用")

const (
	// scrollPollInterval 滚动后检查页面高度的间隔
	scrollPollInterval = 50 * time.Millisecond
	// scrollPollTimes 高度连续不变的检查次数,达到后认为已到底部
	scrollPollTimes = 20
	// maxScrollRounds 单页最多滚动轮数
	maxScrollRounds = 500
)

// BrowserFetcher 脚本化浏览器抓取器(使用Rod)
// 页面加载后可滚动到底部以触发懒加载内容
type BrowserFetcher struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	pool     *PagePool

	headerProvider models.HeaderProvider
	timeout        time.Duration

	scrollFirstPage bool
	scrollAllPages  bool
}

// BrowserOptions 浏览器抓取器选项
type BrowserOptions struct {
	Headless        bool
	Timeout         time.Duration
	ScrollFirstPage bool
	ScrollAllPages  bool
	MaxPages        int // 标签页上限,与worker数一致
}

// NewBrowserFetcher 启动浏览器并创建抓取器
func NewBrowserFetcher(opts BrowserOptions, headerProvider models.HeaderProvider) (*BrowserFetcher, error) {
	l := launcher.New().Headless(opts.Headless)

	// 允许访问自签名、过期或主机名不匹配的HTTPS站点
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: 启动浏览器失败: %v", ErrBrowserUnavailable, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: 连接浏览器失败: %v", ErrBrowserUnavailable, err)
	}
	utils.Debugf("浏览器已启动: %s (headless=%v)", controlURL, opts.Headless)

	return &BrowserFetcher{
		launcher:        l,
		browser:         browser,
		pool:            NewPagePool(browser, opts.MaxPages),
		headerProvider:  headerProvider,
		timeout:         opts.Timeout,
		scrollFirstPage: opts.ScrollFirstPage,
		scrollAllPages:  opts.ScrollAllPages,
	}, nil
}

// Fetch 抓取普通页面,仅在ScrollAllPages时滚动
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (string, bool) {
	return f.fetch(ctx, pageURL, f.scrollAllPages)
}

// FetchSeed 抓取起始页,ScrollFirstPage或ScrollAllPages时滚动
func (f *BrowserFetcher) FetchSeed(ctx context.Context, pageURL string) (string, bool) {
	return f.fetch(ctx, pageURL, f.scrollFirstPage || f.scrollAllPages)
}

// fetch 导航到页面并返回渲染后的HTML
// rod的Must系列及CDP错误可能panic,这里统一恢复为失败
func (f *BrowserFetcher) fetch(ctx context.Context, pageURL string, scroll bool) (content string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("浏览器抓取panic: URL=%s, 错误=%v", pageURL, r)
			content, ok = "", false
		}
	}()

	page, err := f.pool.AcquirePage(ctx)
	if err != nil {
		utils.Warnf("获取标签页失败 [%s]: %v", pageURL, err)
		return "", false
	}
	defer f.pool.ReleasePage(page)

	if cleanup := f.applyHeaders(page); cleanup != nil {
		defer cleanup()
	}

	navCtx, cancel := fetchContext(ctx, f.timeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(pageURL); err != nil {
		utils.Warnf("%v", &models.FetchError{URL: pageURL, Cause: err})
		return "", false
	}
	if err := p.WaitLoad(); err != nil {
		utils.Warnf("等待页面加载失败 [%s]: %v", pageURL, err)
		return "", false
	}

	if scroll {
		// 滚动不受单次导航超时限制
		if err := scrollToEnd(ctx, page.Context(ctx)); err != nil {
			utils.Debugf("滚动页面中断 [%s]: %v", pageURL, err)
		}
	}

	html, err := page.Context(ctx).HTML()
	if err != nil {
		utils.Warnf("读取页面HTML失败 [%s]: %v", pageURL, err)
		return "", false
	}
	return html, true
}

// fetchContext 单次导航的context,timeout<=0时不限时
// 返回的cancel必须调用,否则计时器要到超时才释放
func fetchContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// applyHeaders 为标签页设置额外请求头,返回恢复函数
func (f *BrowserFetcher) applyHeaders(page *rod.Page) func() {
	if f.headerProvider == nil {
		return nil
	}
	headers, err := f.headerProvider.GetHeaders()
	if err != nil {
		utils.Warnf("获取HTTP头部失败: %v", err)
		return nil
	}
	dict := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		// 浏览器自行协商压缩
		if len(values) == 0 || name == "Accept-Encoding" {
			continue
		}
		dict = append(dict, name, values[0])
	}
	if len(dict) == 0 {
		return nil
	}
	cleanup, err := page.SetExtraHeaders(dict)
	if err != nil {
		utils.Warnf("设置请求头失败: %v", err)
		return nil
	}
	return cleanup
}

// scrollToEnd 反复滚动到页面底部,直到高度在 scrollPollTimes 次检查内不再变化
func scrollToEnd(ctx context.Context, page *rod.Page) error {
	height := func() (int, error) {
		res, err := page.Eval(`() => document.body.scrollHeight`)
		if err != nil {
			return 0, err
		}
		return res.Value.Int(), nil
	}

	last, err := height()
	if err != nil {
		return err
	}

	for round := 0; round < maxScrollRounds; round++ {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return err
		}

		grown := false
		for i := 0; i < scrollPollTimes; i++ {
			current, err := height()
			if err != nil {
				return err
			}
			if current != last {
				last = current
				grown = true
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(scrollPollInterval):
			}
		}
		if !grown {
			return nil
		}
	}
	utils.Debugf("滚动轮数达到上限 %d", maxScrollRounds)
	return nil
}

// Close 关闭标签页池和浏览器
func (f *BrowserFetcher) Close() error {
	if err := f.pool.Close(); err != nil {
		utils.Warnf("关闭标签页池失败: %v", err)
	}
	err := f.browser.Close()
	f.launcher.Kill()
	utils.Debugf("浏览器已关闭")
	return err
}
