package crawlers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// ErrPoolClosed 标签页池已关闭
var ErrPoolClosed = errors.New("标签页池已关闭")

// PagePool 标签页池
// 职责: 复用浏览器标签页,数量不超过maxSize,协调并发worker的访问
type PagePool struct {
	browser *rod.Browser

	// 所有已创建的标签页
	pages []*rod.Page

	// 空闲标签页
	available chan *rod.Page

	maxSize int

	// 保护pages和closed
	mu     sync.Mutex
	closed bool
}

// NewPagePool 创建标签页池
func NewPagePool(browser *rod.Browser, maxSize int) *PagePool {
	if maxSize < 1 {
		maxSize = 1
	}
	return &PagePool{
		browser:   browser,
		pages:     make([]*rod.Page, 0, maxSize),
		available: make(chan *rod.Page, maxSize),
		maxSize:   maxSize,
	}
}

// AcquirePage 获取一个空闲标签页
// 池未满时新建,否则阻塞直到有标签页归还或ctx取消
func (pp *PagePool) AcquirePage(ctx context.Context) (*rod.Page, error) {
	select {
	case page, ok := <-pp.available:
		if !ok {
			return nil, ErrPoolClosed
		}
		return page, nil
	default:
	}

	pp.mu.Lock()
	if pp.closed {
		pp.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if len(pp.pages) < pp.maxSize {
		page, err := pp.browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			pp.mu.Unlock()
			return nil, fmt.Errorf("创建标签页失败(浏览器可能已崩溃): %w", err)
		}
		pp.pages = append(pp.pages, page)
		log.Debug().Msgf("创建新标签页,当前标签页数: %d, 最大限制: %d", len(pp.pages), pp.maxSize)
		pp.mu.Unlock()
		return page, nil
	}
	pp.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case page, ok := <-pp.available:
		if !ok {
			return nil, ErrPoolClosed
		}
		return page, nil
	}
}

// ReleasePage 归还标签页
// 标签页导航到空白页失败时视为损坏,直接销毁
func (pp *PagePool) ReleasePage(page *rod.Page) {
	if page == nil {
		return
	}

	if err := page.Navigate("about:blank"); err != nil {
		log.Warn().Err(err).Msg("重置标签页失败,销毁该标签页")
		pp.destroyPage(page)
		return
	}

	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.closed {
		_ = page.Close()
		return
	}
	select {
	case pp.available <- page:
	default:
		pp.removeLocked(page)
		_ = page.Close()
	}
}

// destroyPage 关闭标签页并从池中移除
func (pp *PagePool) destroyPage(page *rod.Page) {
	pp.mu.Lock()
	pp.removeLocked(page)
	remaining := len(pp.pages)
	pp.mu.Unlock()

	if err := page.Close(); err != nil {
		log.Warn().Err(err).Msg("关闭标签页失败")
	}
	log.Debug().Msgf("销毁标签页,当前标签页数: %d", remaining)
}

func (pp *PagePool) removeLocked(page *rod.Page) {
	for i, p := range pp.pages {
		if p == page {
			pp.pages = append(pp.pages[:i], pp.pages[i+1:]...)
			return
		}
	}
}

// CurrentSize 返回已创建的标签页数
func (pp *PagePool) CurrentSize() int {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	return len(pp.pages)
}

// MaxSize 返回标签页上限
func (pp *PagePool) MaxSize() int {
	return pp.maxSize
}

// Close 关闭所有标签页
func (pp *PagePool) Close() error {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	if pp.closed {
		return nil
	}
	pp.closed = true

	for _, page := range pp.pages {
		if err := page.Close(); err != nil {
			log.Warn().Err(err).Msg("关闭标签页失败")
		}
	}
	pp.pages = nil
	close(pp.available)

	log.Debug().Msg("标签页池已关闭")
	return nil
}
