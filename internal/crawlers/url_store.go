package crawlers

import (
	"fmt"
	"sync"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
)

// URLStore 已访问URL账本
// 职责: 每个URL只保存一条记录,按插入顺序提供下一层的候选链接,并发安全
type URLStore struct {
	// 插入顺序的记录
	records []*models.URLRecord

	// URL -> records下标
	index map[string]int

	// 保护records和index的读写锁
	mu sync.RWMutex

	normalizer *LinkNormalizer
	engine     *ExtractionEngine
}

// NewURLStore 创建URL账本
func NewURLStore(normalizer *LinkNormalizer, engine *ExtractionEngine) *URLStore {
	return &URLStore{
		records:    make([]*models.URLRecord, 0),
		index:      make(map[string]int),
		normalizer: normalizer,
		engine:     engine,
	}
}

// NewURLStoreFromSettings 按配置编译表达式并创建账本
// 表达式非法时返回 *models.ConfigError
func NewURLStoreFromSettings(settings models.CrawlSettings) (*URLStore, error) {
	normalizer, err := NewLinkNormalizer(settings)
	if err != nil {
		return nil, err
	}
	engine, err := NewExtractionEngine(settings)
	if err != nil {
		return nil, err
	}
	return NewURLStore(normalizer, engine), nil
}

// Normalizer 返回账本使用的链接规范化器
func (s *URLStore) Normalizer() *LinkNormalizer {
	return s.normalizer
}

// Add 记录已抓取的URL
// URL已存在时不做任何事并返回false;无法提取域名时返回 *models.MalformedURLError
func (s *URLStore) Add(rawURL, content string) (bool, error) {
	if s.Has(rawURL) {
		return false, nil
	}

	record, err := s.buildRecord(rawURL, content)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 并发调用时可能已被其他worker写入
	if _, exists := s.index[rawURL]; exists {
		return false, nil
	}
	s.index[rawURL] = len(s.records)
	s.records = append(s.records, record)
	return true, nil
}

// buildRecord 解析页面内容生成记录 (不持锁)
func (s *URLStore) buildRecord(rawURL, content string) (*models.URLRecord, error) {
	domain, err := s.normalizer.DomainOf(rawURL)
	if err != nil {
		return nil, fmt.Errorf("记录URL失败: %w", err)
	}

	rawLinks := s.engine.Links(content)
	links := make([]string, len(rawLinks))
	for i, raw := range rawLinks {
		links[i] = s.normalizer.Normalize(rawURL, raw)
	}

	return &models.URLRecord{
		URL:         rawURL,
		Domain:      domain,
		Links:       links,
		Extractions: s.engine.Extract(content),
	}, nil
}

// Has 检查URL是否已记录
func (s *URLStore) Has(rawURL string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[rawURL]
	return ok
}

// Len 返回记录数
func (s *URLStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Frontier 按插入顺序拼接所有记录的链接
// 结果可能包含重复和已访问的URL
func (s *URLStore) Frontier() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, r := range s.records {
		total += len(r.Links)
	}
	frontier := make([]string, 0, total)
	for _, r := range s.records {
		frontier = append(frontier, r.Links...)
	}
	return frontier
}

// Records 返回记录快照
func (s *URLStore) Records() []models.URLRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.URLRecord, len(s.records))
	for i, r := range s.records {
		out[i] = *r
	}
	return out
}

// Project 把账本投影为列式结果表
func (s *URLStore) Project() (*models.Table, error) {
	return Project(s.Records())
}
