package models

import (
	"fmt"
	"sort"
)

const (
	// DefaultLinkFindall 链接发现表达式 (捕获组1为href值)
	DefaultLinkFindall = `href="((?:https?|/\w|//\w).+?)"`

	// DefaultDomainFindall 域名提取表达式 (捕获组1为域名)
	DefaultDomainFindall = `https?://(?:www\.)?([^/\s'"]+)`

	// DomainPlaceholder 相对链接替换模板中的域名占位符
	DomainPlaceholder = "{domain}"

	// DefaultUserAgent 默认User-Agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/114.0.0.0 Safari/537.36"

	// DefaultMaxRedirects 校验阶段跟随重定向的最大跳数
	DefaultMaxRedirects = 10
)

// Substitution 正则替换规则: 匹配Pattern时按Replacement改写
type Substitution struct {
	Pattern     string `json:"pattern" mapstructure:"pattern"`
	Replacement string `json:"replacement" mapstructure:"replacement"`
}

// CrawlSettings 爬取配置
// 构造后对遍历过程只读,每个会话持有自己的副本
type CrawlSettings struct {
	// 链接处理
	LinkFindall           string       `json:"link_findall" mapstructure:"link_findall"`
	LinkSchemaRelativeSub Substitution `json:"link_schema_relative_sub" mapstructure:"link_schema_relative_sub"`
	LinkRelativeSub       Substitution `json:"link_relative_sub" mapstructure:"link_relative_sub"`
	DomainFindall         string       `json:"domain_findall" mapstructure:"domain_findall"`

	// 抽取表达式: 名称 -> 正则 (空字符串表示禁用)
	SearchExpressions map[string]string `json:"search_expressions" mapstructure:"search_expressions"`

	// 遍历
	RestrictToDomain bool     `json:"restrict_to_domain" mapstructure:"restrict_to_domain"`
	Depth            int      `json:"depth" mapstructure:"depth"`
	MaxRedirects     int      `json:"max_redirects" mapstructure:"max_redirects"`
	Workers          int      `json:"workers" mapstructure:"workers"` // 0 表示按系统资源自动计算
	ValidContentType []string `json:"valid_content_type" mapstructure:"valid_content_type"`

	// 种子页面XPath限制 (仅作用于起始页)
	XPathRestrictLinkCrawl string `json:"xpath_restrict_link_crawl" mapstructure:"xpath_restrict_link_crawl"`

	// 抓取方式
	SimulateHuman   bool `json:"simulate_human" mapstructure:"simulate_human"` // 使用脚本化浏览器
	ScrollFirstPage bool `json:"scroll_first_page" mapstructure:"scroll_first_page"`
	ScrollAllPages  bool `json:"scroll_all_page" mapstructure:"scroll_all_page"`
	Headless        bool `json:"headless" mapstructure:"headless"`
	Timeout         int  `json:"get_timeout" mapstructure:"get_timeout"` // 秒

	// 展示
	ProgressBar bool `json:"progress_bar" mapstructure:"progress_bar"`
}

// DefaultSearchExpressions 默认抽取表达式,每次调用返回新的map
func DefaultSearchExpressions() map[string]string {
	return map[string]string{
		"emails": `[\w\-\.]+?\@[\w\-\.]+?\.[\w]+`,
		"phones": `(?:tel\:)(\+?[\d\-\ ]{6,20})(?!\d)`,
		"title":  `(?:<title>|<meta.*?property="og:title".*?content=")(.*?)(?:</title>|".*?>)`,
	}
}

// DefaultCrawlSettings 返回默认配置
// 所有map和切片都是新分配的,修改返回值不会影响其他实例
func DefaultCrawlSettings() CrawlSettings {
	return CrawlSettings{
		LinkFindall: DefaultLinkFindall,
		LinkSchemaRelativeSub: Substitution{
			Pattern:     `(^(?://\w).*?$)`,
			Replacement: `https:$1`,
		},
		LinkRelativeSub: Substitution{
			Pattern:     `(^/\w.+?$)`,
			Replacement: `https://` + DomainPlaceholder + `$1`,
		},
		DomainFindall:          DefaultDomainFindall,
		SearchExpressions:      DefaultSearchExpressions(),
		RestrictToDomain:       true,
		Depth:                  1,
		MaxRedirects:           DefaultMaxRedirects,
		Workers:                1,
		ValidContentType:       []string{"text/html"},
		XPathRestrictLinkCrawl: "/html",
		ScrollFirstPage:        true,
		Headless:               true,
		Timeout:                3,
		ProgressBar:            true,
	}
}

// Clone 深拷贝配置
func (s CrawlSettings) Clone() CrawlSettings {
	out := s
	out.SearchExpressions = make(map[string]string, len(s.SearchExpressions))
	for k, v := range s.SearchExpressions {
		out.SearchExpressions[k] = v
	}
	out.ValidContentType = append([]string(nil), s.ValidContentType...)
	return out
}

// ExpressionNames 返回已启用的抽取表达式名称(排序后)
func (s CrawlSettings) ExpressionNames() []string {
	names := make([]string, 0, len(s.SearchExpressions))
	for name, pattern := range s.SearchExpressions {
		if pattern == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate 验证配置
func (s *CrawlSettings) Validate() error {
	if s.Depth < 0 {
		return &ConfigError{Field: "depth", Cause: fmt.Errorf("深度不能为负数: %d", s.Depth)}
	}
	if s.MaxRedirects < 0 {
		return &ConfigError{Field: "max_redirects", Cause: fmt.Errorf("重定向次数不能为负数: %d", s.MaxRedirects)}
	}
	if s.Workers < 0 {
		return &ConfigError{Field: "workers", Cause: fmt.Errorf("并发数不能为负数: %d", s.Workers)}
	}
	if s.Timeout < 0 || s.Timeout > 120 {
		return &ConfigError{Field: "get_timeout", Cause: fmt.Errorf("超时时间必须在0-120秒之间: %d", s.Timeout)}
	}
	if s.LinkFindall == "" {
		return &ConfigError{Field: "link_findall", Cause: fmt.Errorf("链接发现表达式不能为空")}
	}
	if s.DomainFindall == "" {
		return &ConfigError{Field: "domain_findall", Cause: fmt.Errorf("域名表达式不能为空")}
	}
	for name := range s.SearchExpressions {
		if reservedColumns[name] {
			return &ConfigError{Field: "search_expressions", Cause: fmt.Errorf("表达式名称与固定列冲突: %s", name)}
		}
	}
	return nil
}
