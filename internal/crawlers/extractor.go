package crawlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"github.com/RecoveryAshes/scrapdynamics/internal/utils"
	"github.com/antchfx/htmlquery"
	"github.com/dlclark/regexp2"
)

// namedPattern 已编译的抽取表达式
type namedPattern struct {
	name string
	re   *regexp2.Regexp
}

// ExtractionEngine 正则抽取引擎
// 构造时编译全部表达式,之后只读,可并发使用
type ExtractionEngine struct {
	links    *regexp2.Regexp
	patterns []namedPattern
}

// NewExtractionEngine 编译链接发现表达式和抽取表达式
// 空表达式视为禁用,不会出现在结果中
func NewExtractionEngine(settings models.CrawlSettings) (*ExtractionEngine, error) {
	links, err := compilePattern("link_findall", settings.LinkFindall)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(settings.SearchExpressions))
	for name := range settings.SearchExpressions {
		names = append(names, name)
	}
	sort.Strings(names)

	patterns := make([]namedPattern, 0, len(names))
	for _, name := range names {
		expr := settings.SearchExpressions[name]
		if expr == "" {
			utils.Debugf("抽取表达式 %s 为空,已跳过", name)
			continue
		}
		re, err := compilePattern("search_expressions."+name, expr)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, namedPattern{name: name, re: re})
	}

	return &ExtractionEngine{links: links, patterns: patterns}, nil
}

// Names 返回已启用的表达式名称 (排序后)
func (e *ExtractionEngine) Names() []string {
	names := make([]string, len(e.patterns))
	for i, p := range e.patterns {
		names[i] = p.name
	}
	return names
}

// Extract 对文本执行全部表达式
// 每个匹配取捕获组1(无捕获组时取整个匹配),去除首尾空白,保持出现顺序
func (e *ExtractionEngine) Extract(text string) map[string][]string {
	result := make(map[string][]string, len(e.patterns))
	for _, p := range e.patterns {
		matches := findAll(p.re, text)
		for i := range matches {
			matches[i] = strings.TrimSpace(matches[i])
		}
		result[p.name] = matches
	}
	return result
}

// Links 返回文本中发现的原始链接 (未规范化,文档顺序,保留重复)
func (e *ExtractionEngine) Links(text string) []string {
	return findAll(e.links, text)
}

// findAll 全局匹配,返回捕获组1或整个匹配
func findAll(re *regexp2.Regexp, text string) []string {
	out := make([]string, 0)
	m, err := re.FindStringMatch(text)
	for m != nil {
		if m.GroupCount() > 1 {
			out = append(out, m.GroupByNumber(1).String())
		} else {
			out = append(out, m.String())
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		utils.Warnf("正则匹配中断 (%s): %v", re.String(), err)
	}
	return out
}

// RestrictByXPath 只保留XPath选中的节点
// 每个节点序列化为HTML后以换行拼接;xpath为空时原样返回
func RestrictByXPath(content, xpath string) (string, error) {
	if xpath == "" {
		return content, nil
	}

	doc, err := htmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("解析HTML失败: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, xpath)
	if err != nil {
		return "", &models.ConfigError{Field: "xpath_restrict_link_crawl", Cause: err}
	}

	parts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		parts = append(parts, htmlquery.OutputHTML(node, true))
	}
	return strings.Join(parts, "\n"), nil
}
