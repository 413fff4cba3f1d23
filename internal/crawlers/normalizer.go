package crawlers

import (
	"strings"
	"time"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"github.com/RecoveryAshes/scrapdynamics/internal/utils"
	"github.com/dlclark/regexp2"
)

// patternTimeout 单个正则匹配的超时时间,防止回溯爆炸卡住遍历
const patternTimeout = 2 * time.Second

// compilePattern 编译配置中的正则表达式
// 表达式使用Perl/.NET语法 (支持环视)
func compilePattern(field, expr string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, &models.ConfigError{Field: field, Cause: err}
	}
	re.MatchTimeout = patternTimeout
	return re, nil
}

// LinkNormalizer 链接规范化器
// 把页面中的原始href改写为绝对URL
type LinkNormalizer struct {
	schemaRelative    *regexp2.Regexp
	schemaReplacement string
	rootRelative      *regexp2.Regexp
	rootReplacement   string
	domain            *regexp2.Regexp
}

// NewLinkNormalizer 根据配置创建规范化器
func NewLinkNormalizer(settings models.CrawlSettings) (*LinkNormalizer, error) {
	schemaRelative, err := compilePattern("link_schema_relative_sub", settings.LinkSchemaRelativeSub.Pattern)
	if err != nil {
		return nil, err
	}
	rootRelative, err := compilePattern("link_relative_sub", settings.LinkRelativeSub.Pattern)
	if err != nil {
		return nil, err
	}
	domain, err := compilePattern("domain_findall", settings.DomainFindall)
	if err != nil {
		return nil, err
	}

	return &LinkNormalizer{
		schemaRelative:    schemaRelative,
		schemaReplacement: settings.LinkSchemaRelativeSub.Replacement,
		rootRelative:      rootRelative,
		rootReplacement:   settings.LinkRelativeSub.Replacement,
		domain:            domain,
	}, nil
}

// DomainOf 提取URL的域名 (去掉协议和可选的www.)
func (n *LinkNormalizer) DomainOf(rawURL string) (string, error) {
	m, err := n.domain.FindStringMatch(rawURL)
	if err != nil || m == nil {
		return "", &models.MalformedURLError{URL: rawURL}
	}
	if m.GroupCount() > 1 {
		if g := m.GroupByNumber(1); g != nil && g.String() != "" {
			return g.String(), nil
		}
		return "", &models.MalformedURLError{URL: rawURL}
	}
	return m.String(), nil
}

// Normalize 规范化页面pageURL上发现的链接rawLink
//  1. 协议相对链接 (//host/path) 补全为 https:
//  2. 根相对链接 (/path) 补全为 https://<页面域名>
//  3. 其他形式原样返回
func (n *LinkNormalizer) Normalize(pageURL, rawLink string) string {
	link := rawLink

	rewritten, err := n.schemaRelative.Replace(link, n.schemaReplacement, -1, -1)
	if err != nil {
		utils.Debugf("协议相对链接改写失败 [%s]: %v", rawLink, err)
	} else {
		link = rewritten
	}

	domain, err := n.DomainOf(pageURL)
	if err != nil {
		return link
	}

	// $ 在替换模板中有特殊含义
	replacement := strings.ReplaceAll(n.rootReplacement, models.DomainPlaceholder, strings.ReplaceAll(domain, "$", "$$"))
	rewritten, err = n.rootRelative.Replace(link, replacement, -1, -1)
	if err != nil {
		utils.Debugf("根相对链接改写失败 [%s]: %v", rawLink, err)
		return link
	}
	return rewritten
}
