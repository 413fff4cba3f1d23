// Package crawlers 提供广度优先爬取所需的页面处理组件
//
// # 核心组件
//
// ## LinkNormalizer
//
// 按配置的替换规则把页面中的原始href改写为绝对URL:
// 协议相对链接 (//host/path) 补全 https:,根相对链接 (/path) 补全页面所在域名,
// 其他形式原样保留。DomainOf 提取URL的域名(去掉协议和www.)。
//
//	n, err := NewLinkNormalizer(models.DefaultCrawlSettings())
//	n.Normalize("https://example.org/page", "/a/b") // https://example.org/a/b
//
// ## ExtractionEngine
//
// 构造时一次性编译全部表达式(Perl/.NET语法,支持环视),表达式非法时返回
// *models.ConfigError。Extract 对每个表达式做全局匹配,取捕获组1或整个匹配。
//
// ## URLStore (已访问URL账本)
//
// 每个URL只保存一条记录;Add 在锁外解析页面,在锁内原子地检查并插入,
// 可被多个worker并发调用。Frontier 按插入顺序拼接所有记录的链接,作为下一层的输入。
//
//	store, err := NewURLStoreFromSettings(settings)
//	added, err := store.Add(url, html)
//	next := store.Frontier()
//	table, err := store.Project()
//
// ## RequestFetcher / HeadVerifier
//
// 基于Colly的GET抓取和HEAD校验。校验不跟随重定向,301/302的Location交给
// 调用方规范化后再次校验,由调用方限制跳数。
//
// ## BrowserFetcher / PagePool
//
// 基于go-rod的脚本化浏览器抓取,可滚动到底部触发懒加载。PagePool 复用标签页,
// 数量不超过worker数。
//
// ## ResourceMonitor
//
// 根据可用内存(gopsutil)和CPU负载估算并发上限,worker数配置为0时使用。
package crawlers
