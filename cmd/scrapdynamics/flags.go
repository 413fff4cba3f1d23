package main

import (
	"github.com/RecoveryAshes/scrapdynamics/internal/core"
	"github.com/spf13/cobra"
)

// registerFlags 注册命令行参数
// 默认值仅用于帮助信息,未显式指定的参数不会覆盖配置文件
func registerFlags(cmd *cobra.Command) {
	// 全局参数
	pf := cmd.PersistentFlags()
	pf.StringP("config", "c", "", "配置文件路径 (默认搜索 ./configs/config.yaml)")
	pf.String("log-level", "", "日志级别 (trace|debug|info|warn|error)")
	pf.StringArrayP("header", "H", nil, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	pf.String("headers-config", "", "请求头配置文件 (默认 configs/headers.yaml)")
	pf.Bool("validate-config", false, "验证请求头配置并显示生效的头部")

	// 爬取参数
	f := cmd.Flags()
	f.StringP("url", "u", "", "起始URL (必需,除非使用 --url-file)")
	f.StringP("url-file", "f", "", "包含URL列表的文件路径 (每行一个)")
	f.StringP("output", "o", "", "结果文件,扩展名决定格式 (.json|.csv|.xlsx|.md|.db)")
	f.IntP("depth", "d", 1, "爬取深度 (0表示只抓取起始页)")
	f.IntP("workers", "w", 1, "并发数 (0表示按系统资源自动计算)")
	f.Int("timeout", 3, "单次请求超时(秒),0表示不限")
	f.Int("max-redirects", 10, "校验阶段最多跟随的重定向次数")
	f.StringArrayP("expression", "e", nil, "抽取表达式,格式: name=regex;name= 表示禁用,可多次指定")
	f.Bool("restrict", true, "只爬取起始域名下的链接")
	f.String("xpath", "", "只从起始页中该XPath选中的部分发现链接")
	f.StringSlice("content-type", nil, "允许抓取的Content-Type (逗号分隔)")

	// 浏览器参数
	f.Bool("browser", false, "使用无头浏览器抓取")
	f.Bool("headless", true, "浏览器无头模式")
	f.Bool("scroll-all", false, "每个页面都滚动到底部")
	f.Bool("no-scroll-first", false, "不滚动起始页")

	// 展示与报告
	f.Bool("no-progress", false, "不显示进度条")
	f.Bool("no-show", false, "结束后不在终端打印结果表格")
	f.Bool("report", false, "生成JSON爬取报告")

	// 批量处理参数
	f.Int("batch-delay", 1, "批量处理URL间延迟(秒)")
	f.Bool("continue-on-error", true, "遇到错误继续处理下一个URL")
}

// collectOverrides 收集显式指定的命令行参数
func collectOverrides(cmd *cobra.Command) (core.CLIOverrides, error) {
	var o core.CLIOverrides

	o.Depth = changedInt(cmd, "depth")
	o.Workers = changedInt(cmd, "workers")
	o.Timeout = changedInt(cmd, "timeout")
	o.MaxRedirects = changedInt(cmd, "max-redirects")
	o.Restrict = changedBool(cmd, "restrict", false)
	o.Browser = changedBool(cmd, "browser", false)
	o.Headless = changedBool(cmd, "headless", false)
	o.ScrollAll = changedBool(cmd, "scroll-all", false)
	o.ScrollFirst = changedBool(cmd, "no-scroll-first", true)
	o.ProgressBar = changedBool(cmd, "no-progress", true)
	o.ShowResults = changedBool(cmd, "no-show", true)
	o.Report = changedBool(cmd, "report", false)
	o.XPath = changedString(cmd, "xpath")
	o.OutputPath = changedString(cmd, "output")
	o.LogLevel = changedString(cmd, "log-level")
	o.HeadersFile = changedString(cmd, "headers-config")

	if cmd.Flags().Changed("content-type") {
		o.ContentTypes, _ = cmd.Flags().GetStringSlice("content-type")
	}
	if cmd.Flags().Changed("expression") {
		values, _ := cmd.Flags().GetStringArray("expression")
		exprs, err := ParseExpressions(values)
		if err != nil {
			return o, err
		}
		o.Expressions = exprs
	}
	return o, nil
}

func changedInt(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return nil
	}
	return &v
}

// changedBool invert用于 --no-xxx 形式的参数
func changedBool(cmd *cobra.Command, name string, invert bool) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return nil
	}
	if invert {
		v = !v
	}
	return &v
}

func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil
	}
	return &v
}
