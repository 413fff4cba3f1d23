package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"github.com/RecoveryAshes/scrapdynamics/internal/utils"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀,如 SCRAPDYNAMICS_CRAWL_DEPTH
const EnvPrefix = "SCRAPDYNAMICS"

// Config 应用程序配置
type Config struct {
	Crawl   models.CrawlSettings `mapstructure:"crawl"`
	Logging LoggingConfig        `mapstructure:"logging"`
	Output  OutputConfig         `mapstructure:"output"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// LogConfig 转换为日志系统的初始化参数
func (c LoggingConfig) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Level,
		LogDir:     c.LogDir,
		MaxSize:    c.Rotation.MaxSize,
		MaxBackups: c.Rotation.MaxBackups,
		MaxAge:     c.Rotation.MaxAge,
		Compress:   c.Rotation.Compress,
	}
}

// OutputConfig 输出配置
type OutputConfig struct {
	Path        string `mapstructure:"path"`         // 结果文件,扩展名决定格式;为空时只打印
	ReportDir   string `mapstructure:"report_dir"`   // 报告目录
	Report      bool   `mapstructure:"report"`       // 是否生成JSON报告
	ShowResults bool   `mapstructure:"show_results"` // 结束后在终端打印Markdown表格
	HeadersFile string `mapstructure:"headers_file"` // 请求头配置文件
}

// LoadConfig 加载配置文件
// configPath为空时依次搜索 ./configs, . 和 ~/.scrapdynamics 下的 config.yaml;找不到则使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".scrapdynamics"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: fmt.Errorf("读取配置文件失败: %w", err)}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置文件失败: %w", err)}
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	crawl := models.DefaultCrawlSettings()

	v.SetDefault("crawl.link_findall", crawl.LinkFindall)
	v.SetDefault("crawl.link_schema_relative_sub.pattern", crawl.LinkSchemaRelativeSub.Pattern)
	v.SetDefault("crawl.link_schema_relative_sub.replacement", crawl.LinkSchemaRelativeSub.Replacement)
	v.SetDefault("crawl.link_relative_sub.pattern", crawl.LinkRelativeSub.Pattern)
	v.SetDefault("crawl.link_relative_sub.replacement", crawl.LinkRelativeSub.Replacement)
	v.SetDefault("crawl.domain_findall", crawl.DomainFindall)
	// 逐项设置,配置文件中的表达式与默认表达式合并而不是整体替换
	for name, pattern := range crawl.SearchExpressions {
		v.SetDefault("crawl.search_expressions."+name, pattern)
	}
	v.SetDefault("crawl.restrict_to_domain", crawl.RestrictToDomain)
	v.SetDefault("crawl.depth", crawl.Depth)
	v.SetDefault("crawl.max_redirects", crawl.MaxRedirects)
	v.SetDefault("crawl.workers", crawl.Workers)
	v.SetDefault("crawl.valid_content_type", crawl.ValidContentType)
	v.SetDefault("crawl.xpath_restrict_link_crawl", crawl.XPathRestrictLinkCrawl)
	v.SetDefault("crawl.simulate_human", crawl.SimulateHuman)
	v.SetDefault("crawl.scroll_first_page", crawl.ScrollFirstPage)
	v.SetDefault("crawl.scroll_all_page", crawl.ScrollAllPages)
	v.SetDefault("crawl.headless", crawl.Headless)
	v.SetDefault("crawl.get_timeout", crawl.Timeout)
	v.SetDefault("crawl.progress_bar", crawl.ProgressBar)

	logging := utils.DefaultLogConfig()
	v.SetDefault("logging.level", logging.Level)
	v.SetDefault("logging.log_dir", logging.LogDir)
	v.SetDefault("logging.rotation.max_size", logging.MaxSize)
	v.SetDefault("logging.rotation.max_backups", logging.MaxBackups)
	v.SetDefault("logging.rotation.max_age", logging.MaxAge)
	v.SetDefault("logging.rotation.compress", logging.Compress)

	v.SetDefault("output.path", "")
	v.SetDefault("output.report_dir", "output")
	v.SetDefault("output.report", false)
	v.SetDefault("output.show_results", true)
	v.SetDefault("output.headers_file", "")
}

// CLIOverrides 命令行覆盖项,nil表示未指定
type CLIOverrides struct {
	Depth        *int
	Workers      *int
	Timeout      *int
	MaxRedirects *int
	Restrict     *bool
	Browser      *bool
	Headless     *bool
	ScrollFirst  *bool
	ScrollAll    *bool
	ProgressBar  *bool
	XPath        *string
	ContentTypes []string
	Expressions  map[string]string // 值为空表示禁用该表达式
	OutputPath   *string
	Report       *bool
	ShowResults  *bool
	LogLevel     *string
	HeadersFile  *string
}

// MergeCLIFlags 合并命令行参数到配置 (命令行优先)
func (c *Config) MergeCLIFlags(o CLIOverrides) {
	setInt(&c.Crawl.Depth, o.Depth)
	setInt(&c.Crawl.Workers, o.Workers)
	setInt(&c.Crawl.Timeout, o.Timeout)
	setInt(&c.Crawl.MaxRedirects, o.MaxRedirects)
	setBool(&c.Crawl.RestrictToDomain, o.Restrict)
	setBool(&c.Crawl.SimulateHuman, o.Browser)
	setBool(&c.Crawl.Headless, o.Headless)
	setBool(&c.Crawl.ScrollFirstPage, o.ScrollFirst)
	setBool(&c.Crawl.ScrollAllPages, o.ScrollAll)
	setBool(&c.Crawl.ProgressBar, o.ProgressBar)
	setString(&c.Crawl.XPathRestrictLinkCrawl, o.XPath)
	if len(o.ContentTypes) > 0 {
		c.Crawl.ValidContentType = append([]string(nil), o.ContentTypes...)
	}
	if len(o.Expressions) > 0 {
		if c.Crawl.SearchExpressions == nil {
			c.Crawl.SearchExpressions = make(map[string]string, len(o.Expressions))
		}
		for name, pattern := range o.Expressions {
			c.Crawl.SearchExpressions[name] = pattern
		}
	}

	setString(&c.Output.Path, o.OutputPath)
	setBool(&c.Output.Report, o.Report)
	setBool(&c.Output.ShowResults, o.ShowResults)
	setString(&c.Output.HeadersFile, o.HeadersFile)
	setString(&c.Logging.Level, o.LogLevel)
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
