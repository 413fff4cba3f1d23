package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/RecoveryAshes/scrapdynamics/internal/core"
	"github.com/RecoveryAshes/scrapdynamics/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// appConfig 在PersistentPreRunE中加载并合并命令行参数
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "scrapdynamics",
	Short: "广度优先网页爬取与正则抽取工具",
	Long: `scrapdynamics - 从起始URL出发按层爬取网页,并用正则表达式抽取数据

  • 按深度逐层扩展,同一会话内每个URL只访问一次
  • 抓取前发送HEAD请求校验状态码和Content-Type,跟随有限次重定向
  • 可选使用无头浏览器渲染并滚动页面以加载懒加载内容
  • 结果导出为 JSON / CSV / Excel / Markdown / SQLite (按扩展名选择)
  • 批量URL处理,每个URL一个独立会话

示例:
  scrapdynamics -u https://example.com -d 2 -o output/result.csv
  scrapdynamics -u https://example.com -e "prices=\$\d+(?:\.\d{2})?" -e phones=
  scrapdynamics -f urls.txt -o output/result.xlsx --continue-on-error
  scrapdynamics -u https://example.com --browser --scroll-all -H "Cookie: session=..."

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		overrides, err := collectOverrides(cmd)
		if err != nil {
			return err
		}
		config.MergeCLIFlags(overrides)

		if err := utils.InitLogger(config.Logging.LogConfig()); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		appConfig = config
		return nil
	},
	RunE: runRoot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scrapdynamics %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func runRoot(cmd *cobra.Command, args []string) error {
	// Ctrl+C 取消当前会话,已收集的记录仍会导出
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := cmd.Flags()
	targetURL, _ := flags.GetString("url")
	urlFile, _ := flags.GetString("url-file")
	validateOnly, _ := flags.GetBool("validate-config")
	headers, _ := flags.GetStringArray("header")

	headerManager, err := core.NewHeaderManager(appConfig.Output.HeadersFile, headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	if validateOnly {
		return showHeaders(headerManager)
	}

	if targetURL == "" && urlFile == "" {
		return cmd.Help()
	}

	if err := ValidateFlags(targetURL, appConfig); err != nil {
		return err
	}

	runner := core.NewRunner(appConfig, headerManager)

	if urlFile != "" {
		urls, err := utils.ReadURLsFromFile(urlFile)
		if err != nil {
			return fmt.Errorf("读取URL文件失败: %w", err)
		}

		batchDelay, _ := flags.GetInt("batch-delay")
		continueOnError, _ := flags.GetBool("continue-on-error")
		batchCrawler, err := core.NewBatchCrawler(appConfig, runner, batchDelay, continueOnError)
		if err != nil {
			return err
		}

		summary, err := batchCrawler.CrawlBatch(ctx, urls)
		if err != nil {
			return fmt.Errorf("批量爬取被中断: %w", err)
		}
		if summary.SuccessCount == 0 && summary.FailCount > 0 {
			return errors.New("所有URL均爬取失败")
		}

		utils.Info("✨ 批量爬取任务完成!")
		return nil
	}

	result, err := runner.Run(ctx, targetURL, appConfig.Output.Path)
	if result != nil {
		printStats(result)
	}
	if err != nil {
		return fmt.Errorf("爬取失败: %w", err)
	}

	utils.Info("✨ 爬取任务完成!")
	return nil
}

// showHeaders 校验请求头配置并打印脱敏后的结果
func showHeaders(hm *core.HeaderManager) error {
	utils.Info("🔍 验证HTTP头部配置...")
	safeHeaders, err := hm.GetSafeHeaders()
	if err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	names := make([]string, 0, len(safeHeaders))
	for name := range safeHeaders {
		names = append(names, name)
	}
	sort.Strings(names)

	utils.Info("✅ 配置验证通过!")
	utils.Infof("当前有效的HTTP头部 (%d个):", len(names))
	for _, name := range names {
		utils.Infof("  %s: %s", name, safeHeaders[name])
	}
	return nil
}

// printStats 统计信息写到stderr,stdout留给结果表格
func printStats(result *core.SessionResult) {
	stats := result.Stats
	w := os.Stderr
	fmt.Fprintln(w, "\n==================================================")
	fmt.Fprintln(w, "📊 爬取统计")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "✅ 记录数: %d\n", stats.Records)
	fmt.Fprintf(w, "✅ 完成深度: %d\n", stats.DepthReached)
	fmt.Fprintf(w, "✅ 校验通过: %d\n", stats.Verified)
	fmt.Fprintf(w, "⏭️  域外跳过: %d\n", stats.SkippedDomain)
	fmt.Fprintf(w, "⏭️  重复跳过: %d\n", stats.SkippedVisited)
	fmt.Fprintf(w, "❌ 校验失败: %d\n", stats.VerifyFailed)
	fmt.Fprintf(w, "❌ 重定向超限: %d\n", stats.TooManyRedirect)
	fmt.Fprintf(w, "❌ 抓取失败: %d\n", stats.FetchFailed)
	fmt.Fprintf(w, "⏱️  总耗时: %.2f秒\n", stats.Duration)
	if result.OutputPath != "" {
		fmt.Fprintf(w, "📁 结果文件: %s\n", result.OutputPath)
	}
	if result.ReportPath != "" {
		fmt.Fprintf(w, "📄 报告文件: %s\n", result.ReportPath)
	}
	fmt.Fprintln(w, "==================================================")
}

func init() {
	registerFlags(rootCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}
