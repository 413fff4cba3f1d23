package core

import (
	"net/http"
	"sync"

	"github.com/RecoveryAshes/scrapdynamics/internal/config"
	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"github.com/RecoveryAshes/scrapdynamics/internal/utils"
)

// HeaderManager 合并三层请求头: 内置默认 < 配置文件 < 命令行
// 实现 models.HeaderProvider
type HeaderManager struct {
	defaults http.Header
	config   http.Header
	cli      http.Header

	validator    *utils.HeaderValidator
	redactor     *utils.HeaderRedactor
	configLoader *config.HeaderConfigLoader

	// 配置文件只加载一次,结果(包括错误)被缓存
	once    sync.Once
	loadErr error
	merged  http.Header
}

// NewHeaderManager 创建头部管理器
//   - configFile: 请求头配置文件路径,为空时使用默认路径
//   - cliHeaders: 命令行 -H 参数
func NewHeaderManager(configFile string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}

	return &HeaderManager{
		defaults:     getDefaultHeaders(),
		cli:          cli,
		validator:    utils.NewHeaderValidator(),
		redactor:     utils.NewHeaderRedactor(),
		configLoader: config.NewHeaderConfigLoader(configFile),
	}, nil
}

// getDefaultHeaders 内置默认头部
func getDefaultHeaders() http.Header {
	return http.Header{
		"User-Agent":      []string{models.DefaultUserAgent},
		"Accept":          []string{"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"Accept-Encoding": []string{"gzip, deflate, br"},
	}
}

// load 读取配置文件、校验并合并
func (hm *HeaderManager) load() {
	headerConfig, err := hm.configLoader.LoadConfig()
	if err != nil {
		utils.Errorf("加载HTTP头部配置失败: %v", err)
		hm.loadErr = err
		return
	}
	hm.config = headerConfig.ToHeader()

	for _, layer := range []struct {
		name    string
		headers http.Header
	}{
		{"默认", hm.defaults},
		{"配置文件", hm.config},
		{"命令行", hm.cli},
	} {
		if err := hm.validator.Validate(layer.headers); err != nil {
			utils.Errorf("%s头部验证失败: %v", layer.name, err)
			hm.loadErr = err
			return
		}
	}

	hm.merged = hm.mergeLayers()
	utils.Debugf("HTTP请求头: %s", hm.redactor.RedactToString(hm.merged))
}

// mergeLayers 按优先级合并,后一层覆盖前一层的同名头部
func (hm *HeaderManager) mergeLayers() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}
	}
	return result
}

// GetSafeHeaders 返回脱敏后的合并头部 (用于日志)
func (hm *HeaderManager) GetSafeHeaders() (map[string]string, error) {
	headers, err := hm.GetHeaders()
	if err != nil {
		return nil, err
	}
	return hm.redactor.Redact(headers), nil
}

// GetHeaders 实现 HeaderProvider 接口
// 返回副本,调用方可以修改
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	hm.once.Do(hm.load)
	if hm.loadErr != nil {
		return nil, hm.loadErr
	}
	return hm.merged.Clone(), nil
}
