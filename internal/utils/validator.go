package utils

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"golang.org/x/net/http/httpguts"
)

// MaxHeaderValueLength 单个头部值的最大长度 (8KB)
const MaxHeaderValueLength = 8192

// ForbiddenHeaders 由HTTP客户端或浏览器自行管理的头部
var ForbiddenHeaders = []string{
	"Host",
	"Content-Length",
	"Transfer-Encoding",
	"Connection",
	"Upgrade",
}

// HeaderValidator 请求头合法性检查
type HeaderValidator struct {
	maxValueLength int
	forbidden      map[string]bool
}

// NewHeaderValidator 创建验证器
func NewHeaderValidator() *HeaderValidator {
	forbidden := make(map[string]bool, len(ForbiddenHeaders))
	for _, h := range ForbiddenHeaders {
		forbidden[http.CanonicalHeaderKey(h)] = true
	}
	return &HeaderValidator{
		maxValueLength: MaxHeaderValueLength,
		forbidden:      forbidden,
	}
}

// IsForbidden 检查头部是否禁止自定义 (不区分大小写)
func (hv *HeaderValidator) IsForbidden(name string) bool {
	return hv.forbidden[http.CanonicalHeaderKey(name)]
}

// ValidateHeader 检查单个头部
func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &models.ValidationError{
			Field:  "name",
			Reason: "头部名称不能为空",
		}
	case hv.IsForbidden(name):
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "此头部由HTTP客户端自动管理,不允许自定义",
			Suggestion: fmt.Sprintf("移除 '%s' 头部配置", name),
		}
	case !httpguts.ValidHeaderFieldName(name):
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "头部名称包含非法字符",
			Suggestion: "使用字母、数字和连字符 (如 'User-Agent', 'X-Custom-Header')",
		}
	case len(value) > hv.maxValueLength:
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     fmt.Sprintf("头部值过长: %d 字节 (最大 %d)", len(value), hv.maxValueLength),
			Suggestion: fmt.Sprintf("将值缩短至 %d 字节以内", hv.maxValueLength),
		}
	case !httpguts.ValidHeaderFieldValue(value):
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     "头部值包含控制字符",
			Suggestion: "移除换行符等控制字符",
		}
	}
	return nil
}

// Validate 按名称顺序检查所有头部,返回第一个错误
func (hv *HeaderValidator) Validate(headers http.Header) error {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range headers[name] {
			if err := hv.ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
