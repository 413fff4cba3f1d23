package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"github.com/RecoveryAshes/scrapdynamics/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"
)

// newCollector 创建同步Colly collector
// 跳过证书校验,允许重复访问,非2xx响应也交给回调处理
func newCollector(timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	c.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, // 允许访问自签名、过期或主机名不匹配的HTTPS站点
		},
	})
	c.SetRequestTimeout(timeout)
	return c
}

// applyHeaders 把HeaderProvider提供的头部写入请求
func applyHeaders(r *colly.Request, provider models.HeaderProvider) {
	if provider == nil {
		return
	}
	headers, err := provider.GetHeaders()
	if err != nil {
		utils.Warnf("获取HTTP头部失败: %v", err)
		return
	}
	for name, values := range headers {
		if len(values) > 0 {
			r.Headers.Set(name, values[0])
		}
	}
}

// RequestFetcher 普通HTTP抓取器(使用Colly)
type RequestFetcher struct {
	collector      *colly.Collector
	headerProvider models.HeaderProvider
}

// NewRequestFetcher 创建HTTP抓取器
// timeout为单次请求超时
func NewRequestFetcher(timeout time.Duration, headerProvider models.HeaderProvider) *RequestFetcher {
	c := newCollector(timeout)
	utils.Debugf("HTTP抓取器: 超时 %v, 已禁用TLS证书验证", timeout)
	return &RequestFetcher{
		collector:      c,
		headerProvider: headerProvider,
	}
}

// Fetch 以GET方式抓取页面 (跟随重定向)
// 任何失败都返回 ("", false)
func (f *RequestFetcher) Fetch(ctx context.Context, pageURL string) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}

	// 每次请求使用独立回调,共享底层HTTP客户端
	c := f.collector.Clone()

	var (
		body    string
		fetched bool
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		applyHeaders(r, f.headerProvider)
		utils.Debugf("GET: %s", r.URL.String())
	})

	c.OnResponse(func(r *colly.Response) {
		decoded, err := decodeBody(r.Headers.Get("Content-Encoding"), r.Headers.Get("Content-Type"), r.Body)
		if err != nil {
			utils.Warnf("解码响应失败 [%s]: %v", pageURL, err)
			decoded = r.Body
		}
		body = string(decoded)
		fetched = true
	})

	c.OnError(func(r *colly.Response, err error) {
		utils.Debugf("抓取错误 [%s]: %v", pageURL, err)
	})

	if err := c.Visit(pageURL); err != nil {
		utils.Warnf("%v", &models.FetchError{URL: pageURL, Cause: err})
		return "", false
	}
	if !fetched {
		return "", false
	}
	return body, true
}

// HeadVerifier 抓取前的HEAD校验器
// 不跟随重定向,由调用方决定如何处理Location
type HeadVerifier struct {
	collector         *colly.Collector
	headerProvider    models.HeaderProvider
	validContentTypes []string
}

// NewHeadVerifier 创建HEAD校验器
func NewHeadVerifier(timeout time.Duration, validContentTypes []string, headerProvider models.HeaderProvider) *HeadVerifier {
	c := newCollector(timeout)
	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	})
	return &HeadVerifier{
		collector:         c,
		headerProvider:    headerProvider,
		validContentTypes: append([]string(nil), validContentTypes...),
	}
}

// Verify 发送HEAD请求并判断是否值得抓取
//   - 2xx 且 Content-Type 包含任一允许类型: OK
//   - 301/302: 返回Location,由调用方跟随
//   - 其他: 不通过
func (v *HeadVerifier) Verify(ctx context.Context, pageURL string) models.VerifyResult {
	if ctx.Err() != nil {
		return models.VerifyResult{Reason: ctx.Err().Error()}
	}

	c := v.collector.Clone()

	var (
		result   models.VerifyResult
		received bool
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		applyHeaders(r, v.headerProvider)
	})

	c.OnResponse(func(r *colly.Response) {
		received = true
		result = v.classify(r.StatusCode, r.Headers.Get("Content-Type"), r.Headers.Get("Location"))
	})

	if err := c.Head(pageURL); err != nil {
		return models.VerifyResult{Reason: err.Error()}
	}
	if !received {
		return models.VerifyResult{Reason: "未收到响应"}
	}
	return result
}

// classify 根据状态码和头部得出校验结果
func (v *HeadVerifier) classify(status int, contentType, location string) models.VerifyResult {
	result := models.VerifyResult{StatusCode: status}
	switch {
	case status >= 200 && status < 300:
		for _, valid := range v.validContentTypes {
			if strings.Contains(contentType, valid) {
				result.OK = true
				return result
			}
		}
		result.Reason = fmt.Sprintf("Content-Type不在允许列表中: %q", contentType)
	case status == http.StatusMovedPermanently || status == http.StatusFound:
		if location == "" {
			result.Reason = "重定向缺少Location"
			return result
		}
		result.RedirectTo = location
	default:
		result.Reason = fmt.Sprintf("状态码 %d", status)
	}
	return result
}

// decodeBody 解压响应体并转换为UTF-8
// Colly已处理由Transport协商的gzip;这里处理手动设置Accept-Encoding后返回的压缩体
func decodeBody(contentEncoding, contentType string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	var reader io.Reader
	switch encoding {
	case "gzip":
		// 已被解压的body没有gzip魔数
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(bytes.NewReader(body))
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(bytes.NewReader(body))
	case "", "identity":
		return body, nil
	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}

	// 压缩体没有经过Colly的字符集转换
	utf8Reader, err := charset.NewReader(reader, contentType)
	if err != nil {
		return nil, fmt.Errorf("字符集转换失败: %w", err)
	}
	decoded, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("%s读取失败: %w", encoding, err)
	}
	return decoded, nil
}
