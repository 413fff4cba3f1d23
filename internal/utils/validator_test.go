package utils

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
)

func TestHeaderValidator_ValidateHeader(t *testing.T) {
	validator := NewHeaderValidator()

	tests := []struct {
		name        string
		headerName  string
		headerValue string
		wantField   string
	}{
		{name: "合法头部", headerName: "User-Agent", headerValue: "Mozilla/5.0"},
		{name: "合法名称-数字", headerName: "X-Request-ID-123", headerValue: "1"},
		{name: "合法值-空字符串", headerName: "X-Empty", headerValue: ""},
		{name: "合法值-制表符", headerName: "X-Tab", headerValue: "a\tb"},
		{name: "合法值-接近上限", headerName: "X-Long", headerValue: strings.Repeat("a", MaxHeaderValueLength)},
		{name: "非法名称-空字符串", headerName: "", wantField: "name"},
		{name: "非法名称-空格", headerName: "User Agent", headerValue: "x", wantField: "name"},
		{name: "非法名称-特殊字符", headerName: "User@Agent", headerValue: "x", wantField: "name"},
		{name: "禁止头部-Host", headerName: "Host", headerValue: "example.com", wantField: "name"},
		{name: "禁止头部-小写", headerName: "content-length", headerValue: "1", wantField: "name"},
		{name: "非法值-超长", headerName: "X-TooLong", headerValue: strings.Repeat("a", MaxHeaderValueLength+1), wantField: "value"},
		{name: "非法值-换行", headerName: "X-Bad", headerValue: "a\r\nInjected: 1", wantField: "value"},
		{name: "非法值-空字符", headerName: "X-Bad", headerValue: "value\x00null", wantField: "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateHeader(tt.headerName, tt.headerValue)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("期望通过, 得到: %v", err)
				}
				return
			}
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("期望ValidationError, 得到: %v", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestHeaderValidator_Validate(t *testing.T) {
	validator := NewHeaderValidator()

	t.Run("全部合法", func(t *testing.T) {
		headers := http.Header{
			"User-Agent": []string{"Mozilla/5.0"},
			"Accept":     []string{"text/html"},
		}
		if err := validator.Validate(headers); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("返回按名称排序后的第一个错误", func(t *testing.T) {
		headers := http.Header{
			"Connection": []string{"close"},
			"Host":       []string{"example.com"},
		}
		err := validator.Validate(headers)
		var vErr *models.ValidationError
		if !errors.As(err, &vErr) || vErr.HeaderName != "Connection" {
			t.Errorf("期望Connection的错误, 得到: %v", err)
		}
	})

	t.Run("空头部", func(t *testing.T) {
		if err := validator.Validate(nil); err != nil {
			t.Errorf("nil头部应通过, 得到: %v", err)
		}
	})
}
