package crawlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type staticHeaders http.Header

func (h staticHeaders) GetHeaders() (http.Header, error) {
	return http.Header(h), nil
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><title>Page</title><a href="/other">o</a></html>`))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/page", http.StatusFound)
	})
	mux.HandleFunc("/moved-nowhere", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMovedPermanently)
	})
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/echo-header", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(r.Header.Get("X-Crawl-Token")))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRequestFetcher_Fetch(t *testing.T) {
	server := newTestSite(t)
	fetcher := NewRequestFetcher(5*time.Second, nil)

	t.Run("正常页面", func(t *testing.T) {
		body, ok := fetcher.Fetch(context.Background(), server.URL+"/page")
		if !ok {
			t.Fatal("Fetch() ok = false")
		}
		if !strings.Contains(body, "<title>Page</title>") {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("跟随重定向", func(t *testing.T) {
		body, ok := fetcher.Fetch(context.Background(), server.URL+"/moved")
		if !ok || !strings.Contains(body, "<title>Page</title>") {
			t.Errorf("Fetch() = %q, %v", body, ok)
		}
	})

	t.Run("连接失败", func(t *testing.T) {
		body, ok := fetcher.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
		if ok || body != "" {
			t.Errorf("Fetch() = %q, %v; want \"\", false", body, ok)
		}
	})

	t.Run("上下文已取消", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, ok := fetcher.Fetch(ctx, server.URL+"/page"); ok {
			t.Error("取消后的Fetch()不应成功")
		}
	})
}

func TestRequestFetcher_Headers(t *testing.T) {
	server := newTestSite(t)
	headers := staticHeaders{"X-Crawl-Token": []string{"abc123"}}
	fetcher := NewRequestFetcher(5*time.Second, headers)

	body, ok := fetcher.Fetch(context.Background(), server.URL+"/echo-header")
	if !ok {
		t.Fatal("Fetch() ok = false")
	}
	if body != "abc123" {
		t.Errorf("服务端收到的头部 = %q, want abc123", body)
	}
}

func TestHeadVerifier_Verify(t *testing.T) {
	server := newTestSite(t)
	verifier := NewHeadVerifier(5*time.Second, []string{"text/html"}, nil)

	tests := []struct {
		name         string
		path         string
		wantOK       bool
		wantRedirect string
		wantStatus   int
	}{
		{name: "HTML页面", path: "/page", wantOK: true, wantStatus: 200},
		{name: "302不跟随", path: "/moved", wantRedirect: "/page", wantStatus: 302},
		{name: "301缺少Location", path: "/moved-nowhere", wantStatus: 301},
		{name: "非HTML内容", path: "/data.json", wantStatus: 200},
		{name: "404", path: "/missing", wantStatus: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := verifier.Verify(context.Background(), server.URL+tt.path)
			if got.OK != tt.wantOK {
				t.Errorf("OK = %v, want %v (reason %q)", got.OK, tt.wantOK, got.Reason)
			}
			if got.RedirectTo != tt.wantRedirect {
				t.Errorf("RedirectTo = %q, want %q", got.RedirectTo, tt.wantRedirect)
			}
			if got.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.wantStatus)
			}
			if !got.OK && got.RedirectTo == "" && got.Reason == "" {
				t.Error("失败结果应包含原因")
			}
		})
	}
}

func TestHeadVerifier_Unreachable(t *testing.T) {
	verifier := NewHeadVerifier(time.Second, []string{"text/html"}, nil)

	got := verifier.Verify(context.Background(), "http://127.0.0.1:1/")
	if got.OK || got.Reason == "" {
		t.Errorf("Verify() = %+v, 期望失败并带原因", got)
	}
}
