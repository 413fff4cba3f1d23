package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadURLsFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("跳过注释和无效URL", func(t *testing.T) {
		path := filepath.Join(dir, "urls.txt")
		content := "# 种子列表\nhttps://example.org\n\n  http://other.org/path  \nftp://files.example.org\nnot a url\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		got, err := ReadURLsFromFile(path)
		if err != nil {
			t.Fatalf("ReadURLsFromFile() error = %v", err)
		}
		want := []string{"https://example.org", "http://other.org/path"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ReadURLsFromFile() = %q, want %q", got, want)
		}
	})

	t.Run("没有有效URL", func(t *testing.T) {
		path := filepath.Join(dir, "empty.txt")
		os.WriteFile(path, []byte("# nothing\n"), 0644)
		if _, err := ReadURLsFromFile(path); err == nil {
			t.Error("期望错误")
		}
	})

	t.Run("文件不存在", func(t *testing.T) {
		if _, err := ReadURLsFromFile(filepath.Join(dir, "missing.txt")); err == nil {
			t.Error("期望错误")
		}
	})
}

func TestSuffixPath(t *testing.T) {
	tests := []struct {
		path   string
		suffix string
		want   string
	}{
		{path: "out/result.csv", suffix: "example.org", want: "out/result_example.org.csv"},
		{path: "result", suffix: "localhost:8080", want: "result_localhost_8080"},
		{path: "result.json", suffix: "", want: "result.json"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := SuffixPath(tt.path, tt.suffix); got != tt.want {
				t.Errorf("SuffixPath(%q, %q) = %q, want %q", tt.path, tt.suffix, got, tt.want)
			}
		})
	}
}
