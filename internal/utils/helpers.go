package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
)

// ReadURLsFromFile 从文件中读取URL列表
// 跳过空行、#注释行和无效URL
func ReadURLsFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("打开URL文件失败: %w", err)
	}
	defer file.Close()

	urls := make([]string, 0)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := models.ValidateURL(line); err != nil {
			Warnf("跳过无效URL (行 %d): %s - %v", lineNum, line, err)
			continue
		}

		urls = append(urls, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取URL文件失败: %w", err)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("URL文件中没有有效的URL")
	}

	Infof("从文件加载了 %d 个URL", len(urls))
	return urls, nil
}

// SanitizeFileName 把域名等字符串转换为可用作文件名的形式
func SanitizeFileName(name string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_", "?", "_", "*", "_", "|", "_", "\"", "_", "<", "_", ">", "_")
	name = replacer.Replace(strings.TrimSpace(name))
	if name == "" {
		return "unknown"
	}
	return name
}

// SuffixPath 在扩展名前插入后缀: out/result.csv + example.org -> out/result_example.org.csv
func SuffixPath(path, suffix string) string {
	if suffix == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + SanitizeFileName(suffix) + ext
}
