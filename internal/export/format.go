// Package export 把列式结果表写入文件
// 格式由扩展名决定: .json .csv .xlsx/.excel .md .db/.sqlite
package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format 输出格式
type Format int

const (
	FormatJSON Format = iota
	FormatCSV
	FormatExcel
	FormatMarkdown
	FormatSQLite
)

// String 返回格式名称
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatExcel:
		return "excel"
	case FormatMarkdown:
		return "markdown"
	case FormatSQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// UnsupportedFormatError 无法识别的输出扩展名
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

// Error 实现error接口
func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("输出文件缺少扩展名: %s (支持 .json .csv .xlsx .excel .md .db .sqlite)", e.Path)
	}
	return fmt.Sprintf("不支持的输出格式 %q: %s (支持 .json .csv .xlsx .excel .md .db .sqlite)", e.Ext, e.Path)
}

// FormatFromPath 根据扩展名判断格式 (不区分大小写)
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".excel":
		return FormatExcel, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return 0, &UnsupportedFormatError{Path: path, Ext: ext}
	}
}
