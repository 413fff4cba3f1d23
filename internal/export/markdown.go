package export

import (
	"io"
	"strings"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"github.com/nao1215/markdown"
)

// RenderTable 把表格渲染为Markdown,title为空时不输出标题
func RenderTable(w io.Writer, title string, table *models.Table) error {
	md := markdown.NewMarkdown(w)
	if title != "" {
		md.H2(title)
	}

	rows := table.Rows()
	for _, row := range rows {
		for i, cell := range row {
			row[i] = escapeCell(cell)
		}
	}

	md.Table(markdown.TableSet{
		Header: table.Columns,
		Rows:   rows,
	})
	return md.Build()
}

// escapeCell 转义会破坏表格结构的字符
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
