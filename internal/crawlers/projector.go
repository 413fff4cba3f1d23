package crawlers

import (
	"sort"
	"strings"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
)

// Project 把记录列表转换为列式结果表
// 列顺序: url, domain, links, 抽取表达式名(排序);列集合取自第一条记录,
// 后续记录缺少的列填空字符串。列表值以 ", " 拼接。
func Project(records []models.URLRecord) (*models.Table, error) {
	if len(records) == 0 {
		return nil, &models.EmptyResultError{}
	}

	names := make([]string, 0, len(records[0].Extractions))
	for name := range records[0].Extractions {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := append([]string{models.ColumnURL, models.ColumnDomain, models.ColumnLinks}, names...)
	data := make(map[string][]string, len(columns))
	for _, col := range columns {
		data[col] = make([]string, 0, len(records))
	}

	for _, r := range records {
		data[models.ColumnURL] = append(data[models.ColumnURL], r.URL)
		data[models.ColumnDomain] = append(data[models.ColumnDomain], r.Domain)
		data[models.ColumnLinks] = append(data[models.ColumnLinks], strings.Join(r.Links, models.ListSeparator))
		for _, name := range names {
			data[name] = append(data[name], strings.Join(r.Extractions[name], models.ListSeparator))
		}
	}

	return &models.Table{Columns: columns, Data: data}, nil
}
