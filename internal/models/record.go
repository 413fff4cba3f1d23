package models

import (
	"bytes"
	"encoding/json"
)

// 固定列名
const (
	ColumnURL    = "url"
	ColumnDomain = "domain"
	ColumnLinks  = "links"
)

// ListSeparator 列表值拼接成单元格时使用的分隔符
const ListSeparator = ", "

var reservedColumns = map[string]bool{
	ColumnURL:    true,
	ColumnDomain: true,
	ColumnLinks:  true,
}

// URLRecord 已访问URL的记录
// 创建后不再修改
type URLRecord struct {
	URL         string              `json:"url"`
	Domain      string              `json:"domain"`
	Links       []string            `json:"links"`       // 文档顺序,保留重复
	Extractions map[string][]string `json:"extractions"` // 每个已启用表达式一个键
}

// Table 列式结果集
// Data 中每列的长度等于记录数,行号对应记录的插入顺序
type Table struct {
	Columns []string
	Data    map[string][]string
}

// Len 返回行数
func (t *Table) Len() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Data[t.Columns[0]])
}

// Rows 按行返回单元格,列顺序与 Columns 一致
func (t *Table) Rows() [][]string {
	n := t.Len()
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			if values := t.Data[col]; i < len(values) {
				row[j] = values[i]
			}
		}
		rows[i] = row
	}
	return rows
}

// MarshalJSON 按列顺序输出 {"列名": [值...]}
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range t.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		values := t.Data[col]
		if values == nil {
			values = []string{}
		}
		val, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
