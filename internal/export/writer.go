package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/scrapdynamics/internal/models"
	"github.com/RecoveryAshes/scrapdynamics/internal/utils"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"
)

const (
	// SheetName Excel工作表名
	SheetName = "results"

	// TableName SQLite表名
	TableName = "results"
)

// Write 按扩展名把表格写入path,已存在的文件被覆盖
func Write(path string, table *models.Table) (Format, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return 0, err
	}
	if table.Len() == 0 {
		return format, &models.EmptyResultError{}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return format, fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	switch format {
	case FormatJSON:
		err = writeJSON(path, table)
	case FormatCSV:
		err = writeCSV(path, table)
	case FormatExcel:
		err = writeExcel(path, table)
	case FormatMarkdown:
		err = writeMarkdown(path, table)
	case FormatSQLite:
		err = writeSQLite(path, table)
	}
	if err != nil {
		return format, fmt.Errorf("写入%s失败 [%s]: %w", format, path, err)
	}

	utils.Infof("💾 结果已保存: %s (%d 行, %s)", path, table.Len(), format)
	return format, nil
}

// writeJSON 列式JSON: {"列名": [值...]}
func writeJSON(path string, table *models.Table) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// writeCSV 首行为列名
func writeCSV(path string, table *models.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		return err
	}
	if err := w.WriteAll(table.Rows()); err != nil {
		return err
	}
	return f.Close()
}

// writeExcel 单个工作表,首行为列名
// 通过WriteTo写出,SaveAs会拒绝 .excel 等非标准扩展名
func writeExcel(path string, table *models.Table) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	write := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(SheetName, cell, &row)
	}

	if err := write(1, table.Columns); err != nil {
		return err
	}
	for i, row := range table.Rows() {
		if err := write(i+2, row); err != nil {
			return err
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = f.WriteTo(out)
	return err
}

// writeMarkdown 写入Markdown表格
func writeMarkdown(path string, table *models.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := RenderTable(f, "", table); err != nil {
		return err
	}
	return f.Close()
}

// writeSQLite 重建results表,所有列为TEXT
func writeSQLite(path string, table *models.Table) (err error) {
	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
	}()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	quoted := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		quoted[i] = quoteIdent(col)
	}

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(TableName)); err != nil {
		return err
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s TEXT)", quoteIdent(TableName), strings.Join(quoted, " TEXT, "))
	if _, err = tx.ExecContext(ctx, createSQL); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(quoted)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(TableName), strings.Join(quoted, ", "), placeholders)
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range table.Rows() {
		args := make([]interface{}, len(row))
		for i, v := range row {
			args[i] = v
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// quoteIdent 用双引号包裹SQL标识符
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
