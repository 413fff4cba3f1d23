package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://example.com", false},
		{"带路径的URL", "https://example.com/path/to/resource", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL_MissingHost(t *testing.T) {
	err := ValidateURL("https://")
	var malformed *MalformedURLError
	if !errors.As(err, &malformed) {
		t.Fatalf("期望MalformedURLError, got %v", err)
	}
}

func TestCrawlSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *CrawlSettings)
		wantErr bool
	}{
		{"默认配置", func(s *CrawlSettings) {}, false},
		{"深度为0", func(s *CrawlSettings) { s.Depth = 0 }, false},
		{"深度为负", func(s *CrawlSettings) { s.Depth = -1 }, true},
		{"重定向为负", func(s *CrawlSettings) { s.MaxRedirects = -1 }, true},
		{"并发为负", func(s *CrawlSettings) { s.Workers = -2 }, true},
		{"超时过大", func(s *CrawlSettings) { s.Timeout = 500 }, true},
		{"链接表达式为空", func(s *CrawlSettings) { s.LinkFindall = "" }, true},
		{"域名表达式为空", func(s *CrawlSettings) { s.DomainFindall = "" }, true},
		{"表达式名与固定列冲突", func(s *CrawlSettings) { s.SearchExpressions["links"] = "x" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultCrawlSettings()
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("期望ConfigError, got %T", err)
				}
			}
		})
	}
}

func TestDefaultCrawlSettings_FreshContainers(t *testing.T) {
	a := DefaultCrawlSettings()
	b := DefaultCrawlSettings()

	a.SearchExpressions["custom"] = `\d+`
	delete(a.SearchExpressions, "emails")
	a.ValidContentType[0] = "application/json"

	if _, ok := b.SearchExpressions["custom"]; ok {
		t.Error("修改一个实例的表达式不应影响另一个实例")
	}
	if _, ok := b.SearchExpressions["emails"]; !ok {
		t.Error("默认表达式emails丢失")
	}
	if b.ValidContentType[0] != "text/html" {
		t.Errorf("ValidContentType被共享: %v", b.ValidContentType)
	}
}

func TestCrawlSettings_Clone(t *testing.T) {
	s := DefaultCrawlSettings()
	c := s.Clone()
	c.SearchExpressions["title"] = ""
	c.ValidContentType = append(c.ValidContentType, "text/plain")

	if s.SearchExpressions["title"] == "" {
		t.Error("Clone后修改不应影响原配置")
	}
	if len(s.ValidContentType) != 1 {
		t.Errorf("原配置ValidContentType被修改: %v", s.ValidContentType)
	}
}

func TestCrawlSettings_ExpressionNames(t *testing.T) {
	s := DefaultCrawlSettings()
	s.SearchExpressions["phones"] = ""
	s.SearchExpressions["aaa"] = `a`

	got := s.ExpressionNames()
	want := []string{"aaa", "emails", "title"}
	if len(got) != len(want) {
		t.Fatalf("ExpressionNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExpressionNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewCrawlTask(t *testing.T) {
	task := NewCrawlTask("https://example.com", "example.com", ModeRequest)

	if task.ID == "" {
		t.Error("任务ID不应为空")
	}
	if task.SeedURL != "https://example.com" {
		t.Errorf("SeedURL = %v, want %v", task.SeedURL, "https://example.com")
	}
	if task.Status != TaskStatusPending {
		t.Errorf("Status = %v, want %v", task.Status, TaskStatusPending)
	}
	if task.State != StateIdle {
		t.Errorf("State = %v, want %v", task.State, StateIdle)
	}

	other := NewCrawlTask("https://example.com", "example.com", ModeRequest)
	if other.ID == task.ID {
		t.Error("两个任务的ID不应相同")
	}
}

func TestTable_MarshalJSON(t *testing.T) {
	table := &Table{
		Columns: []string{"url", "domain", "links", "emails"},
		Data: map[string][]string{
			"url":    {"https://ex.org/a"},
			"domain": {"ex.org"},
			"links":  {"https://ex.org/b, https://ex.org/c"},
			"emails": {"a@ex.org"},
		},
	}

	data, err := json.Marshal(table)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"url":["https://ex.org/a"],"domain":["ex.org"],"links":["https://ex.org/b, https://ex.org/c"],"emails":["a@ex.org"]}`
	if string(data) != want {
		t.Errorf("MarshalJSON() =\n%s\nwant\n%s", data, want)
	}
}

func TestTable_Rows(t *testing.T) {
	table := &Table{
		Columns: []string{"url", "title"},
		Data: map[string][]string{
			"url":   {"u1", "u2"},
			"title": {"t1", ""},
		},
	}

	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
	rows := table.Rows()
	if rows[1][0] != "u2" || rows[1][1] != "" {
		t.Errorf("Rows()[1] = %v", rows[1])
	}

	var empty *Table
	if empty.Len() != 0 {
		t.Error("nil表的Len应为0")
	}
}

func TestCliHeaders_Parse(t *testing.T) {
	tests := []struct {
		name    string
		input   CliHeaders
		want    map[string]string
		wantErr bool
	}{
		{"单个头部", CliHeaders{"User-Agent: Bot/1.0"}, map[string]string{"User-Agent": "Bot/1.0"}, false},
		{"值中包含冒号", CliHeaders{"Referer: https://a.com/x"}, map[string]string{"Referer": "https://a.com/x"}, false},
		{"后者覆盖前者", CliHeaders{"X-A: 1", "X-A: 2"}, map[string]string{"X-A": "2"}, false},
		{"缺少冒号", CliHeaders{"NoColon"}, nil, true},
		{"名称为空", CliHeaders{": value"}, nil, true},
		{"名称前后空格", CliHeaders{"  User-Agent  : Mozilla/5.0"}, map[string]string{"User-Agent": "Mozilla/5.0"}, false},
		{"值中间的空格保留", CliHeaders{"X-Custom:  value with spaces  "}, map[string]string{"X-Custom": "value with spaces"}, false},
		{"只有冒号没有值", CliHeaders{"X-Empty:"}, map[string]string{"X-Empty": ""}, false},
		{"多个冒号", CliHeaders{"Authorization: Bearer: token"}, map[string]string{"Authorization": "Bearer: token"}, false},
		{"空数组", CliHeaders{}, map[string]string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			for k, v := range tt.want {
				if got.Get(k) != v {
					t.Errorf("Parse()[%s] = %q, want %q", k, got.Get(k), v)
				}
			}
		})
	}
}

func TestCrawlReport_JSON(t *testing.T) {
	report := &CrawlReport{
		TaskID:    "task-123",
		SeedURL:   "https://example.com",
		Domain:    "example.com",
		Mode:      ModeRequest,
		StartTime: time.Now(),
		EndTime:   time.Now().Add(5 * time.Minute),
		Duration:  300.5,
		Stats: TaskStats{
			Records:       12,
			SkippedDomain: 3,
		},
		OutputPath: "output/example.com.json",
		Format:     "json",
		Rows:       12,
		Settings:   DefaultCrawlSettings(),
	}

	jsonData, err := report.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded CrawlReport
	if err := decoded.FromJSON(jsonData); err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}

	if decoded.TaskID != report.TaskID {
		t.Errorf("TaskID不匹配: got %v, want %v", decoded.TaskID, report.TaskID)
	}
	if decoded.Stats.Records != report.Stats.Records {
		t.Errorf("Records不匹配: got %v, want %v", decoded.Stats.Records, report.Stats.Records)
	}
	if decoded.Settings.SearchExpressions["emails"] == "" {
		t.Error("配置快照中的表达式丢失")
	}
}
