package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testLogConfig(dir, level string) LogConfig {
	return LogConfig{
		Level:      level,
		LogDir:     dir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		NoConsole:  true,
	}
}

func TestInitLogger(t *testing.T) {
	tempDir := t.TempDir()

	if err := InitLogger(testLogConfig(tempDir, "debug")); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}
	t.Cleanup(func() { Logger = zerolog.Nop() })

	Info("测试信息日志")
	Debugf("测试调试日志: %d", 1)

	content, err := os.ReadFile(filepath.Join(tempDir, "scrapdynamics.log"))
	if err != nil {
		t.Fatalf("读取主日志文件失败: %v", err)
	}
	for _, want := range []string{"测试信息日志", "测试调试日志: 1"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("主日志缺少 %q", want)
		}
	}
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	if err := InitLogger(testLogConfig(tempDir, "info")); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}
	t.Cleanup(func() {
		Logger = zerolog.Nop()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	Infof("格式化信息日志: %s", "测试")
	Warnf("格式化警告日志: %d", 123)
	Debug("调试日志不应写入")
	Errorf("错误日志: %s", "boom")

	mainLog, err := os.ReadFile(filepath.Join(tempDir, "scrapdynamics.log"))
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if strings.Contains(string(mainLog), "调试日志不应写入") {
		t.Error("info级别下不应写入debug日志")
	}
	if !strings.Contains(string(mainLog), "格式化警告日志: 123") {
		t.Error("主日志缺少警告日志")
	}

	errorLog, err := os.ReadFile(filepath.Join(tempDir, "scrapdynamics_error.log"))
	if err != nil {
		t.Fatalf("读取错误日志文件失败: %v", err)
	}
	if !strings.Contains(string(errorLog), "错误日志: boom") {
		t.Error("错误日志文件缺少error级别日志")
	}
	if strings.Contains(string(errorLog), "格式化信息日志") {
		t.Error("错误日志文件不应包含info级别日志")
	}
}

func TestFilteredWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &FilteredWriter{Writer: &buf, MinLevel: zerolog.ErrorLevel}

	tests := []struct {
		name  string
		level zerolog.Level
		want  bool
	}{
		{name: "低于阈值", level: zerolog.WarnLevel, want: false},
		{name: "等于阈值", level: zerolog.ErrorLevel, want: true},
		{name: "高于阈值", level: zerolog.FatalLevel, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			n, err := w.WriteLevel(tt.level, []byte("line"))
			if err != nil || n != 4 {
				t.Fatalf("WriteLevel() = %d, %v", n, err)
			}
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("是否写入 = %v, want %v", got, tt.want)
			}
		})
	}

	buf.Reset()
	w.Write([]byte("no level"))
	if buf.Len() != 0 {
		t.Error("无级别写入应被丢弃")
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "info" {
		t.Errorf("默认日志级别错误: 期望 'info', 得到 '%s'", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("默认日志目录错误: 期望 'logs', 得到 '%s'", config.LogDir)
	}
	if config.MaxSize != 10 || config.MaxBackups != 3 || config.MaxAge != 28 {
		t.Errorf("默认轮转参数错误: %+v", config)
	}
	if !config.Compress {
		t.Error("默认应该启用压缩")
	}
}
