package crawlers

import (
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

const mb = 1024 * 1024

func fakeMonitor(cfg ResourceMonitorConfig, availableMB uint64, cpus int, load float64, cpuErr error) *ResourceMonitor {
	rm := NewResourceMonitor(cfg)
	rm.virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 16 * 1024 * mb, Available: availableMB * mb}, nil
	}
	rm.cpuPercent = func(time.Duration, bool) ([]float64, error) {
		if cpuErr != nil {
			return nil, cpuErr
		}
		return []float64{load}, nil
	}
	rm.numCPU = func() int { return cpus }
	return rm
}

func TestResourceMonitor_CalculateMaxWorkers(t *testing.T) {
	tests := []struct {
		name        string
		browser     bool
		availableMB uint64
		cpus        int
		load        float64
		cpuErr      error
		want        int
	}{
		{name: "受CPU核数限制", availableMB: 8192, cpus: 4, load: 10, want: 4},
		{name: "受绝对上限限制", availableMB: 8192, cpus: 64, load: 10, want: 32},
		{name: "浏览器模式上限", browser: true, availableMB: 8192, cpus: 64, load: 10, want: 8},
		{name: "受内存限制", availableMB: 512 + 60, cpus: 16, load: 10, want: 3},
		{name: "内存不足保留值", availableMB: 256, cpus: 16, load: 10, want: 1},
		{name: "CPU满载", availableMB: 8192, cpus: 16, load: 95, want: 1},
		{name: "CPU采样失败", availableMB: 8192, cpus: 2, cpuErr: errors.New("boom"), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := fakeMonitor(DefaultResourceMonitorConfig(tt.browser), tt.availableMB, tt.cpus, tt.load, tt.cpuErr)
			if got := rm.CalculateMaxWorkers(); got != tt.want {
				t.Errorf("CalculateMaxWorkers() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResourceMonitor_GetMemoryStatus(t *testing.T) {
	tests := []struct {
		availableMB uint64
		want        string
	}{
		{availableMB: 200, want: "critical"},
		{availableMB: 400, want: "warning"},
		{availableMB: 4096, want: "normal"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			rm := fakeMonitor(DefaultResourceMonitorConfig(false), tt.availableMB, 4, 0, nil)
			status := rm.GetMemoryStatus()
			if status.MemoryPressure != tt.want {
				t.Errorf("MemoryPressure = %q, want %q", status.MemoryPressure, tt.want)
			}
			if status.SafetyReserve != 512*mb {
				t.Errorf("SafetyReserve = %d", status.SafetyReserve)
			}
		})
	}
}

func TestResourceMonitor_MemoryError(t *testing.T) {
	rm := fakeMonitor(DefaultResourceMonitorConfig(false), 0, 4, 0, nil)
	rm.virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return nil, errors.New("no /proc")
	}

	status := rm.GetMemoryStatus()
	if status.AvailableMemory != 2<<30 {
		t.Errorf("AvailableMemory = %d, 期望回退到2GB", status.AvailableMemory)
	}
	if got := rm.CalculateMaxWorkers(); got < 1 {
		t.Errorf("CalculateMaxWorkers() = %d, 至少为1", got)
	}
}
