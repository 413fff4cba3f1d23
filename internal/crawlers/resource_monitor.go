package crawlers

import (
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitor 系统资源监控器
// 职责: 根据可用内存和CPU负载计算并发worker(或浏览器标签页)上限
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// 采样函数,测试中可替换
	virtualMemory func() (*mem.VirtualMemoryStat, error)
	cpuPercent    func(interval time.Duration, percpu bool) ([]float64, error)
	numCPU        func() int
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	SafetyReserveMemory uint64  // 为系统保留的内存(字节)
	WorkerMemoryUsage   uint64  // 单个worker平均内存消耗(字节)
	CPULoadThreshold    float64 // CPU负载阈值(%),超过时只允许1个worker
	MaxWorkersLimit     int     // 绝对上限
}

// MemoryStatus 内存状态信息
type MemoryStatus struct {
	TotalMemory     uint64 // 系统总内存(字节)
	AvailableMemory uint64 // 可用内存(字节)
	SafetyReserve   uint64 // 安全保留内存(字节)
	MemoryPressure  string // 内存压力等级
}

// DefaultResourceMonitorConfig 默认配置
// HTTP worker按每个20MB估算,浏览器标签页按100MB估算
func DefaultResourceMonitorConfig(browser bool) ResourceMonitorConfig {
	cfg := ResourceMonitorConfig{
		SafetyReserveMemory: 512 * 1024 * 1024,
		WorkerMemoryUsage:   20 * 1024 * 1024,
		CPULoadThreshold:    90,
		MaxWorkersLimit:     32,
	}
	if browser {
		cfg.WorkerMemoryUsage = 100 * 1024 * 1024
		cfg.MaxWorkersLimit = 8
	}
	return cfg
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	if config.WorkerMemoryUsage == 0 {
		config.WorkerMemoryUsage = 20 * 1024 * 1024
	}
	if config.MaxWorkersLimit < 1 {
		config.MaxWorkersLimit = 1
	}
	return &ResourceMonitor{
		config:        config,
		virtualMemory: mem.VirtualMemory,
		cpuPercent:    cpu.Percent,
		numCPU:        runtime.NumCPU,
	}
}

// GetMemoryStatus 获取当前内存状态
func (rm *ResourceMonitor) GetMemoryStatus() MemoryStatus {
	vm, err := rm.virtualMemory()
	if err != nil {
		log.Warn().Err(err).Msg("获取系统内存失败,按4GB估算")
		vm = &mem.VirtualMemoryStat{Total: 4 << 30, Available: 2 << 30}
	}

	var pressure string
	availableMB := vm.Available / (1024 * 1024)
	switch {
	case availableMB < 300:
		pressure = "critical"
	case availableMB < 500:
		pressure = "warning"
	default:
		pressure = "normal"
	}

	return MemoryStatus{
		TotalMemory:     vm.Total,
		AvailableMemory: vm.Available,
		SafetyReserve:   rm.config.SafetyReserveMemory,
		MemoryPressure:  pressure,
	}
}

// CalculateMaxWorkers 计算当前允许的最大并发数 (至少为1)
func (rm *ResourceMonitor) CalculateMaxWorkers() int {
	status := rm.GetMemoryStatus()

	byMemory := 1
	if status.AvailableMemory > status.SafetyReserve {
		byMemory = int((status.AvailableMemory - status.SafetyReserve) / rm.config.WorkerMemoryUsage)
	}

	result := min(byMemory, rm.numCPU(), rm.config.MaxWorkersLimit)

	// CPU已满载时退化为串行
	if rm.config.CPULoadThreshold > 0 {
		percentages, err := rm.cpuPercent(100*time.Millisecond, false)
		if err != nil {
			log.Warn().Err(err).Msg("获取CPU使用率失败")
		} else if len(percentages) > 0 && percentages[0] > rm.config.CPULoadThreshold {
			log.Warn().Msgf("CPU负载过高(当前%.1f%%),并发数降为1", percentages[0])
			result = 1
		}
	}

	if result < 1 {
		result = 1
	}

	log.Debug().Msgf("并发上限: %d (可用内存 %.2f GB, 压力 %s)",
		result, float64(status.AvailableMemory)/(1<<30), status.MemoryPressure)
	return result
}
