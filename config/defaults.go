package config

import (
	"time"

	"github.com/depub/go-depub/pkg/types"
)

// ============================================================================
//                              预设默认值
// ============================================================================

const (
	// DefaultStackWorkers 默认网络工作协程数
	DefaultStackWorkers = 2

	// DefaultStackStartTimeout 默认协议栈启动超时
	DefaultStackStartTimeout = 10 * time.Second

	// DefaultLivelinessInterval 默认线程存活采样间隔
	DefaultLivelinessInterval = 333 * time.Millisecond

	// DefaultDescriptionCacheSize 默认类型描述缓存容量
	DefaultDescriptionCacheSize = 128
)

// DefaultConfig 返回默认配置
//
// DomainID 为未声明哨兵，由创建参数决定实际 id。
func DefaultConfig() *Config {
	return &Config{
		DomainID:             types.DomainDefault,
		WriteBatch:           false,
		EnableSharedMemory:   false,
		LivelinessMonitoring: false,
		LivelinessInterval:   DefaultLivelinessInterval,
		Stack: StackConfig{
			Workers:      DefaultStackWorkers,
			StartTimeout: DefaultStackStartTimeout,
		},
		TypeReg: TypeRegConfig{
			DescriptionCacheSize: DefaultDescriptionCacheSize,
		},
	}
}
