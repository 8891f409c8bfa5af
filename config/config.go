// Package config 提供 depub 配置管理层
//
// config 包负责：
// - 定义域配置快照结构
// - 提供默认值
// - 配置校验
// - 配置来源（文本解析 / 预解析快照，二选一）
package config

import (
	"time"

	"github.com/depub/go-depub/pkg/types"
)

// Config 域配置快照
//
// 域在创建时固化一份配置快照，此后只读（唯一例外是 WriteBatch，
// 进程级批量开关会写入存活域的快照，使之后创建的写者继承）。
type Config struct {
	// DomainID 配置中声明的域 id
	//
	// 为 types.DomainDefault 时表示"未声明"，由创建参数或默认规则决定。
	// 创建参数中的非默认 id 总是覆盖此字段。
	DomainID types.DomainID

	// WriteBatch 写者批量发送开关
	//
	// 进程级 SetWriteBatching 会更新所有存活域的此字段。
	WriteBatch bool

	// EnableSharedMemory 是否启用共享内存监视器
	EnableSharedMemory bool

	// LivelinessMonitoring 是否启用线程存活监视
	//
	// 监视器是进程级引用计数单例：第一个启用的域创建它，
	// 最后一个启用的域销毁它。
	LivelinessMonitoring bool

	// LivelinessInterval 线程存活采样间隔
	LivelinessInterval time.Duration

	// Stack 协议栈配置
	Stack StackConfig

	// TypeReg 类型注册表配置
	TypeReg TypeRegConfig
}

// StackConfig 协议栈配置
type StackConfig struct {
	// Workers 网络工作协程数
	Workers int

	// StartTimeout 启动超时
	StartTimeout time.Duration
}

// TypeRegConfig 类型注册表配置
type TypeRegConfig struct {
	// DescriptionCacheSize 已物化类型描述的 LRU 缓存容量
	DescriptionCacheSize int
}

// Clone 返回配置的深拷贝
//
// 域采纳预解析配置时必须拷贝，避免调用方后续修改穿透到域内快照。
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
