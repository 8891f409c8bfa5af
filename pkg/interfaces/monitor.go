package interfaces

import (
	"time"

	"github.com/depub/go-depub/pkg/types"
)

// ============================================================================
//                              线程存活监视器
// ============================================================================

// ProgressSource 线程进度采样源（由协议栈实现）
type ProgressSource interface {
	// ThreadProgress 各工作协程的进度计数快照
	ThreadProgress() map[string]uint64
}

// ThreadMonitor 线程存活监视器
//
// 进程级引用计数单例：第一个启用存活监视的域创建并启动它，最后
// 一个这样的域拆除时销毁它。引用计数的全部变更都在注册表全局锁下。
type ThreadMonitor interface {
	// Start 启动采样循环
	Start(name string) error

	// Stop 停止采样循环并释放资源
	Stop()

	// RegisterDomain 注册一个域的进度采样源
	RegisterDomain(id types.DomainID, src ProgressSource)

	// UnregisterDomain 注销一个域
	UnregisterDomain(id types.DomainID)
}

// ThreadMonitorFactory 监视器工厂（0→1 迁移时调用）
type ThreadMonitorFactory interface {
	// New 创建监视器，失败映射为资源不足
	New(interval time.Duration) (ThreadMonitor, error)
}

// ============================================================================
//                              共享内存监视器
// ============================================================================

// ShmMonitor 共享内存监视器（可选阶段，配置开关控制）
type ShmMonitor interface {
	// Init 启动唤醒分发
	Init() error

	// Destroy 停止分发并拒绝后续唤醒（Init 的逆）
	Destroy()
}

// ShmMonitorFactory 共享内存监视器工厂
type ShmMonitorFactory interface {
	New(id types.DomainID) ShmMonitor
}

// ============================================================================
//                              内建主题
// ============================================================================

// TypeRegistrar 本地类型注册入口（由域的类型注册表实现）
type TypeRegistrar interface {
	// RegisterLocal 注册本地类型及其类型对象
	RegisterLocal(lt types.LocalType, obj *types.TypeObject) error
}

// Builtin 一个域的内建主题状态
type Builtin interface {
	// Init 注册内建主题类型并分配实例句柄映射
	Init(reg TypeRegistrar) error

	// Fini 释放内建主题状态（Init 的逆）
	Fini()
}

// BuiltinFactory 内建主题工厂
type BuiltinFactory interface {
	New(id types.DomainID) Builtin
}
