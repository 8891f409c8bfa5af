package interfaces

import (
	"context"
	"time"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/pkg/types"
)

// ============================================================================
//                              协议栈契约
// ============================================================================

// TypeLookup 协议栈与域内类型注册表之间的双向通道
//
// 由域的类型注册表实现，在协议栈准备阶段绑定：
//   - 入站请求：远端询问本域是否持有某类型 → LookupTypeObjects
//   - 入站应答：远端送达类型对象 → AddTypeObjects（触发解析广播）
type TypeLookup interface {
	// LookupTypeObjects 应答一次类型查询
	//
	// 返回本域已持有的类型对象；includeDeps 为真时附带传递依赖的
	// 类型对象。一无所知时返回空切片。
	LookupTypeObjects(id types.TypeID, includeDeps bool) []*types.TypeObject

	// AddTypeObjects 采纳远端送达的类型对象
	//
	// 解析状态只会单调推进；任何状态变化都会广播唤醒等待者。
	AddTypeObjects(objs []*types.TypeObject)

	// ReferenceType 登记一个经通告得知、尚未解析的类型标识
	//
	// 域由此"知道"该类型；对完全未知类型的解析等待直接失败。
	ReferenceType(id types.TypeID)
}

// TypeAdvertiser 协议栈的可选扩展：向对端通告本地注册的类型标识
//
// 本地注册新类型后调用，使对端域"知道"该类型并得以发起解析等待。
type TypeAdvertiser interface {
	AdvertiseType(id types.TypeID)
}

// StackFactory 协议栈工厂
//
// Prep 对应"协议栈准备"阶段：校验并派生运行时配置，不持有任何
// 资源（该阶段失败无需回退动作）。
type StackFactory interface {
	// Prep 校验配置并构造未初始化的协议栈实例
	Prep(id types.DomainID, cfg config.StackConfig, lookup TypeLookup) (Stack, error)
}

// Stack 一个域的协议栈运行时
//
// 生命周期严格成对：Init/Fini、Start/Stop。拆除顺序是先 Stop 后
// Fini，与启动顺序对称。
type Stack interface {
	// Init 分配协议栈运行时状态
	Init(ctx context.Context) error

	// Start 启动网络工作协程
	Start(ctx context.Context) error

	// Stop 停止网络工作协程（Start 的逆）
	Stop() error

	// Fini 释放运行时状态（Init 的逆）
	Fini() error

	// SetDeafMute 设置听/说抑制
	//
	// deaf 丢弃入站，mute 丢弃出站。resetAfter 为正时在该时长后
	// 自动恢复。
	SetDeafMute(deaf, mute bool, resetAfter time.Duration)

	// RequestType 发出异步类型解析请求
	//
	// includeDeps 为真时同时请求传递依赖（请求本地具体表示时必须，
	// 因为只有依赖全部解析的类型才能构造本地表示）。无法发出请求
	// 时返回错误。
	RequestType(id types.TypeID, includeDeps bool) error

	// ThreadProgress 各工作协程的进度计数快照
	//
	// 线程存活监视器周期采样，计数无变化的协程视为停滞。
	ThreadProgress() map[string]uint64
}
