package entity

import (
	"sync"
	"sync/atomic"

	"github.com/depub/go-depub/internal/util/logger"
	"github.com/depub/go-depub/internal/util/orderedmap"
	"github.com/depub/go-depub/pkg/types"
)

// 包级别日志实例
var log = logger.Logger("core/entity")

// Scope 实体所属域的回引用
//
// 由 domain 包实现；根实体与尚未注册的域实体为 nil。
type Scope interface {
	// DomainID 所属域 id
	DomainID() types.DomainID
}

// Finalizer 种类专属终结器
//
// Close 在借用排空、子节点全部关闭后调用，此时不持有实体锁。
type Finalizer func(e *Entity) error

// ============================================================================
//                              Entity
// ============================================================================

// Entity 生命周期受管实体
type Entity struct {
	kind types.EntityKind
	iid  types.InstanceID

	mu sync.Mutex
	// pinsDrained 在 Closing 状态下等待借用排空
	pinsDrained *sync.Cond
	state       types.HandleState
	pins        int
	refs        int

	parent   *Entity
	children *orderedmap.Map[types.InstanceID, *Entity]

	// scope 所属域回引用（实体锁外只读，创建/注册期写入）
	scope Scope

	// finalizer 种类专属终结器
	finalizer Finalizer

	// batch 写者批量发送标志（仅 KindWriter 使用）
	batch atomic.Bool
}

// New 创建实体
//
// 初始持有一个所有权引用（refs=1），状态 Live。父子注册由
// RegisterChild 单独完成：域实体只有在分阶段初始化全部成功后
// 才会挂到根实体之下。
func New(kind types.EntityKind, scope Scope, fin Finalizer) *Entity {
	e := &Entity{
		kind:      kind,
		iid:       types.NextInstanceID(),
		state:     types.HandleLive,
		refs:      1,
		children:  orderedmap.New[types.InstanceID, *Entity](),
		scope:     scope,
		finalizer: fin,
	}
	e.pinsDrained = sync.NewCond(&e.mu)
	return e
}

// Kind 返回实体种类
func (e *Entity) Kind() types.EntityKind {
	return e.kind
}

// InstanceID 返回实例 id
func (e *Entity) InstanceID() types.InstanceID {
	return e.iid
}

// Scope 返回所属域回引用（可能为 nil）
func (e *Entity) Scope() Scope {
	return e.scope
}

// SetScope 设置所属域回引用（仅在创建/注册期调用）
func (e *Entity) SetScope(s Scope) {
	e.scope = s
}

// ============================================================================
//                              借用（pin/unpin）
// ============================================================================

// Pin 借用实体
//
// 对象 Live 时成功；Closing/Freed 时返回 ErrAlreadyDeleted。
// 借用期间对象不会被终结，用毕必须 Unpin。
func (e *Entity) Pin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != types.HandleLive {
		return types.ErrAlreadyDeleted
	}
	e.pins++
	return nil
}

// Unpin 归还借用
//
// 处于 Closing 且这是最后一次借用时，唤醒等待排空的关闭者。
func (e *Entity) Unpin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pins--
	if e.pins < 0 {
		panic("entity: unpin without pin")
	}
	if e.state == types.HandleClosing && e.pins == 0 {
		e.pinsDrained.Broadcast()
	}
}

// ============================================================================
//                              引用（所有权）
// ============================================================================

// AddRef 增加所有权引用
func (e *Entity) AddRef() {
	e.mu.Lock()
	e.refs++
	e.mu.Unlock()
}

// TryShare 隐式共享：原子地检查存活并增加引用
//
// 返回 false 表示实体正在关闭（或已终结），调用方应等待关闭完成
// 广播后重试查找。这是创建/查找协议中关闭竞态的判定点。
func (e *Entity) TryShare() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != types.HandleLive {
		return false
	}
	e.refs++
	return true
}

// DropRef 释放所有权引用，降到 0 时触发关闭
func (e *Entity) DropRef() error {
	e.mu.Lock()
	e.refs--
	last := e.refs == 0
	if e.refs < 0 {
		e.mu.Unlock()
		panic("entity: drop of zero ref")
	}
	e.mu.Unlock()
	if last {
		return e.Close()
	}
	return nil
}

// State 返回当前句柄状态
func (e *Entity) State() types.HandleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ============================================================================
//                              子节点
// ============================================================================

// RegisterChild 将 child 挂到 e 之下
func (e *Entity) RegisterChild(child *Entity) {
	e.mu.Lock()
	e.children.Set(child.iid, child)
	child.parent = e
	e.mu.Unlock()
}

// removeChild 摘除子节点（child 关闭路径调用）
func (e *Entity) removeChild(child *Entity) {
	e.mu.Lock()
	e.children.Delete(child.iid)
	e.mu.Unlock()
}

// Lock 锁定实体（子节点遍历协议使用）
func (e *Entity) Lock() { e.mu.Lock() }

// Unlock 解锁实体
func (e *Entity) Unlock() { e.mu.Unlock() }

// ChildSucc 返回实例 id 严格大于 after 的第一个子节点
//
// 调用方必须持有实体锁。配合 Pin/Unpin 实现"访问之间释放父锁"
// 的断点续传遍历。
func (e *Entity) ChildSucc(after types.InstanceID) (*Entity, bool) {
	_, c, ok := e.children.Succ(after)
	return c, ok
}

// ChildCount 返回子节点数
func (e *Entity) ChildCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.children.Len()
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭实体
//
// 流程：标记 Closing（此后 Pin 失败）→ 等待借用排空 → 按实例 id
// 顺序关闭子节点 → 运行种类专属终结器 → 标记 Freed 并从父节点
// 摘除。重复关闭是无害的空操作。
func (e *Entity) Close() error {
	e.mu.Lock()
	if e.state != types.HandleLive {
		e.mu.Unlock()
		return nil
	}
	e.state = types.HandleClosing

	// 排空在借者
	for e.pins > 0 {
		e.pinsDrained.Wait()
	}
	e.mu.Unlock()

	// 按实例 id 顺序关闭子节点，访问之间不持有本实体锁
	var lastIID types.InstanceID
	for {
		e.mu.Lock()
		c, ok := e.ChildSucc(lastIID)
		e.mu.Unlock()
		if !ok {
			break
		}
		lastIID = c.iid
		if err := c.Close(); err != nil {
			log.Error("child close failed", "kind", c.kind, "iid", c.iid, "err", err)
		}
	}

	// 种类专属终结器（不持有实体锁）
	var err error
	if e.finalizer != nil {
		err = e.finalizer(e)
	}

	e.mu.Lock()
	e.state = types.HandleFreed
	e.mu.Unlock()

	if e.parent != nil {
		e.parent.removeChild(e)
	}
	return err
}

// ============================================================================
//                              写者批量标志
// ============================================================================

// SetBatch 设置写者批量发送标志（仅写者实体有意义）
func (e *Entity) SetBatch(enable bool) {
	e.batch.Store(enable)
}

// BatchEnabled 返回写者批量发送标志
func (e *Entity) BatchEnabled() bool {
	return e.batch.Load()
}
