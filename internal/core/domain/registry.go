package domain

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/internal/core/builtin"
	"github.com/depub/go-depub/internal/core/entity"
	"github.com/depub/go-depub/internal/core/metrics"
	"github.com/depub/go-depub/internal/core/shmmon"
	"github.com/depub/go-depub/internal/core/threadmon"
	"github.com/depub/go-depub/internal/util/logger"
	"github.com/depub/go-depub/internal/util/orderedmap"
	"github.com/depub/go-depub/pkg/interfaces"
	"github.com/depub/go-depub/pkg/types"
)

// 包级别日志实例
var log = logger.Logger("core/domain")

// 注册表构造错误
var (
	// ErrNoStackFactory 缺少协议栈工厂
	ErrNoStackFactory = errors.New("no stack factory configured")
)

// ============================================================================
//                              Options
// ============================================================================

// Options 注册表协作方配置
//
// StackFactory 必需，其余缺省时使用包内默认实现。
type Options struct {
	// StackFactory 协议栈工厂（必需）
	StackFactory interfaces.StackFactory

	// Parser 文本配置解析器（可选；缺省时非空配置文本报错）
	Parser config.Parser

	// ThreadMonFactory 线程存活监视器工厂
	ThreadMonFactory interfaces.ThreadMonitorFactory

	// ShmFactory 共享内存监视器工厂
	ShmFactory interfaces.ShmMonitorFactory

	// BuiltinFactory 内建主题工厂
	BuiltinFactory interfaces.BuiltinFactory

	// Clock 时钟（可选，缺省真实时钟）
	Clock clock.Clock

	// Recorder 指标记录器（可选，nil 时全部退化为空操作）
	Recorder *metrics.Recorder
}

// ============================================================================
//                              Registry
// ============================================================================

// Registry 进程级域注册表
//
// 不变式：一个域出现在 domains 中，当且仅当它完成了分阶段初始化
// 且尚未完成拆除；threadmon 非 nil 当且仅当 threadmonRefs > 0。
// 两者的全部变更都在 mu 之下。
type Registry struct {
	mu   sync.Mutex
	cond *sync.Cond

	domains *orderedmap.Map[types.DomainID, *Domain]
	root    *entity.Entity

	// threadmon 引用计数单例：0→1 迁移时创建，1→0 迁移时销毁
	threadmon     interfaces.ThreadMonitor
	threadmonRefs int

	stackFactory interfaces.StackFactory
	parser       config.Parser
	monFactory   interfaces.ThreadMonitorFactory
	shmFactory   interfaces.ShmMonitorFactory
	binFactory   interfaces.BuiltinFactory
	clock        clock.Clock
	rec          *metrics.Recorder
}

// NewRegistry 创建注册表
func NewRegistry(opts Options) (*Registry, error) {
	if opts.StackFactory == nil {
		return nil, ErrNoStackFactory
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	monFactory := opts.ThreadMonFactory
	if monFactory == nil {
		monFactory = threadmon.Factory{Clock: clk}
	}
	shmFactory := opts.ShmFactory
	if shmFactory == nil {
		shmFactory = shmmon.Factory{}
	}
	binFactory := opts.BuiltinFactory
	if binFactory == nil {
		binFactory = builtin.Factory{}
	}

	r := &Registry{
		domains:      orderedmap.New[types.DomainID, *Domain](),
		root:         entity.New(types.KindRoot, nil, nil),
		stackFactory: opts.StackFactory,
		parser:       opts.Parser,
		monFactory:   monFactory,
		shmFactory:   shmFactory,
		binFactory:   binFactory,
		clock:        clk,
		rec:          opts.Recorder,
	}
	r.cond = sync.NewCond(&r.mu)
	return r, nil
}

// Root 返回根实体
func (r *Registry) Root() *entity.Entity {
	return r.root
}

// Len 返回当前注册的域数量
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.domains.Len()
}

// findLocked 按 id 查找域
func (r *Registry) findLocked(id types.DomainID) *Domain {
	d, ok := r.domains.Get(id)
	if !ok {
		return nil
	}
	return d
}

// findMinLocked 返回 id 最小的域（默认域语义）
func (r *Registry) findMinLocked() *Domain {
	_, d, ok := r.domains.Min()
	if !ok {
		return nil
	}
	return d
}

// Find 按 id 查找域（默认哨兵映射到当前 id 最小的域）
func (r *Registry) Find(id types.DomainID) (*Domain, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var d *Domain
	if id.IsDefault() {
		d = r.findMinLocked()
	} else {
		d = r.findLocked(id)
	}
	return d, d != nil
}

// removeAndBroadcast 把域从注册表摘除并广播
//
// 拆除序列的倒数第二步（早于实体资源释放）：摘除后其他线程不可能
// 再按 id 查到半拆除的域；广播唤醒所有在关闭竞态上等待的创建者。
func (r *Registry) removeAndBroadcast(d *Domain) {
	r.mu.Lock()
	r.domains.Delete(d.id)
	r.cond.Broadcast()
	r.mu.Unlock()
}

// ============================================================================
//                              线程存活监视器（引用计数单例）
// ============================================================================

// threadmonAttachLocked 为一个域接入监视器
//
// 0→1 迁移时创建并启动监视器；总是注册该域的进度采样源。
// 调用方必须持有 r.mu。创建失败映射为资源不足。
func (r *Registry) threadmonAttachLocked(d *Domain, interval time.Duration) error {
	if r.threadmonRefs == 0 {
		mon, err := r.monFactory.New(interval)
		if err != nil {
			return fmt.Errorf("%w: create thread monitor: %v", types.ErrOutOfResources, err)
		}
		if err := mon.Start("depub-threadmon"); err != nil {
			return fmt.Errorf("%w: start thread monitor: %v", types.ErrOutOfResources, err)
		}
		r.threadmon = mon
	}
	r.threadmonRefs++
	r.threadmon.RegisterDomain(d.id, d.stack)
	return nil
}

// threadmonDetachLocked 为一个域脱离监视器
//
// 注销采样源并递减引用计数；1→0 迁移时摘下单例并返回待执行的
// 停止动作（调用方在释放 r.mu 后执行，Stop 会等待采样协程退出，
// 不能在全局锁下阻塞）。调用方必须持有 r.mu。
func (r *Registry) threadmonDetachLocked(d *Domain) (stop func()) {
	r.threadmon.UnregisterDomain(d.id)
	r.threadmonRefs--
	if r.threadmonRefs > 0 {
		return nil
	}
	mon := r.threadmon
	r.threadmon = nil
	return mon.Stop
}

// ThreadMonActive 返回监视器单例是否存在（测试观察点）
func (r *Registry) ThreadMonActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.threadmon != nil
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 拆除注册表
//
// 关闭根实体：所有域实体按实例 id 顺序关闭，每个域走完整的拆除
// 序列（栈停止 → 内建主题终结 → 监视器脱离 → 栈终结 → 摘除并
// 广播）。进程退出路径调用。
func (r *Registry) Close() error {
	err := r.root.Close()
	if n := r.Len(); n != 0 {
		log.Error("注册表关闭后仍有残留域", "count", n)
	}
	return err
}
