package domain

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/internal/core/entity"
	"github.com/depub/go-depub/internal/core/typereg"
	"github.com/depub/go-depub/pkg/types"
)

// 初始化阶段名
const (
	stageConfig    = "config"
	stageStackPrep = "stack-prep"
	stageStackInit = "stack-init"
	stageShmMon    = "shm-monitor"
	stageThreadmon = "threadmon"
	stageBuiltin   = "builtin"
	stageStart     = "stack-start"
)

// ============================================================================
//                              分阶段状态机
// ============================================================================

// stage 一个带专属逆操作的初始化阶段
type stage struct {
	name string
	// forward 正向动作
	forward func() error
	// inverse 专属逆操作（nil 表示该阶段不持有资源）
	inverse func() error
}

// lifecycle 已完成阶段的显式记录
//
// 正向推进压栈；任一阶段失败时按严格逆序弹栈执行各自的逆操作，
// 绝不使用笼统的"全部撤销"。完成列表保留到域拆除，供测试检查。
type lifecycle struct {
	completed []stage
}

// run 依次执行阶段，失败时回退已完成的阶段并返回聚合错误
func (lc *lifecycle) run(stages []stage) error {
	for _, s := range stages {
		if err := s.forward(); err != nil {
			err = fmt.Errorf("stage %s: %w", s.name, err)
			return multierr.Append(err, lc.unwind())
		}
		lc.completed = append(lc.completed, s)
	}
	return nil
}

// unwind 按严格逆序执行已完成阶段的逆操作
func (lc *lifecycle) unwind() error {
	var err error
	for i := len(lc.completed) - 1; i >= 0; i-- {
		s := lc.completed[i]
		if s.inverse == nil {
			continue
		}
		if e := s.inverse(); e != nil {
			err = multierr.Append(err, fmt.Errorf("unwind %s: %w", s.name, e))
		}
	}
	lc.completed = nil
	return err
}

// names 返回已完成阶段的名字
func (lc *lifecycle) names() []string {
	out := make([]string, len(lc.completed))
	for i, s := range lc.completed {
		out[i] = s.name
	}
	return out
}

// ============================================================================
//                              初始化
// ============================================================================

// initDomain 分阶段初始化一个新域
//
// 调用方持有 r.mu（线程存活监视器的引用计数变更必须在全局锁下；
// 初始化不在条件变量上阻塞，串行化创建是可接受的）。失败时已完成
// 的阶段被精确回退，域对象绝不会进入注册表。
func (r *Registry) initDomain(ctx context.Context, id types.DomainID, src config.Source) (*Domain, error) {
	d := &Domain{reg: r, lc: &lifecycle{}}

	stages := []stage{
		{
			// 解析或采纳配置，应用域 id 覆盖规则，建立类型注册表
			name: stageConfig,
			forward: func() error {
				cfg, err := src.Resolve(r.parser, id)
				if err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				lib, err := typereg.NewLibrary(cfg.DomainID, r.clock, cfg.TypeReg.DescriptionCacheSize, r.rec)
				if err != nil {
					return err
				}
				d.cfg = cfg
				d.id = cfg.DomainID
				d.lib = lib
				return nil
			},
			inverse: func() error {
				d.cfg = nil
				d.lib = nil
				return nil
			},
		},
		{
			// 校验并派生协议栈运行时配置，不持有资源
			name: stageStackPrep,
			forward: func() error {
				st, err := r.stackFactory.Prep(d.id, d.cfg.Stack, d.lib)
				if err != nil {
					return err
				}
				d.stack = st
				return nil
			},
		},
		{
			name: stageStackInit,
			forward: func() error {
				return d.stack.Init(ctx)
			},
			inverse: func() error {
				return d.stack.Fini()
			},
		},
	}

	stages = append(stages,
		stage{
			// 条件阶段：配置开关控制
			name: stageShmMon,
			forward: func() error {
				if !d.cfg.EnableSharedMemory {
					return nil
				}
				d.shm = r.shmFactory.New(d.id)
				return d.shm.Init()
			},
			inverse: func() error {
				if d.shm != nil {
					d.shm.Destroy()
					d.shm = nil
				}
				return nil
			},
		},
		stage{
			name: stageThreadmon,
			forward: func() error {
				if !d.cfg.LivelinessMonitoring {
					return nil
				}
				return r.threadmonAttachLocked(d, d.cfg.LivelinessInterval)
			},
			inverse: func() error {
				if d.cfg.LivelinessMonitoring {
					if stop := r.threadmonDetachLocked(d); stop != nil {
						stop()
					}
				}
				return nil
			},
		},
		stage{
			name: stageBuiltin,
			forward: func() error {
				d.builtin = r.binFactory.New(d.id)
				return d.builtin.Init(d.lib)
			},
			inverse: func() error {
				d.builtin.Fini()
				return nil
			},
		},
		stage{
			name: stageStart,
			forward: func() error {
				if err := d.stack.Start(ctx); err != nil {
					return err
				}
				d.lib.BindRequester(d.stack.RequestType)
				return nil
			},
			// 拆除从栈停止开始，与启动对称，不在回退表中
		},
	)

	if err := d.lc.run(stages); err != nil {
		log.Error("域初始化失败", "domain", id, "err", err)
		return nil, err
	}

	d.ent = entity.New(types.KindDomain, d, d.finalize)
	log.Info("域初始化完成", "domain", d.id, "stages", d.lc.names())
	return d, nil
}

// ============================================================================
//                              拆除
// ============================================================================

// finalize 域实体的种类专属终结器
//
// 实体借用已排空、子实体全部关闭后运行（不持有实体锁、不持有
// r.mu）。顺序固定：栈停止 → 内建主题终结 → 监视器脱离 → 共享
// 内存监视器销毁 → 栈终结 → 从注册表摘除并广播 → 释放配置快照。
// 摘除放在栈完整拆除之后，保证其他线程绝不可能按 id 查到一个
// 半拆除的域。
func (d *Domain) finalize(_ *entity.Entity) error {
	log.Info("域拆除开始", "domain", d.id)
	var err error

	err = multierr.Append(err, d.stack.Stop())
	d.builtin.Fini()

	if d.cfg.LivelinessMonitoring {
		d.reg.mu.Lock()
		stop := d.reg.threadmonDetachLocked(d)
		d.reg.mu.Unlock()
		if stop != nil {
			stop()
		}
	}

	if d.shm != nil {
		d.shm.Destroy()
		d.shm = nil
	}

	err = multierr.Append(err, d.stack.Fini())

	d.reg.removeAndBroadcast(d)
	d.reg.rec.DomainFreed()

	d.mu.Lock()
	d.cfg = nil
	d.mu.Unlock()

	log.Info("域拆除完成", "domain", d.id, "err", err)
	return err
}
