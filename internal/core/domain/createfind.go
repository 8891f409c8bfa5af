package domain

import (
	"context"
	"fmt"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/pkg/types"
)

// ============================================================================
//                              创建/查找协议
// ============================================================================

// CreateDomain 显式创建一个域
//
// id 不能是默认哨兵。域已存在时失败（显式创建绝不共享），调用方
// 持有一个所有权引用，Close 释放。
func (r *Registry) CreateDomain(ctx context.Context, id types.DomainID, src config.Source) (*Domain, error) {
	if id.IsDefault() {
		return nil, fmt.Errorf("%w: explicit create with default domain id", types.ErrBadParameter)
	}
	return r.createOrFind(ctx, id, src, false)
}

// OpenDomain 隐式创建或复用一个域
//
// id 为默认哨兵时映射到当前 id 最小的域（没有时新建）。复用时
// 增加一个所有权引用。正在关闭的域绝不会被交出：创建者释放全局
// 锁等待关闭完成的广播，然后重新查找。
func (r *Registry) OpenDomain(ctx context.Context, id types.DomainID, src config.Source) (*Domain, error) {
	return r.createOrFind(ctx, id, src, true)
}

// createOrFind 在全局锁下执行创建/查找重试循环
//
//  1. 查找现有域（默认哨兵取最小 id）
//  2. 找到且显式：域已存在，失败
//  3. 找到且隐式：原子地检查存活并加引用；域正在关闭时在条件
//     变量上等待关闭完成的广播，从头重试（关闭中的域只会短暂
//     留在映射里，绝不交出）
//  4. 没找到：分阶段初始化完整跑完（持有全局锁——初始化不在条件
//     变量上阻塞，不受关闭竞态影响，串行化创建可接受），成功后
//     插入注册表、挂到根实体，初始引用归调用方
func (r *Registry) createOrFind(ctx context.Context, id types.DomainID, src config.Source, implicit bool) (*Domain, error) {
	r.mu.Lock()

	for {
		var d *Domain
		if id.IsDefault() {
			d = r.findMinLocked()
		} else {
			d = r.findLocked(id)
		}
		if d == nil {
			break
		}

		if !implicit {
			r.mu.Unlock()
			return nil, fmt.Errorf("%w: domain %s already exists", types.ErrPreconditionNotMet, id)
		}

		if d.ent.TryShare() {
			r.mu.Unlock()
			r.rec.ImplicitReuse()
			log.Debug("隐式复用现有域", "domain", d.id)
			return d, nil
		}

		// 关闭竞态：等关闭完成的广播再重新查找
		r.rec.CloseRaceWait()
		log.Debug("域正在关闭，等待拆除完成后重试", "domain", d.id)
		r.cond.Wait()
	}

	d, err := r.initDomain(ctx, id, src)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	// 新建域的初始所有权引用归调用方：显式创建由 Close 释放；
	// 隐式创建由首个持有者（通常是参与者）释放，后续共享者各自
	// 经 TryShare 增加引用，最后一个释放触发拆除
	r.domains.Set(d.id, d)
	r.root.RegisterChild(d.ent)
	r.mu.Unlock()

	r.rec.DomainCreated()
	return d, nil
}
