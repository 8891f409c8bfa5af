package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/depub/go-depub/internal/core/entity"
	"github.com/depub/go-depub/internal/core/typereg"
	"github.com/depub/go-depub/pkg/types"
)

// ============================================================================
//                              域作用域操作
// ============================================================================

// domainOf 借用实体并解析其所属的域
//
// 成功时实体处于借用状态，调用方负责归还。实体不属于任何域时
// 返回 ErrIllegalOperation。
func domainOf(e *entity.Entity) (*Domain, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil entity", types.ErrBadParameter)
	}
	if err := e.Pin(); err != nil {
		return nil, err
	}
	d, ok := e.Scope().(*Domain)
	if !ok {
		e.Unpin()
		return nil, fmt.Errorf("%w: entity is not domain scoped", types.ErrIllegalOperation)
	}
	return d, nil
}

// SetDeafMute 设置域协议栈的听/说抑制
//
// 转发到实体所属域的协议栈：deaf 丢弃入站，mute 丢弃出站，
// resetAfter 为正时该时长后自动恢复。
func (r *Registry) SetDeafMute(e *entity.Entity, deaf, mute bool, resetAfter time.Duration) error {
	d, err := domainOf(e)
	if err != nil {
		return err
	}
	defer e.Unpin()

	d.stack.SetDeafMute(deaf, mute, resetAfter)
	return nil
}

// ResolveType 阻塞等待类型解析出本地具体表示
//
// 类型 id 必须是内容哈希形态。域对该类型一无所知时立即失败；
// 已解析时立即返回；否则发出异步网络请求并在 timeout 内等待
// 解析广播。解析谓词满足但远端类型无法构造本地表示时返回
// (nil, nil)。
func (r *Registry) ResolveType(ctx context.Context, e *entity.Entity, id types.TypeID, timeout time.Duration) (types.LocalType, error) {
	if !id.IsHash() {
		return nil, fmt.Errorf("%w: type id is not content-hash based", types.ErrBadParameter)
	}
	d, err := domainOf(e)
	if err != nil {
		return nil, err
	}
	defer e.Unpin()

	lt, _, err := d.lib.WaitResolved(ctx, id, timeout, true, false)
	return lt, err
}

// GetTypeDescription 阻塞等待并物化类型描述
//
// 描述包含类型对象与传递依赖的类型 id 集合，物化结果按域缓存，
// 用 FreeTypeDescription 释放。
func (r *Registry) GetTypeDescription(ctx context.Context, e *entity.Entity, id types.TypeID, timeout time.Duration) (*types.TypeDescription, error) {
	if !id.IsHash() {
		return nil, fmt.Errorf("%w: type id is not content-hash based", types.ErrBadParameter)
	}
	d, err := domainOf(e)
	if err != nil {
		return nil, err
	}
	defer e.Unpin()

	_, desc, err := d.lib.WaitResolved(ctx, id, timeout, false, true)
	return desc, err
}

// FreeTypeDescription 释放一份物化的类型描述
//
// 在所有域的缓存中查找并释放；nil 描述返回 ErrBadParameter。
func (r *Registry) FreeTypeDescription(desc *types.TypeDescription) error {
	if desc == nil {
		return fmt.Errorf("%w: nil type description", types.ErrBadParameter)
	}

	r.mu.Lock()
	libs := make([]*typereg.Library, 0, r.domains.Len())
	r.domains.Range(func(_ types.DomainID, d *Domain) bool {
		libs = append(libs, d.lib)
		return true
	})
	r.mu.Unlock()

	// 描述从它所属域的缓存摘除；其余域的释放是无害的空操作
	for _, lib := range libs {
		_ = lib.FreeDescription(desc)
	}
	return nil
}

// SetEntityBatching 对单个实体子树下推批量标志
func (r *Registry) SetEntityBatching(e *entity.Entity, enable bool) error {
	if e == nil {
		return fmt.Errorf("%w: nil entity", types.ErrBadParameter)
	}
	if err := e.Pin(); err != nil {
		return err
	}
	defer e.Unpin()

	if e.Kind() == types.KindWriter {
		e.SetBatch(enable)
		return nil
	}
	pushdownBatch(e, enable)
	return nil
}
