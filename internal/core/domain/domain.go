package domain

import (
	"sync"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/internal/core/entity"
	"github.com/depub/go-depub/internal/core/typereg"
	"github.com/depub/go-depub/pkg/interfaces"
	"github.com/depub/go-depub/pkg/types"
)

// ============================================================================
//                              Domain
// ============================================================================

// Domain 绑定到一个域 id 的运行时实例
//
// 完成分阶段初始化后由 Registry 独占持有；子实体通过 entity.Scope
// 非拥有回引用到它。只有协议栈完整停止并终结、且从注册表摘除之后
// 才会释放实体资源。
type Domain struct {
	id  types.DomainID
	reg *Registry

	// mu 保护配置快照中唯一可变的字段（WriteBatch）
	mu  sync.Mutex
	cfg *config.Config

	lib     *typereg.Library
	stack   interfaces.Stack
	builtin interfaces.Builtin
	shm     interfaces.ShmMonitor

	ent *entity.Entity

	// lc 记录已完成的初始化阶段（测试可观察）
	lc *lifecycle
}

// DomainID 实现 entity.Scope
func (d *Domain) DomainID() types.DomainID {
	return d.id
}

// ID 返回域 id
func (d *Domain) ID() types.DomainID {
	return d.id
}

// Entity 返回域实体
func (d *Domain) Entity() *entity.Entity {
	return d.ent
}

// Library 返回域的类型注册表
func (d *Domain) Library() *typereg.Library {
	return d.lib
}

// CompletedStages 返回已完成初始化阶段的名字（测试观察点）
func (d *Domain) CompletedStages() []string {
	return d.lc.names()
}

// Close 释放一个所有权引用，最后一个引用触发完整拆除
func (d *Domain) Close() error {
	return d.ent.DropRef()
}

// ============================================================================
//                              配置
// ============================================================================

// WriteBatching 返回域当前的写者批量开关
//
// 之后创建的写者继承此值。
func (d *Domain) WriteBatching() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.WriteBatch
}

// setWriteBatching 更新域配置快照中的批量开关
func (d *Domain) setWriteBatching(enable bool) {
	d.mu.Lock()
	d.cfg.WriteBatch = enable
	d.mu.Unlock()
}

// ============================================================================
//                              类型注册
// ============================================================================

// RegisterLocalType 在域内注册本地类型
//
// 注册后向对端通告类型标识（协议栈支持通告时），使其他域"知道"
// 该类型并得以发起解析等待。
func (d *Domain) RegisterLocalType(lt types.LocalType, obj *types.TypeObject) error {
	if err := d.lib.RegisterLocal(lt, obj); err != nil {
		return err
	}
	if adv, ok := d.stack.(interfaces.TypeAdvertiser); ok {
		adv.AdvertiseType(lt.TypeID())
	}
	return nil
}
