package depub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/internal/core/domain"
	"github.com/depub/go-depub/internal/core/entity"
	"github.com/depub/go-depub/internal/core/typereg"
	"github.com/depub/go-depub/internal/util/logger"
	"github.com/depub/go-depub/pkg/types"
)

var log = logger.Logger("depub")

// 启动/关闭超时
const (
	startTimeout = 30 * time.Second
	stopTimeout  = 30 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              Instance
// ════════════════════════════════════════════════════════════════════════════

// Instance 一个 DePub 核心实例
//
// 持有进程级域注册表及其全部协作方。公共操作并发安全。
type Instance struct {
	app      *appHandle
	registry *domain.Registry

	mu     sync.Mutex
	closed bool
}

// appHandle 对 fx.App 的最小封装（Close 幂等）
type appHandle struct {
	stop func(context.Context) error
}

// New 创建并启动一个核心实例
func New(opts ...Option) (*Instance, error) {
	o := defaultOptions()
	if err := o.apply(opts...); err != nil {
		return nil, fmt.Errorf("apply options: %w", err)
	}

	inst := &Instance{}
	app := buildFxApp(o, inst)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("assemble modules: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, fmt.Errorf("start instance: %w", err)
	}
	inst.app = &appHandle{stop: app.Stop}

	log.Info("实例启动", "version", Version)
	return inst, nil
}

// Registry 返回底层域注册表（高级用法）
func (inst *Instance) Registry() *domain.Registry {
	return inst.registry
}

// Close 关闭实例：拆除全部域并停止内部模块
func (inst *Instance) Close() error {
	inst.mu.Lock()
	if inst.closed {
		inst.mu.Unlock()
		return nil
	}
	inst.closed = true
	inst.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	err := inst.app.stop(ctx)
	log.Info("实例关闭", "err", err)
	return err
}

// checkOpen 实例关闭后拒绝操作
func (inst *Instance) checkOpen() error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.closed {
		return ErrInstanceClosed
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              域管理
// ════════════════════════════════════════════════════════════════════════════

// CreateDomain 显式创建一个域
//
// id 不能是默认哨兵；域已存在时失败。configText 为空使用默认配置。
func (inst *Instance) CreateDomain(id types.DomainID, configText string) (*domain.Domain, error) {
	if err := inst.checkOpen(); err != nil {
		return nil, err
	}
	return inst.registry.CreateDomain(context.Background(), id, config.FromText(configText))
}

// CreateDomainWithRawConfig 用预解析配置显式创建一个域
func (inst *Instance) CreateDomainWithRawConfig(id types.DomainID, cfg *config.Config) (*domain.Domain, error) {
	if err := inst.checkOpen(); err != nil {
		return nil, err
	}
	return inst.registry.CreateDomain(context.Background(), id, config.FromRaw(cfg))
}

// OpenDomain 隐式创建或复用一个域
//
// id 为 types.DomainDefault 时映射到当前 id 最小的域。
func (inst *Instance) OpenDomain(id types.DomainID) (*domain.Domain, error) {
	if err := inst.checkOpen(); err != nil {
		return nil, err
	}
	return inst.registry.OpenDomain(context.Background(), id, config.FromText(""))
}

// CreateParticipant 在指定域中创建参与者（按需创建或共享域）
func (inst *Instance) CreateParticipant(id types.DomainID) (*domain.Participant, error) {
	if err := inst.checkOpen(); err != nil {
		return nil, err
	}
	return inst.registry.CreateParticipant(context.Background(), id, config.FromText(""))
}

// ════════════════════════════════════════════════════════════════════════════
//                              域作用域操作
// ════════════════════════════════════════════════════════════════════════════

// SetDeafMute 设置实体所属域协议栈的听/说抑制
func (inst *Instance) SetDeafMute(e *entity.Entity, deaf, mute bool, resetAfter time.Duration) error {
	if err := inst.checkOpen(); err != nil {
		return err
	}
	return inst.registry.SetDeafMute(e, deaf, mute, resetAfter)
}

// SetWriteBatching 进程级写者批量开关
//
// 下推到所有域的全部现有写者，并记录到各域配置快照中，之后创建
// 的写者继承。
func (inst *Instance) SetWriteBatching(enable bool) error {
	if err := inst.checkOpen(); err != nil {
		return err
	}
	inst.registry.SetWriteBatching(enable)
	return nil
}

// RegisterLocalType 在域中注册本地类型
func (inst *Instance) RegisterLocalType(d *domain.Domain, obj *types.TypeObject) error {
	if err := inst.checkOpen(); err != nil {
		return err
	}
	return d.RegisterLocalType(typereg.NewLocalType(obj), obj)
}

// ResolveType 阻塞等待类型解析出本地具体表示
//
// timeout 为 0 表示只轮询不等待；types.DurationInfinite 表示无界
// 等待。截止时刻到达仍未解析返回 ErrTimeout。
func (inst *Instance) ResolveType(e *entity.Entity, id types.TypeID, timeout time.Duration) (types.LocalType, error) {
	if err := inst.checkOpen(); err != nil {
		return nil, err
	}
	return inst.registry.ResolveType(context.Background(), e, id, timeout)
}

// GetTypeDescription 阻塞等待并物化类型描述
func (inst *Instance) GetTypeDescription(e *entity.Entity, id types.TypeID, timeout time.Duration) (*types.TypeDescription, error) {
	if err := inst.checkOpen(); err != nil {
		return nil, err
	}
	return inst.registry.GetTypeDescription(context.Background(), e, id, timeout)
}

// FreeTypeDescription 释放一份物化的类型描述
func (inst *Instance) FreeTypeDescription(desc *types.TypeDescription) error {
	if err := inst.checkOpen(); err != nil {
		return err
	}
	return inst.registry.FreeTypeDescription(desc)
}
