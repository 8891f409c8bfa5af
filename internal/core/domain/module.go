package domain

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/internal/core/metrics"
	"github.com/depub/go-depub/pkg/interfaces"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// StackFactory 协议栈工厂（必需）
	StackFactory interfaces.StackFactory

	// Parser 文本配置解析器（可选）
	Parser config.Parser `optional:"true"`

	// ThreadMonFactory 线程存活监视器工厂（可选）
	ThreadMonFactory interfaces.ThreadMonitorFactory `optional:"true"`

	// ShmFactory 共享内存监视器工厂（可选）
	ShmFactory interfaces.ShmMonitorFactory `optional:"true"`

	// BuiltinFactory 内建主题工厂（可选）
	BuiltinFactory interfaces.BuiltinFactory `optional:"true"`

	// Clock 时钟（可选，缺省真实时钟）
	Clock clock.Clock `optional:"true"`

	// Recorder 指标记录器（可选）
	Recorder *metrics.Recorder `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Registry 进程级域注册表
	Registry *Registry
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput, lc fx.Lifecycle) (ModuleOutput, error) {
	r, err := NewRegistry(Options{
		StackFactory:     input.StackFactory,
		Parser:           input.Parser,
		ThreadMonFactory: input.ThreadMonFactory,
		ShmFactory:       input.ShmFactory,
		BuiltinFactory:   input.BuiltinFactory,
		Clock:            input.Clock,
		Recorder:         input.Recorder,
	})
	if err != nil {
		return ModuleOutput{}, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return r.Close()
		},
	})
	return ModuleOutput{Registry: r}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("domain",
		fx.Provide(ProvideServices),
	)
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "domain"
	// Description 模块描述
	Description = "域注册表与生命周期管理模块，提供创建/查找协议与类型解析等待"
)
