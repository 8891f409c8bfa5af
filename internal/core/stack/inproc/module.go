package inproc

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/depub/go-depub/pkg/interfaces"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Clock 时钟（可选，缺省真实时钟）
	Clock clock.Clock `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Exchange 进程内交换机（进程级单例）
	Exchange *Exchange

	// StackFactory 协议栈工厂
	StackFactory interfaces.StackFactory
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	exchange := NewExchange()
	return ModuleOutput{
		Exchange:     exchange,
		StackFactory: Factory{Exchange: exchange, Clock: input.Clock},
	}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("stack/inproc",
		fx.Provide(ProvideServices),
	)
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "stack/inproc"
	// Description 模块描述
	Description = "进程内回环协议栈模块，提供交换机与栈工厂"
)
