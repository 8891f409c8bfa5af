package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Registerer 指标注册器（可选，缺省用默认注册器）
	Registerer prometheus.Registerer `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Recorder 核心指标记录器
	Recorder *Recorder
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	return ModuleOutput{Recorder: New(input.Registerer)}, nil
}

// Module 返回 fx 模块配置
//
// 指标是可选模块：不加载时依赖方收到 nil Recorder，记录方法
// 全部退化为空操作。
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideServices),
	)
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "metrics"
	// Description 模块描述
	Description = "域注册表核心指标模块，提供 Prometheus 计数与仪表"
)
