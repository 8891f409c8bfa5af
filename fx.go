package depub

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/internal/core/domain"
	"github.com/depub/go-depub/internal/core/metrics"
	"github.com/depub/go-depub/internal/core/stack/inproc"
	"github.com/depub/go-depub/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 组装内部模块，采用条件加载策略：
//   - 核心模块：必须加载（domain）
//   - 协议栈：缺省进程内回环栈，可被 WithStackFactory 替换
//   - 条件模块：指标（WithMetrics 启用时）
//   - 注入项：时钟、配置解析器（设置时）
func buildFxApp(o *options, inst *Instance) *fx.App {
	var modules []fx.Option

	// ════════════════════════════════════════════════════════════════════════
	// 1. 注入项（条件提供）
	// ════════════════════════════════════════════════════════════════════════
	if o.clock != nil {
		modules = append(modules, fx.Provide(func() clock.Clock { return o.clock }))
	}
	if o.parser != nil {
		modules = append(modules, fx.Provide(func() config.Parser { return o.parser }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 协议栈（缺省进程内回环，可替换）
	// ════════════════════════════════════════════════════════════════════════
	if o.stackFactory != nil {
		modules = append(modules, fx.Provide(func() interfaces.StackFactory { return o.stackFactory }))
	} else {
		modules = append(modules, inproc.Module())
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 指标（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	if o.metrics.enable {
		if o.metrics.registerer != nil {
			modules = append(modules, fx.Provide(func() prometheus.Registerer { return o.metrics.registerer }))
		}
		modules = append(modules, metrics.Module())
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. 核心模块
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		domain.Module(),
		fx.Populate(&inst.registry),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	return fx.New(modules...)
}
