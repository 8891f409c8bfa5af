package depub

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 时钟（测试注入 mock）
	clock clock.Clock

	// 文本配置解析器
	parser config.Parser

	// 自定义协议栈工厂（缺省进程内回环栈）
	stackFactory interfaces.StackFactory

	// 指标
	metrics struct {
		enable     bool
		registerer prometheus.Registerer
	}
}

// defaultOptions 返回默认选项
func defaultOptions() *options {
	return &options{}
}

// apply 应用全部选项
func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

// WithClock 注入时钟
//
// 测试中配合 mock 时钟驱动类型解析等待的截止时刻与存活采样。
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithConfigParser 注入文本配置解析器
//
// 未注入时，非空配置文本的创建请求失败。
func WithConfigParser(p config.Parser) Option {
	return func(o *options) error {
		o.parser = p
		return nil
	}
}

// WithStackFactory 替换协议栈工厂
//
// 缺省使用进程内回环协议栈（同进程域之间互相应答类型查询）。
func WithStackFactory(f interfaces.StackFactory) Option {
	return func(o *options) error {
		o.stackFactory = f
		return nil
	}
}

// WithMetrics 启用 Prometheus 指标
//
// registerer 为 nil 时使用默认注册器。
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(o *options) error {
		o.metrics.enable = true
		o.metrics.registerer = registerer
		return nil
	}
}
