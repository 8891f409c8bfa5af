package config

import (
	"errors"
	"fmt"
)

// 配置校验错误
var (
	// ErrNoWorkers 工作协程数必须为正
	ErrNoWorkers = errors.New("stack workers must be positive")

	// ErrBadInterval 采样间隔必须为正
	ErrBadInterval = errors.New("liveliness interval must be positive")

	// ErrBadCacheSize 缓存容量必须为正
	ErrBadCacheSize = errors.New("description cache size must be positive")
)

// Validate 校验配置
//
// 这是协议栈准备阶段的输入校验：只做派生与检查，不持有任何资源，
// 因此该阶段失败无需回退动作。
func (c *Config) Validate() error {
	if c.Stack.Workers <= 0 {
		return fmt.Errorf("%w: got %d", ErrNoWorkers, c.Stack.Workers)
	}
	if c.LivelinessMonitoring && c.LivelinessInterval <= 0 {
		return fmt.Errorf("%w: got %v", ErrBadInterval, c.LivelinessInterval)
	}
	if c.TypeReg.DescriptionCacheSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrBadCacheSize, c.TypeReg.DescriptionCacheSize)
	}
	return nil
}
