// Package shmmon 实现共享内存监视器
//
// 配置开关控制的可选生命周期阶段：Init 启动一个分发协程，把唤醒
// 事件派发给已注册的回调；Destroy 停止分发并拒绝后续唤醒。共享
// 内存传输本体不在本核心范围内，这里只提供唤醒分发骨架。
package shmmon

import (
	"errors"
	"sync"

	"github.com/depub/go-depub/internal/util/logger"
	"github.com/depub/go-depub/pkg/interfaces"
	"github.com/depub/go-depub/pkg/types"
)

// 包级别日志实例
var log = logger.Logger("core/shmmon")

// ErrDestroyed 监视器已销毁
var ErrDestroyed = errors.New("shm monitor destroyed")

// wakeBuffer 唤醒通道缓冲
const wakeBuffer = 64

// ============================================================================
//                              Monitor
// ============================================================================

// Monitor interfaces.ShmMonitor 的实现
type Monitor struct {
	domainID types.DomainID

	mu        sync.Mutex
	callbacks []func()
	wake      chan struct{}
	done      chan struct{}
	running   bool
}

// New 创建监视器（未初始化）
func New(domainID types.DomainID) *Monitor {
	return &Monitor{domainID: domainID}
}

// Init 启动唤醒分发
func (m *Monitor) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}
	m.wake = make(chan struct{}, wakeBuffer)
	m.done = make(chan struct{})
	m.running = true

	go m.dispatch(m.wake, m.done)
	log.Debug("共享内存监视器启动", "domain", m.domainID)
	return nil
}

// Destroy 停止分发并拒绝后续唤醒（Init 的逆）
func (m *Monitor) Destroy() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.wake)
	done := m.done
	m.mu.Unlock()

	<-done
	log.Debug("共享内存监视器销毁", "domain", m.domainID)
}

// Register 注册唤醒回调
func (m *Monitor) Register(cb func()) {
	m.mu.Lock()
	m.callbacks = append(m.callbacks, cb)
	m.mu.Unlock()
}

// Wake 投递一次唤醒
//
// 销毁后返回 ErrDestroyed；缓冲满时合并丢弃（唤醒是水平触发语义）。
func (m *Monitor) Wake() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return ErrDestroyed
	}
	select {
	case m.wake <- struct{}{}:
	default:
	}
	return nil
}

// dispatch 分发循环
func (m *Monitor) dispatch(wake <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for range wake {
		m.mu.Lock()
		cbs := make([]func(), len(m.callbacks))
		copy(cbs, m.callbacks)
		m.mu.Unlock()
		for _, cb := range cbs {
			cb()
		}
	}
}

// ============================================================================
//                              Factory
// ============================================================================

// Factory interfaces.ShmMonitorFactory 的实现
type Factory struct{}

// New 实现 interfaces.ShmMonitorFactory
func (Factory) New(id types.DomainID) interfaces.ShmMonitor {
	return New(id)
}
