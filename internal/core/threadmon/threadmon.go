// Package threadmon 实现线程存活监视器
//
// 监视器是进程级引用计数单例，由注册表持有：第一个启用存活监视的
// 域创建并启动它，最后一个这样的域拆除时销毁它（引用计数变更全部
// 在注册表全局锁下）。
//
// 采样循环按固定间隔读取每个已注册域的协议栈线程进度计数；与上次
// 采样相比无进展的线程视为停滞并记录日志。停滞计数可供测试与诊断
// 查询。时钟可注入（mock 时钟驱动确定性测试）。
package threadmon

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/depub/go-depub/internal/util/logger"
	"github.com/depub/go-depub/pkg/interfaces"
	"github.com/depub/go-depub/pkg/types"
)

// 包级别日志实例
var log = logger.Logger("core/threadmon")

// 监视器错误
var (
	// ErrAlreadyStarted 采样循环已在运行
	ErrAlreadyStarted = errors.New("thread monitor already started")

	// ErrBadInterval 采样间隔必须为正
	ErrBadInterval = errors.New("thread monitor interval must be positive")
)

// ============================================================================
//                              Monitor
// ============================================================================

// Monitor interfaces.ThreadMonitor 的实现
type Monitor struct {
	interval time.Duration
	clock    clock.Clock

	mu      sync.Mutex
	sources map[types.DomainID]interfaces.ProgressSource
	// last 上次采样的进度计数，键为 域id + 线程名
	last map[types.DomainID]map[string]uint64

	started bool
	stop    chan struct{}
	done    chan struct{}

	// stalls 采样到的停滞次数累计
	stalls atomic.Uint64
}

// New 创建监视器（未启动）
func New(interval time.Duration, clk clock.Clock) (*Monitor, error) {
	if interval <= 0 {
		return nil, ErrBadInterval
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Monitor{
		interval: interval,
		clock:    clk,
		sources:  make(map[types.DomainID]interfaces.ProgressSource),
		last:     make(map[types.DomainID]map[string]uint64),
	}, nil
}

// Start 启动采样循环
func (m *Monitor) Start(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	log.Info("线程存活监视器启动", "name", name, "interval", m.interval)
	go m.run()
	return nil
}

// Stop 停止采样循环并释放资源
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	close(m.stop)
	done := m.done
	m.mu.Unlock()

	<-done
	log.Info("线程存活监视器停止")
}

// RegisterDomain 注册一个域的进度采样源
func (m *Monitor) RegisterDomain(id types.DomainID, src interfaces.ProgressSource) {
	m.mu.Lock()
	m.sources[id] = src
	m.mu.Unlock()
	log.Debug("域注册到存活监视", "domain", id)
}

// UnregisterDomain 注销一个域
func (m *Monitor) UnregisterDomain(id types.DomainID) {
	m.mu.Lock()
	delete(m.sources, id)
	delete(m.last, id)
	m.mu.Unlock()
	log.Debug("域注销存活监视", "domain", id)
}

// DomainCount 返回已注册域数（测试与诊断）
func (m *Monitor) DomainCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// StallCount 返回累计停滞次数
func (m *Monitor) StallCount() uint64 {
	return m.stalls.Load()
}

// run 采样循环
func (m *Monitor) run() {
	defer close(m.done)

	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

// sample 采样一轮：比较各域各线程的进度计数
func (m *Monitor) sample() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, src := range m.sources {
		progress := src.ThreadProgress()
		prev, ok := m.last[id]
		if !ok {
			// 首轮只建立基线
			m.last[id] = progress
			continue
		}
		for name, count := range progress {
			if before, seen := prev[name]; seen && before == count {
				m.stalls.Add(1)
				log.Warn("线程未取得进展", "domain", id, "thread", name, "count", count)
			}
		}
		m.last[id] = progress
	}
}

// ============================================================================
//                              Factory
// ============================================================================

// Factory interfaces.ThreadMonitorFactory 的实现
type Factory struct {
	// Clock 可注入时钟（nil 用真实时钟）
	Clock clock.Clock
}

// New 实现 interfaces.ThreadMonitorFactory
func (f Factory) New(interval time.Duration) (interfaces.ThreadMonitor, error) {
	return New(interval, f.Clock)
}
