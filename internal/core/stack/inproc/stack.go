package inproc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/pkg/interfaces"
	"github.com/depub/go-depub/pkg/types"
)

// 协议栈错误
var (
	// ErrNotInited 栈尚未初始化
	ErrNotInited = errors.New("stack not initialized")

	// ErrNotStarted 栈尚未启动
	ErrNotStarted = errors.New("stack not started")

	// ErrStillStarted 栈仍在运行（Fini 前必须 Stop）
	ErrStillStarted = errors.New("stack still started")

	// ErrNoExchange 工厂缺少交换机
	ErrNoExchange = errors.New("no exchange configured")
)

// inboxBuffer 收件箱缓冲
const inboxBuffer = 256

// heartbeatInterval 工作协程空闲心跳间隔（进度计数推进）
const heartbeatInterval = 100 * time.Millisecond

// stackState 栈生命周期状态
type stackState uint8

const (
	statePrepped stackState = iota
	stateInited
	stateStarted
	stateFinished
)

// ============================================================================
//                              Stack
// ============================================================================

// Stack interfaces.Stack 的进程内实现
type Stack struct {
	domainID types.DomainID
	guid     uuid.UUID
	cfg      config.StackConfig
	exchange *Exchange
	lookup   interfaces.TypeLookup
	clock    clock.Clock

	mu     sync.Mutex
	state  stackState
	inbox  chan envelope
	cancel context.CancelFunc
	eg     *errgroup.Group

	// progress 各工作协程的进度计数
	progress []atomic.Uint64

	deaf atomic.Bool
	mute atomic.Bool
	// resetTimer 听/说抑制的自动恢复计时器
	resetTimer *clock.Timer
}

// ============================================================================
//                              生命周期
// ============================================================================

// Init 分配协议栈运行时状态
func (s *Stack) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != statePrepped {
		return fmt.Errorf("init in state %d", s.state)
	}
	s.inbox = make(chan envelope, inboxBuffer)
	s.progress = make([]atomic.Uint64, s.cfg.Workers)
	s.state = stateInited
	return nil
}

// Start 启动工作协程并接入交换机
func (s *Stack) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateInited {
		return ErrNotInited
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.eg, _ = errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		i := i
		s.eg.Go(func() error {
			s.worker(ctx, i)
			return nil
		})
	}

	s.exchange.attach(s)
	s.state = stateStarted
	log.Info("协议栈启动", "domain", s.domainID, "workers", s.cfg.Workers)
	return nil
}

// Stop 停止工作协程（Start 的逆）
func (s *Stack) Stop() error {
	s.mu.Lock()
	if s.state != stateStarted {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.exchange.detach(s.guid)
	s.cancel()
	eg := s.eg
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	s.state = stateInited
	s.mu.Unlock()

	_ = eg.Wait()
	log.Info("协议栈停止", "domain", s.domainID)
	return nil
}

// Fini 释放运行时状态（Init 的逆）
func (s *Stack) Fini() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateStarted:
		return ErrStillStarted
	case stateInited:
		s.inbox = nil
		s.progress = nil
		s.state = stateFinished
		return nil
	default:
		return fmt.Errorf("fini in state %d", s.state)
	}
}

// ============================================================================
//                              工作协程
// ============================================================================

// worker 消费收件箱；空闲时按心跳推进进度计数
func (s *Stack) worker(ctx context.Context, idx int) {
	ticker := s.clock.Ticker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-s.inboxRef():
			s.progress[idx].Add(1)
			s.handle(env)
		case <-ticker.C:
			s.progress[idx].Add(1)
		}
	}
}

// inboxRef 读取收件箱引用（Stop/Fini 竞态下保持稳定）
func (s *Stack) inboxRef() <-chan envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inbox
}

// handle 处理一个入站信封
func (s *Stack) handle(env envelope) {
	// deaf: 丢弃全部入站投递
	if s.deaf.Load() {
		return
	}
	switch env.kind {
	case kindTypeRequest:
		objs := s.lookup.LookupTypeObjects(env.id, env.includeDeps)
		if len(objs) == 0 {
			return
		}
		// mute: 丢弃出站应答
		if s.mute.Load() {
			return
		}
		s.exchange.respond(env.from, envelope{kind: kindTypeResponse, from: s.guid, objs: objs})

	case kindTypeResponse:
		s.lookup.AddTypeObjects(env.objs)

	case kindTypeAdvert:
		s.lookup.ReferenceType(env.id)
	}
}

// deliver 投递一个信封（不阻塞发送方，收件箱满时丢弃）
func (s *Stack) deliver(env envelope) {
	s.mu.Lock()
	inbox := s.inbox
	started := s.state == stateStarted
	s.mu.Unlock()
	if !started || inbox == nil {
		return
	}
	select {
	case inbox <- env:
	default:
		log.Warn("收件箱已满，投递丢弃", "domain", s.domainID)
	}
}

// ============================================================================
//                              操作
// ============================================================================

// SetDeafMute 设置听/说抑制
func (s *Stack) SetDeafMute(deaf, mute bool, resetAfter time.Duration) {
	s.deaf.Store(deaf)
	s.mute.Store(mute)
	log.Info("deafmute 更新", "domain", s.domainID, "deaf", deaf, "mute", mute, "reset", resetAfter)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	if (deaf || mute) && resetAfter > 0 {
		s.resetTimer = s.clock.AfterFunc(resetAfter, func() {
			s.deaf.Store(false)
			s.mute.Store(false)
			log.Info("deafmute 自动恢复", "domain", s.domainID)
		})
	}
}

// RequestType 发出异步类型解析请求
//
// mute 期间出站请求被静默丢弃（抑制语义），调用本身不报错。
func (s *Stack) RequestType(id types.TypeID, includeDeps bool) error {
	s.mu.Lock()
	started := s.state == stateStarted
	s.mu.Unlock()
	if !started {
		return ErrNotStarted
	}
	if s.mute.Load() {
		return nil
	}
	s.exchange.broadcast(s.guid, envelope{
		kind:        kindTypeRequest,
		from:        s.guid,
		id:          id,
		includeDeps: includeDeps,
	})
	return nil
}

// AdvertiseType 向对端通告本地注册的类型标识
//
// 实现 interfaces.TypeAdvertiser。
func (s *Stack) AdvertiseType(id types.TypeID) {
	s.mu.Lock()
	started := s.state == stateStarted
	s.mu.Unlock()
	if !started || s.mute.Load() {
		return
	}
	s.exchange.broadcast(s.guid, envelope{kind: kindTypeAdvert, from: s.guid, id: id})
}

// ThreadProgress 各工作协程的进度计数快照
func (s *Stack) ThreadProgress() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.progress))
	for i := range s.progress {
		out[fmt.Sprintf("inproc-worker-%d", i)] = s.progress[i].Load()
	}
	return out
}

// ============================================================================
//                              Factory
// ============================================================================

// Factory interfaces.StackFactory 的实现
type Factory struct {
	// Exchange 进程内交换机（必需）
	Exchange *Exchange

	// Clock 可注入时钟（nil 用真实时钟）
	Clock clock.Clock
}

// Prep 校验配置并构造未初始化的栈实例
//
// 准备阶段只做校验与派生，不持有任何资源。
func (f Factory) Prep(id types.DomainID, cfg config.StackConfig, lookup interfaces.TypeLookup) (interfaces.Stack, error) {
	if f.Exchange == nil {
		return nil, ErrNoExchange
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("invalid worker count %d", cfg.Workers)
	}
	if lookup == nil {
		return nil, errors.New("nil type lookup")
	}
	clk := f.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Stack{
		domainID: id,
		guid:     uuid.New(),
		cfg:      cfg,
		exchange: f.Exchange,
		lookup:   lookup,
		clock:    clk,
	}, nil
}
