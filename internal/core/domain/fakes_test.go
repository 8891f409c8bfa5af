package domain

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/pkg/interfaces"
	"github.com/depub/go-depub/pkg/types"
)

// errInjected 注入的阶段失败
var errInjected = errors.New("injected failure")

// ============================================================================
//                              协议栈伪实现
// ============================================================================

// fakeCalls 协作方调用计数（对称性校验用）
type fakeCalls struct {
	mu sync.Mutex
	n  map[string]int
}

func newFakeCalls() *fakeCalls {
	return &fakeCalls{n: make(map[string]int)}
}

func (c *fakeCalls) bump(name string) {
	c.mu.Lock()
	c.n[name]++
	c.mu.Unlock()
}

func (c *fakeCalls) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[name]
}

// fakeStackFactory 可注入失败的协议栈工厂
type fakeStackFactory struct {
	calls *fakeCalls

	failPrep  bool
	failInit  bool
	failStart bool
}

func newFakeStackFactory() *fakeStackFactory {
	return &fakeStackFactory{calls: newFakeCalls()}
}

func (f *fakeStackFactory) Prep(id types.DomainID, cfg config.StackConfig, lookup interfaces.TypeLookup) (interfaces.Stack, error) {
	f.calls.bump("prep")
	if f.failPrep {
		return nil, errInjected
	}
	return &fakeStack{factory: f}, nil
}

type fakeStack struct {
	factory *fakeStackFactory
}

func (s *fakeStack) Init(context.Context) error {
	s.factory.calls.bump("init")
	if s.factory.failInit {
		return errInjected
	}
	return nil
}

func (s *fakeStack) Start(context.Context) error {
	s.factory.calls.bump("start")
	if s.factory.failStart {
		return errInjected
	}
	return nil
}

func (s *fakeStack) Stop() error {
	s.factory.calls.bump("stop")
	return nil
}

func (s *fakeStack) Fini() error {
	s.factory.calls.bump("fini")
	return nil
}

func (s *fakeStack) SetDeafMute(deaf, mute bool, resetAfter time.Duration) {
	s.factory.calls.bump("deafmute")
}

func (s *fakeStack) RequestType(id types.TypeID, includeDeps bool) error {
	s.factory.calls.bump("request")
	return nil
}

func (s *fakeStack) ThreadProgress() map[string]uint64 {
	return map[string]uint64{"fake-0": 0}
}

// ============================================================================
//                              监视器伪实现
// ============================================================================

// fakeMonFactory 可注入失败的线程存活监视器工厂
type fakeMonFactory struct {
	calls   *fakeCalls
	failNew bool
}

func newFakeMonFactory() *fakeMonFactory {
	return &fakeMonFactory{calls: newFakeCalls()}
}

func (f *fakeMonFactory) New(interval time.Duration) (interfaces.ThreadMonitor, error) {
	f.calls.bump("new")
	if f.failNew {
		return nil, errInjected
	}
	return &fakeMonitor{factory: f}, nil
}

type fakeMonitor struct {
	factory *fakeMonFactory
}

func (m *fakeMonitor) Start(string) error {
	m.factory.calls.bump("start")
	return nil
}

func (m *fakeMonitor) Stop() {
	m.factory.calls.bump("stop")
}

func (m *fakeMonitor) RegisterDomain(types.DomainID, interfaces.ProgressSource) {
	m.factory.calls.bump("register")
}

func (m *fakeMonitor) UnregisterDomain(types.DomainID) {
	m.factory.calls.bump("unregister")
}

// fakeShmFactory 可注入失败的共享内存监视器工厂
type fakeShmFactory struct {
	calls    *fakeCalls
	failInit bool
}

func newFakeShmFactory() *fakeShmFactory {
	return &fakeShmFactory{calls: newFakeCalls()}
}

func (f *fakeShmFactory) New(types.DomainID) interfaces.ShmMonitor {
	return &fakeShm{factory: f}
}

func (s *fakeShm) Init() error {
	s.factory.calls.bump("init")
	if s.factory.failInit {
		return errInjected
	}
	return nil
}

func (s *fakeShm) Destroy() {
	s.factory.calls.bump("destroy")
}

type fakeShm struct {
	factory *fakeShmFactory
}

// fakeBuiltinFactory 可注入失败的内建主题工厂
type fakeBuiltinFactory struct {
	calls    *fakeCalls
	failInit bool
}

func newFakeBuiltinFactory() *fakeBuiltinFactory {
	return &fakeBuiltinFactory{calls: newFakeCalls()}
}

func (f *fakeBuiltinFactory) New(types.DomainID) interfaces.Builtin {
	return &fakeBuiltin{factory: f}
}

type fakeBuiltin struct {
	factory *fakeBuiltinFactory
}

func (b *fakeBuiltin) Init(interfaces.TypeRegistrar) error {
	b.factory.calls.bump("init")
	if b.factory.failInit {
		return errInjected
	}
	return nil
}

func (b *fakeBuiltin) Fini() {
	b.factory.calls.bump("fini")
}
