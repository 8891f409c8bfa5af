package inproc

import (
	"sync"

	"github.com/google/uuid"

	"github.com/depub/go-depub/internal/util/logger"
	"github.com/depub/go-depub/pkg/types"
)

// 包级别日志实例
var log = logger.Logger("core/stack/inproc")

// ============================================================================
//                              消息信封
// ============================================================================

// envelope 交换机投递的消息
type envelope struct {
	kind envelopeKind
	// from 发起方栈实例（应答寻址用）
	from uuid.UUID
	// id 类型标识（请求/通告）
	id types.TypeID
	// includeDeps 请求是否连带传递依赖
	includeDeps bool
	// objs 应答携带的类型对象
	objs []*types.TypeObject
}

type envelopeKind uint8

const (
	kindTypeRequest envelopeKind = iota
	kindTypeResponse
	kindTypeAdvert
)

// ============================================================================
//                              Exchange
// ============================================================================

// Exchange 进程内回环交换机
//
// 同进程各域的协议栈接入同一交换机后互相可达。进程级单例，由 fx
// 模块提供。
type Exchange struct {
	mu     sync.Mutex
	stacks map[uuid.UUID]*Stack
}

// NewExchange 创建交换机
func NewExchange() *Exchange {
	return &Exchange{stacks: make(map[uuid.UUID]*Stack)}
}

// attach 接入一个栈实例
func (x *Exchange) attach(s *Stack) {
	x.mu.Lock()
	x.stacks[s.guid] = s
	x.mu.Unlock()
	log.Debug("stack attached", "domain", s.domainID, "guid", s.guid)
}

// detach 摘除一个栈实例
func (x *Exchange) detach(guid uuid.UUID) {
	x.mu.Lock()
	delete(x.stacks, guid)
	x.mu.Unlock()
}

// peers 返回除 from 外的全部栈实例快照
func (x *Exchange) peers(from uuid.UUID) []*Stack {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]*Stack, 0, len(x.stacks))
	for guid, s := range x.stacks {
		if guid != from {
			out = append(out, s)
		}
	}
	return out
}

// byGUID 按栈实例标识查找
func (x *Exchange) byGUID(guid uuid.UUID) (*Stack, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.stacks[guid]
	return s, ok
}

// broadcast 把信封投递给 from 之外的所有栈
func (x *Exchange) broadcast(from uuid.UUID, env envelope) {
	for _, peer := range x.peers(from) {
		peer.deliver(env)
	}
}

// respond 把应答投递回发起方
func (x *Exchange) respond(to uuid.UUID, env envelope) {
	if s, ok := x.byGUID(to); ok {
		s.deliver(env)
	}
}

// AttachedCount 返回接入的栈数（测试与诊断）
func (x *Exchange) AttachedCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.stacks)
}
