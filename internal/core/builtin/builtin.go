// Package builtin 实现域的内建主题状态
//
// 内建主题是描述已发现参与者/实体的中间件内部元数据主题。本核心
// 不承载其样本数据路径，只负责：
//   - 把三个内建主题类型注册为域内的本地类型（因此对内建类型的
//     解析等待总是立即命中，不会发出网络请求）
//   - 维护实例键到实例句柄的映射（murmur3 键哈希）
//
// Init/Fini 严格成对，Fini 后映射拒绝分配。
package builtin

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/depub/go-depub/internal/util/logger"
	"github.com/depub/go-depub/pkg/interfaces"
	"github.com/depub/go-depub/pkg/types"
)

// 包级别日志实例
var log = logger.Logger("core/builtin")

// 内建主题类型名
const (
	// TopicParticipant 参与者内建主题
	TopicParticipant = "BuiltinParticipant"
	// TopicPublication 发布内建主题
	TopicPublication = "BuiltinPublication"
	// TopicSubscription 订阅内建主题
	TopicSubscription = "BuiltinSubscription"
)

// ErrFinalized 内建状态已释放
var ErrFinalized = errors.New("builtin state finalized")

// builtinDescriptors 三个内建主题的类型对象（进程内共享，内容哈希恒定）
func builtinDescriptors() []*types.TypeObject {
	return []*types.TypeObject{
		types.NewTypeObject(TopicParticipant, []byte("builtin/participant/v1")),
		types.NewTypeObject(TopicPublication, []byte("builtin/publication/v1")),
		types.NewTypeObject(TopicSubscription, []byte("builtin/subscription/v1")),
	}
}

// ============================================================================
//                              State
// ============================================================================

// State 一个域的内建主题状态，实现 interfaces.Builtin
type State struct {
	domainID types.DomainID

	mu        sync.Mutex
	finalized bool
	// handles 实例键哈希 → 实例句柄
	handles map[uint64]types.InstanceID
}

// New 创建内建主题状态（未初始化）
func New(domainID types.DomainID) *State {
	return &State{domainID: domainID}
}

// Init 注册内建主题类型并分配实例句柄映射
func (s *State) Init(reg interfaces.TypeRegistrar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, obj := range builtinDescriptors() {
		if err := reg.RegisterLocal(localOf(obj), obj); err != nil {
			return err
		}
	}
	s.handles = make(map[uint64]types.InstanceID)
	s.finalized = false
	log.Debug("内建主题初始化完成", "domain", s.domainID)
	return nil
}

// Fini 释放内建主题状态（Init 的逆）
func (s *State) Fini() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles = nil
	s.finalized = true
	log.Debug("内建主题已释放", "domain", s.domainID)
}

// InstanceHandle 返回实例键对应的句柄，不存在则分配
//
// 同一实例键总是得到同一句柄（murmur3 键哈希做映射键）。
func (s *State) InstanceHandle(key []byte) (types.InstanceID, error) {
	h := murmur3.Sum64(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized || s.handles == nil {
		return 0, ErrFinalized
	}
	if iid, ok := s.handles[h]; ok {
		return iid, nil
	}
	iid := types.NextInstanceID()
	s.handles[h] = iid
	return iid, nil
}

// HandleCount 返回已分配句柄数（测试用）
func (s *State) HandleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// ParticipantKey 构造参与者实例键（域 id + 实例 id）
func ParticipantKey(domainID types.DomainID, iid types.InstanceID) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint32(key[:4], uint32(domainID))
	binary.BigEndian.PutUint64(key[4:], uint64(iid))
	return key
}

// ============================================================================
//                              localOf / Factory
// ============================================================================

// builtinLocal 内建类型的本地表示
type builtinLocal struct {
	obj *types.TypeObject
}

func localOf(obj *types.TypeObject) types.LocalType {
	return &builtinLocal{obj: obj}
}

// TypeID 实现 types.LocalType
func (b *builtinLocal) TypeID() types.TypeID { return b.obj.ID }

// TypeName 实现 types.LocalType
func (b *builtinLocal) TypeName() string { return b.obj.Name }

// Factory interfaces.BuiltinFactory 的实现
type Factory struct{}

// New 实现 interfaces.BuiltinFactory
func (Factory) New(id types.DomainID) interfaces.Builtin {
	return New(id)
}
