package typereg

import (
	"sync"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/depub/go-depub/internal/core/metrics"
	"github.com/depub/go-depub/internal/util/logger"
	"github.com/depub/go-depub/pkg/types"
)

// 包级别日志实例
var log = logger.Logger("core/typereg")

// ============================================================================
//                              Type
// ============================================================================

// Type 注册表中的一个类型条目
type Type struct {
	id     types.TypeID
	local  types.LocalType
	object *types.TypeObject
	deps   map[types.TypeID]struct{}
}

// State 返回解析状态
func (t *Type) State() types.ResolutionState {
	switch {
	case t.local != nil && t.object != nil:
		return types.ResolutionComplete
	case t.local != nil:
		return types.ResolutionLocalOnly
	case t.object != nil:
		return types.ResolutionDescriptionOnly
	default:
		return types.ResolutionUnresolved
	}
}

// ============================================================================
//                              Library
// ============================================================================

// Requester 异步类型解析请求出口（绑定到域的协议栈）
type Requester func(id types.TypeID, includeDeps bool) error

// Library 每域类型注册表
type Library struct {
	domainID types.DomainID

	mu    sync.Mutex
	types map[types.TypeID]*Type

	// resolvedCh 解析广播通道：每次广播关闭并更换。所有类型共享，
	// 唤醒后必须重查谓词。
	resolvedCh chan struct{}

	clock     clock.Clock
	requester Requester
	descCache *lru.Cache[types.TypeID, *types.TypeDescription]
	rec       *metrics.Recorder
}

// NewLibrary 创建类型注册表
func NewLibrary(domainID types.DomainID, clk clock.Clock, cacheSize int, rec *metrics.Recorder) (*Library, error) {
	cache, err := lru.New[types.TypeID, *types.TypeDescription](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Library{
		domainID:   domainID,
		types:      make(map[types.TypeID]*Type),
		resolvedCh: make(chan struct{}),
		clock:      clk,
		descCache:  cache,
		rec:        rec,
	}, nil
}

// BindRequester 绑定异步请求出口（域初始化期调用，早于任何等待）
func (l *Library) BindRequester(r Requester) {
	l.mu.Lock()
	l.requester = r
	l.mu.Unlock()
}

// broadcastLocked 广播解析推进，唤醒全部等待者
func (l *Library) broadcastLocked() {
	close(l.resolvedCh)
	l.resolvedCh = make(chan struct{})
	l.rec.TypeResolutionBroadcast()
}

// ensureLocked 确保条目存在
func (l *Library) ensureLocked(id types.TypeID) *Type {
	t, ok := l.types[id]
	if !ok {
		t = &Type{id: id, deps: make(map[types.TypeID]struct{})}
		l.types[id] = t
	}
	return t
}

// adoptObjectLocked 采纳类型对象，返回是否有推进
func (l *Library) adoptObjectLocked(obj *types.TypeObject) bool {
	t := l.ensureLocked(obj.ID)
	if t.object != nil {
		return false
	}
	t.object = obj
	for _, dep := range obj.Dependencies {
		t.deps[dep] = struct{}{}
		l.ensureLocked(dep)
	}
	return true
}

// resolvedLocked 解析谓词
//
// 基本解析：持有本地表示或类型对象。includeDeps 为真时还要求
// 传递闭包内的所有依赖都已基本解析。
func (l *Library) resolvedLocked(t *Type, includeDeps bool) bool {
	if t.State() == types.ResolutionUnresolved {
		return false
	}
	if !includeDeps {
		return true
	}
	visited := map[types.TypeID]struct{}{t.id: {}}
	queue := make([]types.TypeID, 0, len(t.deps))
	for dep := range t.deps {
		queue = append(queue, dep)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		dt, ok := l.types[id]
		if !ok || dt.State() == types.ResolutionUnresolved {
			return false
		}
		for dd := range dt.deps {
			queue = append(queue, dd)
		}
	}
	return true
}

// ============================================================================
//                              注册与采纳
// ============================================================================

// RegisterLocal 注册本地类型及其类型对象
//
// 实现 interfaces.TypeRegistrar。解析状态推进并广播。
func (l *Library) RegisterLocal(lt types.LocalType, obj *types.TypeObject) error {
	if lt == nil {
		return types.ErrBadParameter
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.ensureLocked(lt.TypeID())
	t.local = lt
	if obj != nil {
		l.adoptObjectLocked(obj)
	}
	log.Debug("local type registered", "domain", l.domainID, "type", lt.TypeID().ShortString(), "name", lt.TypeName())
	l.broadcastLocked()
	return nil
}

// AddTypeObjects 采纳远端送达的类型对象
//
// 实现 interfaces.TypeLookup。有任何推进时广播一次。
func (l *Library) AddTypeObjects(objs []*types.TypeObject) {
	if len(objs) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	advanced := false
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		if l.adoptObjectLocked(obj) {
			advanced = true
		}
	}
	if advanced {
		log.Debug("remote type objects adopted", "domain", l.domainID, "count", len(objs))
		l.broadcastLocked()
	}
}

// LookupTypeObjects 应答一次类型查询
//
// 实现 interfaces.TypeLookup。返回已持有的类型对象；includeDeps
// 为真时附带传递依赖的对象。
func (l *Library) LookupTypeObjects(id types.TypeID, includeDeps bool) []*types.TypeObject {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.types[id]
	if !ok || t.object == nil {
		return nil
	}
	out := []*types.TypeObject{t.object}
	if !includeDeps {
		return out
	}
	visited := map[types.TypeID]struct{}{id: {}}
	queue := make([]types.TypeID, 0, len(t.deps))
	for dep := range t.deps {
		queue = append(queue, dep)
	}
	for len(queue) > 0 {
		depID := queue[0]
		queue = queue[1:]
		if _, seen := visited[depID]; seen {
			continue
		}
		visited[depID] = struct{}{}
		dt, ok := l.types[depID]
		if !ok || dt.object == nil {
			continue
		}
		out = append(out, dt.object)
		for dd := range dt.deps {
			queue = append(queue, dd)
		}
	}
	return out
}

// ReferenceType 记录一个已知但未解析的类型标识
//
// 类型通告（对端本地注册时广播标识）走此入口：域由此"知道"该
// 类型，之后的解析等待才可能成功。
func (l *Library) ReferenceType(id types.TypeID) {
	if !id.IsHash() {
		return
	}
	l.mu.Lock()
	l.ensureLocked(id)
	l.mu.Unlock()
}

// ============================================================================
//                              查询
// ============================================================================

// Known 判断域是否知道该类型
func (l *Library) Known(id types.TypeID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.types[id]
	return ok
}

// StateOf 返回类型的解析状态
func (l *Library) StateOf(id types.TypeID) (types.ResolutionState, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.types[id]
	if !ok {
		return types.ResolutionUnresolved, false
	}
	return t.State(), true
}

// Len 返回已知类型数
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.types)
}
