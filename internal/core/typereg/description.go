package typereg

import (
	"github.com/depub/go-depub/pkg/types"
)

// descriptionLocked 物化类型描述
//
// 类型对象加传递闭包的依赖标识。已物化的描述缓存在每域 LRU 中，
// 重复查询复用同一实例。类型对象缺失时返回 nil。
func (l *Library) descriptionLocked(t *Type) *types.TypeDescription {
	if t.object == nil {
		return nil
	}
	if d, ok := l.descCache.Get(t.id); ok {
		return d
	}

	// 传递闭包（广度优先，确定性由访问集合保证，顺序不承诺）
	var deps []types.TypeID
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
		deps = append(deps, id)
		if dt, ok := l.types[id]; ok {
			for dd := range dt.deps {
				queue = append(queue, dd)
			}
		}
	}

	d := &types.TypeDescription{
		ID:           t.id,
		Object:       t.object,
		Dependencies: deps,
	}
	l.descCache.Add(t.id, d)
	return d
}

// FreeDescription 释放一个类型描述
//
// nil 为非法参数。描述从缓存摘除后，后续查询会重新物化。
func (l *Library) FreeDescription(d *types.TypeDescription) error {
	if d == nil {
		return types.ErrBadParameter
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.descCache.Get(d.ID); ok && cached == d {
		l.descCache.Remove(d.ID)
	}
	return nil
}
