package types

import (
	"fmt"
	"sync/atomic"
)

// ============================================================================
//                              DomainID
// ============================================================================

// DomainID 域标识
//
// 域是绑定到一个数值 id 的中间件运行时实例。同一进程中每个 id 至多
// 存在一个域。
type DomainID uint32

// DomainDefault "默认域"哨兵值
//
// 隐式创建时表示"复用当前 id 最小的域，没有则新建"；
// 显式创建时为非法参数。
const DomainDefault DomainID = 0xffffffff

// IsDefault 判断是否为默认哨兵
func (id DomainID) IsDefault() bool {
	return id == DomainDefault
}

// String 返回可读形式
func (id DomainID) String() string {
	if id.IsDefault() {
		return "default"
	}
	return fmt.Sprintf("%d", uint32(id))
}

// ============================================================================
//                              InstanceID
// ============================================================================

// InstanceID 实体实例标识
//
// 进程内单调递增，用于实体子节点的确定性有序遍历。
type InstanceID uint64

// iidCounter 进程级实例 id 生成器
var iidCounter atomic.Uint64

// NextInstanceID 生成下一个实例 id
//
// 从 1 开始；0 保留为"遍历起点之前"的哨兵。
func NextInstanceID() InstanceID {
	return InstanceID(iidCounter.Add(1))
}
