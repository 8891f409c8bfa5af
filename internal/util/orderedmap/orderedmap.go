// Package orderedmap 提供按键有序的映射
//
// 注册表的域树和实体的子节点集合都依赖有序遍历语义：
//   - Min: 最小键（"默认域"解析为当前最小 id 的域）
//   - Succ: 严格大于给定键的最小项（遍历时允许在访问之间释放锁，
//     以 last-key 断点续传，不受并发插入/删除影响）
//
// 基于排序切片 + 二分查找实现。域和实体数量都很小（个位数到
// 数百），切片比平衡树更紧凑且缓存友好。
package orderedmap

import (
	"cmp"
	"sort"
)

// Map 按键升序维护的映射
//
// 非并发安全，调用方负责加锁。
type Map[K cmp.Ordered, V any] struct {
	keys   []K
	values []V
}

// New 创建空的有序映射
func New[K cmp.Ordered, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// Len 返回元素个数
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// search 返回 key 应在的位置
func (m *Map[K, V]) search(key K) int {
	return sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= key })
}

// Get 查找指定键
func (m *Map[K, V]) Get(key K) (V, bool) {
	i := m.search(key)
	if i < len(m.keys) && m.keys[i] == key {
		return m.values[i], true
	}
	var zero V
	return zero, false
}

// Set 插入或覆盖指定键
func (m *Map[K, V]) Set(key K, value V) {
	i := m.search(key)
	if i < len(m.keys) && m.keys[i] == key {
		m.values[i] = value
		return
	}
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	copy(m.keys[i+1:], m.keys[i:])
	copy(m.values[i+1:], m.values[i:])
	m.keys[i] = key
	m.values[i] = value
}

// Delete 删除指定键，返回是否存在
func (m *Map[K, V]) Delete(key K) bool {
	i := m.search(key)
	if i >= len(m.keys) || m.keys[i] != key {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	return true
}

// Min 返回最小键及其值
func (m *Map[K, V]) Min() (K, V, bool) {
	if len(m.keys) == 0 {
		var zk K
		var zv V
		return zk, zv, false
	}
	return m.keys[0], m.values[0], true
}

// Succ 返回严格大于 key 的最小项
func (m *Map[K, V]) Succ(key K) (K, V, bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] > key })
	if i >= len(m.keys) {
		var zk K
		var zv V
		return zk, zv, false
	}
	return m.keys[i], m.values[i], true
}

// SuccEq 返回大于等于 key 的最小项
func (m *Map[K, V]) SuccEq(key K) (K, V, bool) {
	i := m.search(key)
	if i >= len(m.keys) {
		var zk K
		var zv V
		return zk, zv, false
	}
	return m.keys[i], m.values[i], true
}

// Keys 返回升序键切片（副本）
func (m *Map[K, V]) Keys() []K {
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range 按键升序遍历，回调返回 false 时停止
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	for i := range m.keys {
		if !fn(m.keys[i], m.values[i]) {
			return
		}
	}
}
