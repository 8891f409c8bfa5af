package entity

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/depub/go-depub/pkg/types"
)

// ============================================================================
// 并发测试
// ============================================================================

// TestConcurrent_PinVsClose 测试借用与关闭的竞态
//
// 任何一次成功的 Pin 都必须有对应的 Unpin 在终结器之前发生；
// 关闭开始后的 Pin 必须全部失败。
func TestConcurrent_PinVsClose(t *testing.T) {
	e := New(types.KindDomain, nil, nil)

	var inUse atomic.Int32
	var finalizedWhileInUse atomic.Bool
	e.finalizer = func(*Entity) error {
		if inUse.Load() != 0 {
			finalizedWhileInUse.Store(true)
		}
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if err := e.Pin(); err != nil {
					return
				}
				inUse.Add(1)
				inUse.Add(-1)
				e.Unpin()
			}
		}()
	}

	_ = e.Close()
	wg.Wait()

	assert.False(t, finalizedWhileInUse.Load(), "终结器运行时不应有在借者")
	assert.Equal(t, types.HandleFreed, e.State())
}

// TestConcurrent_ShareVsClose 测试共享与关闭的竞态
//
// TryShare 成功则对象保证存活到对应的 DropRef；失败则对象已在关闭。
func TestConcurrent_ShareVsClose(t *testing.T) {
	var finalized atomic.Int32
	e := New(types.KindDomain, nil, func(*Entity) error {
		finalized.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	var shares atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if e.TryShare() {
				shares.Add(1)
				_ = e.DropRef()
			}
		}()
	}
	_ = e.DropRef() // 释放创建引用
	wg.Wait()

	assert.Equal(t, int32(1), finalized.Load(), "终结器应恰好运行一次")
}

// TestConcurrent_ChildRegistration 测试并发挂载子节点
func TestConcurrent_ChildRegistration(t *testing.T) {
	parent := New(types.KindDomain, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parent.RegisterChild(New(types.KindParticipant, nil, nil))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, parent.ChildCount())

	// 遍历应看到严格递增的实例 id
	var last types.InstanceID
	count := 0
	for {
		parent.Lock()
		c, ok := parent.ChildSucc(last)
		parent.Unlock()
		if !ok {
			break
		}
		assert.Greater(t, uint64(c.InstanceID()), uint64(last))
		last = c.InstanceID()
		count++
	}
	assert.Equal(t, 20, count)
}
