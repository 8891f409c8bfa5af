package typereg

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depub/go-depub/pkg/types"
)

// countingRequester 记录请求次数与参数的请求出口
type countingRequester struct {
	calls       atomic.Int32
	lastDeps    atomic.Bool
	err         error
	lib         *Library
	respondWith []*types.TypeObject
}

func (r *countingRequester) request(id types.TypeID, includeDeps bool) error {
	r.calls.Add(1)
	r.lastDeps.Store(includeDeps)
	if r.err != nil {
		return r.err
	}
	if r.respondWith != nil {
		// 模拟异步应答
		go r.lib.AddTypeObjects(r.respondWith)
	}
	return nil
}

// TestWaitResolved_ImmediateHit 测试已解析类型立即返回且不发请求
func TestWaitResolved_ImmediateHit(t *testing.T) {
	l := newTestLibrary(t, nil)
	obj := types.NewTypeObject("Foo", []byte("foo"))
	require.NoError(t, l.RegisterLocal(NewLocalType(obj), obj))

	req := &countingRequester{}
	l.BindRequester(req.request)

	t.Run("请求本地表示", func(t *testing.T) {
		lt, _, err := l.WaitResolved(context.Background(), obj.ID, time.Second, true, false)
		require.NoError(t, err)
		require.NotNil(t, lt)
		assert.Equal(t, obj.ID, lt.TypeID())
	})

	t.Run("请求类型描述", func(t *testing.T) {
		_, desc, err := l.WaitResolved(context.Background(), obj.ID, time.Second, false, true)
		require.NoError(t, err)
		require.NotNil(t, desc)
		assert.Equal(t, obj.ID, desc.ID)
	})

	t.Run("同时请求两者", func(t *testing.T) {
		lt, desc, err := l.WaitResolved(context.Background(), obj.ID, time.Second, true, true)
		require.NoError(t, err)
		assert.NotNil(t, lt)
		assert.NotNil(t, desc)
	})

	assert.Equal(t, int32(0), req.calls.Load(), "已解析类型不应发出网络请求")
}

// TestWaitResolved_UnknownType 测试完全未知的类型
func TestWaitResolved_UnknownType(t *testing.T) {
	l := newTestLibrary(t, nil)
	_, _, err := l.WaitResolved(context.Background(), types.TypeIDOf([]byte("nobody")), time.Second, true, false)
	assert.ErrorIs(t, err, types.ErrPreconditionNotMet)
}

// TestWaitResolved_ZeroTimeout 测试零超时轮询语义
func TestWaitResolved_ZeroTimeout(t *testing.T) {
	l := newTestLibrary(t, nil)
	id := types.TypeIDOf([]byte("pending"))
	l.ReferenceType(id)

	req := &countingRequester{}
	l.BindRequester(req.request)

	_, _, err := l.WaitResolved(context.Background(), id, 0, false, true)
	assert.ErrorIs(t, err, types.ErrTimeout)
	assert.Equal(t, int32(0), req.calls.Load(), "零超时不应发出网络请求")

	// 解析之后同一调用成功
	obj := types.NewTypeObject("Pending", []byte("pending"))
	l.AddTypeObjects([]*types.TypeObject{obj})
	_, desc, err := l.WaitResolved(context.Background(), id, 0, false, true)
	require.NoError(t, err)
	assert.NotNil(t, desc)
}

// TestWaitResolved_AsyncResolution 测试异步解析恰好发出一次请求
func TestWaitResolved_AsyncResolution(t *testing.T) {
	l := newTestLibrary(t, nil)
	obj := types.NewTypeObject("Remote", []byte("remote"))
	l.ReferenceType(obj.ID)

	req := &countingRequester{lib: l, respondWith: []*types.TypeObject{obj}}
	l.BindRequester(req.request)

	_, desc, err := l.WaitResolved(context.Background(), obj.ID, 5*time.Second, false, true)
	require.NoError(t, err)
	require.NotNil(t, desc)
	assert.Equal(t, int32(1), req.calls.Load())
	assert.False(t, req.lastDeps.Load(), "只请求描述时无需依赖")
}

// TestWaitResolved_LocalWantsDeps 测试请求本地表示时连带依赖
func TestWaitResolved_LocalWantsDeps(t *testing.T) {
	l := newTestLibrary(t, nil)
	dep := types.NewTypeObject("Dep", []byte("dep"))
	obj := types.NewTypeObject("Remote", []byte("remote"), dep.ID)
	l.ReferenceType(obj.ID)

	req := &countingRequester{lib: l, respondWith: []*types.TypeObject{obj, dep}}
	l.BindRequester(req.request)

	lt, _, err := l.WaitResolved(context.Background(), obj.ID, 5*time.Second, true, false)
	require.NoError(t, err)
	assert.True(t, req.lastDeps.Load(), "请求本地表示必须连带传递依赖")
	// 远端类型对象不能凭空生成本地表示：成功但本地表示为 nil
	assert.Nil(t, lt)
}

// TestWaitResolved_DepsGatePredicate 测试依赖未齐时谓词不满足
func TestWaitResolved_DepsGatePredicate(t *testing.T) {
	l := newTestLibrary(t, nil)
	dep := types.NewTypeObject("Dep", []byte("dep"))
	obj := types.NewTypeObject("Remote", []byte("remote"), dep.ID)
	l.ReferenceType(obj.ID)

	// 只应答主类型，不应答依赖
	req := &countingRequester{lib: l, respondWith: []*types.TypeObject{obj}}
	l.BindRequester(req.request)

	mock := clock.NewMock()
	l.clock = mock

	done := make(chan error, 1)
	go func() {
		_, _, err := l.WaitResolved(context.Background(), obj.ID, time.Second, true, false)
		done <- err
	}()

	// 主类型送达后谓词仍不满足（依赖缺失），等待应持续到截止时刻
	time.Sleep(50 * time.Millisecond)
	mock.Add(2 * time.Second)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, types.ErrTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("等待应在截止时刻结束")
	}
}

// TestWaitResolved_DeadlineTimeout 测试截止时刻到期返回超时
func TestWaitResolved_DeadlineTimeout(t *testing.T) {
	mock := clock.NewMock()
	l := newTestLibrary(t, mock)
	id := types.TypeIDOf([]byte("never"))
	l.ReferenceType(id)

	req := &countingRequester{}
	l.BindRequester(req.request)

	done := make(chan error, 1)
	go func() {
		_, _, err := l.WaitResolved(context.Background(), id, 3*time.Second, false, true)
		done <- err
	}()

	// 等待者建立计时器后推进时钟越过截止时刻
	time.Sleep(50 * time.Millisecond)
	mock.Add(4 * time.Second)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, types.ErrTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("超时未生效")
	}
	assert.Equal(t, int32(1), req.calls.Load())
}

// TestWaitResolved_SpuriousWakeup 测试无关广播不提前结束等待
func TestWaitResolved_SpuriousWakeup(t *testing.T) {
	l := newTestLibrary(t, nil)
	target := types.NewTypeObject("Target", []byte("target"))
	other := types.NewTypeObject("Other", []byte("other"))
	l.ReferenceType(target.ID)
	l.ReferenceType(other.ID)

	req := &countingRequester{}
	l.BindRequester(req.request)

	done := make(chan error, 1)
	var got atomic.Pointer[types.TypeDescription]
	go func() {
		_, desc, err := l.WaitResolved(context.Background(), target.ID, 10*time.Second, false, true)
		got.Store(desc)
		done <- err
	}()

	// 其他类型的解析广播唤醒等待者，但谓词不满足，继续等待
	time.Sleep(50 * time.Millisecond)
	l.AddTypeObjects([]*types.TypeObject{other})
	select {
	case <-done:
		t.Fatal("无关广播不应结束等待")
	case <-time.After(100 * time.Millisecond):
	}

	// 目标解析后等待结束
	l.AddTypeObjects([]*types.TypeObject{target})
	select {
	case err := <-done:
		require.NoError(t, err)
		assert.NotNil(t, got.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("目标解析后应返回")
	}
}

// TestWaitResolved_RequestFailure 测试请求无法发出
func TestWaitResolved_RequestFailure(t *testing.T) {
	l := newTestLibrary(t, nil)
	id := types.TypeIDOf([]byte("x"))
	l.ReferenceType(id)

	req := &countingRequester{err: assert.AnError}
	l.BindRequester(req.request)

	_, _, err := l.WaitResolved(context.Background(), id, time.Second, false, true)
	assert.ErrorIs(t, err, types.ErrPreconditionNotMet)
}

// TestWaitResolved_ContextCancel 测试上下文取消提前返回
func TestWaitResolved_ContextCancel(t *testing.T) {
	l := newTestLibrary(t, nil)
	id := types.TypeIDOf([]byte("x"))
	l.ReferenceType(id)
	l.BindRequester(func(types.TypeID, bool) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := l.WaitResolved(ctx, id, types.DurationInfinite, false, true)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("取消未生效")
	}
}

// TestWaitResolved_NegativeTimeout 测试负超时为非法参数
func TestWaitResolved_NegativeTimeout(t *testing.T) {
	l := newTestLibrary(t, nil)
	id := types.TypeIDOf([]byte("x"))
	l.ReferenceType(id)
	_, _, err := l.WaitResolved(context.Background(), id, -time.Second, false, true)
	assert.ErrorIs(t, err, types.ErrBadParameter)
}

// TestAbsDeadline 测试截止时刻饱和运算
func TestAbsDeadline(t *testing.T) {
	now := time.Now()

	d, bounded := absDeadline(now, time.Second)
	assert.True(t, bounded)
	assert.Equal(t, now.Add(time.Second), d)

	// 无限哨兵
	_, bounded = absDeadline(now, types.DurationInfinite)
	assert.False(t, bounded)

	// 溢出饱和为无界，绝不回绕
	_, bounded = absDeadline(now, types.DurationInfinite-1)
	assert.False(t, bounded)
}
