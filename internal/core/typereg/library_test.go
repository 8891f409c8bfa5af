package typereg

import (
	"context"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depub/go-depub/pkg/types"
)

// newTestLibrary 创建测试用注册表
func newTestLibrary(t *testing.T, clk clock.Clock) *Library {
	t.Helper()
	if clk == nil {
		clk = clock.New()
	}
	l, err := NewLibrary(1, clk, 16, nil)
	require.NoError(t, err)
	return l
}

// TestLibrary_RegisterLocal 测试本地注册推进解析状态
func TestLibrary_RegisterLocal(t *testing.T) {
	l := newTestLibrary(t, nil)
	obj := types.NewTypeObject("Foo", []byte("foo-desc"))

	require.NoError(t, l.RegisterLocal(NewLocalType(obj), obj))

	st, ok := l.StateOf(obj.ID)
	require.True(t, ok)
	assert.Equal(t, types.ResolutionComplete, st)
	assert.True(t, l.Known(obj.ID))

	// nil 本地表示为非法参数
	assert.ErrorIs(t, l.RegisterLocal(nil, obj), types.ErrBadParameter)
}

// TestLibrary_AddTypeObjects 测试远端类型对象采纳
func TestLibrary_AddTypeObjects(t *testing.T) {
	l := newTestLibrary(t, nil)
	dep := types.NewTypeObject("Dep", []byte("dep-desc"))
	obj := types.NewTypeObject("Foo", []byte("foo-desc"), dep.ID)

	l.AddTypeObjects([]*types.TypeObject{obj})

	st, ok := l.StateOf(obj.ID)
	require.True(t, ok)
	assert.Equal(t, types.ResolutionDescriptionOnly, st, "远端对象没有本地表示")

	// 依赖作为未解析条目自动登记
	st, ok = l.StateOf(dep.ID)
	require.True(t, ok)
	assert.Equal(t, types.ResolutionUnresolved, st)

	// 采纳是单调的：重复送达不回退
	l.AddTypeObjects([]*types.TypeObject{obj})
	st, _ = l.StateOf(obj.ID)
	assert.Equal(t, types.ResolutionDescriptionOnly, st)
}

// TestLibrary_ReferenceType 测试类型引用登记
func TestLibrary_ReferenceType(t *testing.T) {
	l := newTestLibrary(t, nil)
	id := types.TypeIDOf([]byte("x"))

	assert.False(t, l.Known(id))
	l.ReferenceType(id)
	assert.True(t, l.Known(id))

	// 非哈希形态的引用被忽略
	l.ReferenceType(types.InlineTypeID(1))
	var zero types.TypeID
	l.ReferenceType(zero)
	assert.Equal(t, 1, l.Len())
}

// TestLibrary_LookupTypeObjects 测试查询应答
func TestLibrary_LookupTypeObjects(t *testing.T) {
	l := newTestLibrary(t, nil)
	leaf := types.NewTypeObject("Leaf", []byte("leaf"))
	mid := types.NewTypeObject("Mid", []byte("mid"), leaf.ID)
	root := types.NewTypeObject("Root", []byte("root"), mid.ID)
	l.AddTypeObjects([]*types.TypeObject{root, mid, leaf})

	t.Run("不带依赖", func(t *testing.T) {
		objs := l.LookupTypeObjects(root.ID, false)
		require.Len(t, objs, 1)
		assert.Equal(t, root.ID, objs[0].ID)
	})

	t.Run("带传递依赖", func(t *testing.T) {
		objs := l.LookupTypeObjects(root.ID, true)
		assert.Len(t, objs, 3)
	})

	t.Run("未知类型返回空", func(t *testing.T) {
		assert.Empty(t, l.LookupTypeObjects(types.TypeIDOf([]byte("missing")), true))
	})
}

// TestLibrary_BroadcastWakesAllWaiters 测试广播唤醒全部等待者
func TestLibrary_BroadcastWakesAllWaiters(t *testing.T) {
	l := newTestLibrary(t, nil)
	obj := types.NewTypeObject("Foo", []byte("foo"))
	l.ReferenceType(obj.ID)
	l.BindRequester(func(types.TypeID, bool) error { return nil })

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = l.WaitResolved(context.Background(), obj.ID, types.DurationInfinite, false, true)
		}(i)
	}

	l.AddTypeObjects([]*types.TypeObject{obj})
	wg.Wait()
	for i := 0; i < n; i++ {
		assert.NoError(t, errs[i])
	}
}
