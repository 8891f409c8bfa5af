package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depub/go-depub/pkg/types"
)

// recordingRegistrar 记录注册调用的伪类型注册表
type recordingRegistrar struct {
	registered []*types.TypeObject
	err        error
}

func (r *recordingRegistrar) RegisterLocal(lt types.LocalType, obj *types.TypeObject) error {
	if r.err != nil {
		return r.err
	}
	r.registered = append(r.registered, obj)
	return nil
}

// TestState_Init 测试内建类型注册
func TestState_Init(t *testing.T) {
	s := New(1)
	reg := &recordingRegistrar{}
	require.NoError(t, s.Init(reg))

	require.Len(t, reg.registered, 3)
	names := map[string]bool{}
	for _, obj := range reg.registered {
		names[obj.Name] = true
		assert.True(t, obj.ID.IsHash())
	}
	assert.True(t, names[TopicParticipant])
	assert.True(t, names[TopicPublication])
	assert.True(t, names[TopicSubscription])
}

// TestState_InitFailure 测试注册失败向上传播
func TestState_InitFailure(t *testing.T) {
	s := New(1)
	assert.ErrorIs(t, s.Init(&recordingRegistrar{err: assert.AnError}), assert.AnError)
}

// TestState_InstanceHandle 测试实例句柄映射
func TestState_InstanceHandle(t *testing.T) {
	s := New(1)
	require.NoError(t, s.Init(&recordingRegistrar{}))

	key1 := ParticipantKey(1, 100)
	key2 := ParticipantKey(1, 200)

	h1, err := s.InstanceHandle(key1)
	require.NoError(t, err)
	h2, err := s.InstanceHandle(key2)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	// 同一键总是得到同一句柄
	again, err := s.InstanceHandle(key1)
	require.NoError(t, err)
	assert.Equal(t, h1, again)
	assert.Equal(t, 2, s.HandleCount())
}

// TestState_Fini 测试释放后拒绝分配
func TestState_Fini(t *testing.T) {
	s := New(1)
	require.NoError(t, s.Init(&recordingRegistrar{}))
	s.Fini()

	_, err := s.InstanceHandle(ParticipantKey(1, 1))
	assert.ErrorIs(t, err, ErrFinalized)
}

// TestBuiltinDescriptors_StableIDs 测试内建类型标识跨域稳定
func TestBuiltinDescriptors_StableIDs(t *testing.T) {
	a := builtinDescriptors()
	b := builtinDescriptors()
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID, "内容哈希应恒定")
	}
}
