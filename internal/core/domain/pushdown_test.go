package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/pkg/types"
)

// buildWriterTree 建一个 域→参与者→发布者→写者 的实体树
func buildWriterTree(t *testing.T, r *Registry, id types.DomainID, writers int) (*Participant, []*Writer) {
	t.Helper()
	p, err := r.CreateParticipant(context.Background(), id, config.FromText(""))
	require.NoError(t, err)

	pub, err := p.CreatePublisher()
	require.NoError(t, err)

	out := make([]*Writer, writers)
	for i := range out {
		w, err := pub.CreateWriter()
		require.NoError(t, err)
		out[i] = w
	}
	return p, out
}

// TestSetWriteBatching 进程级批量开关下推
func TestSetWriteBatching(t *testing.T) {
	r := newTestRegistry(t)

	p1, writers1 := buildWriterTree(t, r, 1, 3)
	p2, writers2 := buildWriterTree(t, r, 2, 2)
	defer func() { _ = p1.Close(); _ = p2.Close() }()

	for _, w := range append(writers1, writers2...) {
		assert.False(t, w.BatchEnabled(), "默认关闭")
	}

	r.SetWriteBatching(true)

	t.Run("现有写者全部生效", func(t *testing.T) {
		for _, w := range append(writers1, writers2...) {
			assert.True(t, w.BatchEnabled())
		}
	})

	t.Run("之后创建的写者继承", func(t *testing.T) {
		pub, err := p1.CreatePublisher()
		require.NoError(t, err)
		w, err := pub.CreateWriter()
		require.NoError(t, err)
		assert.True(t, w.BatchEnabled(), "开关记录在域配置快照中")
	})

	t.Run("关闭同样下推", func(t *testing.T) {
		r.SetWriteBatching(false)
		for _, w := range append(writers1, writers2...) {
			assert.False(t, w.BatchEnabled())
		}
	})
}

// TestSetEntityBatching 单实体子树下推
func TestSetEntityBatching(t *testing.T) {
	r := newTestRegistry(t)

	p, writers := buildWriterTree(t, r, 1, 2)
	defer func() { _ = p.Close() }()

	t.Run("子树下推", func(t *testing.T) {
		require.NoError(t, r.SetEntityBatching(p.Entity(), true))
		for _, w := range writers {
			assert.True(t, w.BatchEnabled())
		}
	})

	t.Run("写者实体直接设置", func(t *testing.T) {
		require.NoError(t, r.SetEntityBatching(writers[0].Entity(), false))
		assert.False(t, writers[0].BatchEnabled())
		assert.True(t, writers[1].BatchEnabled(), "兄弟写者不受影响")
	})

	t.Run("nil 实体非法", func(t *testing.T) {
		assert.Error(t, r.SetEntityBatching(nil, true))
	})
}
