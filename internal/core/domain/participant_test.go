package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/pkg/types"
)

// TestCreateParticipant 测试参与者创建与域生命周期绑定
func TestCreateParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("按需创建域", func(t *testing.T) {
		r := newTestRegistry(t)
		p, err := r.CreateParticipant(ctx, 1, config.FromText(""))
		require.NoError(t, err)
		assert.Equal(t, types.DomainID(1), p.Domain().ID())
		assert.Equal(t, 1, r.Len())
	})

	t.Run("共享现有域", func(t *testing.T) {
		r := newTestRegistry(t)
		p1, err := r.CreateParticipant(ctx, 1, config.FromText(""))
		require.NoError(t, err)
		p2, err := r.CreateParticipant(ctx, 1, config.FromText(""))
		require.NoError(t, err)
		assert.Same(t, p1.Domain(), p2.Domain())
		assert.Equal(t, 1, r.Len())

		// 最后一个参与者关闭时域被拆除
		require.NoError(t, p1.Close())
		assert.Equal(t, 1, r.Len())
		require.NoError(t, p2.Close())
		assert.Zero(t, r.Len())
	})

	t.Run("参与者是域实体的子节点", func(t *testing.T) {
		r := newTestRegistry(t)
		p, err := r.CreateParticipant(ctx, 1, config.FromText(""))
		require.NoError(t, err)
		assert.Equal(t, 1, p.Domain().Entity().ChildCount())
		assert.Equal(t, types.KindParticipant, p.Entity().Kind())

		require.NoError(t, p.Close())
	})

	t.Run("显式域的参与者不拖垮域", func(t *testing.T) {
		r := newTestRegistry(t)
		d, err := r.CreateDomain(ctx, 1, config.FromText(""))
		require.NoError(t, err)

		p, err := r.CreateParticipant(ctx, 1, config.FromText(""))
		require.NoError(t, err)

		// 参与者释放它共享的引用；显式创建者的引用仍在
		require.NoError(t, p.Close())
		assert.Equal(t, 1, r.Len())

		require.NoError(t, d.Close())
		assert.Zero(t, r.Len())
	})

	t.Run("域关闭连带关闭参与者", func(t *testing.T) {
		r := newTestRegistry(t)
		p, err := r.CreateParticipant(ctx, 1, config.FromText(""))
		require.NoError(t, err)

		// 强制关闭域实体：参与者作为子节点先被关闭
		require.NoError(t, p.Domain().Entity().Close())
		assert.Equal(t, types.HandleFreed, p.Entity().State())
		assert.Zero(t, r.Len())
	})
}

// TestPublisherWriter 测试结构性子实体
func TestPublisherWriter(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	p, err := r.CreateParticipant(ctx, 1, config.FromText(""))
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	pub, err := p.CreatePublisher()
	require.NoError(t, err)
	assert.Equal(t, types.KindPublisher, pub.Entity().Kind())

	w, err := pub.CreateWriter()
	require.NoError(t, err)
	assert.Equal(t, types.KindWriter, w.Entity().Kind())
	assert.False(t, w.BatchEnabled())

	t.Run("写者实体域作用域正确", func(t *testing.T) {
		d, ok := w.Entity().Scope().(*Domain)
		require.True(t, ok)
		assert.Equal(t, types.DomainID(1), d.ID())
	})

	t.Run("关闭的参与者拒绝新子实体", func(t *testing.T) {
		p2, err := r.CreateParticipant(ctx, 2, config.FromText(""))
		require.NoError(t, err)
		require.NoError(t, p2.Close())
		_, err = p2.CreatePublisher()
		assert.ErrorIs(t, err, types.ErrAlreadyDeleted)
	})
}
