package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depub/go-depub/pkg/types"
)

// stubParser 固定返回一个快照的解析器
type stubParser struct {
	cfg   *Config
	err   error
	calls int
}

func (p *stubParser) Parse(text string, id types.DomainID) (*Config, error) {
	p.calls++
	return p.cfg, p.err
}

// TestDefaultConfig 测试默认配置可通过校验
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.DomainID.IsDefault())
	require.NoError(t, cfg.Validate())
}

// TestValidate 测试配置校验
func TestValidate(t *testing.T) {
	t.Run("工作协程数非法", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Stack.Workers = 0
		assert.ErrorIs(t, cfg.Validate(), ErrNoWorkers)
	})

	t.Run("采样间隔非法", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LivelinessMonitoring = true
		cfg.LivelinessInterval = 0
		assert.ErrorIs(t, cfg.Validate(), ErrBadInterval)
	})

	t.Run("缓存容量非法", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TypeReg.DescriptionCacheSize = -1
		assert.ErrorIs(t, cfg.Validate(), ErrBadCacheSize)
	})
}

// TestSource_Resolve 测试配置来源解析与域 id 覆盖规则
func TestSource_Resolve(t *testing.T) {
	t.Run("空文本得到默认配置", func(t *testing.T) {
		cfg, err := FromText("").Resolve(nil, 7)
		require.NoError(t, err)
		assert.Equal(t, types.DomainID(7), cfg.DomainID)
	})

	t.Run("默认id且配置未声明_结果为0", func(t *testing.T) {
		cfg, err := FromText("").Resolve(nil, types.DomainDefault)
		require.NoError(t, err)
		assert.Equal(t, types.DomainID(0), cfg.DomainID)
	})

	t.Run("默认id且配置声明n_结果为n", func(t *testing.T) {
		raw := DefaultConfig()
		raw.DomainID = 5
		cfg, err := FromRaw(raw).Resolve(nil, types.DomainDefault)
		require.NoError(t, err)
		assert.Equal(t, types.DomainID(5), cfg.DomainID)
	})

	t.Run("参数id覆盖配置声明", func(t *testing.T) {
		raw := DefaultConfig()
		raw.DomainID = 5
		cfg, err := FromRaw(raw).Resolve(nil, 9)
		require.NoError(t, err)
		assert.Equal(t, types.DomainID(9), cfg.DomainID)
	})

	t.Run("非空文本无解析器报错", func(t *testing.T) {
		_, err := FromText("<Config/>").Resolve(nil, 1)
		assert.ErrorIs(t, err, ErrNoParser)
	})

	t.Run("非空文本走解析器", func(t *testing.T) {
		p := &stubParser{cfg: DefaultConfig()}
		cfg, err := FromText("<Config/>").Resolve(p, 3)
		require.NoError(t, err)
		assert.Equal(t, 1, p.calls)
		assert.Equal(t, types.DomainID(3), cfg.DomainID)
	})

	t.Run("解析失败向上传播", func(t *testing.T) {
		boom := errors.New("boom")
		p := &stubParser{err: boom}
		_, err := FromText("<Config/>").Resolve(p, 1)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("空预解析配置报错", func(t *testing.T) {
		_, err := FromRaw(nil).Resolve(nil, 1)
		assert.ErrorIs(t, err, ErrNilRawConfig)
	})

	t.Run("预解析快照是独立副本", func(t *testing.T) {
		raw := DefaultConfig()
		cfg, err := FromRaw(raw).Resolve(nil, 2)
		require.NoError(t, err)
		raw.WriteBatch = true
		assert.False(t, cfg.WriteBatch, "调用方修改不应穿透到域内快照")
	})
}
