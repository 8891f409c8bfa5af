package config

import (
	"errors"
	"fmt"

	"github.com/depub/go-depub/pkg/types"
)

// ============================================================================
//                              配置来源
// ============================================================================

// Parser 文本配置解析器
//
// 文本格式的定义和解析不属于本核心，由外部协作方提供。
// 解析得到的快照中 DomainID 可以声明域 id（见 Source.Resolve 的
// 覆盖规则）。
type Parser interface {
	// Parse 解析配置文本
	//
	// id 是创建请求中的域 id（可能为默认哨兵），供解析器实现
	// 诊断或选择多域配置文本中的片段。
	Parse(text string, id types.DomainID) (*Config, error)
}

// 配置来源错误
var (
	// ErrNilRawConfig 预解析配置为空
	ErrNilRawConfig = errors.New("nil raw config")

	// ErrNoParser 文本非空但没有解析器
	ErrNoParser = errors.New("config text given but no parser available")
)

// sourceKind 来源类别
type sourceKind uint8

const (
	sourceText sourceKind = iota
	sourceRaw
)

// Source 配置来源（文本或预解析快照，互斥）
type Source struct {
	kind sourceKind
	text string
	raw  *Config
}

// FromText 文本来源
//
// 空文本表示使用默认配置（无需解析器）。
func FromText(text string) Source {
	return Source{kind: sourceText, text: text}
}

// FromRaw 预解析快照来源
func FromRaw(raw *Config) Source {
	return Source{kind: sourceRaw, raw: raw}
}

// Resolve 解析来源，得到域的配置快照
//
// 域 id 的决定规则（创建参数 id 总是优先）：
//
//	| 参数 id  | 配置中的 id | 结果
//	+---------+------------+---------
//	| default | 未声明      | 0
//	| default | n          | n
//	| n       | 任意/未声明  | n（配置中的 id 被覆盖）
//
// 返回的快照总是独立副本，DomainID 一定不是默认哨兵。
func (s Source) Resolve(parser Parser, id types.DomainID) (*Config, error) {
	var cfg *Config
	switch s.kind {
	case sourceRaw:
		if s.raw == nil {
			return nil, ErrNilRawConfig
		}
		cfg = s.raw.Clone()

	case sourceText:
		if s.text == "" {
			cfg = DefaultConfig()
		} else {
			if parser == nil {
				return nil, ErrNoParser
			}
			parsed, err := parser.Parse(s.text, id)
			if err != nil {
				return nil, fmt.Errorf("parse config text: %w", err)
			}
			if parsed == nil {
				return nil, ErrNilRawConfig
			}
			cfg = parsed.Clone()
		}
	}

	// 域 id 覆盖规则
	if !id.IsDefault() {
		cfg.DomainID = id
	} else if cfg.DomainID.IsDefault() {
		cfg.DomainID = 0
	}
	return cfg, nil
}
