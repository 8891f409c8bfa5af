package types

// ============================================================================
//                              EntityKind
// ============================================================================

// EntityKind 实体种类
type EntityKind uint8

const (
	// KindRoot 进程根实体
	KindRoot EntityKind = iota

	// KindDomain 域
	KindDomain

	// KindParticipant 参与者
	KindParticipant

	// KindTopic 主题
	KindTopic

	// KindPublisher 发布者
	KindPublisher

	// KindSubscriber 订阅者
	KindSubscriber

	// KindWriter 写者
	KindWriter

	// KindReader 读者
	KindReader
)

// String 返回种类名称
func (k EntityKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindDomain:
		return "domain"
	case KindParticipant:
		return "participant"
	case KindTopic:
		return "topic"
	case KindPublisher:
		return "publisher"
	case KindSubscriber:
		return "subscriber"
	case KindWriter:
		return "writer"
	case KindReader:
		return "reader"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              HandleState
// ============================================================================

// HandleState 实体句柄生命周期状态
//
// 显式三态而非布尔 closed 标志，使"关闭进行中"的竞态可判定：
// Live 时 Pin 成功；Closing 时 Pin 失败但对象仍在；Freed 后对象
// 不再可达。状态单向推进，不可回退。
type HandleState uint8

const (
	// HandleLive 存活，可被 Pin
	HandleLive HandleState = iota

	// HandleClosing 关闭进行中，Pin 失败，等待在借者归还
	HandleClosing

	// HandleFreed 已终结
	HandleFreed
)

// String 返回状态名称
func (s HandleState) String() string {
	switch s {
	case HandleLive:
		return "live"
	case HandleClosing:
		return "closing"
	case HandleFreed:
		return "freed"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              ResolutionState
// ============================================================================

// ResolutionState 类型解析状态
//
// 本地具体表示与类型对象两个维度正交：本地注册可能只带具体表示，
// 远程应答只带类型对象。状态单调推进：只会变得"更解析"，绝不回退。
type ResolutionState uint8

const (
	// ResolutionUnresolved 未解析（仅知道标识）
	ResolutionUnresolved ResolutionState = iota

	// ResolutionLocalOnly 已有本地具体表示，无类型对象
	ResolutionLocalOnly

	// ResolutionDescriptionOnly 已有类型对象（描述可解析），无本地具体表示
	ResolutionDescriptionOnly

	// ResolutionComplete 两者齐备
	ResolutionComplete
)

// HasLocal 是否已有本地具体表示
func (s ResolutionState) HasLocal() bool {
	return s == ResolutionLocalOnly || s == ResolutionComplete
}

// HasDescription 是否已有类型对象
func (s ResolutionState) HasDescription() bool {
	return s == ResolutionDescriptionOnly || s == ResolutionComplete
}

// String 返回状态名称
func (s ResolutionState) String() string {
	switch s {
	case ResolutionUnresolved:
		return "unresolved"
	case ResolutionLocalOnly:
		return "local-only"
	case ResolutionDescriptionOnly:
		return "description-only"
	case ResolutionComplete:
		return "complete"
	default:
		return "unknown"
	}
}
