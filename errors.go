package depub

import (
	"github.com/depub/go-depub/pkg/types"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 实例生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrInstanceClosed 实例已关闭
	ErrInstanceClosed = types.ErrInstanceClosed

	// ────────────────────────────────────────────────────────────────────────
	// 核心错误分类（转出 pkg/types，调用方无需直接依赖内部包）
	// ────────────────────────────────────────────────────────────────────────

	// ErrBadParameter 非法参数
	ErrBadParameter = types.ErrBadParameter

	// ErrPreconditionNotMet 前置条件不满足（重复域 id、未知类型等）
	ErrPreconditionNotMet = types.ErrPreconditionNotMet

	// ErrIllegalOperation 非法操作（实体不属于任何域等）
	ErrIllegalOperation = types.ErrIllegalOperation

	// ErrOutOfResources 资源不足
	ErrOutOfResources = types.ErrOutOfResources

	// ErrTimeout 等待超时
	ErrTimeout = types.ErrTimeout

	// ErrAlreadyDeleted 对象已删除
	ErrAlreadyDeleted = types.ErrAlreadyDeleted
)
