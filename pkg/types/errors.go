// Package types 定义 DePub 的基础类型
//
// 本文件定义所有公共错误类型。
package types

import "errors"

// ============================================================================
//                              错误分类
// ============================================================================

// 公共 API 的固定错误分类。所有操作返回的错误都可通过 errors.Is
// 归入以下类别之一（或其包装）。
var (
	// ErrBadParameter 参数无效（域 id 为默认哨兵、类型 id 形态非法、必需的输出为空等）
	ErrBadParameter = errors.New("bad parameter")

	// ErrPreconditionNotMet 前置条件不满足（显式创建的域 id 已存在、类型对域完全未知、
	// 异步类型请求无法发出）
	ErrPreconditionNotMet = errors.New("precondition not met")

	// ErrIllegalOperation 非法操作（实体不属于任何域）
	ErrIllegalOperation = errors.New("illegal operation")

	// ErrOutOfResources 资源不足（线程存活监视器分配失败）
	ErrOutOfResources = errors.New("out of resources")

	// ErrTimeout 超时（零超时查询未解析的类型，或等待到期仍未解析）
	ErrTimeout = errors.New("timeout")

	// ErrAlreadyDeleted 对象正在关闭或已删除（pin 失败）
	ErrAlreadyDeleted = errors.New("already deleted")
)

// ============================================================================
//                              实例相关错误
// ============================================================================

var (
	// ErrInstanceClosed 实例已关闭
	ErrInstanceClosed = errors.New("instance closed")
)
