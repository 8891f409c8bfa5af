// Package types 定义 DePub 的基础类型
//
// 本包只包含纯值类型和公共错误，不依赖任何实现包：
//   - DomainID / InstanceID 等标识类型
//   - TypeID 内容哈希类型标识及其派生
//   - 实体种类、句柄状态、类型解析状态等枚举
//   - 公共错误分类（ErrBadParameter 等）
//
// 设计原则:
//   - 零依赖（仅标准库与哈希/编码库）
//   - 值语义，可安全复制
//   - 所有公共 API 的参数与返回值类型都在此定义
package types
