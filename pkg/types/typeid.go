package types

import (
	"github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"
)

// ============================================================================
//                              TypeID
// ============================================================================

// TypeIDHashSize 内容哈希长度（sha256 截断）
const TypeIDHashSize = 16

// TypeIDKind 类型标识的形态
type TypeIDKind uint8

const (
	// TypeIDNone 空标识（零值）
	TypeIDNone TypeIDKind = iota

	// TypeIDHash 内容哈希标识（可用于远程解析请求）
	TypeIDHash

	// TypeIDInline 内联标识（基础类型等无需解析的形态，不可用于远程请求）
	TypeIDInline
)

// TypeID 类型标识
//
// 对结构化类型描述做内容哈希得到的标识。只有哈希形态的标识可以
// 用于跨网络的类型解析请求。值类型，可作为 map 键。
type TypeID struct {
	kind TypeIDKind
	hash [TypeIDHashSize]byte
}

// TypeIDOf 从类型描述字节派生内容哈希标识
func TypeIDOf(descriptor []byte) TypeID {
	sum := sha256.Sum256(descriptor)
	var id TypeID
	id.kind = TypeIDHash
	copy(id.hash[:], sum[:TypeIDHashSize])
	return id
}

// InlineTypeID 构造内联形态标识（仅用于不可远程解析的内建基础类型）
func InlineTypeID(tag byte) TypeID {
	var id TypeID
	id.kind = TypeIDInline
	id.hash[0] = tag
	return id
}

// Kind 返回标识形态
func (id TypeID) Kind() TypeIDKind {
	return id.kind
}

// IsNone 判断是否为空标识
func (id TypeID) IsNone() bool {
	return id.kind == TypeIDNone
}

// IsHash 判断是否为内容哈希形态
func (id TypeID) IsHash() bool {
	return id.kind == TypeIDHash
}

// String 返回 base58 编码形式
func (id TypeID) String() string {
	if id.IsNone() {
		return "none"
	}
	return base58.Encode(id.hash[:])
}

// ShortString 返回截短的可读形式（日志用）
func (id TypeID) ShortString() string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// ============================================================================
//                              TypeObject
// ============================================================================

// TypeObject 结构化类型对象
//
// 描述一个类型的结构（字段、嵌套类型引用），其序列化字节是 TypeID
// 内容哈希的输入。通过网络应答传播，用于远程类型解析。
type TypeObject struct {
	// ID 内容哈希标识（由 Descriptor 派生）
	ID TypeID

	// Name 类型名（诊断用，不参与哈希比较）
	Name string

	// Descriptor 结构描述字节
	Descriptor []byte

	// Dependencies 直接依赖的类型标识
	Dependencies []TypeID
}

// NewTypeObject 从名称、描述字节和依赖构造类型对象
func NewTypeObject(name string, descriptor []byte, deps ...TypeID) *TypeObject {
	return &TypeObject{
		ID:           TypeIDOf(descriptor),
		Name:         name,
		Descriptor:   descriptor,
		Dependencies: deps,
	}
}

// ============================================================================
//                              LocalType / TypeDescription
// ============================================================================

// LocalType 类型的本地具体表示
//
// 对应已在本进程注册、可实际构造样本的数据类型。远程收到的类型对象
// 不能凭空生成本地表示，只有本地注册过的类型才有。
type LocalType interface {
	// TypeID 内容哈希标识
	TypeID() TypeID

	// TypeName 类型名
	TypeName() string
}

// TypeDescription 可释放的类型描述
//
// GetTypeDescription 的输出：类型对象加上传递闭包的依赖标识。
// 使用完毕必须通过 FreeTypeDescription 释放。
type TypeDescription struct {
	// ID 类型标识
	ID TypeID

	// Object 类型对象
	Object *TypeObject

	// Dependencies 传递依赖的类型标识（含间接依赖）
	Dependencies []TypeID
}
