package typereg

import (
	"github.com/depub/go-depub/pkg/types"
)

// localType types.LocalType 的最小实现
//
// 本地注册的类型天然持有具体表示；数据路径（样本读写）不在本核心
// 范围内，这里只承载标识与名称。
type localType struct {
	id   types.TypeID
	name string
}

// NewLocalType 从类型对象构造本地具体表示
func NewLocalType(obj *types.TypeObject) types.LocalType {
	return &localType{id: obj.ID, name: obj.Name}
}

// TypeID 实现 types.LocalType
func (lt *localType) TypeID() types.TypeID {
	return lt.id
}

// TypeName 实现 types.LocalType
func (lt *localType) TypeName() string {
	return lt.name
}
