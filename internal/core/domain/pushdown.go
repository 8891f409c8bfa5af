package domain

import (
	"github.com/depub/go-depub/internal/core/entity"
	"github.com/depub/go-depub/pkg/types"
)

// ============================================================================
//                              批量标志下推
// ============================================================================

// pushdownBatch 把批量标志下推到一棵实体子树的全部写者
//
// 显式工作表遍历（深度与调用栈无关）：子节点按实例 id 顺序访问，
// 访问前借用、访问后归还；访问之间不持有父实体锁。写者直接设置
// 标志，不再向下递归；其余种类入表继续展开。工作表里的实体保持
// 借用状态，展开完毕才归还。
func pushdownBatch(root *entity.Entity, enable bool) {
	// work 中的实体都已借用（root 由调用方借用，不在表中归还）
	work := []*entity.Entity{root}
	pinned := map[*entity.Entity]bool{}

	for len(work) > 0 {
		e := work[len(work)-1]
		work = work[:len(work)-1]

		var last types.InstanceID
		for {
			e.Lock()
			c, ok := e.ChildSucc(last)
			e.Unlock()
			if !ok {
				break
			}
			last = c.InstanceID()

			// 借用失败说明子节点正在关闭，跳过
			if c.Pin() != nil {
				continue
			}
			if c.Kind() == types.KindWriter {
				c.SetBatch(enable)
				c.Unpin()
				continue
			}
			work = append(work, c)
			pinned[c] = true
		}

		if pinned[e] {
			delete(pinned, e)
			e.Unpin()
		}
	}
}

// SetWriteBatching 进程级批量开关下推
//
// 按 id 从小到大遍历所有域：先把开关写进域的配置快照（之后创建
// 的写者继承），再下推到该域当前的全部写者实体。子树遍历会借用/
// 归还实体，不能在全局锁下进行——每棵子树遍历前释放全局锁，遍历
// 后重新加锁并校验域仍然存在，再继续它的后继。
func (r *Registry) SetWriteBatching(enable bool) {
	r.mu.Lock()
	id, d, ok := r.domains.Min()
	for ok {
		d.setWriteBatching(enable)

		if d.ent.Pin() == nil {
			r.mu.Unlock()
			pushdownBatch(d.ent, enable)
			d.ent.Unpin()
			r.mu.Lock()
		}

		// 遍历间隙域可能被拆除；从后继恢复
		id, d, ok = r.domains.Succ(id)
	}
	r.mu.Unlock()
	log.Info("进程级写者批量开关更新", "enable", enable)
}
