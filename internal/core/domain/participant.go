package domain

import (
	"context"

	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/internal/core/builtin"
	"github.com/depub/go-depub/internal/core/entity"
	"github.com/depub/go-depub/pkg/types"
)

// ============================================================================
//                              Participant
// ============================================================================

// Participant 域参与者
//
// 隐式创建/复用路径的天然调用方：创建参与者时按需创建或共享其
// 域，参与者关闭时释放域引用——隐式创建的域在最后一个参与者关闭
// 时被拆除。
type Participant struct {
	domain *Domain
	ent    *entity.Entity
}

// CreateParticipant 在指定域中创建参与者
//
// 走隐式创建/查找协议：域存在则共享，不存在则创建，正在关闭则
// 等拆除完成后新建。
func (r *Registry) CreateParticipant(ctx context.Context, id types.DomainID, src config.Source) (*Participant, error) {
	d, err := r.OpenDomain(ctx, id, src)
	if err != nil {
		return nil, err
	}

	p := &Participant{domain: d}
	p.ent = entity.New(types.KindParticipant, d, func(*entity.Entity) error {
		// 参与者终结时释放它持有的域引用
		return d.ent.DropRef()
	})
	d.ent.RegisterChild(p.ent)

	if bin, ok := d.builtin.(*builtin.State); ok {
		if _, err := bin.InstanceHandle(builtin.ParticipantKey(d.id, p.ent.InstanceID())); err != nil {
			log.Warn("参与者内建实例句柄分配失败", "domain", d.id, "err", err)
		}
	}

	log.Info("参与者创建", "domain", d.id, "iid", p.ent.InstanceID())
	return p, nil
}

// Domain 返回参与者所属的域
func (p *Participant) Domain() *Domain {
	return p.domain
}

// Entity 返回参与者实体
func (p *Participant) Entity() *entity.Entity {
	return p.ent
}

// Close 关闭参与者并释放其域引用
func (p *Participant) Close() error {
	return p.ent.Close()
}

// ============================================================================
//                              结构性子实体
// ============================================================================

// Publisher 发布者（结构性实体，无数据通路）
type Publisher struct {
	domain *Domain
	ent    *entity.Entity
}

// CreatePublisher 在参与者下创建发布者
func (p *Participant) CreatePublisher() (*Publisher, error) {
	if err := p.ent.Pin(); err != nil {
		return nil, err
	}
	defer p.ent.Unpin()

	pub := &Publisher{domain: p.domain}
	pub.ent = entity.New(types.KindPublisher, p.domain, nil)
	p.ent.RegisterChild(pub.ent)
	return pub, nil
}

// Entity 返回发布者实体
func (pub *Publisher) Entity() *entity.Entity {
	return pub.ent
}

// Close 关闭发布者
func (pub *Publisher) Close() error {
	return pub.ent.Close()
}

// Writer 写者（结构性实体，携带批量发送标志）
type Writer struct {
	domain *Domain
	ent    *entity.Entity
}

// CreateWriter 在发布者下创建写者
//
// 新写者继承域配置快照中当前的批量开关。
func (pub *Publisher) CreateWriter() (*Writer, error) {
	if err := pub.ent.Pin(); err != nil {
		return nil, err
	}
	defer pub.ent.Unpin()

	w := &Writer{domain: pub.domain}
	w.ent = entity.New(types.KindWriter, pub.domain, nil)
	w.ent.SetBatch(pub.domain.WriteBatching())
	pub.ent.RegisterChild(w.ent)
	return w, nil
}

// Entity 返回写者实体
func (w *Writer) Entity() *entity.Entity {
	return w.ent
}

// BatchEnabled 返回写者的批量发送标志
func (w *Writer) BatchEnabled() bool {
	return w.ent.BatchEnabled()
}

// Close 关闭写者
func (w *Writer) Close() error {
	return w.ent.Close()
}
