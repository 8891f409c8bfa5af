package typereg

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/depub/go-depub/pkg/types"
)

// absDeadline 计算绝对截止时刻
//
// now + timeout 溢出时饱和为"无界等待"（第二个返回值为 false），
// 绝不回绕成已过期的时刻。
func absDeadline(now time.Time, timeout time.Duration) (time.Time, bool) {
	if timeout == types.DurationInfinite {
		return time.Time{}, false
	}
	deadline := now.Add(timeout)
	if deadline.Before(now) {
		return time.Time{}, false
	}
	return deadline, true
}

// WaitResolved 阻塞等待类型解析到请求的粒度
//
// wantLocal 请求本地具体表示，wantDescription 请求类型描述，
// 可以同时为真。流程：
//
//  1. 已解析到请求粒度 → 立即返回
//  2. 未解析且 timeout == 0 → ErrTimeout（只轮询不等待）
//  3. 否则释放注册表锁，发出异步网络请求（wantLocal 时连带传递
//     依赖，因为只有依赖齐备的类型才能构造本地表示），重新加锁
//  4. 在绝对截止时刻内等待解析广播，每次唤醒重查谓词（广播通道
//     由所有类型共享，且存在伪唤醒）
//
// 截止时刻到达仍未解析返回 ErrTimeout，与零超时路径一致。解析
// 谓词满足但远端类型无法构造本地表示时，返回成功且本地表示为
// nil——远端送达的类型对象不能凭空生成本地表示。
func (l *Library) WaitResolved(ctx context.Context, id types.TypeID, timeout time.Duration, wantLocal, wantDescription bool) (types.LocalType, *types.TypeDescription, error) {
	if timeout < 0 {
		return nil, nil, fmt.Errorf("%w: negative timeout", types.ErrBadParameter)
	}

	// 请求本地表示时依赖必须一并解析
	includeDeps := wantLocal

	l.mu.Lock()
	t, ok := l.types[id]
	if !ok {
		l.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: type %s unknown to domain %s",
			types.ErrPreconditionNotMet, id.ShortString(), l.domainID)
	}

	// 立即命中
	if wantLocal && t.local != nil {
		lt := t.local
		var desc *types.TypeDescription
		if wantDescription {
			desc = l.descriptionLocked(t)
		}
		l.mu.Unlock()
		return lt, desc, nil
	}
	if !wantLocal && wantDescription && l.resolvedLocked(t, false) {
		desc := l.descriptionLocked(t)
		l.mu.Unlock()
		return nil, desc, nil
	}

	// 零超时：只轮询不等待
	if timeout == 0 {
		l.mu.Unlock()
		return nil, nil, types.ErrTimeout
	}
	requester := l.requester
	l.mu.Unlock()

	// 异步网络请求（不持有注册表锁）
	if requester == nil {
		return nil, nil, fmt.Errorf("%w: no type request channel", types.ErrPreconditionNotMet)
	}
	if err := requester(id, includeDeps); err != nil {
		return nil, nil, fmt.Errorf("%w: issue type request: %v", types.ErrPreconditionNotMet, err)
	}
	l.rec.TypeRequestIssued()
	log.Debug("type request issued", "domain", l.domainID, "type", id.ShortString(), "deps", includeDeps)

	now := l.clock.Now()
	deadline, bounded := absDeadline(now, timeout)

	var timedOut bool
	var ctxErr error
	l.mu.Lock()
	for !l.resolvedLocked(t, includeDeps) && !timedOut && ctxErr == nil {
		ch := l.resolvedCh
		l.mu.Unlock()

		var timer *clock.Timer
		var timerC <-chan time.Time
		if bounded {
			remain := deadline.Sub(l.clock.Now())
			if remain <= 0 {
				timedOut = true
			} else {
				timer = l.clock.Timer(remain)
				timerC = timer.C
			}
		}
		if !timedOut {
			select {
			case <-ch:
				// 解析广播；谓词在循环头重查
			case <-timerC:
				timedOut = true
			case <-ctx.Done():
				ctxErr = ctx.Err()
			}
		}
		if timer != nil {
			timer.Stop()
		}
		l.mu.Lock()
	}

	resolved := l.resolvedLocked(t, includeDeps)
	var lt types.LocalType
	var desc *types.TypeDescription
	if resolved {
		lt = t.local
		if wantDescription {
			desc = l.descriptionLocked(t)
		}
	}
	l.mu.Unlock()

	switch {
	case resolved:
		return lt, desc, nil
	case ctxErr != nil:
		return nil, nil, ctxErr
	default:
		l.rec.TypeWaitTimeout()
		return nil, nil, types.ErrTimeout
	}
}
