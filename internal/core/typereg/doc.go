// Package typereg 实现每域类型注册表与类型解析等待
//
// 每个域持有一个 Library：
//   - 记录域已知的全部类型（本地注册、远端送达、依赖引用）
//   - 解析状态单调推进，任何推进都广播唤醒等待者
//   - WaitResolved 实现阻塞式解析等待：立即命中 → 零超时轮询 →
//     异步网络请求 + 截止时刻内反复校验谓词的条件等待
//
// 锁模型：Library 自带互斥锁和解析广播通道；等待期间不持有任何
// 外层锁（注册表全局锁、实体锁）。广播通道由所有类型共享，唤醒后
// 必须重查谓词——既防伪唤醒，也防其他类型的解析触发的广播。
//
// 截止时刻语义：0 超时表示"只轮询不等待"；now+timeout 溢出饱和为
// 无限等待。等待到期仍未解析返回 ErrTimeout，与零超时路径一致。
package typereg
