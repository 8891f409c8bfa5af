// Package domain 实现域注册表与域生命周期管理
//
// 本包是整个核心的中枢，包含：
//   - Registry：进程级域注册表（全局互斥锁 + 条件变量 + 有序映射 +
//     引用计数的线程存活监视器单例 + 根实体）
//   - Domain：绑定到域 id 的一个运行时实例，持有配置快照、协议栈、
//     类型注册表、内建主题状态与可选的共享内存监视器
//   - 分阶段对称的初始化/拆除状态机
//   - 创建/查找协议（显式、隐式、默认三种请求，含关闭竞态重试）
//   - 类型解析等待、deafmute 转发、批量标志下推等公共操作
//
// 锁次序规则：持有注册表全局锁时绝不进行网络、协议栈启停或其他
// 对象条件变量上的阻塞等待；关闭竞态的等待会释放全局锁并在广播
// 后重新查找。
package domain
