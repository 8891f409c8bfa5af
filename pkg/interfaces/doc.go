// Package interfaces 定义域生命周期管理器消费的协作方契约
//
// 域的分阶段初始化/拆除只依赖本包的接口，不依赖具体实现：
//   - Stack / StackFactory: 协议栈 {prep, init, start, stop, fini}
//   - TypeLookup: 协议栈与域内类型注册表之间的双向通道
//   - ThreadMonitor: 线程存活监视器（进程级引用计数单例）
//   - ShmMonitor: 共享内存监视器（配置开关控制的可选阶段）
//   - Builtin: 内建主题状态
//
// 生产装配由 fx 模块注入默认实现（internal/core/ 下各包）；
// 阶段失败注入测试用手写伪实现替换，验证 init/fini 调用对称性。
package interfaces
