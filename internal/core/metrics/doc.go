// Package metrics 提供域注册表核心的 Prometheus 指标
//
// Recorder 是可选依赖：未启用指标时注入 nil，所有记录方法对 nil
// 接收者安全（空操作）。覆盖的指标：
//   - 存活域数量（gauge）
//   - 域创建/拆除、隐式复用、关闭竞态等待次数（counter）
//   - 类型解析请求、解析广播、等待超时次数（counter）
package metrics
