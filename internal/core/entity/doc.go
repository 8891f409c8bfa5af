// Package entity 实现实体句柄基底
//
// 所有生命周期受管对象（根、域、参与者、写者等）共享同一套借用/
// 引用计数契约：
//
//   - Pin/Unpin: 作用域借用。借用期间对象不会被终结；对象进入
//     Closing 后 Pin 失败，最后一次 Unpin 唤醒等待关闭完成的线程。
//   - AddRef/DropRef: 所有权引用。降到 0 触发 Close。
//   - TryShare: 隐式共享路径的原子"检查存活并加引用"，用于
//     创建/查找协议中与关闭的竞态判定。
//   - Close: 排空借用 → 按实例 id 顺序关闭子节点 → 运行种类
//     专属终结器 → 标记 Freed。
//
// 句柄状态是显式三态 {Live, Closing, Freed} 而非布尔关闭标志，
// 使"关闭进行中"窗口内的竞态可判定、可测试。
//
// 子节点集合按进程内单调实例 id 有序，遍历协议是"记住上一个 id、
// 查后继"，允许访问之间释放父锁而不受并发插删影响。
package entity
