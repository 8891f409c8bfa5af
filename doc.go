// Package depub 提供 DePub 发布订阅中间件的域注册表核心
//
// DePub 核心管理"域"——复用传输资源的运行时实例——的创建、共享与
// 拆除，并实现跨网络的阻塞类型解析等待协议。
//
// 基本用法：
//
//	inst, err := depub.New()
//	if err != nil {
//	    panic(err)
//	}
//	defer inst.Close()
//
//	d, err := inst.CreateDomain(1, "")
//	if err != nil {
//	    panic(err)
//	}
//	defer d.Close()
//
// 主要能力：
//   - 显式/隐式/默认三种域创建语义，并发安全（含关闭竞态重试）
//   - 分阶段对称的域初始化/拆除，失败时精确回退
//   - 参与者与结构性实体树（发布者/写者），批量标志下推
//   - 阻塞类型解析等待：超时、伪唤醒、异步网络请求
//   - 引用计数的线程存活监视器单例
//
// 协议栈、配置文本解析等外部协作方通过 pkg/interfaces 替换；缺省
// 使用进程内回环协议栈。
package depub
