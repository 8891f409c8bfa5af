// Package inproc 实现进程内回环协议栈
//
// 协议栈契约 {Prep, Init, Start, Stop, Fini} 的默认实现：同进程的
// 各个域经由共享的 Exchange 互相可达，无线缆格式、无套接字。类型
// 解析请求从一个域发出，由持有该类型的其他域的类型注册表应答，
// 使解析等待路径可以端到端运转。
//
// 生命周期阶段与逆操作严格对称：
//
//	Prep（校验派生，不持资源，无逆）→ Init（分配收件箱与进度计数，
//	逆为 Fini）→ Start（启动工作协程并接入 Exchange，逆为 Stop）
//
// 听/说抑制：deaf 丢弃入站投递，mute 丢弃出站投递；resetAfter 为
// 正时经该时长自动恢复。投递不阻塞发送方：收件箱满时丢弃。
package inproc
