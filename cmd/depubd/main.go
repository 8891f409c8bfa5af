// Package main 提供 depubd 守护进程入口
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	depub "github.com/depub/go-depub"
	"github.com/depub/go-depub/config"
	"github.com/depub/go-depub/internal/util/logger"
	"github.com/depub/go-depub/pkg/types"
)

var log = logger.Logger("depub/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
var (
	domainIDs  = flag.String("domains", "0", "启动时创建的域 id 列表（逗号分隔）")
	liveliness = flag.Bool("liveliness", false, "启用线程存活监视")
	interval   = flag.Duration("liveliness-interval", config.DefaultLivelinessInterval, "存活采样间隔")
	workers    = flag.Int("workers", config.DefaultStackWorkers, "每域协议栈工作协程数")
	metrics    = flag.Bool("metrics", false, "启用 Prometheus 指标")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "depubd:", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(depub.VersionInfo())
		return nil
	}

	ids, err := parseDomainIDs(*domainIDs)
	if err != nil {
		return err
	}

	var opts []depub.Option
	if *metrics {
		opts = append(opts, depub.WithMetrics(nil))
	}

	inst, err := depub.New(opts...)
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	defer func() {
		if err := inst.Close(); err != nil {
			log.Error("实例关闭失败", "err", err)
		}
	}()

	cfg := config.DefaultConfig()
	cfg.LivelinessMonitoring = *liveliness
	cfg.LivelinessInterval = *interval
	cfg.Stack.Workers = *workers

	for _, id := range ids {
		d, err := inst.CreateDomainWithRawConfig(id, cfg)
		if err != nil {
			return fmt.Errorf("create domain %s: %w", id, err)
		}
		log.Info("域就绪", "domain", d.ID())
	}

	fmt.Println(depub.VersionInfo(), "- serving", len(ids), "domain(s)")

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info("收到退出信号", "signal", s.String())

	// 给在途操作一点排空时间
	time.Sleep(100 * time.Millisecond)
	return nil
}

// parseDomainIDs 解析逗号分隔的域 id 列表
func parseDomainIDs(s string) ([]types.DomainID, error) {
	parts := strings.Split(s, ",")
	out := make([]types.DomainID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad domain id %q: %w", p, err)
		}
		id := types.DomainID(v)
		if id.IsDefault() {
			return nil, fmt.Errorf("domain id %q is the default sentinel", p)
		}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no domain ids given")
	}
	return out, nil
}
