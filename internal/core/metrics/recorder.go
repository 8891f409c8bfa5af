package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder 域注册表核心指标
//
// nil 接收者安全：未启用指标时所有方法为空操作。
type Recorder struct {
	domainsActive    prometheus.Gauge
	domainCreates    prometheus.Counter
	domainFrees      prometheus.Counter
	implicitReuses   prometheus.Counter
	closeRaceWaits   prometheus.Counter
	typeRequests     prometheus.Counter
	typeBroadcasts   prometheus.Counter
	typeWaitTimeouts prometheus.Counter
}

// New 在给定 Registerer 上注册全部指标
//
// reg 为 nil 时使用默认注册器。
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		domainsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "depub_domains_active",
			Help: "Number of currently registered domains",
		}),
		domainCreates: factory.NewCounter(prometheus.CounterOpts{
			Name: "depub_domain_creates_total",
			Help: "Total number of domains created",
		}),
		domainFrees: factory.NewCounter(prometheus.CounterOpts{
			Name: "depub_domain_frees_total",
			Help: "Total number of domains torn down",
		}),
		implicitReuses: factory.NewCounter(prometheus.CounterOpts{
			Name: "depub_domain_implicit_reuses_total",
			Help: "Total number of implicit create requests satisfied by an existing domain",
		}),
		closeRaceWaits: factory.NewCounter(prometheus.CounterOpts{
			Name: "depub_domain_close_race_waits_total",
			Help: "Total number of waits for a closing domain to finish teardown",
		}),
		typeRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "depub_type_requests_total",
			Help: "Total number of asynchronous type lookup requests issued",
		}),
		typeBroadcasts: factory.NewCounter(prometheus.CounterOpts{
			Name: "depub_type_resolution_broadcasts_total",
			Help: "Total number of type resolution broadcasts",
		}),
		typeWaitTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "depub_type_wait_timeouts_total",
			Help: "Total number of type resolution waits that timed out",
		}),
	}
}

// DomainCreated 记录一次域创建
func (r *Recorder) DomainCreated() {
	if r == nil {
		return
	}
	r.domainCreates.Inc()
	r.domainsActive.Inc()
}

// DomainFreed 记录一次域拆除
func (r *Recorder) DomainFreed() {
	if r == nil {
		return
	}
	r.domainFrees.Inc()
	r.domainsActive.Dec()
}

// ImplicitReuse 记录一次隐式复用
func (r *Recorder) ImplicitReuse() {
	if r == nil {
		return
	}
	r.implicitReuses.Inc()
}

// CloseRaceWait 记录一次关闭竞态等待
func (r *Recorder) CloseRaceWait() {
	if r == nil {
		return
	}
	r.closeRaceWaits.Inc()
}

// TypeRequestIssued 记录一次异步类型请求
func (r *Recorder) TypeRequestIssued() {
	if r == nil {
		return
	}
	r.typeRequests.Inc()
}

// TypeResolutionBroadcast 记录一次解析广播
func (r *Recorder) TypeResolutionBroadcast() {
	if r == nil {
		return
	}
	r.typeBroadcasts.Inc()
}

// TypeWaitTimeout 记录一次等待超时
func (r *Recorder) TypeWaitTimeout() {
	if r == nil {
		return
	}
	r.typeWaitTimeouts.Inc()
}
