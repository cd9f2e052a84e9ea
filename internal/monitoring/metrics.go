package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
//
// 所有方法都允许在 nil 接收者上调用，未启用监控时什么也不做。
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// 业务指标
	MessagesCreated    prometheus.Counter
	NotificationsTotal *prometheus.CounterVec // result: sent | failed | disabled
	ProjectMutations   *prometheus.CounterVec // operation: create | update | delete
	MigrationSubmitted *prometheus.CounterVec // result: ok | failed
	WebsocketClients   prometheus.Gauge
	AdminLoginsTotal   *prometheus.CounterVec // result: ok | rejected

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter

	// 限流指标
	RateLimitBlocks *prometheus.CounterVec
}

// NewMetrics 创建监控指标，使用独立的注册表
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfolio_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfolio_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfolio_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		MessagesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portfolio_messages_created_total",
				Help: "Total number of contact messages saved",
			},
		),

		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_notifications_total",
				Help: "Contact notification e-mails by result",
			},
			[]string{"result"},
		),

		ProjectMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_project_mutations_total",
				Help: "Project create/update/delete operations",
			},
			[]string{"operation"},
		),

		MigrationSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_migration_submissions_total",
				Help: "Cached projects submitted by the migration agent",
			},
			[]string{"result"},
		),

		WebsocketClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portfolio_websocket_clients",
				Help: "Connected live refresh clients",
			},
		),

		AdminLoginsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_admin_logins_total",
				Help: "Admin login attempts by result",
			},
			[]string{"result"},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portfolio_panics_total",
				Help: "Total number of recovered panics",
			},
		),

		RateLimitBlocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_rate_limit_blocks_total",
				Help: "Requests rejected by rate limiting",
			},
			[]string{"limit_type"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration, requestSize, responseSize int64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.HTTPResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
}

// RecordMessageCreated 记录新留言
func (m *Metrics) RecordMessageCreated() {
	if m == nil {
		return
	}
	m.MessagesCreated.Inc()
}

// RecordNotification 记录通知邮件结果
func (m *Metrics) RecordNotification(result string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(result).Inc()
}

// RecordProjectMutation 记录项目变更
func (m *Metrics) RecordProjectMutation(operation string) {
	if m == nil {
		return
	}
	m.ProjectMutations.WithLabelValues(operation).Inc()
}

// RecordMigrationSubmission 记录迁移提交结果
func (m *Metrics) RecordMigrationSubmission(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.MigrationSubmitted.WithLabelValues(result).Inc()
}

// RecordAdminLogin 记录登录结果
func (m *Metrics) RecordAdminLogin(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.AdminLoginsTotal.WithLabelValues(result).Inc()
}

// SetWebsocketClients 更新在线客户端数量
func (m *Metrics) SetWebsocketClients(count int) {
	if m == nil {
		return
	}
	m.WebsocketClients.Set(float64(count))
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	if m == nil {
		return
	}
	m.PanicsTotal.Inc()
}

// RecordRateLimitBlock 记录限流拦截
func (m *Metrics) RecordRateLimitBlock(limitType string) {
	if m == nil {
		return
	}
	m.RateLimitBlocks.WithLabelValues(limitType).Inc()
}

// Registry 返回底层注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// HTTPHandler 返回 Prometheus 抓取处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
