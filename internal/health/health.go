package health

import (
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
)

// 存活检查允许的最大 goroutine 数
const maxGoroutines = 10000

// Pinger 能报告自身健康状况的依赖，例如存储或缓存
type Pinger interface {
	Health() error
}

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器
//
// store 的健康状况作为就绪检查，进程自身状态作为存活检查。
func NewHealthChecker(store Pinger, logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		logger: logger,
	}

	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(maxGoroutines))
	if store != nil {
		hc.health.AddReadinessCheck("store", healthcheck.Timeout(hc.logged("store", store.Health), 5*time.Second))
	}

	return hc
}

// AddReadinessCheck 追加就绪检查
func (hc *HealthChecker) AddReadinessCheck(name string, dep Pinger) {
	hc.health.AddReadinessCheck(name, healthcheck.Timeout(hc.logged(name, dep.Health), 5*time.Second))
}

// LiveHandler 存活检查
func (hc *HealthChecker) LiveHandler() http.HandlerFunc {
	return hc.health.LiveEndpoint
}

// ReadyHandler 就绪检查
func (hc *HealthChecker) ReadyHandler() http.HandlerFunc {
	return hc.health.ReadyEndpoint
}

// Handler 返回健康检查处理器
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

func (hc *HealthChecker) logged(name string, check healthcheck.Check) healthcheck.Check {
	return func() error {
		err := check()
		if err != nil {
			hc.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
		}
		return err
	}
}
