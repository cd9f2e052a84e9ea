package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "portfolio/backend/docs"
	"portfolio/backend/internal/auth"
	"portfolio/backend/internal/config"
	"portfolio/backend/internal/health"
	"portfolio/backend/internal/middleware"
	"portfolio/backend/internal/monitoring"
	"portfolio/backend/internal/service"
	"portfolio/backend/internal/websocket"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	AuthService    *auth.Service
	MessageService *service.MessageService
	ProjectService *service.ProjectService
	WebSocketHub   *websocket.Hub        // 可选，实时刷新通道
	Health         *health.HealthChecker // 可选
	Metrics        *monitoring.Metrics   // 可选，nil 时不暴露 /metrics
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := deps.Config

	router := gin.New()
	router.HandleMethodNotAllowed = true

	monitor := middleware.NewMonitoringMiddleware(deps.Metrics, log)
	router.Use(monitor.PanicRecovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(monitor.HTTPMetrics())
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(gincors.New(corsConfig(cfg.CORS.AllowedOrigins)))

	router.NoMethod(middleware.MethodNotAllowed())
	router.NoRoute(spaFallback(cfg.Server.StaticDir))

	authHandler := NewAuthHandler(deps.AuthService, deps.Metrics, log)
	messageHandler := NewMessageHandler(deps.MessageService, log)
	projectHandler := NewProjectHandler(deps.ProjectService, log)

	guard := middleware.NewAdminGuard(deps.AuthService)
	contactLimit := middleware.NewIPRateLimiter("contact", cfg.RateLimit.ContactPerMinute, cfg.RateLimit.ContactBurst, deps.Metrics)

	// Swagger 文档
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Health != nil {
		router.GET("/health/live", gin.WrapF(deps.Health.LiveHandler()))
		router.GET("/health/ready", gin.WrapF(deps.Health.ReadyHandler()))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	api := router.Group("/api")
	{
		adminRoutes := api.Group("/admin")
		{
			adminRoutes.POST("/login", authHandler.Login)
			adminRoutes.POST("/change-password", guard.RequireAdmin(), authHandler.ChangePassword)
		}

		api.POST("/messages", contactLimit.Middleware(), messageHandler.Create)
		api.GET("/messages", guard.RequireAdmin(), messageHandler.List)

		api.GET("/projects", projectHandler.List)
		api.POST("/projects", guard.RequireAdmin(), projectHandler.Create)
		api.PUT("/projects/:id", guard.RequireAdmin(), projectHandler.Update)
		api.DELETE("/projects/:id", guard.RequireAdmin(), projectHandler.Delete)

		if deps.WebSocketHub != nil {
			api.GET("/ws", websocket.HandleWebSocket(deps.WebSocketHub))
		}
	}

	return router
}

func corsConfig(origins []string) gincors.Config {
	cfg := gincors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.AdminTokenHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Max-Body-Size"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 允许所有来源时不能同时携带凭证
	allowAll := len(origins) == 0
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
			break
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
		cfg.AllowOrigins = nil
		cfg.AllowCredentials = false
	}
	return cfg
}
