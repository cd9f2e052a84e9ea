package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portfolio/backend/internal/auth"
	"portfolio/backend/internal/cache"
	"portfolio/backend/internal/config"
	"portfolio/backend/internal/events"
	"portfolio/backend/internal/health"
	"portfolio/backend/internal/logger"
	"portfolio/backend/internal/migration"
	"portfolio/backend/internal/monitoring"
	"portfolio/backend/internal/security"
	"portfolio/backend/internal/service"
	"portfolio/backend/internal/smtp"
	"portfolio/backend/internal/storage"
	"portfolio/backend/internal/storage/filesystem"
	"portfolio/backend/internal/storage/hybrid"
	"portfolio/backend/internal/storage/memory"
	"portfolio/backend/internal/storage/postgres"
	"portfolio/backend/internal/storage/redis"
	httptransport "portfolio/backend/internal/transport/http"
	"portfolio/backend/internal/websocket"
)

// @title Portfolio API
// @version 1.0
// @description 作品集站点后端：联系留言、项目管理与管理员会话。
// @BasePath /
// @securityDefinitions.apikey AdminToken
// @in header
// @name x-admin-token

// main 启动作品集后端服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.File,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting portfolio server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
		zap.String("storage", cfg.Storage.Type),
	)

	metrics := monitoring.NewMetrics()
	bus := events.NewBus(log)

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close storage", zap.Error(err))
		}
	}()

	healthChecker := health.NewHealthChecker(store, log)

	// 管理员身份
	identity, err := newIdentity(cfg.Admin)
	if err != nil {
		log.Fatal("failed to initialize admin identity", zap.Error(err))
	}
	if cfg.Admin.DefaultPassword {
		log.Warn("using the default admin password, set PORTFOLIO_ADMIN_PASSWORD before deploying",
			zap.String("email", cfg.Admin.Email))
	}
	if cfg.JWT.Ephemeral {
		log.Warn("JWT secret generated at startup, sessions will not survive a restart")
	}
	if cfg.Admin.TokenMode == config.TokenModeOpaque {
		log.Warn("opaque token mode accepts any non-empty token, do not use in production")
	}

	tokens := auth.NewTokenIssuer(cfg.Admin.TokenMode, cfg.JWT)
	authService := auth.NewService(identity, tokens, bus, log.Named("auth"))

	var notifier smtp.Notifier = smtp.Nop{}
	if cfg.Mail.Enabled() {
		notifier = smtp.NewRelay(cfg.Mail, log.Named("smtp"))
		log.Info("contact e-mail relay enabled",
			zap.String("host", cfg.Mail.Host),
			zap.Int("port", cfg.Mail.Port))
	}

	messageService := service.NewMessageService(store, notifier, bus, metrics, log.Named("messages"))
	messageService.SetSpamFilter(security.NewContentFilter())
	projectService := service.NewProjectService(store, bus, metrics, log.Named("projects"))

	wsHub := websocket.NewHub(cfg.CORS.AllowedOrigins, authService, metrics, log.Named("websocket"))
	detach := wsHub.Attach(bus)
	defer detach()

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		AuthService:    authService,
		MessageService: messageService,
		ProjectService: projectService,
		WebSocketHub:   wsHub,
		Health:         healthChecker,
		Metrics:        metrics,
		Logger:         log,
	})

	httpAddr := cfg.Addr()
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	group.Go(func() error {
		log.Info("starting WebSocket hub")
		wsHub.Run(groupCtx)
		return nil
	})

	// 启动时迁移本地项目缓存，失败只记录日志，下次启动重试
	if cfg.Migration.CacheFile != "" {
		group.Go(func() error {
			runStartupMigration(groupCtx, cfg.Migration.CacheFile, authService, projectService, metrics, log)
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		log.Info("servers stopped")
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", zap.Error(err))
		return
	}

	log.Info("server exited cleanly")
}

// newIdentity 优先使用配置的 bcrypt 哈希
func newIdentity(cfg config.AdminConfig) (*auth.AdminIdentity, error) {
	if cfg.PasswordHash != "" {
		return auth.NewAdminIdentityFromHash(cfg.Email, cfg.PasswordHash)
	}
	return auth.NewAdminIdentity(cfg.Email, cfg.Password)
}

// openStore 根据配置选择记录存储后端
func openStore(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	var primary storage.Store

	switch cfg.Storage.Type {
	case config.StorageDatabase:
		store, err := openDatabase(cfg, log)
		if err != nil {
			return nil, err
		}
		primary = store
		log.Info("using database storage", zap.String("type", cfg.Database.Type))

	case config.StorageFile:
		store, err := filesystem.NewStore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file storage: %w", err)
		}
		primary = store
		log.Info("using file storage", zap.String("path", cfg.Storage.Path))

	default:
		primary = memory.NewStore()
		log.Info("using memory storage, records are lost on restart")
	}

	if cfg.Redis.Enabled {
		client, err := redis.New(&cfg.Redis, log.Named("redis"))
		if err == nil {
			return hybrid.NewStore(primary, redis.NewCache(client, cfg.Redis.CacheTTL), log.Named("hybrid")), nil
		}
		log.Warn("redis unavailable, falling back to local project cache", zap.Error(err))
	}

	if cfg.Storage.CacheTTL > 0 {
		log.Info("using local project cache", zap.Duration("ttl", cfg.Storage.CacheTTL))
		return hybrid.NewStore(primary, cache.NewLocalCache(cfg.Storage.CacheTTL), log.Named("hybrid")), nil
	}
	return primary, nil
}

func openDatabase(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	switch cfg.Database.Type {
	case "mysql":
		return postgres.NewMySQLStore(&cfg.Database)
	default:
		client, err := postgres.New(&cfg.Database, log.Named("postgres"))
		if err != nil {
			return nil, err
		}
		store, err := postgres.NewStoreFromClient(client, &cfg.Database)
		if err != nil {
			client.Close()
			return nil, err
		}
		return store, nil
	}
}

func runStartupMigration(ctx context.Context, path string, authService *auth.Service, projects *service.ProjectService, metrics *monitoring.Metrics, log *zap.Logger) {
	tokens := migration.TokenFunc(func(context.Context) (string, error) {
		session, err := authService.IssueToken()
		if err != nil {
			return "", err
		}
		return session.Token, nil
	})

	agent := migration.NewAgent(
		migration.NewFileCache(path),
		migration.NewServiceSubmitter(authService, projects),
		tokens,
		metrics,
		log.Named("migration"),
	)

	result, err := agent.Run(ctx)
	if err != nil {
		log.Error("project cache migration failed", zap.String("file", path), zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("file", path),
		zap.String("state", string(result.State)),
		zap.Int("submitted", result.Submitted),
		zap.Int("remaining", result.Remaining),
	}
	if result.Err != nil {
		log.Warn("project cache migration incomplete", append(fields, zap.Error(result.Err))...)
		return
	}
	log.Info("project cache migration finished", fields...)
}
