package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 存储类型
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageDatabase = "database"
)

// 管理员令牌模式
const (
	TokenModeSigned = "signed" // 签名且有过期时间的 JWT
	TokenModeOpaque = "opaque" // 兼容模式：任何非空令牌都放行
)

// DefaultAdminPassword 开发模式下未配置密码时使用的默认密码
const DefaultAdminPassword = "admin123"

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host         string // 监听地址，默认 "0.0.0.0"
	Port         int    // 监听端口，默认 5000
	StaticDir    string // 前端构建产物目录，非空时提供 SPA 静态文件
	MaxBodyBytes int64  // 请求体上限，默认 10MB
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空只输出到控制台
}

// StorageConfig 定义记录存储后端
type StorageConfig struct {
	Type     string        // memory | file | database
	Path     string        // file 后端的数据目录
	CacheTTL time.Duration // 未启用 Redis 时进程内项目列表缓存的有效期，0 表示不缓存
}

// DatabaseConfig 定义数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string // 数据库类型: "mysql" 或 "postgres"
	DSN             string // 数据库连接字符串
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig 定义 Redis 缓存服务配置
type RedisConfig struct {
	Enabled  bool
	Address  string // 格式 "host:port"
	Password string
	DB       int
	CacheTTL time.Duration // 项目列表缓存时间
}

// AdminConfig 定义唯一管理员身份
type AdminConfig struct {
	Email           string
	Password        string // 明文密码，启动时哈希
	PasswordHash    string // bcrypt 哈希，优先于 Password
	TokenMode       string // signed | opaque
	DefaultPassword bool   // 是否使用了开发默认密码
}

// JWTConfig 定义会话令牌签名配置
type JWTConfig struct {
	Secret    string
	Issuer    string
	Expiry    time.Duration
	Ephemeral bool // 密钥为启动时随机生成，重启后令牌失效
}

// MailConfig 定义新留言通知邮件的 SMTP 中继
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Timeout  time.Duration
}

// Enabled 主机、发件人、收件人都配置时才发送通知
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.From != "" && m.To != ""
}

// RateLimitConfig 定义公开留言接口的限流
type RateLimitConfig struct {
	ContactPerMinute int // 每个 IP 每分钟允许的留言数，0 表示不限流
	ContactBurst     int
}

// MigrationConfig 定义启动时的本地项目缓存迁移
type MigrationConfig struct {
	CacheFile string // 导出的 portfolioProjects JSON 文件，留空则不迁移
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Log       LogConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Admin     AdminConfig
	JWT       JWTConfig
	Mail      MailConfig
	RateLimit RateLimitConfig
	Migration MigrationConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（当前目录，其次父目录）
//  3. 默认值
//
// 环境变量前缀: PORTFOLIO_
// 例如: PORTFOLIO_SERVER_PORT, PORTFOLIO_ADMIN_PASSWORD
//
// 返回值:
//   - *Config: 加载成功的配置对象
//   - error: 配置验证失败时返回错误
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix("portfolio")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	development := v.GetBool("log.development")

	storageType := strings.ToLower(v.GetString("storage.type"))
	switch storageType {
	case StorageMemory, StorageFile, StorageDatabase:
	default:
		return nil, fmt.Errorf("invalid storage.type %q (supported: memory, file, database)", storageType)
	}

	dbType := strings.ToLower(v.GetString("database.type"))
	if storageType == StorageDatabase {
		if v.GetString("database.dsn") == "" {
			return nil, fmt.Errorf("database.dsn is required when storage.type is database")
		}
		switch dbType {
		case "postgres", "postgresql", "mysql":
		default:
			return nil, fmt.Errorf("unsupported database.type %q (supported: mysql, postgres)", dbType)
		}
	}

	jwtSecret := v.GetString("jwt.secret")
	ephemeral := false
	if jwtSecret == "" {
		// 未配置密钥时随机生成，令牌在重启后失效
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		jwtSecret = secret
		ephemeral = true
	} else if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("SECURITY ERROR: JWT secret must be at least 32 characters long")
	}

	tokenMode := strings.ToLower(v.GetString("admin.token_mode"))
	if tokenMode != TokenModeSigned && tokenMode != TokenModeOpaque {
		return nil, fmt.Errorf("invalid admin.token_mode %q (supported: signed, opaque)", tokenMode)
	}

	adminEmail := strings.TrimSpace(v.GetString("admin.email"))
	if adminEmail == "" {
		return nil, fmt.Errorf("admin.email must not be empty")
	}

	adminPassword := v.GetString("admin.password")
	adminHash := v.GetString("admin.password_hash")
	usedDefault := false
	if adminPassword == "" && adminHash == "" {
		if !development {
			return nil, fmt.Errorf("SECURITY ERROR: admin password is required. Please set PORTFOLIO_ADMIN_PASSWORD or PORTFOLIO_ADMIN_PASSWORD_HASH")
		}
		adminPassword = DefaultAdminPassword
		usedDefault = true
	}

	corsOrigins := parseList(v.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("server.host"),
			Port:         v.GetInt("server.port"),
			StaticDir:    v.GetString("server.static_dir"),
			MaxBodyBytes: v.GetInt64("server.max_body_bytes"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: development,
			File:        v.GetString("log.file"),
		},
		Storage: StorageConfig{
			Type:     storageType,
			Path:     v.GetString("storage.path"),
			CacheTTL: durationOr(v.GetString("storage.cache_ttl"), 0),
		},
		Database: DatabaseConfig{
			Type:            dbType,
			DSN:             v.GetString("database.dsn"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: durationOr(v.GetString("database.conn_max_lifetime"), 5*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			CacheTTL: durationOr(v.GetString("redis.cache_ttl"), 5*time.Minute),
		},
		Admin: AdminConfig{
			Email:           adminEmail,
			Password:        adminPassword,
			PasswordHash:    adminHash,
			TokenMode:       tokenMode,
			DefaultPassword: usedDefault,
		},
		JWT: JWTConfig{
			Secret:    jwtSecret,
			Issuer:    v.GetString("jwt.issuer"),
			Expiry:    durationOr(v.GetString("jwt.expiry"), 24*time.Hour),
			Ephemeral: ephemeral,
		},
		Mail: MailConfig{
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Username: v.GetString("mail.username"),
			Password: v.GetString("mail.password"),
			From:     v.GetString("mail.from"),
			To:       v.GetString("mail.to"),
			Timeout:  durationOr(v.GetString("mail.timeout"), 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			ContactPerMinute: v.GetInt("ratelimit.contact_per_minute"),
			ContactBurst:     v.GetInt("ratelimit.contact_burst"),
		},
		Migration: MigrationConfig{
			CacheFile: v.GetString("migration.cache_file"),
		},
	}

	return cfg, nil
}

// Addr 返回 HTTP 监听地址
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("storage.type", StorageMemory)
	v.SetDefault("storage.path", "data")
	v.SetDefault("storage.cache_ttl", "0s")
	v.SetDefault("database.type", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", "5m")
	v.SetDefault("admin.email", "admin@portfolio.com")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.token_mode", TokenModeSigned)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "portfolio")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.to", "")
	v.SetDefault("mail.timeout", "10s")
	v.SetDefault("ratelimit.contact_per_minute", 5)
	v.SetDefault("ratelimit.contact_burst", 5)
	v.SetDefault("migration.cache_file", "")
}

// durationOr 解析时长字符串，失败时返回默认值
func durationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// parseList 将逗号分隔的字符串解析为字符串切片
//
// 参数:
//   - value: 逗号分隔的字符串，如 "item1,item2,item3"
//
// 返回值:
//   - []string: 解析后的字符串切片，已去除空白字符
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env（用于从 backend/ 子目录运行的情况）
//
// 文件不存在时静默跳过；已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
