package postgres

import (
	"errors"
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"portfolio/backend/internal/config"
	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"
)

// Store 文档数据库存储实现（PostgreSQL / MySQL）
type Store struct {
	db     *gorm.DB
	client *Client // 使用 pgx 连接池时非空
}

// NewStore 创建 PostgreSQL 存储实例
func NewStore(cfg *config.DatabaseConfig) (*Store, error) {
	return NewStoreWithDialector(postgres.Open(cfg.DSN), cfg)
}

// NewStoreFromClient 基于已建立的 pgx 连接池创建 PostgreSQL 存储实例
func NewStoreFromClient(client *Client, cfg *config.DatabaseConfig) (*Store, error) {
	sqlDB := stdlib.OpenDBFromPool(client.Pool())
	store, err := NewStoreWithDialector(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	if err != nil {
		return nil, err
	}
	store.client = client
	return store, nil
}

// NewMySQLStore 创建 MySQL 存储实例
//
// DSN 会被规范化：强制 parseTime=true，使 DATETIME 列能扫描为 time.Time。
func NewMySQLStore(cfg *config.DatabaseConfig) (*Store, error) {
	normalized, err := NormalizeMySQLDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	return NewStoreWithDialector(mysql.Open(normalized), cfg)
}

// NormalizeMySQLDSN 解析并补全 MySQL DSN
func NormalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysqldrv.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return cfg.FormatDSN(), nil
}

// 连接池默认值，配置项为 0 时使用
const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
)

// NewStoreWithDialector 使用指定的GORM dialector创建存储实例
//
// cfg 为 nil 时连接池使用默认值。
func NewStoreWithDialector(dialector gorm.Dialector, cfg *config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(dialector, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	applyPool(sqlDB, cfg)

	store := &Store{db: db}

	// 自动迁移数据库表
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // 静默模式
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// poolSetter 是 *sql.DB 的连接池配置方法
type poolSetter interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
}

func applyPool(db poolSetter, cfg *config.DatabaseConfig) {
	maxOpen, maxIdle, lifetime := defaultMaxOpenConns, defaultMaxIdleConns, defaultConnMaxLifetime
	if cfg != nil {
		if cfg.MaxOpenConns > 0 {
			maxOpen = cfg.MaxOpenConns
		}
		if cfg.MaxIdleConns > 0 {
			maxIdle = cfg.MaxIdleConns
		}
		if cfg.ConnMaxLifetime > 0 {
			lifetime = cfg.ConnMaxLifetime
		}
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)
}

// migrate 自动迁移数据库表结构
func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&domain.Message{},
		&domain.Project{},
	)
}

// ========== Message Repository ==========

// SaveMessage 保存留言
func (s *Store) SaveMessage(message *domain.Message) error {
	return s.db.Create(message).Error
}

// ListMessages 返回全部留言，最新的在前
func (s *Store) ListMessages() ([]domain.Message, error) {
	messages := make([]domain.Message, 0)
	if err := s.db.Order("created_at DESC").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// ========== Project Repository ==========

// SaveProject 保存新项目
func (s *Store) SaveProject(project *domain.Project) error {
	return s.db.Create(project).Error
}

// ListProjects 返回全部项目，按创建时间倒序
func (s *Store) ListProjects() ([]domain.Project, error) {
	projects := make([]domain.Project, 0)
	if err := s.db.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Technologies == nil {
			projects[i].Technologies = []string{}
		}
	}
	return projects, nil
}

// GetProject 根据 ID 获取项目
func (s *Store) GetProject(id string) (*domain.Project, error) {
	var project domain.Project
	err := s.db.Where("id = ?", id).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrProjectNotFound
		}
		return nil, err
	}
	if project.Technologies == nil {
		project.Technologies = []string{}
	}
	return &project, nil
}

// UpdateProject 整体替换项目
func (s *Store) UpdateProject(project *domain.Project) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing domain.Project
		if err := tx.Select("id").Where("id = ?", project.ID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.ErrProjectNotFound
			}
			return err
		}
		return tx.Save(project).Error
	})
}

// DeleteProject 删除项目
func (s *Store) DeleteProject(id string) error {
	result := s.db.Where("id = ?", id).Delete(&domain.Project{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrProjectNotFound
	}
	return nil
}

// ========== 工具方法 ==========

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	if s.client != nil {
		s.client.Close()
	}
	return err
}

// Health 健康检查
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
	}
	return nil
}
