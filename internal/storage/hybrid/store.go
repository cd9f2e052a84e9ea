package hybrid

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"
)

// ProjectCache 项目列表缓存
type ProjectCache interface {
	CacheProjects(projects []domain.Project) error
	GetCachedProjects() ([]domain.Project, error)
	InvalidateProjects() error
	Health() error
	Close() error
}

// Store 混合存储实现，主存储前面加一层项目列表缓存（Redis 或进程内）。
//
// 公开的项目列表读多写少，走缓存；任何项目变更都会使缓存失效。
// 缓存故障只记录日志，读写始终以主存储为准。
//
// version 在每次失效时递增；回源读取期间若发生过失效，读到的列表不回填缓存。
type Store struct {
	primary storage.Store
	cache   ProjectCache
	log     *zap.Logger

	mu      sync.Mutex
	version uint64
}

// NewStore 创建混合存储实例
func NewStore(primary storage.Store, cache ProjectCache, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		primary: primary,
		cache:   cache,
		log:     log,
	}
}

// ========== Message Repository ==========

// SaveMessage 保存留言（留言不缓存）
func (s *Store) SaveMessage(message *domain.Message) error {
	return s.primary.SaveMessage(message)
}

// ListMessages 直接从主存储获取
func (s *Store) ListMessages() ([]domain.Message, error) {
	return s.primary.ListMessages()
}

// ========== Project Repository ==========

// SaveProject 保存项目并使列表缓存失效
func (s *Store) SaveProject(project *domain.Project) error {
	if err := s.primary.SaveProject(project); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// ListProjects 先尝试从缓存获取，未命中时回源并回填
func (s *Store) ListProjects() ([]domain.Project, error) {
	if projects, err := s.cache.GetCachedProjects(); err == nil {
		return projects, nil
	}

	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	projects, err := s.primary.ListProjects()
	if err != nil {
		return nil, err
	}

	s.fill(version, projects)
	return projects, nil
}

// GetProject 直接从主存储获取
func (s *Store) GetProject(id string) (*domain.Project, error) {
	return s.primary.GetProject(id)
}

// UpdateProject 更新项目并使列表缓存失效
func (s *Store) UpdateProject(project *domain.Project) error {
	if err := s.primary.UpdateProject(project); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// DeleteProject 删除项目并使列表缓存失效
func (s *Store) DeleteProject(id string) error {
	if err := s.primary.DeleteProject(id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// ========== 工具方法 ==========

// Close 关闭主存储与缓存
func (s *Store) Close() error {
	cacheErr := s.cache.Close()
	if err := s.primary.Close(); err != nil {
		return err
	}
	return cacheErr
}

// Health 主存储不可用即视为不健康；缓存故障可降级
func (s *Store) Health() error {
	if err := s.primary.Health(); err != nil {
		return err
	}
	if err := s.cache.Health(); err != nil {
		s.log.Warn("redis cache unhealthy, serving from primary store", zap.Error(err))
	}
	return nil
}

func (s *Store) fill(version uint64, projects []domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return
	}
	if err := s.cache.CacheProjects(projects); err != nil {
		s.log.Warn("failed to cache project list", zap.Error(err))
	}
}

func (s *Store) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	if err := s.cache.InvalidateProjects(); err != nil {
		s.log.Warn("failed to invalidate project cache", zap.Error(fmt.Errorf("invalidate: %w", err)))
	}
}
