package cache

import (
	"errors"
	"sync"
	"time"

	"portfolio/backend/internal/domain"
)

// ErrCacheMiss 缓存未命中或已过期
var ErrCacheMiss = errors.New("cache miss")

// LocalCache 进程内的项目列表缓存（L1 缓存）
//
// 未启用 Redis 时放在数据库前面，减少公开列表的回源次数。
// 只在单实例部署下有效：其他实例的写入不会使本地缓存失效。
type LocalCache struct {
	mu        sync.RWMutex
	projects  []domain.Project
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewLocalCache 创建本地缓存
//
// 参数:
//   - ttl: 缓存有效期
func NewLocalCache(ttl time.Duration) *LocalCache {
	return &LocalCache{
		ttl: ttl,
		now: time.Now,
	}
}

// CacheProjects 写入项目列表
func (c *LocalCache) CacheProjects(projects []domain.Project) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.projects = cloneProjects(projects)
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

// GetCachedProjects 读取项目列表，过期返回 ErrCacheMiss
func (c *LocalCache) GetCachedProjects() ([]domain.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.projects == nil || !c.now().Before(c.expiresAt) {
		return nil, ErrCacheMiss
	}
	return cloneProjects(c.projects), nil
}

// InvalidateProjects 清除缓存
func (c *LocalCache) InvalidateProjects() error {
	c.mu.Lock()
	c.projects = nil
	c.mu.Unlock()
	return nil
}

// Health 本地缓存总是可用
func (c *LocalCache) Health() error {
	return nil
}

// Close 释放缓存内容
func (c *LocalCache) Close() error {
	return c.InvalidateProjects()
}

// cloneProjects 深拷贝，调用方修改结果不影响缓存
func cloneProjects(projects []domain.Project) []domain.Project {
	out := make([]domain.Project, len(projects))
	for i, p := range projects {
		p.Technologies = append([]string{}, p.Technologies...)
		out[i] = p
	}
	return out
}
