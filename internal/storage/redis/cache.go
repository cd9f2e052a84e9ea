package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"portfolio/backend/internal/domain"
)

const projectListKey = "portfolio:projects:list"

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// Cache Redis 缓存实现，缓存公开的项目列表
type Cache struct {
	client *Client
	ctx    context.Context
	ttl    time.Duration
}

// NewCache 基于已连接的客户端创建缓存实例
func NewCache(client *Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		client: client,
		ctx:    context.Background(),
		ttl:    ttl,
	}
}

// CacheProjects 缓存项目列表
func (c *Cache) CacheProjects(projects []domain.Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return err
	}
	return c.client.rdb.Set(c.ctx, projectListKey, data, c.ttl).Err()
}

// GetCachedProjects 获取缓存的项目列表
func (c *Cache) GetCachedProjects() ([]domain.Project, error) {
	data, err := c.client.rdb.Get(c.ctx, projectListKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var projects []domain.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// InvalidateProjects 删除缓存的项目列表
func (c *Cache) InvalidateProjects() error {
	return c.client.rdb.Del(c.ctx, projectListKey).Err()
}

// Health 检查 Redis 连接
func (c *Cache) Health() error {
	ctx, cancel := context.WithTimeout(c.ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx)
}

// Close 关闭底层连接
func (c *Cache) Close() error {
	return c.client.Close()
}
