package migration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"portfolio/backend/internal/domain"
)

// FileCache 以 JSON 文件保存的项目缓存
//
// 文件内容与浏览器 localStorage 中 portfolioProjects 的值相同：项目对象数组。
// 条目中的 id、createdAt 等字段会被忽略，存储在提交时重新分配。
type FileCache struct {
	mu   sync.Mutex
	path string
}

// NewFileCache 创建文件缓存
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Path 返回缓存文件路径
func (c *FileCache) Path() string {
	return c.path
}

// Load 读取缓存；文件不存在时返回空切片
func (c *FileCache) Load() ([]domain.ProjectInput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var entries []domain.ProjectInput
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	return entries, nil
}

// Save 用剩余条目覆盖缓存文件
func (c *FileCache) Save(entries []domain.ProjectInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Clean(c.path))
}

// Clear 删除缓存文件
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
