package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"
)

const (
	messagesFile = "messages.json"
	projectsFile = "projects.json"
)

// Store 文件系统存储实现
//
// 每类记录保存为一个 JSON 数组文件，每次变更整体重写。
// 文件缺失或内容损坏时视为空集合；其他读取错误（权限、IO）直接返回，避免覆盖原文件。
type Store struct {
	mu            sync.Mutex
	basePath      string         // 数据文件所在目录
	platformUtils *PlatformUtils // 平台兼容性工具
}

// NewStore 创建文件系统存储实例
func NewStore(basePath string) (*Store, error) {
	platformUtils := NewPlatformUtils()

	// 验证基础路径
	if err := platformUtils.ValidatePath(basePath); err != nil {
		return nil, fmt.Errorf("invalid base path: %w", err)
	}

	normalizedPath := platformUtils.NormalizePath(basePath)

	// 确保基础目录存在
	if err := os.MkdirAll(normalizedPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Store{
		basePath:      normalizedPath,
		platformUtils: platformUtils,
	}, nil
}

// ========== 留言 ==========

// SaveMessage 追加一条留言并重写留言文件
func (s *Store) SaveMessage(message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var messages []domain.Message
	if err := s.readFile(messagesFile, &messages); err != nil {
		return err
	}

	messages = append(messages, *message)
	return s.writeFile(messagesFile, messages)
}

// ListMessages 读取全部留言，最新的在前
func (s *Store) ListMessages() ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var messages []domain.Message
	if err := s.readFile(messagesFile, &messages); err != nil {
		return nil, err
	}

	// 文件内按写入顺序保存，先反转再稳定排序，使同一时刻的留言后写在前
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	domain.SortMessagesNewestFirst(messages)
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// ========== 项目 ==========

// SaveProject 保存新项目
func (s *Store) SaveProject(project *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadProjects()
	if err != nil {
		return err
	}
	projects = append(projects, *project)
	return s.writeFile(projectsFile, projects)
}

// ListProjects 读取全部项目，按创建时间倒序
func (s *Store) ListProjects() ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadProjects()
	if err != nil {
		return nil, err
	}
	domain.SortNewestFirst(projects)
	return projects, nil
}

// GetProject 根据 ID 读取项目
func (s *Store) GetProject(id string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadProjects()
	if err != nil {
		return nil, err
	}
	for _, project := range projects {
		if project.ID == id {
			p := project
			return &p, nil
		}
	}
	return nil, storage.ErrProjectNotFound
}

// UpdateProject 整体替换项目并重写项目文件
func (s *Store) UpdateProject(project *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadProjects()
	if err != nil {
		return err
	}
	for i := range projects {
		if projects[i].ID == project.ID {
			projects[i] = *project
			return s.writeFile(projectsFile, projects)
		}
	}
	return storage.ErrProjectNotFound
}

// DeleteProject 删除项目并重写项目文件
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadProjects()
	if err != nil {
		return err
	}
	for i := range projects {
		if projects[i].ID == id {
			projects = append(projects[:i], projects[i+1:]...)
			return s.writeFile(projectsFile, projects)
		}
	}
	return storage.ErrProjectNotFound
}

// Close 文件存储无需释放资源
func (s *Store) Close() error {
	return nil
}

// Health 检查数据目录是否可访问
func (s *Store) Health() error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", storage.ErrStoreUnavailable, s.basePath)
	}
	return nil
}

// ========== 辅助方法 ==========

func (s *Store) loadProjects() ([]domain.Project, error) {
	var projects []domain.Project
	if err := s.readFile(projectsFile, &projects); err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	for i := range projects {
		if projects[i].Technologies == nil {
			projects[i].Technologies = []string{}
		}
	}
	return projects, nil
}

// readFile 读取 JSON 文件；文件不存在或无法解析时保持 out 为空值
func (s *Store) readFile(name string, out interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.basePath, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", storage.ErrStoreUnavailable, name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		// 损坏的文件按空集合处理，下次写入时覆盖
		reset(out)
	}
	return nil
}

// reset 清空解析失败时可能残留的部分内容
func reset(out interface{}) {
	switch v := out.(type) {
	case *[]domain.Message:
		*v = nil
	case *[]domain.Project:
		*v = nil
	}
}

// writeFile 先写临时文件再重命名，避免读到半截内容
func (s *Store) writeFile(name string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	target := filepath.Join(s.basePath, name)
	tmp, err := os.CreateTemp(s.basePath, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
