package memory

import (
	"sync"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"
)

// Store 使用内存保存留言与项目数据，主要用于开发验证与测试。
//
// 进程退出后数据即丢失。
type Store struct {
	mu       sync.RWMutex
	messages []*domain.Message
	projects map[string]*domain.Project
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		messages: make([]*domain.Message, 0),
		projects: make(map[string]*domain.Project),
	}
}

// ========== Message Repository ==========

// SaveMessage 追加一条留言。
func (s *Store) SaveMessage(message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *message
	s.messages = append(s.messages, &clone)
	return nil
}

// ListMessages 返回全部留言，最新的在前。
func (s *Store) ListMessages() ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Message, 0, len(s.messages))
	for i := len(s.messages) - 1; i >= 0; i-- {
		result = append(result, *s.messages[i])
	}
	domain.SortMessagesNewestFirst(result)
	return result, nil
}

// ========== Project Repository ==========

// SaveProject 保存新项目。
func (s *Store) SaveProject(project *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects[project.ID] = cloneProject(project)
	return nil
}

// ListProjects 返回全部项目，按创建时间倒序。
func (s *Store) ListProjects() ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Project, 0, len(s.projects))
	for _, project := range s.projects {
		result = append(result, *cloneProject(project))
	}
	domain.SortNewestFirst(result)
	return result, nil
}

// GetProject 根据 ID 获取项目。
func (s *Store) GetProject(id string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	if !ok {
		return nil, storage.ErrProjectNotFound
	}
	return cloneProject(project), nil
}

// UpdateProject 整体替换已存在的项目。
func (s *Store) UpdateProject(project *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[project.ID]; !ok {
		return storage.ErrProjectNotFound
	}
	s.projects[project.ID] = cloneProject(project)
	return nil
}

// DeleteProject 删除项目。
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return storage.ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

// Close 内存存储无需释放资源
func (s *Store) Close() error {
	return nil
}

// Health 内存存储始终可用
func (s *Store) Health() error {
	return nil
}

func cloneProject(project *domain.Project) *domain.Project {
	clone := *project
	clone.Technologies = append([]string{}, project.Technologies...)
	return &clone
}
