package storage

import (
	"errors"
	"fmt"

	"portfolio/backend/internal/domain"
)

var (
	// ErrProjectNotFound 项目未找到错误
	ErrProjectNotFound = fmt.Errorf("project %w", domain.ErrNotFound)
	// ErrStoreUnavailable 存储后端不可用
	ErrStoreUnavailable = errors.New("store unavailable")
)

// MessageRepository 定义留言数据存取操作。
//
// 留言只追加不修改；ListMessages 按创建时间倒序返回。
type MessageRepository interface {
	SaveMessage(message *domain.Message) error
	ListMessages() ([]domain.Message, error)
}

// ProjectRepository 定义项目数据存取操作。
type ProjectRepository interface {
	SaveProject(project *domain.Project) error
	ListProjects() ([]domain.Project, error) // 按创建时间倒序
	GetProject(id string) (*domain.Project, error)
	UpdateProject(project *domain.Project) error
	DeleteProject(id string) error
}

// Store 定义完整的存储接口，各后端（内存、文件、数据库）实现同一契约。
type Store interface {
	MessageRepository
	ProjectRepository

	// 工具方法
	Close() error
	Health() error
}
