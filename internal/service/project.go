package service

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/events"
	"portfolio/backend/internal/monitoring"
	"portfolio/backend/internal/storage"
)

// ProjectOrder 项目列表排序方式
type ProjectOrder string

const (
	// OrderNewest 按创建时间倒序（存储顺序）
	OrderNewest ProjectOrder = "newest"
	// OrderDisplay 精选在前，其余按创建时间倒序
	OrderDisplay ProjectOrder = "display"
)

// ProjectService 封装项目管理逻辑。
type ProjectService struct {
	repo      storage.ProjectRepository
	publisher events.Publisher
	metrics   *monitoring.Metrics
	log       *zap.Logger
	now       func() time.Time
}

// NewProjectService 创建项目业务服务。
func NewProjectService(repo storage.ProjectRepository, publisher events.Publisher, metrics *monitoring.Metrics, log *zap.Logger) *ProjectService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProjectService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// Create 新建项目，标识与时间戳由服务端分配。
func (s *ProjectService) Create(input domain.ProjectInput) (*domain.Project, error) {
	normalized, err := domain.NormalizeProjectInput(input)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	project := &domain.Project{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	project.Apply(normalized)

	if err := s.repo.SaveProject(project); err != nil {
		s.metrics.RecordError("store", "projects")
		return nil, err
	}

	s.log.Info("project created", zap.String("id", project.ID), zap.String("title", project.Title))
	s.metrics.RecordProjectMutation("create")
	s.publish(project.ID)
	return project, nil
}

// List 返回全部项目。
func (s *ProjectService) List(order ProjectOrder) ([]domain.Project, error) {
	projects, err := s.repo.ListProjects()
	if err != nil {
		s.metrics.RecordError("store", "projects")
		return nil, err
	}
	if projects == nil {
		projects = []domain.Project{}
	}

	if order == OrderDisplay {
		domain.SortForDisplay(projects)
	}
	return projects, nil
}

// Update 整体替换项目的可变字段，未提交的可选字段回落为空值。
func (s *ProjectService) Update(id string, input domain.ProjectInput) (*domain.Project, error) {
	normalized, err := domain.NormalizeProjectInput(input)
	if err != nil {
		return nil, err
	}

	project, err := s.repo.GetProject(id)
	if err != nil {
		return nil, err
	}

	project.Apply(normalized)
	project.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateProject(project); err != nil {
		return nil, err
	}

	s.log.Info("project updated", zap.String("id", project.ID))
	s.metrics.RecordProjectMutation("update")
	s.publish(project.ID)
	return project, nil
}

// Delete 删除项目，不可恢复。
func (s *ProjectService) Delete(id string) error {
	if err := s.repo.DeleteProject(id); err != nil {
		return err
	}

	s.log.Info("project deleted", zap.String("id", id))
	s.metrics.RecordProjectMutation("delete")
	s.publish(id)
	return nil
}

func (s *ProjectService) publish(id string) {
	if s.publisher != nil {
		s.publisher.Publish(events.TopicProjectsUpdated, id)
	}
}
