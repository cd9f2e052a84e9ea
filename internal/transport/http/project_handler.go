package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/service"
)

// ProjectHandler 作品集项目
type ProjectHandler struct {
	projects *service.ProjectService
	log      *zap.Logger
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projects *service.ProjectService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, log: log}
}

type projectResponse struct {
	OK      bool            `json:"ok"`
	Project *domain.Project `json:"project"`
}

// List 公开的项目列表
//
// 默认按创建时间倒序；order=display 时精选项目在前。
// @Summary 项目列表
// @Tags projects
// @Produce json
// @Param order query string false "排序方式" Enums(display)
// @Success 200 {array} domain.Project
// @Failure 500 {object} ErrorResponse
// @Router /api/projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	order := service.OrderNewest
	if c.Query("order") == string(service.OrderDisplay) {
		order = service.OrderDisplay
	}

	projects, err := h.projects.List(order)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

// Create 新建项目
// @Summary 新建项目
// @Tags projects
// @Accept json
// @Produce json
// @Security AdminToken
// @Param project body domain.ProjectInput true "项目内容"
// @Success 201 {object} projectResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var input domain.ProjectInput
	if !bindJSON(c, &input) {
		return
	}

	project, err := h.projects.Create(input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, projectResponse{OK: true, Project: project})
}

// Update 整体替换项目
// @Summary 更新项目
// @Tags projects
// @Accept json
// @Produce json
// @Security AdminToken
// @Param id path string true "项目 ID"
// @Param project body domain.ProjectInput true "项目内容"
// @Success 200 {object} projectResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	var input domain.ProjectInput
	if !bindJSON(c, &input) {
		return
	}

	project, err := h.projects.Update(c.Param("id"), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, projectResponse{OK: true, Project: project})
}

// Delete 删除项目
// @Summary 删除项目
// @Tags projects
// @Produce json
// @Security AdminToken
// @Param id path string true "项目 ID"
// @Success 200 {object} OKResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, OKResponse{OK: true, Message: "Project deleted"})
}
