package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio/backend/internal/auth"
	"portfolio/backend/internal/monitoring"
)

// AuthHandler 处理管理员会话相关的 HTTP 请求
type AuthHandler struct {
	authService *auth.Service
	metrics     *monitoring.Metrics
	log         *zap.Logger
}

// NewAuthHandler 创建管理员会话处理器
func NewAuthHandler(authService *auth.Service, metrics *monitoring.Metrics, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		metrics:     metrics,
		log:         log,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
	Email string `json:"email"`
}

type changePasswordRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	OldPassword     string `json:"oldPassword"` // 旧版管理后台使用的字段名
	NewPassword     string `json:"newPassword"`
}

type changePasswordResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Login 管理员登录
// @Summary 管理员登录
// @Tags admin
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "登录凭据"
// @Success 200 {object} loginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/admin/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if req.Email != "" && req.Password != "" {
			h.metrics.RecordAdminLogin(false)
		}
		respondError(c, h.log, err)
		return
	}

	h.metrics.RecordAdminLogin(true)
	c.JSON(http.StatusOK, loginResponse{
		OK:    true,
		Token: session.Token,
		Email: session.Email,
	})
}

// ChangePassword 修改管理员密码，返回新令牌
// @Summary 修改密码
// @Tags admin
// @Accept json
// @Produce json
// @Param request body changePasswordRequest true "修改密码请求"
// @Success 200 {object} changePasswordResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/admin/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	current := req.CurrentPassword
	if current == "" {
		current = req.OldPassword
	}

	session, err := h.authService.ChangePassword(req.Email, current, req.NewPassword)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, changePasswordResponse{
		OK:      true,
		Message: "Password changed successfully",
		Token:   session.Token,
	})
}
