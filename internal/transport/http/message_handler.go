package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/service"
)

// MessageHandler 联系表单留言
type MessageHandler struct {
	messages *service.MessageService
	log      *zap.Logger
}

// NewMessageHandler 创建留言处理器
func NewMessageHandler(messages *service.MessageService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, log: log}
}

type messageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type messageCreatedResponse struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	EmailSent bool   `json:"emailSent"`
}

// Create 保存一条留言，邮件通知失败不影响结果
// @Summary 提交留言
// @Tags messages
// @Accept json
// @Produce json
// @Param message body messageRequest true "留言内容"
// @Success 201 {object} messageCreatedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /api/messages [post]
func (h *MessageHandler) Create(c *gin.Context) {
	var req messageRequest
	if !bindJSON(c, &req) {
		return
	}

	_, emailSent, err := h.messages.Create(c.Request.Context(), domain.MessageInput{
		Name:  req.Name,
		Email: req.Email,
		Body:  req.Message,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, messageCreatedResponse{
		OK:        true,
		Message:   "Message saved",
		EmailSent: emailSent,
	})
}

// List 管理员查看全部留言，最新的在前
// @Summary 留言列表
// @Tags messages
// @Produce json
// @Security AdminToken
// @Success 200 {array} domain.Message
// @Failure 401 {object} ErrorResponse
// @Router /api/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	messages, err := h.messages.List()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	c.JSON(http.StatusOK, messages)
}
