package httptransport

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse 只带提示信息的成功响应
type OKResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Fail 返回错误响应
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{Error: msg})
}

// respondError 把业务错误翻译为状态码和消息，服务端错误写日志
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	Fail(c, status, GetErrorMessage(err))
}

// bindJSON 解析请求体，空请求体视为空对象
//
// 返回 false 时已写入错误响应。
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		Fail(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
		return false
	}

	Fail(c, http.StatusBadRequest, MsgInvalidRequest)
	return false
}
