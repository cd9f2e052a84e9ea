package httptransport

import (
	"errors"
	"net/http"

	"portfolio/backend/internal/auth"
	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"
)

// 错误消息映射表（业务错误 -> 客户端消息）
var errorMessages = map[error]string{
	// 管理员会话
	auth.ErrMissingCredentials:       "Email and password required",
	auth.ErrMissingPasswordFields:    "Email, current password, and new password are required",
	auth.ErrPasswordTooShort:         "New password must be at least 6 characters long",
	auth.ErrPasswordTooLong:          "Password must be at most 72 bytes",
	auth.ErrInvalidCredentials:       "Invalid credentials",
	auth.ErrCurrentPasswordIncorrect: "Current password is incorrect",
	auth.ErrMissingToken:             "No token provided",
	auth.ErrInvalidToken:             "Unauthorized",

	// 记录
	domain.ErrMessageFieldsRequired: "name, email and message are required",
	domain.ErrProjectFieldsRequired: "Title and description are required",
	storage.ErrProjectNotFound:      "Project not found",
}

// 通用错误消息
const (
	MsgInvalidRequest   = "Invalid request body"
	MsgBodyTooLarge     = "Request body too large"
	MsgUnauthorized     = "Unauthorized"
	MsgNotFound         = "Not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgInternalError    = "Server error"
)

// GetErrorMessage 获取错误对应的客户端消息
//
// 沿包装链查找第一个已登记的错误；未登记的按分类给出通用消息。
func GetErrorMessage(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if msg, ok := errorMessages[e]; ok {
			return msg
		}
	}

	switch StatusFor(err) {
	case http.StatusBadRequest:
		return MsgInvalidRequest
	case http.StatusUnauthorized:
		return MsgUnauthorized
	case http.StatusNotFound:
		return MsgNotFound
	default:
		return MsgInternalError
	}
}

// StatusFor 按错误分类映射 HTTP 状态码，未分类的错误视为存储故障
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
