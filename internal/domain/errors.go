package domain

import "errors"

// 错误分类。具体错误通过 %w 包装这些哨兵错误，传输层用 errors.Is 映射状态码。
var (
	// ErrValidation 必填字段缺失或格式错误（400）
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized 缺少或被拒绝的会话凭证（401）
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound 目标记录不存在（404）
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials 登录或修改密码时身份不匹配（401）
	ErrInvalidCredentials = errors.New("invalid credentials")
)
