package auth

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/events"
)

var (
	// ErrMissingCredentials 登录缺少邮箱或密码
	ErrMissingCredentials = fmt.Errorf("%w: email and password required", domain.ErrValidation)
	// ErrMissingPasswordFields 修改密码缺少字段
	ErrMissingPasswordFields = fmt.Errorf("%w: email, current password, and new password are required", domain.ErrValidation)
	// ErrPasswordTooShort 新密码过短
	ErrPasswordTooShort = fmt.Errorf("%w: new password must be at least %d characters long", domain.ErrValidation, MinPasswordLength)
	// ErrPasswordTooLong 密码超过 bcrypt 上限
	ErrPasswordTooLong = fmt.Errorf("%w: password must be at most 72 bytes", domain.ErrValidation)
	// ErrInvalidCredentials 登录身份不匹配
	ErrInvalidCredentials = fmt.Errorf("%w", domain.ErrInvalidCredentials)
	// ErrCurrentPasswordIncorrect 修改密码时当前密码不匹配
	ErrCurrentPasswordIncorrect = fmt.Errorf("%w: current password is incorrect", domain.ErrInvalidCredentials)
	// ErrMissingToken 请求未携带会话令牌
	ErrMissingToken = fmt.Errorf("%w: no token provided", domain.ErrUnauthorized)
	// ErrInvalidToken 会话令牌无效、过期或已被改密作废
	ErrInvalidToken = fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
)

// Session 登录成功后返回的会话
type Session struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// Service 管理员会话服务
type Service struct {
	identity  *AdminIdentity
	tokens    TokenIssuer
	publisher events.Publisher
	log       *zap.Logger
}

// NewService 创建管理员会话服务
func NewService(identity *AdminIdentity, tokens TokenIssuer, publisher events.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		identity:  identity,
		tokens:    tokens,
		publisher: publisher,
		log:       log,
	}
}

// Login 校验管理员凭证并签发会话令牌
//
// 参数:
//   - email: 管理员邮箱，必须与配置完全一致
//   - password: 管理员密码
//
// 返回值:
//   - *Session: 新的会话
//   - error: 字段缺失返回 ErrMissingCredentials，不匹配返回 ErrInvalidCredentials
func (s *Service) Login(email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	if !s.identity.Verify(email, password) {
		s.log.Warn("admin login rejected", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	session, err := s.issue()
	if err != nil {
		return nil, err
	}

	s.log.Info("admin logged in", zap.String("email", email))
	s.publish()
	return session, nil
}

// ChangePassword 修改管理员密码并签发新的会话令牌
//
// 校验顺序：字段缺失 -> 身份不匹配 -> 新密码过短。
// 修改只在进程生命周期内有效，旧令牌随即失效。
func (s *Service) ChangePassword(email, currentPassword, newPassword string) (*Session, error) {
	if email == "" || currentPassword == "" || newPassword == "" {
		return nil, ErrMissingPasswordFields
	}

	if !s.identity.Verify(email, currentPassword) {
		s.log.Warn("admin password change rejected", zap.String("email", email))
		return nil, ErrCurrentPasswordIncorrect
	}

	if len(newPassword) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.identity.SetPassword(newPassword); err != nil {
		return nil, err
	}

	session, err := s.issue()
	if err != nil {
		return nil, err
	}

	s.log.Info("admin password changed", zap.String("email", email))
	s.publish()
	return session, nil
}

// Authorize 校验会话令牌
//
// 签名模式下令牌必须由本服务签发、未过期，且签发后未修改过密码。
// 兼容模式下任何非空令牌都放行。
func (s *Service) Authorize(token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	principal, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrMissingToken) {
			return nil, err
		}
		return nil, ErrInvalidToken
	}

	if principal.Signed {
		if principal.Email != s.identity.Email() || principal.Generation != s.identity.Generation() {
			return nil, ErrInvalidToken
		}
	}

	return principal, nil
}

// IssueToken 为管理员签发令牌，供命令行工具与启动迁移使用
func (s *Service) IssueToken() (*Session, error) {
	return s.issue()
}

func (s *Service) issue() (*Session, error) {
	email := s.identity.Email()
	token, expiresAt, err := s.tokens.Issue(email, s.identity.Generation())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: token, Email: email, ExpiresAt: expiresAt}, nil
}

func (s *Service) publish() {
	if s.publisher != nil {
		s.publisher.Publish(events.TopicAdminAuthChanged, s.identity.Email())
	}
}
