package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength 新密码最小长度
const MinPasswordLength = 6

// AdminIdentity 唯一管理员身份
//
// 密码只以 bcrypt 哈希保存在进程内，修改不持久化，重启后恢复为配置值。
// 每次修改密码递增 generation，此前签发的令牌随之失效。
type AdminIdentity struct {
	mu         sync.RWMutex
	email      string
	hash       []byte
	generation uint64
}

// NewAdminIdentity 使用明文密码创建管理员身份
func NewAdminIdentity(email, password string) (*AdminIdentity, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &AdminIdentity{email: email, hash: []byte(hash)}, nil
}

// NewAdminIdentityFromHash 使用已有的 bcrypt 哈希创建管理员身份
func NewAdminIdentityFromHash(email, hash string) (*AdminIdentity, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return &AdminIdentity{email: email, hash: []byte(hash)}, nil
}

// Email 返回管理员邮箱
func (a *AdminIdentity) Email() string {
	return a.email
}

// Generation 返回当前密码版本
func (a *AdminIdentity) Generation() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.generation
}

// Verify 校验邮箱与密码是否与管理员身份完全一致
func (a *AdminIdentity) Verify(email, password string) bool {
	if email != a.email {
		return false
	}

	a.mu.RLock()
	hash := a.hash
	a.mu.RUnlock()

	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// SetPassword 替换密码并返回新的密码版本
func (a *AdminIdentity) SetPassword(password string) (uint64, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.hash = []byte(hash)
	a.generation++
	return a.generation, nil
}

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
