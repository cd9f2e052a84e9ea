package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"portfolio/backend/internal/auth/jwt"
	"portfolio/backend/internal/config"
)

// Principal 令牌携带的身份信息
type Principal struct {
	Email      string
	Generation uint64
	Signed     bool // false 表示兼容模式下未经校验的令牌
}

// TokenIssuer 会话令牌的签发与校验
type TokenIssuer interface {
	Issue(email string, generation uint64) (string, time.Time, error)
	Verify(token string) (*Principal, error)
}

// NewTokenIssuer 根据令牌模式创建签发器
func NewTokenIssuer(mode string, cfg config.JWTConfig) TokenIssuer {
	if mode == config.TokenModeOpaque {
		return &opaqueIssuer{secret: []byte(cfg.Secret), expiry: cfg.Expiry, now: time.Now}
	}
	return &signedIssuer{manager: jwt.NewManager(cfg.Secret, cfg.Issuer, cfg.Expiry)}
}

// signedIssuer 签名且有过期时间的 JWT
type signedIssuer struct {
	manager *jwt.Manager
}

func (s *signedIssuer) Issue(email string, generation uint64) (string, time.Time, error) {
	return s.manager.Generate(email, generation)
}

func (s *signedIssuer) Verify(token string) (*Principal, error) {
	claims, err := s.manager.Validate(token)
	if err != nil {
		return nil, err
	}
	return &Principal{Email: claims.Email, Generation: claims.Generation, Signed: true}, nil
}

// opaqueIssuer 兼容模式：令牌为 HMAC(email:timestamp)，校验时只要求非空
type opaqueIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func (o *opaqueIssuer) Issue(email string, _ uint64) (string, time.Time, error) {
	now := o.now()
	mac := hmac.New(sha256.New, o.secret)
	if _, err := fmt.Fprintf(mac, "%s:%s", email, strconv.FormatInt(now.UnixNano(), 10)); err != nil {
		return "", time.Time{}, err
	}
	return hex.EncodeToString(mac.Sum(nil)), now.Add(o.expiry), nil
}

func (o *opaqueIssuer) Verify(token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	return &Principal{}, nil
}
