package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio/backend/internal/auth"
)

const (
	// AdminTokenHeader 管理员令牌请求头
	AdminTokenHeader = "x-admin-token"
	// AdminTokenQuery 管理员令牌查询参数，供无法设置请求头的客户端使用
	AdminTokenQuery = "token"
	// ContextAdminEmail 上下文中的管理员邮箱键
	ContextAdminEmail = "admin_email"
)

// Authorizer 校验管理员令牌
type Authorizer interface {
	Authorize(token string) (*auth.Principal, error)
}

// AdminGuard 管理员权限中间件
type AdminGuard struct {
	authorizer Authorizer
}

// NewAdminGuard 创建管理员权限中间件
func NewAdminGuard(authorizer Authorizer) *AdminGuard {
	return &AdminGuard{authorizer: authorizer}
}

// RequireAdmin 要求请求携带有效的管理员令牌
func (g *AdminGuard) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := AdminToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			c.Abort()
			return
		}

		principal, err := g.authorizer.Authorize(token)
		if err != nil {
			message := "Unauthorized"
			if errors.Is(err, auth.ErrMissingToken) {
				message = "No token provided"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": message})
			c.Abort()
			return
		}

		c.Set(ContextAdminEmail, principal.Email)
		c.Next()
	}
}

// AdminToken 依次从请求头和查询参数读取令牌
func AdminToken(c *gin.Context) string {
	if token := c.GetHeader(AdminTokenHeader); token != "" {
		return token
	}
	return c.Query(AdminTokenQuery)
}
