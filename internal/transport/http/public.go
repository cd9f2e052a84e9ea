package httptransport

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// spaFallback 为未匹配的路由提供前端构建产物
//
// /api 下的路径始终返回 JSON 404；其余 GET/HEAD 请求优先返回同名文件，
// 不存在时回落到 index.html，由前端路由接管。
func spaFallback(staticDir string) gin.HandlerFunc {
	index := filepath.Join(staticDir, "index.html")

	return func(c *gin.Context) {
		reqPath := c.Request.URL.Path
		if staticDir == "" || strings.HasPrefix(reqPath, "/api/") || reqPath == "/api" {
			Fail(c, http.StatusNotFound, MsgNotFound)
			return
		}

		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			Fail(c, http.StatusNotFound, MsgNotFound)
			return
		}

		// path.Clean 以 / 开头时会吃掉所有 ..
		name := filepath.Join(staticDir, filepath.FromSlash(path.Clean("/"+reqPath)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			c.File(name)
			return
		}

		if _, err := os.Stat(index); err != nil {
			Fail(c, http.StatusNotFound, MsgNotFound)
			return
		}
		c.File(index)
	}
}
