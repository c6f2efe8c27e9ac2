package handler

import (
	"net/http"
	"strings"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/service"
	"github.com/gin-gonic/gin"
)

// publicPaths 无需会话即可访问的路径。
// 前缀匹配；exact 为 true 时只放行完全相等的路径。
var publicPaths = []struct {
	path  string
	exact bool
}{
	{path: "/login"},
	{path: "/api/auth"},
	{path: "/api/init"},
	{path: "/api", exact: true},
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if p.exact {
			if path == p.path {
				return true
			}
			continue
		}
		if strings.HasPrefix(path, p.path) {
			return true
		}
	}
	return false
}

// hasStaticExtension 判断请求是否指向静态资源。
// 静态资源不做会话重定向，交给文件服务处理。
func hasStaticExtension(path string) bool {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx < strings.LastIndexByte(path, '/') {
		return false
	}
	return true
}

// SessionGate 页面访问门禁。
// 只检查 cookie 是否存在，不查库；真正的身份校验由各 API 处理器完成，
// 这样即使带着过期 cookie 也能打开页面，由前端按 401 响应降级。
func SessionGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if hasStaticExtension(path) || path == "/" || isPublicPath(path) {
			c.Next()
			return
		}

		token, err := c.Cookie(service.SessionCookieName)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Next()
	}
}

// LoginRedirect 已持有会话 cookie 时访问登录页则跳回首页。
func LoginRedirect() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(service.SessionCookieName)
		if err == nil && token != "" {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
