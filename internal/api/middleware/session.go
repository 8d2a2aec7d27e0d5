package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeforge/internal/auth"
	"resumeforge/internal/database"
	"resumeforge/internal/errcode"
)

const userIDKey = "userID"

// SessionTokenCookieName 是浏览器端会话 Cookie 的名称。
const SessionTokenCookieName = "session_token"

// loginPath 是未认证的页面请求被重定向到的登录页。
const loginPath = "/login"

// SessionMiddleware 在每个受保护请求上重新校验会话：
// 先验证令牌签名与有效期，再确认用户仍然存在，之后才把 userID 注入上下文。
// 绝不信任缓存的会话对象做授权判断。
//
// 对浏览器页面请求（Accept: text/html），失败时重定向到登录页并携带原路径；
// 对 API 请求返回 401 JSON。公开路由不挂载本中间件。
func SessionMiddleware(authService *auth.Service, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authenticate(c, authService, db)
		if !ok {
			rejectUnauthenticated(c)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// OptionalSessionMiddleware 与 SessionMiddleware 相同的校验逻辑，
// 但缺少或无效的会话不会中断请求，只是不注入 userID。
// 用于既服务于所有者、又服务于公开访问的路由。
func OptionalSessionMiddleware(authService *auth.Service, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := authenticate(c, authService, db); ok {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

// UserIDFromContext 返回中间件注入的当前用户 ID。
func UserIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

func authenticate(c *gin.Context, authService *auth.Service, db *gorm.DB) (uint, bool) {
	token := extractSessionToken(c)
	if token == "" {
		return 0, false
	}

	claims, err := authService.ValidateSession(token)
	if err != nil {
		return 0, false
	}

	// 令牌有效还不够：账号可能已被删除。
	var user database.User
	err = db.WithContext(c.Request.Context()).
		Select("id").
		First(&user, claims.UserID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			// 数据库故障时宁可拒绝，也不放行无法确认的身份。
			return 0, false
		}
		return 0, false
	}

	return user.ID, true
}

func extractSessionToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if token, err := c.Cookie(SessionTokenCookieName); err == nil {
		return strings.TrimSpace(token)
	}
	return ""
}

func rejectUnauthenticated(c *gin.Context) {
	if wantsHTML(c) {
		next := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			next += "?" + c.Request.URL.RawQuery
		}
		c.Redirect(http.StatusFound, loginPath+"?next="+url.QueryEscape(next))
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": errcode.Unauthorized, "error": "unauthorized"})
}

func wantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html")
}
