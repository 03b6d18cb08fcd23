package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"personal-blog/internal/session"
	"personal-blog/internal/token"
)

// Gin Context 中存放调用者身份的键。
const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// Auth 返回一个 Gin 中间件，从 Session Transport 中读取令牌并验证。
// 未携带令牌返回 401，令牌无效或过期返回 403；验证通过后把调用者
// 身份写入 Context，除此之外没有任何副作用，必须先于所有读取身份的
// handler 运行 (尤其是解析 multipart 请求体的 handler，避免认证失败
// 时留下孤儿文件)。
func Auth(transport session.Transport, tokens *token.Service) gin.HandlerFunc {
	// 在创建中间件时就进行检查，避免运行时 panic
	if transport == nil {
		panic("session transport cannot be nil for Auth middleware")
	}
	if tokens == nil {
		panic("token service cannot be nil for Auth middleware")
	}

	return func(c *gin.Context) {
		// 1. 从 Session Transport 读取令牌
		tokenStr, err := transport.Read(c)
		if err != nil {
			if errors.Is(err, session.ErrNoToken) {
				logrus.Debug("Auth middleware: No token presented")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated: no token provided"})
			} else {
				// 携带了凭证但格式非法
				logrus.WithError(err).Warn("Auth middleware: Malformed credential")
				c.JSON(http.StatusForbidden, gin.H{"error": "Not authenticated: invalid or expired token"})
			}
			c.Abort() // 终止请求处理链
			return
		}

		// 2. 验证令牌
		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			logCtx := logrus.WithError(err)
			logCtx.Warn("Auth middleware: Invalid token")
			// 根据令牌错误类型提供更具体的日志，但对客户端返回通用错误
			switch {
			case errors.Is(err, token.ErrTokenExpired):
				logCtx.Warn("Reason: Token is expired")
			case errors.Is(err, token.ErrTokenInvalidSignature):
				logCtx.Warn("Reason: Token signature is invalid")
			}
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authenticated: invalid or expired token"})
			c.Abort()
			return
		}

		// 3. 将调用者身份存入 Gin 上下文，供后续处理程序使用
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		logrus.WithField("user_id", claims.UserID).Debug("Auth middleware: User authenticated")

		c.Next() // 继续处理请求链
	}
}

// CallerID 从 Gin 上下文中取出 Auth 中间件写入的调用者 ID。
// 只能在 Auth 之后的 handler 中调用。
func CallerID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CallerUsername 从 Gin 上下文中取出调用者用户名。
func CallerUsername(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextUsernameKey)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
