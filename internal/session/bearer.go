package session

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// BearerTransport 通过 "Authorization: Bearer <token>" 请求头携带令牌。
// 用于非浏览器客户端，可直接替换 CookieTransport。
// 请求头由客户端自行保存，因此 Set/Clear 是空操作。
type BearerTransport struct{}

// NewBearerTransport 创建 BearerTransport 实例。
func NewBearerTransport() *BearerTransport {
	return &BearerTransport{}
}

// Set 对 Header 传输是空操作：令牌在响应体中返回，由客户端保存。
func (t *BearerTransport) Set(c *gin.Context, token string, ttl time.Duration) {}

// Clear 对 Header 传输是空操作。
func (t *BearerTransport) Clear(c *gin.Context) {}

// Read 解析 Authorization 请求头。
func (t *BearerTransport) Read(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrNoToken
	}
	// Authorization header 格式应为 "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	// 使用 EqualFold 忽略 "Bearer" 的大小写
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrMalformedCredential
	}
	return parts[1], nil
}
