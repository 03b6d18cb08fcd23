package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultCookieName 是会话 Cookie 的默认名称。
const DefaultCookieName = "token"

// CookieTransport 通过 HttpOnly Cookie 携带令牌。
// SameSite=Lax 防 CSRF，生产环境下额外要求 Secure (仅 HTTPS 发送)。
type CookieTransport struct {
	Name   string // Cookie 名称，空值时使用 DefaultCookieName
	Secure bool   // 生产环境应为 true
}

// NewCookieTransport 创建 CookieTransport 实例。
func NewCookieTransport(secure bool) *CookieTransport {
	return &CookieTransport{Name: DefaultCookieName, Secure: secure}
}

func (t *CookieTransport) name() string {
	if t.Name == "" {
		return DefaultCookieName
	}
	return t.Name
}

// Set 下发会话 Cookie，MaxAge 与令牌 ttl 对齐。
func (t *CookieTransport) Set(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	// HttpOnly 阻止客户端 JavaScript 读取 Cookie
	c.SetCookie(t.name(), token, int(ttl.Seconds()), "/", "", t.Secure, true)
}

// Clear 通过负的 MaxAge 让浏览器立即删除 Cookie。
func (t *CookieTransport) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(t.name(), "", -1, "/", "", t.Secure, true)
}

// Read 从请求 Cookie 中读取令牌。
func (t *CookieTransport) Read(c *gin.Context) (string, error) {
	value, err := c.Cookie(t.name())
	if err != nil || value == "" {
		// 没有 Cookie 和空值 Cookie 都视为未携带令牌
		return "", ErrNoToken
	}
	return value, nil
}
