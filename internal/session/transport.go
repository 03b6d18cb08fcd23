// Package session 定义了会话令牌在客户端与服务端之间的传输方式。
// Transport 把"令牌如何携带"从认证中间件里解耦出来，Cookie 和
// Bearer Header 两种实现可以互相替换。
package session

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	// ErrNoToken 表示请求没有携带任何令牌 (对应 401)
	ErrNoToken = errors.New("session: no token presented")
	// ErrMalformedCredential 表示携带了凭证但格式不合法 (对应 403)
	ErrMalformedCredential = errors.New("session: malformed credential")
)

// Transport 负责在请求/响应之间携带会话令牌。
type Transport interface {
	// Set 在响应中下发令牌，生命周期与令牌 ttl 一致。
	Set(c *gin.Context, token string, ttl time.Duration)

	// Clear 指示客户端丢弃令牌。无服务端状态，总是成功。
	Clear(c *gin.Context)

	// Read 从请求中读取令牌。
	// 未携带令牌返回 ErrNoToken，携带但格式非法返回 ErrMalformedCredential。
	Read(c *gin.Context) (string, error)
}
