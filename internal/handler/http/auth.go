package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"personal-blog/internal/middleware"
	"personal-blog/internal/service"
	"personal-blog/internal/session"
)

// AuthHandler 封装了与用户认证相关的 HTTP 处理逻辑。
// Session Transport 负责令牌的下发与清除，handler 不关心具体载体。
type AuthHandler struct {
	authService *service.AuthService
	transport   session.Transport
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(authService *service.AuthService, transport session.Transport) *AuthHandler {
	if authService == nil {
		panic("AuthService cannot be nil for AuthHandler")
	}
	if transport == nil {
		panic("session transport cannot be nil for AuthHandler")
	}
	return &AuthHandler{authService: authService, transport: transport}
}

// RegisterRequest 定义注册请求的结构体
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register 处理用户注册请求
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	// 1. 绑定并验证输入 JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Register: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Username, email, and password are required")
		return
	}

	// 2. 调用 Service 层处理注册逻辑
	user, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	// 3. 注册成功，响应中只含 id 和 username
	SuccessResponse(c, http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

// LoginRequest 定义登录请求的结构体。
// identifier 可以是用户名或邮箱。
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Login 处理用户登录请求
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Login: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Username/Email and password are required")
		return
	}

	user, tok, err := h.authService.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		// 认证失败经 HandleServiceError 统一映射为 400 + 通用信息
		HandleServiceError(c, err)
		return
	}

	// 登录成功：通过 Session Transport 下发令牌 (Cookie 生命周期与令牌一致)
	h.transport.Set(c, tok, h.authService.TokenTTL())
	SuccessResponse(c, http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Logout 处理用户注销请求。
// 只是指示客户端丢弃令牌，服务端没有会话状态，总是成功。
func (h *AuthHandler) Logout(c *gin.Context) {
	h.transport.Clear(c)
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Logout successful"})
}

// Profile 返回当前登录用户的公开资料。
// 依赖 Auth 中间件先行解析调用者身份。
func (h *AuthHandler) Profile(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		// 路由配置错误：Profile 挂在了未认证的路由上
		logrus.Error("Handler.Profile: caller identity missing from context")
		ErrorResponse(c, http.StatusUnauthorized, "Not authenticated: no token provided")
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), callerID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}
