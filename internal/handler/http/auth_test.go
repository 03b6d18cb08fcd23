package http_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"personal-blog/internal/domain"
	handler "personal-blog/internal/handler/http"
	"personal-blog/internal/middleware"
	"personal-blog/internal/repository"
	"personal-blog/internal/repository/mocks"
	"personal-blog/internal/service"
	"personal-blog/internal/session"
	"personal-blog/internal/token"
)

// setupAuthRouter 构造认证相关路由，与 bootstrap 中的挂载方式一致。
func setupAuthRouter(t *testing.T, userRepo repository.UserRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := token.NewService("test-secret")
	require.NoError(t, err)
	authService := service.NewAuthService(userRepo, tokens, time.Hour)
	transport := session.NewCookieTransport(false)
	authHandler := handler.NewAuthHandler(authService, transport)

	router := gin.New()
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/profile", middleware.Auth(transport, tokens), authHandler.Profile)
	}
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register_Created(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockUserRepo.On("FindByUsername", mock.Anything, "alice").Return(nil, repository.ErrUserNotFound).Once()
	mockUserRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, repository.ErrUserNotFound).Once()
	mockUserRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.User).ID = 1 }).
		Return(nil).Once()
	router := setupAuthRouter(t, mockUserRepo)

	w := postJSON(router, "/api/auth/register", `{"username":"alice","email":"a@x.com","password":"secret123"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"username":"alice"}`, w.Body.String(), "响应只应包含 id 和 username")
}

func TestAuthHandler_Register_MissingFields(t *testing.T) {
	router := setupAuthRouter(t, new(mocks.UserRepository))

	w := postJSON(router, "/api/auth/register", `{"username":"alice"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_SetsSessionCookie(t *testing.T) {
	password := "secret123"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	mockUserRepo := new(mocks.UserRepository)
	mockUserRepo.On("FindByIdentifier", mock.Anything, "alice").
		Return(&domain.User{ID: 1, Username: "alice", PasswordHash: string(hashed)}, nil).Once()
	router := setupAuthRouter(t, mockUserRepo)

	w := postJSON(router, "/api/auth/login", `{"identifier":"alice","password":"secret123"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"username":"alice"}`, w.Body.String())

	setCookie := w.Header().Get("Set-Cookie")
	require.NotEmpty(t, setCookie, "登录成功应下发会话 Cookie")
	assert.Contains(t, setCookie, "token=")
	assert.Contains(t, setCookie, "HttpOnly")
	assert.Contains(t, setCookie, "Max-Age=3600", "Cookie 有效期应为 1 小时")
}

func TestAuthHandler_Login_IndistinguishableFailures(t *testing.T) {
	// 密码错误和用户不存在的响应必须逐字节一致
	password := "correct-password"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	mockUserRepo := new(mocks.UserRepository)
	mockUserRepo.On("FindByIdentifier", mock.Anything, "alice").
		Return(&domain.User{ID: 1, Username: "alice", PasswordHash: string(hashed)}, nil).Once()
	mockUserRepo.On("FindByIdentifier", mock.Anything, "ghost").
		Return(nil, repository.ErrUserNotFound).Once()
	router := setupAuthRouter(t, mockUserRepo)

	wrongPass := postJSON(router, "/api/auth/login", `{"identifier":"alice","password":"wrong"}`)
	noUser := postJSON(router, "/api/auth/login", `{"identifier":"ghost","password":"wrong"}`)

	assert.Equal(t, http.StatusBadRequest, wrongPass.Code)
	assert.Equal(t, http.StatusBadRequest, noUser.Code)
	assert.Equal(t, wrongPass.Body.Bytes(), noUser.Body.Bytes(), "两种失败的响应体必须完全一致")
	assert.NotContains(t, wrongPass.Body.String(), "password is wrong")
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	router := setupAuthRouter(t, new(mocks.UserRepository))

	// 无论是否登录，注销都成功并清除 Cookie
	w := postJSON(router, "/api/auth/logout", ``)

	require.Equal(t, http.StatusOK, w.Code)
	setCookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, setCookie, "token=;")
	assert.Contains(t, setCookie, "Max-Age=0")
}

func TestAuthHandler_Profile(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockUserRepo.On("FindByID", mock.Anything, uint(1)).
		Return(&domain.User{ID: 1, Username: "alice", Email: "a@x.com"}, nil).Once()
	router := setupAuthRouter(t, mockUserRepo)

	tokens, err := token.NewService("test-secret")
	require.NoError(t, err)
	tok, err := tokens.Issue(1, "alice", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"username":"alice","email":"a@x.com"}`, w.Body.String())
}

func TestAuthHandler_Profile_Unauthenticated(t *testing.T) {
	router := setupAuthRouter(t, new(mocks.UserRepository))

	// 无令牌 → 401
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 无效令牌 → 403
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "garbage"})
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
