package http_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"personal-blog/internal/domain"
	handler "personal-blog/internal/handler/http"
	"personal-blog/internal/infra/storage"
	"personal-blog/internal/middleware"
	"personal-blog/internal/repository"
	"personal-blog/internal/repository/mocks"
	"personal-blog/internal/service"
	"personal-blog/internal/session"
	"personal-blog/internal/token"
)

type postRouterEnv struct {
	router *gin.Engine
	store  *storage.DiskStore
	tokens *token.Service
}

// setupPostRouter 构造文章路由，与 bootstrap 中的挂载方式一致。
func setupPostRouter(t *testing.T, postRepo repository.PostRepository) *postRouterEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := token.NewService("test-secret")
	require.NoError(t, err)
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	transport := session.NewCookieTransport(false)
	postHandler := handler.NewPostHandler(service.NewPostService(postRepo), store, "http://localhost:4000")

	router := gin.New()
	posts := router.Group("/api/posts")
	{
		posts.GET("", postHandler.List)
		posts.GET("/:id", postHandler.Get)

		guarded := posts.Group("").Use(middleware.Auth(transport, tokens))
		guarded.POST("", postHandler.Create)
		guarded.PUT("/:id", postHandler.Update)
		guarded.DELETE("/:id", postHandler.Delete)
	}
	return &postRouterEnv{router: router, store: store, tokens: tokens}
}

func (env *postRouterEnv) loginAs(t *testing.T, id uint, username string) *http.Cookie {
	t.Helper()
	tok, err := env.tokens.Issue(id, username, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: "token", Value: tok}
}

// multipartBody 构造一个文章的 multipart 表单体。flename 为空表示不带文件。
func multipartBody(t *testing.T, fields map[string]string, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake-image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// storedFiles 返回磁盘存储目录下的文件数。
func storedFiles(t *testing.T, store *storage.DiskStore) int {
	t.Helper()
	entries, err := os.ReadDir(store.Root())
	require.NoError(t, err)
	return len(entries)
}

func TestPostHandler_Create_Success(t *testing.T) {
	mockPostRepo := new(mocks.PostRepository)
	mockPostRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Post")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Post).ID = 11 }).
		Return(nil).Once()
	env := setupPostRouter(t, mockPostRepo)

	body, contentType := multipartBody(t, map[string]string{
		"title": "First Post", "summary": "s", "content": "c",
	}, "cover.jpg")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(env.loginAs(t, 7, "alice"))
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	assert.Contains(t, w.Body.String(), `"id":11`)
	assert.Contains(t, w.Body.String(), "http://localhost:4000/uploads/", "封面应返回完整 URL")
	assert.Equal(t, 1, storedFiles(t, env.store), "封面文件应已落盘")
	mockPostRepo.AssertExpectations(t)
}

func TestPostHandler_Create_Unauthenticated_NoOrphanFile(t *testing.T) {
	// 认证在 multipart 解析之前完成，失败的请求不应在磁盘留下任何文件
	mockPostRepo := new(mocks.PostRepository)
	env := setupPostRouter(t, mockPostRepo)

	body, contentType := multipartBody(t, map[string]string{
		"title": "First Post", "summary": "s", "content": "c",
	}, "cover.jpg")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, storedFiles(t, env.store), "认证失败不应留下孤儿文件")
	mockPostRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPostHandler_Create_MissingTitle_RollsBackUpload(t *testing.T) {
	// 文件保存成功后发现 title 缺失：400 + 文件删除 + 不写库
	mockPostRepo := new(mocks.PostRepository)
	env := setupPostRouter(t, mockPostRepo)

	body, contentType := multipartBody(t, map[string]string{
		"summary": "s", "content": "c",
	}, "cover.jpg")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(env.loginAs(t, 7, "alice"))
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, storedFiles(t, env.store), "请求失败后文件应被同步删除")
	mockPostRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPostHandler_Create_MissingFile(t *testing.T) {
	env := setupPostRouter(t, new(mocks.PostRepository))

	body, contentType := multipartBody(t, map[string]string{
		"title": "t", "summary": "s", "content": "c",
	}, "")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(env.loginAs(t, 7, "alice"))
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cover image is required")
}

func TestPostHandler_Create_UnsupportedFileType(t *testing.T) {
	env := setupPostRouter(t, new(mocks.PostRepository))

	body, contentType := multipartBody(t, map[string]string{
		"title": "t", "summary": "s", "content": "c",
	}, "malware.exe")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(env.loginAs(t, 7, "alice"))
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, storedFiles(t, env.store))
}

func TestPostHandler_Delete_NotOwner(t *testing.T) {
	// 用户 A (7) 的文章，用户 B (8) 尝试删除 → 403，文件保留
	mockPostRepo := new(mocks.PostRepository)
	mockPostRepo.On("FindByID", mock.Anything, uint(11)).
		Return(&domain.Post{ID: 11, ImageFile: "cover.jpg", AuthorID: 7}, nil).Once()
	env := setupPostRouter(t, mockPostRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/posts/11", nil)
	req.AddCookie(env.loginAs(t, 8, "mallory"))
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockPostRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPostHandler_Delete_Owner(t *testing.T) {
	mockPostRepo := new(mocks.PostRepository)
	mockPostRepo.On("FindByID", mock.Anything, uint(11)).
		Return(&domain.Post{ID: 11, ImageFile: "cover.jpg", AuthorID: 7}, nil).Once()
	mockPostRepo.On("Delete", mock.Anything, uint(11)).Return(nil).Once()
	env := setupPostRouter(t, mockPostRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/posts/11", nil)
	req.AddCookie(env.loginAs(t, 7, "alice"))
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockPostRepo.AssertExpectations(t)
}

func TestPostHandler_Update_NotOwner_RollsBackNewImage(t *testing.T) {
	// 非作者更新：403，且刚上传的新封面被回滚删除
	mockPostRepo := new(mocks.PostRepository)
	mockPostRepo.On("FindByID", mock.Anything, uint(11)).
		Return(&domain.Post{ID: 11, Title: "t", Summary: "s", Content: "c", ImageFile: "old.jpg", AuthorID: 7}, nil).Once()
	env := setupPostRouter(t, mockPostRepo)

	body, contentType := multipartBody(t, map[string]string{
		"title": "t2", "summary": "s2", "content": "c2",
	}, "new.jpg")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/posts/11", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(env.loginAs(t, 8, "mallory"))
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, storedFiles(t, env.store), "被拒绝的更新不应留下新上传的文件")
	mockPostRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPostHandler_Update_Owner_ReplacesImage(t *testing.T) {
	mockPostRepo := new(mocks.PostRepository)
	mockPostRepo.On("FindByID", mock.Anything, uint(11)).
		Return(&domain.Post{ID: 11, Title: "t", Summary: "s", Content: "c", ImageFile: "old.jpg", AuthorID: 7}, nil).Once()
	mockPostRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Post")).Return(nil).Once()
	env := setupPostRouter(t, mockPostRepo)

	// 预置旧封面文件，验证替换后被清理
	oldPath := filepath.Join(env.store.Root(), "old.jpg")
	require.NoError(t, os.WriteFile(oldPath, []byte("old"), 0o644))

	body, contentType := multipartBody(t, map[string]string{
		"title": "t2", "summary": "s2", "content": "c2",
	}, "new.jpg")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/posts/11", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(env.loginAs(t, 7, "alice"))
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	_, err := os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err), "被替换的旧封面应被删除")
	assert.Equal(t, 1, storedFiles(t, env.store), "只应保留新封面")
	mockPostRepo.AssertExpectations(t)
}

func TestPostHandler_List_Public(t *testing.T) {
	mockPostRepo := new(mocks.PostRepository)
	mockPostRepo.On("ListRecent", mock.Anything, 20).Return([]domain.Post{
		{ID: 2, Title: "newer", ImageFile: "b.jpg", AuthorID: 7, Author: domain.User{ID: 7, Username: "alice"}},
		{ID: 1, Title: "older", ImageFile: "a.jpg", AuthorID: 7, Author: domain.User{ID: 7, Username: "alice"}},
	}, nil).Once()
	env := setupPostRouter(t, mockPostRepo)

	// 列表是公开接口，无需认证
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"author":"alice"`)
	assert.Contains(t, w.Body.String(), "http://localhost:4000/uploads/b.jpg")
}

func TestPostHandler_Get_NotFound(t *testing.T) {
	mockPostRepo := new(mocks.PostRepository)
	mockPostRepo.On("FindByID", mock.Anything, uint(404)).Return(nil, repository.ErrPostNotFound).Once()
	env := setupPostRouter(t, mockPostRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/posts/404", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostHandler_Get_InvalidID(t *testing.T) {
	env := setupPostRouter(t, new(mocks.PostRepository))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/posts/not-a-number", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
