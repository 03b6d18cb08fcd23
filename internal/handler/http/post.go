package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"personal-blog/internal/domain"
	"personal-blog/internal/infra/storage"
	"personal-blog/internal/middleware"
	"personal-blog/internal/service"
)

// PostHandler 封装了文章相关的 HTTP 处理逻辑。
// 封面图片经 DiskStore 落盘后只保留文件名引用；任何导致请求最终
// 失败的路径都要把刚保存的文件同步删掉，不留孤儿文件。
type PostHandler struct {
	postService   *service.PostService
	store         *storage.DiskStore
	publicBaseURL string // 拼接封面图片完整 URL 用
}

// NewPostHandler 创建 PostHandler 实例
func NewPostHandler(postService *service.PostService, store *storage.DiskStore, publicBaseURL string) *PostHandler {
	if postService == nil {
		panic("PostService cannot be nil for PostHandler")
	}
	if store == nil {
		panic("DiskStore cannot be nil for PostHandler")
	}
	return &PostHandler{
		postService:   postService,
		store:         store,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// postResponse 是文章的对外表示，封面以完整 URL 返回。
type postResponse struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
	ImageURL  string `json:"image_url"`
	AuthorID  uint   `json:"author_id"`
	Author    string `json:"author,omitempty"`
	CreatedAt string `json:"created_at"`
}

func (h *PostHandler) toResponse(post *domain.Post) postResponse {
	resp := postResponse{
		ID:        post.ID,
		Title:     post.Title,
		Summary:   post.Summary,
		Content:   post.Content,
		AuthorID:  post.AuthorID,
		Author:    post.Author.Username,
		CreatedAt: post.CreatedAt.UTC().Format(time.RFC3339),
	}
	if post.ImageFile != "" {
		resp.ImageURL = h.publicBaseURL + "/uploads/" + post.ImageFile
	}
	return resp
}

// Create 处理创建文章请求 (multipart 表单)。
// Auth 中间件已在进入 handler 前验证过身份，所以认证失败的请求
// 不会触达 multipart 解析，也就不会留下孤儿文件。
func (h *PostHandler) Create(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		logrus.Error("Handler.CreatePost: caller identity missing from context")
		ErrorResponse(c, http.StatusUnauthorized, "Not authenticated: no token provided")
		return
	}

	// 1. 封面图片必填
	fileHeader, err := c.FormFile("file")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Cover image is required")
		return
	}

	// 2. 先落盘，失败路径负责清理
	imageFile, err := h.saveUpload(c, fileHeader)
	if err != nil {
		return // saveUpload 已写响应
	}

	// 3. 调用 Service；任何失败都要删掉刚保存的文件
	post, err := h.postService.Create(c.Request.Context(), callerID, service.PostInput{
		Title:     c.PostForm("title"),
		Summary:   c.PostForm("summary"),
		Content:   c.PostForm("content"),
		ImageFile: imageFile,
	})
	if err != nil {
		h.discard(imageFile)
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, h.toResponse(post))
}

// Update 处理更新文章请求 (multipart 表单，封面可选)。
func (h *PostHandler) Update(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		logrus.Error("Handler.UpdatePost: caller identity missing from context")
		ErrorResponse(c, http.StatusUnauthorized, "Not authenticated: no token provided")
		return
	}

	postID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	// 新封面是可选的
	newImage := ""
	fileHeader, err := c.FormFile("file")
	if err == nil {
		newImage, err = h.saveUpload(c, fileHeader)
		if err != nil {
			return
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		ErrorResponse(c, http.StatusBadRequest, "Invalid upload")
		return
	}

	post, replacedImage, err := h.postService.Update(c.Request.Context(), callerID, postID, service.PostInput{
		Title:     c.PostForm("title"),
		Summary:   c.PostForm("summary"),
		Content:   c.PostForm("content"),
		ImageFile: newImage,
	})
	if err != nil {
		// 更新失败 (验证、404、403、存储错误)：回滚刚上传的新封面
		if newImage != "" {
			h.discard(newImage)
		}
		HandleServiceError(c, err)
		return
	}

	// 更新成功后才删除被替换的旧封面
	if replacedImage != "" {
		h.discard(replacedImage)
	}
	SuccessResponse(c, http.StatusOK, h.toResponse(post))
}

// Delete 处理删除文章请求。
func (h *PostHandler) Delete(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		logrus.Error("Handler.DeletePost: caller identity missing from context")
		ErrorResponse(c, http.StatusUnauthorized, "Not authenticated: no token provided")
		return
	}

	postID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	removedImage, err := h.postService.Delete(c.Request.Context(), callerID, postID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	// 记录已删除，清理其独占的封面文件
	if removedImage != "" {
		h.discard(removedImage)
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// List 返回最新文章列表 (公开接口)。
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.postService.List(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	resp := make([]postResponse, 0, len(posts))
	for i := range posts {
		resp = append(resp, h.toResponse(&posts[i]))
	}
	SuccessResponse(c, http.StatusOK, resp)
}

// Get 返回单篇文章详情 (公开接口)。
func (h *PostHandler) Get(c *gin.Context) {
	postID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	post, err := h.postService.Get(c.Request.Context(), postID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, h.toResponse(post))
}

// saveUpload 保存上传文件并把存储层错误映射为 HTTP 响应。
// 返回错误时响应已写出，调用方直接 return 即可。
func (h *PostHandler) saveUpload(c *gin.Context, fileHeader *multipart.FileHeader) (string, error) {
	name, err := h.store.Save(fileHeader)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUnsupportedImageType):
			ErrorResponse(c, http.StatusBadRequest, "Invalid file type. Only JPG, JPEG, PNG, and GIF image files are allowed")
		case errors.Is(err, storage.ErrImageTooLarge):
			ErrorResponse(c, http.StatusBadRequest, "Cover image exceeds the maximum allowed size")
		default:
			logrus.WithError(err).Error("Failed to store uploaded cover image")
			ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
		}
		return "", err
	}
	return name, nil
}

// parseID 从路由参数中解析文章 ID。
func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// discard 删除一个封面文件，失败只记日志 (不影响已成功的请求结果)。
func (h *PostHandler) discard(name string) {
	if err := h.store.Remove(name); err != nil {
		logrus.WithError(err).WithField("file", name).Error("Failed to remove cover image")
	}
}
