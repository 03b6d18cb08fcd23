package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"personal-blog/internal/domain"
	"personal-blog/internal/repository"
)

// 列表接口最多返回的文章数
const recentPostLimit = 20

// PostInput 是创建/更新文章的输入。
// 更新时 ImageFile 为空表示保留原封面。
type PostInput struct {
	Title     string
	Summary   string
	Content   string
	ImageFile string
}

// PostService 负责文章的增删改查和所有权控制。
type PostService struct {
	postRepo repository.PostRepository
}

// NewPostService 创建 PostService 实例。
func NewPostService(postRepo repository.PostRepository) *PostService {
	if postRepo == nil {
		panic("PostRepository cannot be nil for PostService")
	}
	return &PostService{postRepo: postRepo}
}

// Create 创建文章，调用者成为作者。
// authorID 来自认证中间件解析出的令牌，绝不使用客户端提交的作者字段。
func (s *PostService) Create(ctx context.Context, authorID uint, in PostInput) (*domain.Post, error) {
	logCtx := logrus.WithFields(logrus.Fields{"author_id": authorID, "title": in.Title})

	if err := validatePostInput(in, true); err != nil {
		logCtx.WithError(err).Warn("Create post failed: invalid input")
		return nil, err
	}

	post := &domain.Post{
		Title:     strings.TrimSpace(in.Title),
		Summary:   strings.TrimSpace(in.Summary),
		Content:   in.Content,
		ImageFile: in.ImageFile,
		AuthorID:  authorID,
	}
	if err := s.postRepo.Save(ctx, post); err != nil {
		logCtx.WithError(err).Error("Database error during post creation")
		return nil, ErrInternalServer
	}

	logCtx.WithField("post_id", post.ID).Info("Post created successfully")
	return post, nil
}

// Update 更新文章。只有作者本人可以更新。
// 返回被替换下来的旧封面引用 (没有换图时为空)，由调用方在持久化
// 成功后删除对应文件。
func (s *PostService) Update(ctx context.Context, callerID, postID uint, in PostInput) (*domain.Post, string, error) {
	logCtx := logrus.WithFields(logrus.Fields{"caller_id": callerID, "post_id": postID})

	if err := validatePostInput(in, false); err != nil {
		logCtx.WithError(err).Warn("Update post failed: invalid input")
		return nil, "", err
	}

	// 1. 加载文章
	post, err := s.loadPost(ctx, postID, logCtx)
	if err != nil {
		return nil, "", err
	}

	// 2. 所有权检查：必须在任何修改和文件删除之前
	if err := assertOwner(post, callerID); err != nil {
		logCtx.Warn("Update post rejected: caller is not the author")
		return nil, "", err
	}

	// 3. 应用修改
	replacedImage := ""
	if in.ImageFile != "" && in.ImageFile != post.ImageFile {
		replacedImage = post.ImageFile
		post.ImageFile = in.ImageFile
	}
	post.Title = strings.TrimSpace(in.Title)
	post.Summary = strings.TrimSpace(in.Summary)
	post.Content = in.Content

	if err := s.postRepo.Update(ctx, post); err != nil {
		logCtx.WithError(err).Error("Database error during post update")
		return nil, "", ErrInternalServer
	}

	logCtx.Info("Post updated successfully")
	return post, replacedImage, nil
}

// Delete 删除文章。只有作者本人可以删除。
// 返回文章的封面引用，由调用方在记录删除成功后清理文件。
func (s *PostService) Delete(ctx context.Context, callerID, postID uint) (string, error) {
	logCtx := logrus.WithFields(logrus.Fields{"caller_id": callerID, "post_id": postID})

	post, err := s.loadPost(ctx, postID, logCtx)
	if err != nil {
		return "", err
	}

	// 所有权检查先于删除，包括封面文件的删除
	if err := assertOwner(post, callerID); err != nil {
		logCtx.Warn("Delete post rejected: caller is not the author")
		return "", err
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return "", ErrPostNotFound
		}
		logCtx.WithError(err).Error("Database error during post deletion")
		return "", ErrInternalServer
	}

	logCtx.Info("Post deleted successfully")
	return post.ImageFile, nil
}

// List 返回最新的文章列表 (作者信息已加载)。
func (s *PostService) List(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.postRepo.ListRecent(ctx, recentPostLimit)
	if err != nil {
		logrus.WithError(err).Error("Database error during post listing")
		return nil, ErrInternalServer
	}
	return posts, nil
}

// Get 返回单篇文章详情。
func (s *PostService) Get(ctx context.Context, id uint) (*domain.Post, error) {
	return s.loadPost(ctx, id, logrus.WithField("post_id", id))
}

func (s *PostService) loadPost(ctx context.Context, id uint, logCtx *logrus.Entry) (*domain.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		logCtx.WithError(err).Error("Database error while loading post")
		return nil, ErrInternalServer
	}
	return post, nil
}

// assertOwner 是纯函数形式的所有权检查：
// 调用者身份与文章记录的作者 ID 值相等才放行。
func assertOwner(post *domain.Post, callerID uint) error {
	if !post.IsOwnedBy(callerID) {
		return ErrForbidden
	}
	return nil
}

// validatePostInput 检查文章输入。requireImage 为 true 时封面引用必填。
func validatePostInput(in PostInput, requireImage bool) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(in.Summary) == "" {
		return fmt.Errorf("%w: summary is required", ErrValidation)
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	if requireImage && in.ImageFile == "" {
		return fmt.Errorf("%w: cover image is required", ErrValidation)
	}
	return nil
}
