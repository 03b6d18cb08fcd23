package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"personal-blog/internal/domain"
	"personal-blog/internal/repository"
)

// GormPostRepository 是 PostRepository 接口的 GORM 实现
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository 创建 GormPostRepository 实例
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPostRepository")
	}
	return &GormPostRepository{db: db}
}

// FindByID 实现根据文章 ID 查找文章，同时加载作者信息
func (r *GormPostRepository) FindByID(ctx context.Context, id uint) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).Preload("Author").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPostNotFound
		}
		return nil, fmt.Errorf("gorm: find post by id %d: %w", id, err)
	}
	return &post, nil
}

// ListRecent 实现按创建时间倒序返回最新的文章列表
func (r *GormPostRepository) ListRecent(ctx context.Context, limit int) ([]domain.Post, error) {
	var posts []domain.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list recent posts: %w", err)
	}
	return posts, nil
}

// Save 实现创建新文章
func (r *GormPostRepository) Save(ctx context.Context, post *domain.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("gorm: create post (title: %s): %w", post.Title, err)
	}
	return nil
}

// Update 实现更新已有文章
func (r *GormPostRepository) Update(ctx context.Context, post *domain.Post) error {
	// 只更新文章本身，避免 Save 级联写入 Author 关联
	err := r.db.WithContext(ctx).Omit("Author").Save(post).Error
	if err != nil {
		return fmt.Errorf("gorm: update post %d: %w", post.ID, err)
	}
	return nil
}

// Delete 实现删除指定 ID 的文章
func (r *GormPostRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Post{}, id)
	if result.Error != nil {
		return fmt.Errorf("gorm: delete post %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrPostNotFound
	}
	return nil
}
