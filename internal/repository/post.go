package repository

import (
	"context"

	"personal-blog/internal/domain"
)

// PostRepository 定义了文章数据的存储和检索操作。
type PostRepository interface {
	// FindByID 根据文章 ID 查找文章，并加载作者信息。
	// 如果文章不存在，返回 repository.ErrPostNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Post, error)

	// ListRecent 按创建时间倒序返回最多 limit 篇文章，并加载作者信息。
	ListRecent(ctx context.Context, limit int) ([]domain.Post, error)

	// Save 创建新文章，数据库填充 ID 和时间戳。
	Save(ctx context.Context, post *domain.Post) error

	// Update 更新已有文章。
	Update(ctx context.Context, post *domain.Post) error

	// Delete 删除指定 ID 的文章。
	// 如果文章不存在，返回 repository.ErrPostNotFound。
	Delete(ctx context.Context, id uint) error
}
