package repository

import (
	"context"

	"personal-blog/internal/domain"
)

// UserRepository 定义了用户数据的存储和检索操作。
type UserRepository interface {
	// FindByID 根据用户 ID 查找用户。
	// 如果用户不存在，返回 repository.ErrUserNotFound。
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByUsername 根据用户名查找用户。
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByEmail 根据邮箱查找用户 (邮箱在存储前已转换为小写)。
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByIdentifier 根据用户名或邮箱查找用户，用于登录。
	// identifier 可以是用户名，也可以是邮箱地址。
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// Save 保存用户信息。
	// 如果违反了用户名或邮箱的唯一索引，返回 repository.ErrDuplicateEntry，
	// 由此保证两个并发注册中恰好一个成功。
	Save(ctx context.Context, user *domain.User) error
}
