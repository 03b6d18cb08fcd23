package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"personal-blog/internal/domain"
)

// PostRepository 是 repository.PostRepository 的 Mock 实现
type PostRepository struct {
	mock.Mock
}

func (m *PostRepository) FindByID(ctx context.Context, id uint) (*domain.Post, error) {
	ret := m.Called(ctx, id)

	var r0 *domain.Post
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Post)
	}
	return r0, ret.Error(1)
}

func (m *PostRepository) ListRecent(ctx context.Context, limit int) ([]domain.Post, error) {
	ret := m.Called(ctx, limit)

	var r0 []domain.Post
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.Post)
	}
	return r0, ret.Error(1)
}

func (m *PostRepository) Save(ctx context.Context, post *domain.Post) error {
	ret := m.Called(ctx, post)
	return ret.Error(0)
}

func (m *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	ret := m.Called(ctx, post)
	return ret.Error(0)
}

func (m *PostRepository) Delete(ctx context.Context, id uint) error {
	ret := m.Called(ctx, id)
	return ret.Error(0)
}
