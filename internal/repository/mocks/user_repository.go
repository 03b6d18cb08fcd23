// Package mocks 提供 repository 接口的 testify Mock 实现，供单元测试使用。
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"personal-blog/internal/domain"
)

// UserRepository 是 repository.UserRepository 的 Mock 实现
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	ret := m.Called(ctx, id)

	var r0 *domain.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.User)
	}
	return r0, ret.Error(1)
}

func (m *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ret := m.Called(ctx, username)

	var r0 *domain.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.User)
	}
	return r0, ret.Error(1)
}

func (m *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ret := m.Called(ctx, email)

	var r0 *domain.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.User)
	}
	return r0, ret.Error(1)
}

func (m *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	ret := m.Called(ctx, identifier)

	var r0 *domain.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.User)
	}
	return r0, ret.Error(1)
}

func (m *UserRepository) Save(ctx context.Context, user *domain.User) error {
	ret := m.Called(ctx, user)
	return ret.Error(0)
}
