// Package service contains hand-rolled testify doubles for the domain
// service interfaces.
package service

import (
	"context"

	"purse/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider is a mock implementation of service.IdentityProvider.
type MockIdentityProvider struct {
	mock.Mock
}

// NewMockIdentityProvider creates a mock with cleanup-time expectation checks.
func NewMockIdentityProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockIdentityProvider {
	m := &MockIdentityProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockIdentityProvider) CreateAccount(ctx context.Context, email, password string) error {
	args := m.Called(ctx, email, password)

	return args.Error(0)
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*service.Credentials, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.Credentials), args.Error(1)
}

func (m *MockIdentityProvider) RefreshCredentials(ctx context.Context, refreshToken string) (*service.Credentials, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.Credentials), args.Error(1)
}

func (m *MockIdentityProvider) ConfirmEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)

	return args.Error(0)
}

func (m *MockIdentityProvider) ResetPassword(ctx context.Context, email string) error {
	args := m.Called(ctx, email)

	return args.Error(0)
}

func (m *MockIdentityProvider) UpdatePassword(ctx context.Context, email, newPassword string) error {
	args := m.Called(ctx, email, newPassword)

	return args.Error(0)
}

func (m *MockIdentityProvider) DeleteAccount(ctx context.Context, email string) error {
	args := m.Called(ctx, email)

	return args.Error(0)
}
