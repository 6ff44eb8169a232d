// Package usecase contains hand-rolled testify doubles for the usecase
// interfaces.
package usecase

import (
	"context"

	"purse/internal/domain/entity"
	uc "purse/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAuthUsecase is a mock implementation of usecase.AuthUsecase.
type MockAuthUsecase struct {
	mock.Mock
}

// NewMockAuthUsecase creates a mock with cleanup-time expectation checks.
func NewMockAuthUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAuthUsecase {
	m := &MockAuthUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockAuthUsecase) RegisterUser(ctx context.Context, email string, metadata map[string]any) (*entity.User, error) {
	args := m.Called(ctx, email, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthUsecase) LoginUser(ctx context.Context, input *uc.LoginInput) (*uc.LoginOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*uc.LoginOutput), args.Error(1)
}

func (m *MockAuthUsecase) LogoutUser(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, sessionID)

	return args.Bool(0), args.Error(1)
}

func (m *MockAuthUsecase) LogoutAllUserSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuthUsecase) GetUserBySession(ctx context.Context, sessionID uuid.UUID) (*entity.User, *entity.Session, error) {
	args := m.Called(ctx, sessionID)

	var user *entity.User
	if args.Get(0) != nil {
		user = args.Get(0).(*entity.User)
	}
	var session *entity.Session
	if args.Get(1) != nil {
		session = args.Get(1).(*entity.Session)
	}

	return user, session, args.Error(2)
}

func (m *MockAuthUsecase) ValidateAccessToken(ctx context.Context, accessToken string) (*entity.User, *entity.Session, error) {
	args := m.Called(ctx, accessToken)

	var user *entity.User
	if args.Get(0) != nil {
		user = args.Get(0).(*entity.User)
	}
	var session *entity.Session
	if args.Get(1) != nil {
		session = args.Get(1).(*entity.Session)
	}

	return user, session, args.Error(2)
}

func (m *MockAuthUsecase) RefreshSession(ctx context.Context, input *uc.RefreshSessionInput) (*entity.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockAuthUsecase) ConfirmUserEmail(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthUsecase) UpdateUserMetadata(ctx context.Context, userID uuid.UUID, metadata map[string]any) (*entity.User, error) {
	args := m.Called(ctx, userID, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthUsecase) DeleteUserAccount(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)

	return args.Bool(0), args.Error(1)
}

func (m *MockAuthUsecase) GetSessionInfo(ctx context.Context, sessionID uuid.UUID) (*entity.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockAuthUsecase) ListUsers(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	args := m.Called(ctx, limit, offset)

	var users []*entity.User
	if args.Get(0) != nil {
		users = args.Get(0).([]*entity.User)
	}

	return users, args.Get(1).(int64), args.Error(2)
}

func (m *MockAuthUsecase) GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*entity.Session), args.Error(1)
}

func (m *MockAuthUsecase) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)

	return args.Get(0).(int64), args.Error(1)
}
