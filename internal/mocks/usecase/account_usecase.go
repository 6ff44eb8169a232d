package usecase

import (
	"context"

	"purse/internal/domain/entity"
	uc "purse/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAccountUsecase is a mock implementation of usecase.AccountUsecase.
type MockAccountUsecase struct {
	mock.Mock
}

// NewMockAccountUsecase creates a mock with cleanup-time expectation checks.
func NewMockAccountUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAccountUsecase {
	m := &MockAccountUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockAccountUsecase) SignUp(ctx context.Context, input *uc.SignUpInput) (*entity.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAccountUsecase) SignIn(ctx context.Context, input *uc.SignInInput) (*uc.SignInOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*uc.SignInOutput), args.Error(1)
}

func (m *MockAccountUsecase) Refresh(ctx context.Context, refreshToken string) (*entity.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockAccountUsecase) ConfirmEmail(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAccountUsecase) ResetPassword(ctx context.Context, email string) error {
	args := m.Called(ctx, email)

	return args.Error(0)
}

func (m *MockAccountUsecase) UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	args := m.Called(ctx, userID, newPassword)

	return args.Error(0)
}

func (m *MockAccountUsecase) SignOut(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)

	return args.Error(0)
}

func (m *MockAccountUsecase) SignOutEverywhere(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountUsecase) CloseAccount(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)

	return args.Error(0)
}
