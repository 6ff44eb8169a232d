package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"purse/config"
	"purse/internal/domain/entity"
	domainerrors "purse/internal/domain/errors"
	"purse/internal/domain/service"
	mockRepo "purse/internal/mocks/repository"
	mockService "purse/internal/mocks/service"
	mockUsecase "purse/internal/mocks/usecase"
	"purse/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type accountServiceMocks struct {
	provider  *mockService.MockIdentityProvider
	auth      *mockUsecase.MockAuthUsecase
	userRepo  *mockRepo.MockUserRepository
	publisher *mockService.MockEventPublisher
}

func newTestAccountService(t *testing.T, cfg *config.Config) (usecase.AccountUsecase, accountServiceMocks) {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{Auth: &config.AuthConfig{}}
	}

	m := accountServiceMocks{
		provider:  mockService.NewMockIdentityProvider(t),
		auth:      mockUsecase.NewMockAuthUsecase(t),
		userRepo:  mockRepo.NewMockUserRepository(t),
		publisher: mockService.NewMockEventPublisher(t),
	}

	svc := NewAccountService(AccountServiceParams{
		Provider:  m.provider,
		Auth:      m.auth,
		UserRepo:  m.userRepo,
		Publisher: m.publisher,
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return svc, m
}

func TestTranslateProviderError(t *testing.T) {
	cases := []struct {
		name string
		code service.ProviderErrorCode
		want error
	}{
		{"invalid credentials", service.ProviderCodeInvalidCredentials, domainerrors.ErrInvalidCredentials},
		{"user already exists", service.ProviderCodeUserAlreadyExists, domainerrors.ErrUserAlreadyExists},
		{"email not confirmed", service.ProviderCodeEmailNotConfirmed, domainerrors.ErrEmailNotConfirmed},
		{"user not allowed", service.ProviderCodeUserNotAllowed, domainerrors.ErrInvalidCredentials},
		{"invalid token", service.ProviderCodeInvalidToken, domainerrors.ErrInvalidSession},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := translateProviderError(service.NewProviderError(tc.code, "rejected"), "op failed")
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("unknown code passes through", func(t *testing.T) {
		provErr := service.NewProviderError("some_future_code", "rejected")
		err := translateProviderError(provErr, "op failed")

		var got *service.ProviderError
		require.ErrorAs(t, err, &got)
		assert.Equal(t, service.ProviderErrorCode("some_future_code"), got.Code)
	})

	t.Run("transport error passes through", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := translateProviderError(cause, "op failed")

		assert.ErrorIs(t, err, cause)
		var provErr *service.ProviderError
		assert.False(t, errors.As(err, &provErr))
	})
}

func TestAccountService_SignUp_Success(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	user := entity.NewUser("dev@example.com", nil)

	m.provider.On("CreateAccount", ctx, "dev@example.com", "hunter2hunter2").Return(nil)
	m.auth.On("RegisterUser", ctx, "dev@example.com", mock.Anything).Return(user, nil)
	m.publisher.On("PublishAuthEvent", ctx, mock.MatchedBy(func(e *service.AuthEvent) bool {
		return e.Type == service.EventUserRegistered && e.UserID == user.ID.String()
	})).Return(nil)

	got, err := svc.SignUp(ctx, &usecase.SignUpInput{
		Email:    "dev@example.com",
		Password: "hunter2hunter2",
	})

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestAccountService_SignUp_ProviderRejectsDuplicate(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	m.provider.On("CreateAccount", ctx, "dev@example.com", mock.Anything).
		Return(service.NewProviderError(service.ProviderCodeUserAlreadyExists, "email taken"))

	_, err := svc.SignUp(ctx, &usecase.SignUpInput{Email: "dev@example.com", Password: "pw"})

	require.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
	m.auth.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountService_SignIn_Success(t *testing.T) {
	cfg := &config.Config{Auth: &config.AuthConfig{RequireEmailConfirmation: true}}
	svc, m := newTestAccountService(t, cfg)
	ctx := context.Background()

	user := entity.NewUser("dev@example.com", nil)
	user.ConfirmEmail()
	session := entity.NewSession(user.ID, "access", "refresh", 30*time.Minute)

	m.provider.On("SignIn", ctx, "dev@example.com", "hunter2hunter2").
		Return(&service.Credentials{
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresIn:    30 * time.Minute,
		}, nil)
	m.auth.On("LoginUser", ctx, mock.MatchedBy(func(in *usecase.LoginInput) bool {
		return in.Email == "dev@example.com" &&
			in.AccessToken == "access" &&
			in.RefreshToken == "refresh" &&
			in.TTL == 30*time.Minute &&
			in.RequireEmailConfirmation
	})).Return(&usecase.LoginOutput{User: user, Session: session}, nil)
	m.publisher.On("PublishAuthEvent", ctx, mock.MatchedBy(func(e *service.AuthEvent) bool {
		return e.Type == service.EventSessionCreated && e.SessionID == session.ID.String()
	})).Return(nil)

	out, err := svc.SignIn(ctx, &usecase.SignInInput{Email: "dev@example.com", Password: "hunter2hunter2"})

	require.NoError(t, err)
	assert.Equal(t, session.ID, out.Session.ID)
}

func TestAccountService_SignIn_WrongPassword(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	m.provider.On("SignIn", ctx, "dev@example.com", "nope").
		Return(nil, service.NewProviderError(service.ProviderCodeInvalidCredentials, "password mismatch"))

	_, err := svc.SignIn(ctx, &usecase.SignInInput{Email: "dev@example.com", Password: "nope"})

	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	m.auth.AssertNotCalled(t, "LoginUser", mock.Anything, mock.Anything)
}

func TestAccountService_SignIn_PublisherFailureDoesNotFailSignIn(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	user := entity.NewUser("dev@example.com", nil)
	session := entity.NewSession(user.ID, "access", "refresh", time.Hour)

	m.provider.On("SignIn", ctx, "dev@example.com", "hunter2hunter2").
		Return(&service.Credentials{AccessToken: "access", RefreshToken: "refresh"}, nil)
	m.auth.On("LoginUser", ctx, mock.Anything).
		Return(&usecase.LoginOutput{User: user, Session: session}, nil)
	m.publisher.On("PublishAuthEvent", ctx, mock.Anything).
		Return(errors.New("broker unavailable"))

	out, err := svc.SignIn(ctx, &usecase.SignInInput{Email: "dev@example.com", Password: "hunter2hunter2"})

	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestAccountService_Refresh_Success(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	refreshed := entity.NewSession(uuid.New(), "new-access", "refresh", time.Hour)

	m.provider.On("RefreshCredentials", ctx, "refresh").
		Return(&service.Credentials{
			AccessToken:  "new-access",
			RefreshToken: "refresh",
			ExpiresIn:    time.Hour,
		}, nil)
	m.auth.On("RefreshSession", ctx, mock.MatchedBy(func(in *usecase.RefreshSessionInput) bool {
		return in.RefreshToken == "refresh" && in.NewAccessToken == "new-access" && in.TTL == time.Hour
	})).Return(refreshed, nil)

	session, err := svc.Refresh(ctx, "refresh")

	require.NoError(t, err)
	assert.Equal(t, "new-access", session.AccessToken)
}

func TestAccountService_Refresh_ProviderRejectsToken(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	m.provider.On("RefreshCredentials", ctx, "revoked").
		Return(nil, service.NewProviderError(service.ProviderCodeInvalidToken, "unknown refresh token"))

	_, err := svc.Refresh(ctx, "revoked")

	require.ErrorIs(t, err, domainerrors.ErrInvalidSession)
	m.auth.AssertNotCalled(t, "RefreshSession", mock.Anything, mock.Anything)
}

func TestAccountService_ConfirmEmail_ProviderFirst(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	user := entity.NewUser("dev@example.com", nil)
	confirmed := entity.NewUser("dev@example.com", nil)
	confirmed.ConfirmEmail()

	var calls []string
	m.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	m.provider.On("ConfirmEmail", ctx, "dev@example.com").
		Run(func(mock.Arguments) { calls = append(calls, "provider") }).
		Return(nil)
	m.auth.On("ConfirmUserEmail", ctx, user.ID).
		Run(func(mock.Arguments) { calls = append(calls, "core") }).
		Return(confirmed, nil)

	got, err := svc.ConfirmEmail(ctx, user.ID)

	require.NoError(t, err)
	assert.True(t, got.IsEmailConfirmed)
	assert.Equal(t, []string{"provider", "core"}, calls)
}

func TestAccountService_ConfirmEmail_UnknownUser(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	m.userRepo.On("FindByID", ctx, userID).Return(nil, nil)

	_, err := svc.ConfirmEmail(ctx, userID)

	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	m.provider.AssertNotCalled(t, "ConfirmEmail", mock.Anything, mock.Anything)
}

func TestAccountService_ResetPassword(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	m.provider.On("ResetPassword", ctx, "dev@example.com").Return(nil)

	require.NoError(t, svc.ResetPassword(ctx, "dev@example.com"))
}

func TestAccountService_UpdatePassword_RevokesAllSessions(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	user := entity.NewUser("dev@example.com", nil)

	m.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	m.provider.On("UpdatePassword", ctx, "dev@example.com", "new-password-1").Return(nil)
	m.auth.On("LogoutAllUserSessions", ctx, user.ID).Return(int64(2), nil)
	m.publisher.On("PublishAuthEvent", ctx, mock.MatchedBy(func(e *service.AuthEvent) bool {
		return e.Type == service.EventSessionsRevoked && e.UserID == user.ID.String()
	})).Return(nil)

	require.NoError(t, svc.UpdatePassword(ctx, user.ID, "new-password-1"))
}

func TestAccountService_UpdatePassword_UnknownUser(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	m.userRepo.On("FindByID", ctx, userID).Return(nil, nil)

	err := svc.UpdatePassword(ctx, userID, "new-password-1")

	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	m.provider.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountService_UpdatePassword_ProviderRejectionSkipsRevocation(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	user := entity.NewUser("dev@example.com", nil)

	m.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	m.provider.On("UpdatePassword", ctx, "dev@example.com", "new-password-1").
		Return(service.NewProviderError(service.ProviderCodeUserNotAllowed, "unknown account"))

	err := svc.UpdatePassword(ctx, user.ID, "new-password-1")

	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	m.auth.AssertNotCalled(t, "LogoutAllUserSessions", mock.Anything, mock.Anything)
}

func TestAccountService_SignOut_PublishesOnlyWhenRevoked(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()
	sessionID := uuid.New()

	m.auth.On("LogoutUser", ctx, sessionID).Return(true, nil).Once()
	m.publisher.On("PublishAuthEvent", ctx, mock.MatchedBy(func(e *service.AuthEvent) bool {
		return e.Type == service.EventSessionRevoked && e.SessionID == sessionID.String()
	})).Return(nil).Once()

	require.NoError(t, svc.SignOut(ctx, sessionID))

	// Already-dead session: no event.
	m.auth.On("LogoutUser", ctx, sessionID).Return(false, nil).Once()

	require.NoError(t, svc.SignOut(ctx, sessionID))
	m.publisher.AssertNumberOfCalls(t, "PublishAuthEvent", 1)
}

func TestAccountService_SignOutEverywhere(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	m.auth.On("LogoutAllUserSessions", ctx, userID).Return(int64(4), nil)
	m.publisher.On("PublishAuthEvent", ctx, mock.MatchedBy(func(e *service.AuthEvent) bool {
		return e.Type == service.EventSessionsRevoked && e.UserID == userID.String()
	})).Return(nil)

	count, err := svc.SignOutEverywhere(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestAccountService_SignOutEverywhere_NoSessionsNoEvent(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	m.auth.On("LogoutAllUserSessions", ctx, userID).Return(int64(0), nil)

	count, err := svc.SignOutEverywhere(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	m.publisher.AssertNotCalled(t, "PublishAuthEvent", mock.Anything, mock.Anything)
}

func TestAccountService_CloseAccount_LocalBeforeProvider(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	user := entity.NewUser("dev@example.com", nil)

	var calls []string
	m.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	m.auth.On("DeleteUserAccount", ctx, user.ID).
		Run(func(mock.Arguments) { calls = append(calls, "local") }).
		Return(true, nil)
	m.provider.On("DeleteAccount", ctx, "dev@example.com").
		Run(func(mock.Arguments) { calls = append(calls, "provider") }).
		Return(nil)
	m.publisher.On("PublishAuthEvent", ctx, mock.MatchedBy(func(e *service.AuthEvent) bool {
		return e.Type == service.EventUserDeleted && e.UserID == user.ID.String()
	})).Return(nil)

	require.NoError(t, svc.CloseAccount(ctx, user.ID))
	assert.Equal(t, []string{"local", "provider"}, calls)
}

func TestAccountService_CloseAccount_UnknownUser(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	m.userRepo.On("FindByID", ctx, userID).Return(nil, nil)

	err := svc.CloseAccount(ctx, userID)

	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	m.auth.AssertNotCalled(t, "DeleteUserAccount", mock.Anything, mock.Anything)
	m.provider.AssertNotCalled(t, "DeleteAccount", mock.Anything, mock.Anything)
}

func TestAccountService_CloseAccount_LocalFailureSkipsProvider(t *testing.T) {
	svc, m := newTestAccountService(t, nil)
	ctx := context.Background()

	user := entity.NewUser("dev@example.com", nil)

	m.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	m.auth.On("DeleteUserAccount", ctx, user.ID).Return(false, errors.New("db down"))

	err := svc.CloseAccount(ctx, user.ID)

	require.Error(t, err)
	m.provider.AssertNotCalled(t, "DeleteAccount", mock.Anything, mock.Anything)
	m.publisher.AssertNotCalled(t, "PublishAuthEvent", mock.Anything, mock.Anything)
}
