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
	mockRepo "purse/internal/mocks/repository"
	"purse/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T) (usecase.AuthUsecase, *mockRepo.MockUserRepository, *mockRepo.MockSessionRepository) {
	t.Helper()

	userRepo := mockRepo.NewMockUserRepository(t)
	sessionRepo := mockRepo.NewMockSessionRepository(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewAuthService(AuthServiceParams{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Config:      &config.Config{Auth: &config.AuthConfig{SessionTTL: time.Hour}},
		Logger:      logger,
	})

	return svc, userRepo, sessionRepo
}

func TestAuthService_RegisterUser_Success(t *testing.T) {
	svc, userRepo, _ := newTestAuthService(t)
	ctx := context.Background()

	userRepo.On("ExistsByEmail", ctx, "dev@example.com").Return(false, nil)
	userRepo.On("Save", ctx, mock.AnythingOfType("*entity.User")).
		Return(func(_ context.Context, u *entity.User) (*entity.User, error) {
			return u, nil
		})

	user, err := svc.RegisterUser(ctx, "dev@example.com", map[string]any{"plan": "free"})

	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", user.Email)
	assert.Equal(t, "free", user.Metadata["plan"])
	assert.False(t, user.IsEmailConfirmed)
}

func TestAuthService_RegisterUser_DuplicateEmail(t *testing.T) {
	svc, userRepo, _ := newTestAuthService(t)
	ctx := context.Background()

	userRepo.On("ExistsByEmail", ctx, "dev@example.com").Return(true, nil)

	user, err := svc.RegisterUser(ctx, "dev@example.com", nil)

	require.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
	assert.Nil(t, user)
	userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_LoginUser_Success(t *testing.T) {
	svc, userRepo, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	existing := entity.NewUser("dev@example.com", nil)
	existing.ConfirmEmail()

	userRepo.On("FindByEmail", ctx, "dev@example.com").Return(existing, nil)
	userRepo.On("Save", ctx, existing).Return(existing, nil)
	sessionRepo.On("Save", ctx, mock.AnythingOfType("*entity.Session")).
		Return(func(_ context.Context, s *entity.Session) (*entity.Session, error) {
			return s, nil
		})

	out, err := svc.LoginUser(ctx, &usecase.LoginInput{
		Email:        "dev@example.com",
		AccessToken:  "access",
		RefreshToken: "refresh",
	})

	require.NoError(t, err)
	require.NotNil(t, out.User.LastLogin)
	assert.Equal(t, existing.ID, out.Session.UserID)
	assert.Equal(t, "access", out.Session.AccessToken)
	assert.True(t, out.Session.IsValid())
	// Default TTL from config applies when the input carries none.
	assert.WithinDuration(t, time.Now().Add(time.Hour), out.Session.ExpiresAt, time.Second)
}

func TestAuthService_LoginUser_UnknownEmail(t *testing.T) {
	svc, userRepo, _ := newTestAuthService(t)
	ctx := context.Background()

	userRepo.On("FindByEmail", ctx, "ghost@example.com").Return(nil, nil)

	out, err := svc.LoginUser(ctx, &usecase.LoginInput{Email: "ghost@example.com"})

	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	assert.Nil(t, out)
}

func TestAuthService_LoginUser_UnconfirmedEmail(t *testing.T) {
	svc, userRepo, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	existing := entity.NewUser("dev@example.com", nil)
	userRepo.On("FindByEmail", ctx, "dev@example.com").Return(existing, nil)

	out, err := svc.LoginUser(ctx, &usecase.LoginInput{
		Email:                    "dev@example.com",
		RequireEmailConfirmation: true,
	})

	require.ErrorIs(t, err, domainerrors.ErrEmailNotConfirmed)
	assert.Nil(t, out)
	assert.Nil(t, existing.LastLogin)
	userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	sessionRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_LoginUser_PartialEffect(t *testing.T) {
	svc, userRepo, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	existing := entity.NewUser("dev@example.com", nil)
	existing.ConfirmEmail()

	userRepo.On("FindByEmail", ctx, "dev@example.com").Return(existing, nil)
	userRepo.On("Save", ctx, existing).Return(existing, nil)
	sessionRepo.On("Save", ctx, mock.AnythingOfType("*entity.Session")).
		Return(nil, errors.New("connection reset"))

	out, err := svc.LoginUser(ctx, &usecase.LoginInput{Email: "dev@example.com"})

	assert.Nil(t, out)

	var partial *usecase.PartialLoginError
	require.ErrorAs(t, err, &partial)
	assert.True(t, partial.LoginRecorded)
}

func TestAuthService_ValidateAccessToken_Success(t *testing.T) {
	svc, userRepo, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	owner := entity.NewUser("dev@example.com", nil)
	session := entity.NewSession(owner.ID, "access", "refresh", time.Hour)
	before := session.LastAccessed

	sessionRepo.On("FindByAccessToken", ctx, "access").Return(session, nil)
	sessionRepo.On("Save", ctx, session).Return(session, nil)
	userRepo.On("FindByID", ctx, owner.ID).Return(owner, nil)

	gotUser, gotSession, err := svc.ValidateAccessToken(ctx, "access")

	require.NoError(t, err)
	assert.Equal(t, owner.ID, gotUser.ID)
	assert.False(t, gotSession.LastAccessed.Before(before))
}

func TestAuthService_ValidateAccessToken_Expired(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	session := entity.NewSession(uuid.New(), "access", "refresh", time.Hour)
	session.ExpiresAt = time.Now().Add(-time.Minute)

	sessionRepo.On("FindByAccessToken", ctx, "access").Return(session, nil)

	_, _, err := svc.ValidateAccessToken(ctx, "access")

	require.ErrorIs(t, err, domainerrors.ErrSessionExpired)
	sessionRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_ValidateAccessToken_Deactivated(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	session := entity.NewSession(uuid.New(), "access", "refresh", time.Hour)
	session.Invalidate()

	sessionRepo.On("FindByAccessToken", ctx, "access").Return(session, nil)

	_, _, err := svc.ValidateAccessToken(ctx, "access")

	require.ErrorIs(t, err, domainerrors.ErrInvalidSession)
}

func TestAuthService_ValidateAccessToken_Unknown(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	sessionRepo.On("FindByAccessToken", ctx, "missing").Return(nil, nil)

	_, _, err := svc.ValidateAccessToken(ctx, "missing")

	require.ErrorIs(t, err, domainerrors.ErrInvalidSession)
}

func TestAuthService_ValidateAccessToken_DanglingSession(t *testing.T) {
	svc, userRepo, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	session := entity.NewSession(uuid.New(), "access", "refresh", time.Hour)

	sessionRepo.On("FindByAccessToken", ctx, "access").Return(session, nil)
	sessionRepo.On("Save", ctx, session).Return(session, nil)
	userRepo.On("FindByID", ctx, session.UserID).Return(nil, nil)

	_, _, err := svc.ValidateAccessToken(ctx, "access")

	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestAuthService_GetUserBySession_Success(t *testing.T) {
	svc, userRepo, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	owner := entity.NewUser("dev@example.com", nil)
	session := entity.NewSession(owner.ID, "access", "refresh", time.Hour)

	sessionRepo.On("FindByID", ctx, session.ID).Return(session, nil)
	sessionRepo.On("Save", ctx, session).Return(session, nil)
	userRepo.On("FindByID", ctx, owner.ID).Return(owner, nil)

	gotUser, gotSession, err := svc.GetUserBySession(ctx, session.ID)

	require.NoError(t, err)
	assert.Equal(t, owner.ID, gotUser.ID)
	assert.Equal(t, session.ID, gotSession.ID)
}

func TestAuthService_RefreshSession_Success(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	session := entity.NewSession(uuid.New(), "old-access", "refresh", time.Minute)

	sessionRepo.On("FindByRefreshToken", ctx, "refresh").Return(session, nil)
	sessionRepo.On("Save", ctx, session).Return(session, nil)

	refreshed, err := svc.RefreshSession(ctx, &usecase.RefreshSessionInput{
		RefreshToken:   "refresh",
		NewAccessToken: "new-access",
		TTL:            2 * time.Hour,
	})

	require.NoError(t, err)
	assert.Equal(t, "new-access", refreshed.AccessToken)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), refreshed.ExpiresAt, time.Second)
}

func TestAuthService_RefreshSession_UnknownToken(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	sessionRepo.On("FindByRefreshToken", ctx, "missing").Return(nil, nil)

	_, err := svc.RefreshSession(ctx, &usecase.RefreshSessionInput{RefreshToken: "missing"})

	require.ErrorIs(t, err, domainerrors.ErrInvalidSession)
}

func TestAuthService_RefreshSession_RejectsExpired(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	session := entity.NewSession(uuid.New(), "old-access", "refresh", time.Hour)
	session.ExpiresAt = time.Now().Add(-time.Minute)

	sessionRepo.On("FindByRefreshToken", ctx, "refresh").Return(session, nil)

	_, err := svc.RefreshSession(ctx, &usecase.RefreshSessionInput{
		RefreshToken:   "refresh",
		NewAccessToken: "new-access",
	})

	require.ErrorIs(t, err, domainerrors.ErrSessionExpired)
	assert.Equal(t, "old-access", session.AccessToken)
	sessionRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_RefreshSession_RejectsDeactivated(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	session := entity.NewSession(uuid.New(), "old-access", "refresh", time.Hour)
	session.Invalidate()

	sessionRepo.On("FindByRefreshToken", ctx, "refresh").Return(session, nil)

	_, err := svc.RefreshSession(ctx, &usecase.RefreshSessionInput{
		RefreshToken:   "refresh",
		NewAccessToken: "new-access",
	})

	require.ErrorIs(t, err, domainerrors.ErrInvalidSession)
	assert.False(t, session.IsValid())
}

func TestAuthService_LogoutUser(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()
	sessionID := uuid.New()

	sessionRepo.On("Invalidate", ctx, sessionID).Return(true, nil).Once()

	revoked, err := svc.LogoutUser(ctx, sessionID)

	require.NoError(t, err)
	assert.True(t, revoked)

	// A second logout of the same session is a no-op, not an error.
	sessionRepo.On("Invalidate", ctx, sessionID).Return(false, nil).Once()

	revoked, err = svc.LogoutUser(ctx, sessionID)

	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAuthService_LogoutAllUserSessions(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	sessionRepo.On("InvalidateAllByUserID", ctx, userID).Return(int64(3), nil)

	count, err := svc.LogoutAllUserSessions(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestAuthService_ConfirmUserEmail(t *testing.T) {
	svc, userRepo, _ := newTestAuthService(t)
	ctx := context.Background()

	user := entity.NewUser("dev@example.com", nil)

	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Save", ctx, user).Return(user, nil)

	confirmed, err := svc.ConfirmUserEmail(ctx, user.ID)

	require.NoError(t, err)
	assert.True(t, confirmed.IsEmailConfirmed)
}

func TestAuthService_ConfirmUserEmail_Unknown(t *testing.T) {
	svc, userRepo, _ := newTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	userRepo.On("FindByID", ctx, userID).Return(nil, nil)

	_, err := svc.ConfirmUserEmail(ctx, userID)

	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestAuthService_UpdateUserMetadata(t *testing.T) {
	svc, userRepo, _ := newTestAuthService(t)
	ctx := context.Background()

	user := entity.NewUser("dev@example.com", map[string]any{"plan": "free", "locale": "en"})

	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Save", ctx, user).Return(user, nil)

	updated, err := svc.UpdateUserMetadata(ctx, user.ID, map[string]any{"plan": "pro"})

	require.NoError(t, err)
	assert.Equal(t, "pro", updated.Metadata["plan"])
	assert.Equal(t, "en", updated.Metadata["locale"])
}

func TestAuthService_DeleteUserAccount_SessionsFirst(t *testing.T) {
	svc, userRepo, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	user := entity.NewUser("dev@example.com", nil)

	var calls []string
	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	sessionRepo.On("DeleteByUserID", ctx, user.ID).
		Run(func(mock.Arguments) { calls = append(calls, "sessions") }).
		Return(int64(2), nil)
	userRepo.On("Delete", ctx, user.ID).
		Run(func(mock.Arguments) { calls = append(calls, "user") }).
		Return(true, nil)

	deleted, err := svc.DeleteUserAccount(ctx, user.ID)

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"sessions", "user"}, calls)
}

func TestAuthService_DeleteUserAccount_Unknown(t *testing.T) {
	svc, userRepo, sessionRepo := newTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	userRepo.On("FindByID", ctx, userID).Return(nil, nil)

	deleted, err := svc.DeleteUserAccount(ctx, userID)

	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	assert.False(t, deleted)
	sessionRepo.AssertNotCalled(t, "DeleteByUserID", mock.Anything, mock.Anything)
}

func TestAuthService_GetSessionInfo_NoSideEffects(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	// Expired sessions are returned as-is; no validation and no
	// last-accessed bump happens on this path.
	session := entity.NewSession(uuid.New(), "access", "refresh", time.Hour)
	session.ExpiresAt = time.Now().Add(-time.Minute)
	before := session.LastAccessed

	sessionRepo.On("FindByID", ctx, session.ID).Return(session, nil)

	got, err := svc.GetSessionInfo(ctx, session.ID)

	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, before, got.LastAccessed)
	sessionRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_GetSessionInfo_AbsentIsNil(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()
	sessionID := uuid.New()

	sessionRepo.On("FindByID", ctx, sessionID).Return(nil, nil)

	got, err := svc.GetSessionInfo(ctx, sessionID)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAuthService_ListUsers(t *testing.T) {
	svc, userRepo, _ := newTestAuthService(t)
	ctx := context.Background()

	page := []*entity.User{
		entity.NewUser("a@example.com", nil),
		entity.NewUser("b@example.com", nil),
	}
	userRepo.On("ListAll", ctx, 2, 0).Return(page, nil)
	userRepo.On("Count", ctx).Return(int64(7), nil)

	users, total, err := svc.ListUsers(ctx, 2, 0)

	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, int64(7), total)
}

func TestAuthService_GetActiveSessions(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	sessions := []*entity.Session{
		entity.NewSession(userID, "a1", "r1", time.Hour),
		entity.NewSession(userID, "a2", "r2", time.Hour),
	}
	sessionRepo.On("FindActiveByUserID", ctx, userID).Return(sessions, nil)

	got, err := svc.GetActiveSessions(ctx, userID)

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAuthService_CleanupExpiredSessions(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)
	ctx := context.Background()

	sessionRepo.On("DeleteExpired", ctx).Return(int64(5), nil).Once()
	sessionRepo.On("DeleteExpired", ctx).Return(int64(0), nil).Once()

	count, err := svc.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	// A second pass right after finds nothing left to delete.
	count, err = svc.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
