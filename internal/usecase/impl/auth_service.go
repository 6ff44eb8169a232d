// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	"purse/config"
	deliverycontext "purse/internal/delivery/context"
	"purse/internal/domain/entity"
	domainerrors "purse/internal/domain/errors"
	"purse/internal/domain/repository"
	"purse/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// defaultSessionTTL applies when neither the caller nor the config names one.
const defaultSessionTTL = time.Hour

// authService implements the AuthUsecase interface. Every method is a short
// sequential chain of repository calls; there is no shared mutable state and
// no cross-operation transaction, so concurrent invocations only contend at
// the backing store.
type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	sessionTTL  time.Duration
	logger      *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Config      *config.Config
	Logger      *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	ttl := defaultSessionTTL
	if params.Config != nil && params.Config.Auth != nil && params.Config.Auth.SessionTTL > 0 {
		ttl = params.Config.Auth.SessionTTL
	}

	return &authService{
		userRepo:    params.UserRepo,
		sessionRepo: params.SessionRepo,
		sessionTTL:  ttl,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RegisterUser creates a new, unconfirmed user record.
func (srv *authService) RegisterUser(ctx context.Context, email string, metadata map[string]any) (*entity.User, error) {
	srv.log(ctx).Debug("Registering user", slog.String("email", email))

	exists, err := srv.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check user existence")
	}
	if exists {
		srv.log(ctx).Warn("Registration rejected, email taken", slog.String("email", email))

		return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("registration failed")
	}

	saved, err := srv.userRepo.Save(ctx, entity.NewUser(email, metadata))
	if err != nil {
		return nil, errors.Wrap(err, "failed to save new user")
	}
	srv.log(ctx).Info("User registered", slog.Any("userID", saved.ID))

	return saved, nil
}

// LoginUser records a login on the user and opens a new session.
//
// The login timestamp is persisted before the session; the two writes are not
// atomic. A failure between them is surfaced as *usecase.PartialLoginError so
// callers can tell which effects stuck. Retrying is safe: recording a login
// and creating a session both just overwrite with fresher data.
func (srv *authService) LoginUser(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Logging in user", slog.String("email", input.Email))

	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by email")
	}
	if user == nil {
		return nil, domainerrors.ErrUserNotFound.WrapMessage("login failed")
	}

	if input.RequireEmailConfirmation && !user.IsEmailConfirmed {
		srv.log(ctx).Warn("Login rejected, email unconfirmed", slog.Any("userID", user.ID))

		return nil, domainerrors.ErrEmailNotConfirmed.WrapMessage("login failed")
	}

	user.RecordLogin()
	user, err = srv.userRepo.Save(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to record login")
	}

	ttl := input.TTL
	if ttl <= 0 {
		ttl = srv.sessionTTL
	}

	session, err := srv.sessionRepo.Save(ctx, entity.NewSession(user.ID, input.AccessToken, input.RefreshToken, ttl))
	if err != nil {
		srv.log(ctx).Error("Login recorded but session creation failed", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, &usecase.PartialLoginError{
			LoginRecorded: true,
			Err:           errors.Wrap(err, "failed to create session"),
		}
	}
	srv.log(ctx).Info("User logged in", slog.Any("userID", user.ID), slog.Any("sessionID", session.ID))

	return &usecase.LoginOutput{User: user, Session: session}, nil
}

// LogoutUser invalidates a single session. Never fails on "already logged out".
func (srv *authService) LogoutUser(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	srv.log(ctx).Info("Logging out session", slog.Any("sessionID", sessionID))

	affected, err := srv.sessionRepo.Invalidate(ctx, sessionID)
	if err != nil {
		return false, errors.Wrap(err, "failed to invalidate session")
	}

	return affected, nil
}

// LogoutAllUserSessions invalidates every session of the user.
func (srv *authService) LogoutAllUserSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	srv.log(ctx).Info("Logging out all sessions", slog.Any("userID", userID))

	count, err := srv.sessionRepo.InvalidateAllByUserID(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to invalidate user sessions")
	}
	srv.log(ctx).Info("Sessions invalidated", slog.Any("userID", userID), slog.Int64("count", count))

	return count, nil
}

// GetUserBySession validates the session by ID and returns the owning user.
func (srv *authService) GetUserBySession(ctx context.Context, sessionID uuid.UUID) (*entity.User, *entity.Session, error) {
	session, err := srv.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to find session by id")
	}

	return srv.resolveValidSession(ctx, session)
}

// ValidateAccessToken validates the session matching the access token and
// returns the owning user.
func (srv *authService) ValidateAccessToken(ctx context.Context, accessToken string) (*entity.User, *entity.Session, error) {
	session, err := srv.sessionRepo.FindByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to find session by access token")
	}

	return srv.resolveValidSession(ctx, session)
}

// resolveValidSession is the shared tail of session validation: reject
// absent, expired or deactivated sessions with the precise domain error,
// bump last-accessed, persist, and fetch the owning user. A session whose
// user record is gone (a dangling session) surfaces ErrUserNotFound rather
// than crashing.
func (srv *authService) resolveValidSession(ctx context.Context, session *entity.Session) (*entity.User, *entity.Session, error) {
	if session == nil {
		return nil, nil, domainerrors.ErrInvalidSession.WrapMessage("session not found")
	}

	if !session.IsValid() {
		if session.IsExpired() {
			return nil, nil, domainerrors.ErrSessionExpired.WrapMessage("session validation failed")
		}

		return nil, nil, domainerrors.ErrInvalidSession.WrapMessage("session is deactivated")
	}

	session.Touch()
	session, err := srv.sessionRepo.Save(ctx, session)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to persist last-accessed bump")
	}

	user, err := srv.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to find session owner")
	}
	if user == nil {
		srv.log(ctx).Warn("Dangling session, owner record gone", slog.Any("sessionID", session.ID), slog.Any("userID", session.UserID))

		return nil, nil, domainerrors.ErrUserNotFound.WrapMessage("session owner no longer exists")
	}

	return user, session, nil
}

// RefreshSession installs a new access token on the session matching the
// refresh token. Expired and deactivated sessions are rejected: validity
// transitions are one-way and a refresh must never resurrect a dead session.
func (srv *authService) RefreshSession(ctx context.Context, input *usecase.RefreshSessionInput) (*entity.Session, error) {
	session, err := srv.sessionRepo.FindByRefreshToken(ctx, input.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find session by refresh token")
	}
	if session == nil {
		return nil, domainerrors.ErrInvalidSession.WrapMessage("no session matches refresh token")
	}

	if !session.IsActive {
		return nil, domainerrors.ErrInvalidSession.WrapMessage("session is deactivated")
	}
	if session.IsExpired() {
		return nil, domainerrors.ErrSessionExpired.WrapMessage("refresh rejected")
	}

	ttl := input.TTL
	if ttl <= 0 {
		ttl = srv.sessionTTL
	}

	if err := session.RefreshAccess(input.NewAccessToken, ttl); err != nil {
		// Unreachable after the checks above, kept as a guard on the
		// one-way validity invariant.
		return nil, domainerrors.ErrInvalidSession.WrapMessage("refresh rejected")
	}

	session, err = srv.sessionRepo.Save(ctx, session)
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist refreshed session")
	}
	srv.log(ctx).Debug("Session refreshed", slog.Any("sessionID", session.ID))

	return session, nil
}

// ConfirmUserEmail marks the user's email address as confirmed.
func (srv *authService) ConfirmUserEmail(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.ConfirmEmail()
	user, err = srv.userRepo.Save(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save email confirmation")
	}
	srv.log(ctx).Info("Email confirmed", slog.Any("userID", userID))

	return user, nil
}

// UpdateUserMetadata shallow-merges the patch into the user's metadata.
func (srv *authService) UpdateUserMetadata(ctx context.Context, userID uuid.UUID, metadata map[string]any) (*entity.User, error) {
	user, err := srv.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.UpdateMetadata(metadata)
	user, err = srv.userRepo.Save(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save metadata update")
	}

	return user, nil
}

// DeleteUserAccount cascades: sessions first, then the user record. The
// ordering guarantees a failure in between leaves no session referencing a
// deleted user.
func (srv *authService) DeleteUserAccount(ctx context.Context, userID uuid.UUID) (bool, error) {
	srv.log(ctx).Info("Deleting user account", slog.Any("userID", userID))

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return false, errors.Wrap(err, "failed to find user")
	}
	if user == nil {
		return false, domainerrors.ErrUserNotFound.WrapMessage("account deletion failed")
	}

	deletedSessions, err := srv.sessionRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return false, errors.Wrap(err, "failed to delete user sessions")
	}

	deleted, err := srv.userRepo.Delete(ctx, userID)
	if err != nil {
		return false, errors.Wrap(err, "failed to delete user")
	}
	srv.log(ctx).Info("User account deleted", slog.Any("userID", userID), slog.Int64("deletedSessions", deletedSessions))

	return deleted, nil
}

// GetSessionInfo fetches the raw session record. Unlike GetUserBySession it
// neither validates nor touches the session, so callers can inspect expired
// or deactivated sessions without side effects.
func (srv *authService) GetSessionInfo(ctx context.Context, sessionID uuid.UUID) (*entity.Session, error) {
	session, err := srv.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find session by id")
	}

	return session, nil
}

// GetActiveSessions lists the user's currently valid sessions.
func (srv *authService) GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	sessions, err := srv.sessionRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find active sessions")
	}

	return sessions, nil
}

// ListUsers returns one page of users plus the total count.
func (srv *authService) ListUsers(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	users, err := srv.userRepo.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}

	total, err := srv.userRepo.Count(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
	}

	return users, total, nil
}

// CleanupExpiredSessions bulk-deletes expired sessions.
func (srv *authService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	count, err := srv.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired sessions")
	}
	srv.log(ctx).Info("Expired sessions cleaned up", slog.Int64("count", count))

	return count, nil
}

func (srv *authService) loadUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}
	if user == nil {
		return nil, domainerrors.ErrUserNotFound.WrapMessage("user lookup failed")
	}

	return user, nil
}
