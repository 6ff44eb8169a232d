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
	"purse/internal/domain/service"
	"purse/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// accountService glues the identity provider to the session-lifecycle core.
// It is the only layer that ever sees a password; the core below it deals in
// opaque tokens.
type accountService struct {
	provider  service.IdentityProvider
	auth      usecase.AuthUsecase
	userRepo  repository.UserRepository
	publisher service.EventPublisher
	config    *config.Config
	logger    *slog.Logger
}

// AccountServiceParams holds dependencies for accountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	Provider  service.IdentityProvider
	Auth      usecase.AuthUsecase
	UserRepo  repository.UserRepository
	Publisher service.EventPublisher
	Config    *config.Config
	Logger    *slog.Logger
}

// NewAccountService is the constructor for accountService.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return &accountService{
		provider:  params.Provider,
		auth:      params.Auth,
		userRepo:  params.UserRepo,
		publisher: params.Publisher,
		config:    params.Config,
		logger:    params.Logger,
	}
}

func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// translateProviderError maps the provider's typed rejection codes onto the
// domain error taxonomy. Transport failures and unknown codes pass through
// wrapped, so they surface as internal errors rather than user-facing ones.
func translateProviderError(err error, operation string) error {
	var provErr *service.ProviderError
	if !errors.As(err, &provErr) {
		return errors.Wrap(err, operation)
	}

	switch provErr.Code {
	case service.ProviderCodeInvalidCredentials:
		return domainerrors.ErrInvalidCredentials.WrapMessage(operation)
	case service.ProviderCodeUserAlreadyExists:
		return domainerrors.ErrUserAlreadyExists.WrapMessage(operation)
	case service.ProviderCodeEmailNotConfirmed:
		return domainerrors.ErrEmailNotConfirmed.WrapMessage(operation)
	case service.ProviderCodeUserNotAllowed:
		return domainerrors.ErrInvalidCredentials.WrapMessage(operation)
	case service.ProviderCodeInvalidToken:
		return domainerrors.ErrInvalidSession.WrapMessage(operation)
	default:
		return errors.Wrap(err, operation)
	}
}

// publish sends an auth event without letting a broker failure fail the
// caller's operation.
func (srv *accountService) publish(ctx context.Context, event *service.AuthEvent) {
	event.RequestID = deliverycontext.GetRequestIDFromContext(ctx)
	event.OccurredAt = time.Now()

	if err := srv.publisher.PublishAuthEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish auth event",
			slog.String("type", event.Type),
			slog.Any("error", err))
	}
}

// SignUp registers credentials with the provider, then creates the local
// user record. A local failure after the provider accepted the credentials
// is surfaced as-is; re-running SignUp then reports the email as taken.
func (srv *accountService) SignUp(ctx context.Context, input *usecase.SignUpInput) (*entity.User, error) {
	if err := srv.provider.CreateAccount(ctx, input.Email, input.Password); err != nil {
		return nil, translateProviderError(err, "sign-up failed")
	}

	user, err := srv.auth.RegisterUser(ctx, input.Email, input.Metadata)
	if err != nil {
		return nil, err
	}

	srv.publish(ctx, &service.AuthEvent{
		Type:   service.EventUserRegistered,
		UserID: user.ID.String(),
		Email:  user.Email,
	})

	return user, nil
}

// SignIn verifies the password with the provider and opens a session around
// the issued token pair.
func (srv *accountService) SignIn(ctx context.Context, input *usecase.SignInInput) (*usecase.SignInOutput, error) {
	creds, err := srv.provider.SignIn(ctx, input.Email, input.Password)
	if err != nil {
		return nil, translateProviderError(err, "sign-in failed")
	}

	out, err := srv.auth.LoginUser(ctx, &usecase.LoginInput{
		Email:                    input.Email,
		AccessToken:              creds.AccessToken,
		RefreshToken:             creds.RefreshToken,
		TTL:                      creds.ExpiresIn,
		RequireEmailConfirmation: srv.config.Auth.RequireEmailConfirmation,
	})
	if err != nil {
		return nil, err
	}

	srv.publish(ctx, &service.AuthEvent{
		Type:      service.EventSessionCreated,
		UserID:    out.User.ID.String(),
		SessionID: out.Session.ID.String(),
		Email:     out.User.Email,
	})

	return &usecase.SignInOutput{User: out.User, Session: out.Session}, nil
}

// Refresh exchanges the refresh token for a new access token at the provider
// and installs it on the matching session.
func (srv *accountService) Refresh(ctx context.Context, refreshToken string) (*entity.Session, error) {
	creds, err := srv.provider.RefreshCredentials(ctx, refreshToken)
	if err != nil {
		return nil, translateProviderError(err, "refresh failed")
	}

	return srv.auth.RefreshSession(ctx, &usecase.RefreshSessionInput{
		RefreshToken:   refreshToken,
		NewAccessToken: creds.AccessToken,
		TTL:            creds.ExpiresIn,
	})
}

// ConfirmEmail marks the email as confirmed with the provider first, then on
// the user record. The provider runs first so a local failure can be retried
// without the provider rejecting a double confirmation.
func (srv *accountService) ConfirmEmail(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}
	if user == nil {
		return nil, domainerrors.ErrUserNotFound.WrapMessage("email confirmation failed")
	}

	if err := srv.provider.ConfirmEmail(ctx, user.Email); err != nil {
		return nil, translateProviderError(err, "email confirmation failed")
	}

	return srv.auth.ConfirmUserEmail(ctx, userID)
}

// ResetPassword hands the reset off to the provider. The provider owns the
// anti-enumeration behavior; this layer only translates genuine failures.
func (srv *accountService) ResetPassword(ctx context.Context, email string) error {
	if err := srv.provider.ResetPassword(ctx, email); err != nil {
		return translateProviderError(err, "password reset failed")
	}

	return nil
}

// UpdatePassword replaces the password at the provider and then revokes every
// open session. The revocation reuses SignOutEverywhere so the usual
// sessions-revoked event reaches downstream consumers.
func (srv *accountService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to find user")
	}
	if user == nil {
		return domainerrors.ErrUserNotFound.WrapMessage("password update failed")
	}

	if err := srv.provider.UpdatePassword(ctx, user.Email, newPassword); err != nil {
		return translateProviderError(err, "password update failed")
	}

	if _, err := srv.SignOutEverywhere(ctx, userID); err != nil {
		return err
	}
	srv.log(ctx).Info("Password updated", slog.Any("userID", userID))

	return nil
}

// SignOut invalidates a single session. Signing out an already-dead session
// is a no-op, not an error.
func (srv *accountService) SignOut(ctx context.Context, sessionID uuid.UUID) error {
	revoked, err := srv.auth.LogoutUser(ctx, sessionID)
	if err != nil {
		return err
	}

	if revoked {
		srv.publish(ctx, &service.AuthEvent{
			Type:      service.EventSessionRevoked,
			SessionID: sessionID.String(),
		})
	}

	return nil
}

// SignOutEverywhere invalidates every session of the user.
func (srv *accountService) SignOutEverywhere(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := srv.auth.LogoutAllUserSessions(ctx, userID)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		srv.publish(ctx, &service.AuthEvent{
			Type:   service.EventSessionsRevoked,
			UserID: userID.String(),
		})
	}

	return count, nil
}

// CloseAccount removes the account from the provider and deletes the local
// user record with its sessions. Local deletion runs first so a provider
// outage never strands a half-deleted local state behind dead credentials.
func (srv *accountService) CloseAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to find user")
	}
	if user == nil {
		return domainerrors.ErrUserNotFound.WrapMessage("account close failed")
	}

	if _, err := srv.auth.DeleteUserAccount(ctx, userID); err != nil {
		return err
	}

	if err := srv.provider.DeleteAccount(ctx, user.Email); err != nil {
		return translateProviderError(err, "account close failed")
	}

	srv.publish(ctx, &service.AuthEvent{
		Type:   service.EventUserDeleted,
		UserID: userID.String(),
		Email:  user.Email,
	})

	return nil
}
