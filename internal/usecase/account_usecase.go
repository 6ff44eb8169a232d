// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"purse/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// SignUpInput defines the data required to create an account with the
// identity provider and register the matching user record.
type SignUpInput struct {
	Email    string
	Password string
	Metadata map[string]any
}

// SignInInput defines the data required for a password sign-in.
type SignInInput struct {
	Email    string
	Password string
}

// --- Output DTOs ---

// SignInOutput returns the opened session alongside the user.
type SignInOutput struct {
	User    *entity.User
	Session *entity.Session
}

// AccountUsecase is the glue between the identity provider and the
// session-lifecycle core: it obtains token pairs from the provider, feeds
// them into AuthUsecase, and translates the provider's typed error codes into
// the domain taxonomy. The core itself never talks to the provider.
type AccountUsecase interface {
	// SignUp creates the credentials with the provider and registers the user.
	SignUp(ctx context.Context, input *SignUpInput) (*entity.User, error)

	// SignIn verifies the password with the provider and opens a session.
	SignIn(ctx context.Context, input *SignInInput) (*SignInOutput, error)

	// Refresh exchanges the refresh token for a new access token with the
	// provider and installs it on the matching session.
	Refresh(ctx context.Context, refreshToken string) (*entity.Session, error)

	// ConfirmEmail marks the email as confirmed with the provider and on the
	// user record.
	ConfirmEmail(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// ResetPassword starts a password reset with the provider. The outcome
	// never reveals whether the email is registered.
	ResetPassword(ctx context.Context, email string) error

	// UpdatePassword replaces the user's password with the provider and
	// revokes every open session; all devices must sign in again.
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error

	// SignOut invalidates one session.
	SignOut(ctx context.Context, sessionID uuid.UUID) error

	// SignOutEverywhere invalidates every session of the user and returns
	// the number affected.
	SignOutEverywhere(ctx context.Context, userID uuid.UUID) (int64, error)

	// CloseAccount deletes the user's sessions, their user record, and their
	// provider credentials.
	CloseAccount(ctx context.Context, userID uuid.UUID) error
}
