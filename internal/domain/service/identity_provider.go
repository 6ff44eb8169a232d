// Package service defines interfaces for core, stateless domain logic and
// for external collaborators the use cases depend on.
package service

import (
	"context"
	"fmt"
	"time"
)

// ProviderErrorCode is the typed vocabulary an identity provider uses to
// report business-level rejections. Implementations must map their native
// error surface onto these codes; callers switch on them exhaustively instead
// of matching message text.
type ProviderErrorCode string

const (
	// ProviderCodeInvalidCredentials means the email/password pair was rejected.
	ProviderCodeInvalidCredentials ProviderErrorCode = "invalid_credentials"
	// ProviderCodeUserAlreadyExists means an account with this email already exists.
	ProviderCodeUserAlreadyExists ProviderErrorCode = "user_already_exists"
	// ProviderCodeEmailNotConfirmed means the account exists but its email is unconfirmed.
	ProviderCodeEmailNotConfirmed ProviderErrorCode = "email_not_confirmed"
	// ProviderCodeUserNotAllowed means the provider refuses to serve this account.
	ProviderCodeUserNotAllowed ProviderErrorCode = "user_not_allowed"
	// ProviderCodeInvalidToken means a refresh token was unknown or revoked.
	ProviderCodeInvalidToken ProviderErrorCode = "invalid_token"
)

// ProviderError is a business-level rejection from the identity provider.
// Transport failures are returned as ordinary errors, not ProviderErrors.
type ProviderError struct {
	Code    ProviderErrorCode
	Message string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider: %s: %s", e.Code, e.Message)
}

// NewProviderError constructs a ProviderError with the given code and message.
func NewProviderError(code ProviderErrorCode, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

// Credentials is an opaque token pair issued by the identity provider.
// Nothing in this service inspects the token contents.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// IdentityProvider abstracts the external system that verifies passwords and
// issues token pairs. The session-lifecycle core never sees passwords; only
// the account glue layer talks to this interface.
type IdentityProvider interface {
	// CreateAccount registers the credentials with the provider.
	// Fails with ProviderCodeUserAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, email, password string) error

	// SignIn verifies the password and issues a fresh token pair.
	SignIn(ctx context.Context, email, password string) (*Credentials, error)

	// RefreshCredentials exchanges a refresh token for a new access token.
	// The refresh token itself remains unchanged.
	RefreshCredentials(ctx context.Context, refreshToken string) (*Credentials, error)

	// ConfirmEmail marks the account's email address as confirmed.
	ConfirmEmail(ctx context.Context, email string) error

	// ResetPassword starts a password reset for the account. Unknown emails
	// are not an error, so the endpoint cannot be used to enumerate
	// registered addresses.
	ResetPassword(ctx context.Context, email string) error

	// UpdatePassword replaces the account's password and revokes its refresh
	// tokens. Fails with ProviderCodeUserNotAllowed for unknown accounts.
	UpdatePassword(ctx context.Context, email, newPassword string) error

	// DeleteAccount removes the credentials from the provider. Deleting an
	// unknown account is not an error.
	DeleteAccount(ctx context.Context, email string) error
}
