// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"fmt"
	"time"

	"purse/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// LoginInput defines the data required to open a session for a user. The
// token pair has already been issued by the identity provider; this layer
// treats both tokens as opaque strings.
type LoginInput struct {
	Email                    string
	AccessToken              string
	RefreshToken             string
	TTL                      time.Duration
	RequireEmailConfirmation bool
}

// RefreshSessionInput defines the data required to refresh a session's access token.
type RefreshSessionInput struct {
	RefreshToken   string
	NewAccessToken string
	TTL            time.Duration
}

// --- Output DTOs ---

// LoginOutput returns the updated user and the freshly created session.
type LoginOutput struct {
	User    *entity.User
	Session *entity.Session
}

// PartialLoginError reports a login that failed after some of its
// non-transactional sub-steps had already been persisted. LoginRecorded is
// true when the user's last-login timestamp was saved before session creation
// failed; retrying the login is safe and simply overwrites it.
type PartialLoginError struct {
	LoginRecorded bool
	Err           error
}

// Error implements the error interface.
func (e *PartialLoginError) Error() string {
	return fmt.Sprintf("login partially completed (login recorded: %t): %v", e.LoginRecorded, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *PartialLoginError) Unwrap() error {
	return e.Err
}

// AuthUsecase defines the authentication and session-lifecycle operations.
// This is the contract the delivery layer and the account glue depend on.
//
// Every method is a short sequential chain of repository calls with no
// cross-operation transaction; the per-method comments document which
// partial effects a mid-chain failure can leave behind.
type AuthUsecase interface {
	// RegisterUser creates a new, unconfirmed user. Fails with
	// ErrUserAlreadyExists when the email is taken. No session is created;
	// registration and login are separate steps.
	RegisterUser(ctx context.Context, email string, metadata map[string]any) (*entity.User, error)

	// LoginUser records a login on the user and opens a new session with the
	// provider-issued token pair. Fails with ErrUserNotFound or
	// ErrEmailNotConfirmed. The login timestamp is persisted before the
	// session is created: when session creation fails afterwards the method
	// returns a *PartialLoginError rather than pretending nothing happened.
	LoginUser(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// LogoutUser invalidates one session. Reports whether a session was
	// affected and never fails on "already logged out".
	LogoutUser(ctx context.Context, sessionID uuid.UUID) (bool, error)

	// LogoutAllUserSessions invalidates every session of the user and
	// returns the number affected.
	LogoutAllUserSessions(ctx context.Context, userID uuid.UUID) (int64, error)

	// GetUserBySession validates the session by ID, bumps its last-accessed
	// timestamp and returns the owning user with the persisted session.
	// Fails with ErrInvalidSession (absent or deactivated), ErrSessionExpired
	// (found but past expiry) or ErrUserNotFound (dangling session).
	GetUserBySession(ctx context.Context, sessionID uuid.UUID) (*entity.User, *entity.Session, error)

	// ValidateAccessToken behaves exactly like GetUserBySession but resolves
	// the session by its access token.
	ValidateAccessToken(ctx context.Context, accessToken string) (*entity.User, *entity.Session, error)

	// RefreshSession installs a new access token on the session matching the
	// refresh token and recomputes its expiry from now. Fails with
	// ErrInvalidSession when no session matches or the match is deactivated,
	// and with ErrSessionExpired when the match has already expired.
	RefreshSession(ctx context.Context, input *RefreshSessionInput) (*entity.Session, error)

	// ConfirmUserEmail marks the user's email as confirmed.
	ConfirmUserEmail(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// UpdateUserMetadata shallow-merges the patch into the user's metadata.
	UpdateUserMetadata(ctx context.Context, userID uuid.UUID, metadata map[string]any) (*entity.User, error)

	// DeleteUserAccount deletes every session owned by the user and then the
	// user record, in that order, so a mid-chain failure can never leave
	// sessions referencing a deleted user. Fails with ErrUserNotFound.
	DeleteUserAccount(ctx context.Context, userID uuid.UUID) (bool, error)

	// GetSessionInfo returns the session record by ID without validating it
	// or touching its last-accessed timestamp. Absence is (nil, nil), so
	// callers can treat a vanished session as a no-op.
	GetSessionInfo(ctx context.Context, sessionID uuid.UUID) (*entity.Session, error)

	// GetActiveSessions lists the user's currently valid sessions.
	GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error)

	// ListUsers returns one page of users ordered by creation time, newest
	// first, together with the total user count. limit <= 0 disables the
	// page size cap.
	ListUsers(ctx context.Context, limit, offset int) ([]*entity.User, int64, error)

	// CleanupExpiredSessions bulk-deletes expired sessions and returns the
	// count. Safe for unattended periodic invocation, including concurrently
	// with itself.
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}
