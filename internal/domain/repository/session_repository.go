// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"purse/internal/domain/entity"

	"github.com/google/uuid"
)

// SessionRepository defines the standard operations for session persistence.
// Sessions support multi-device login: a user may own any number of them.
type SessionRepository interface {
	// Save upserts the session by primary key and returns the persisted copy.
	Save(ctx context.Context, session *entity.Session) (*entity.Session, error)

	// FindByID retrieves a session by ID. Returns (nil, nil) when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)

	// FindByUserID retrieves every session owned by the user, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error)

	// FindActiveByUserID retrieves the user's sessions that are active and
	// not yet expired, newest first.
	FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error)

	// FindByAccessToken retrieves a session by its access token. Returns (nil, nil) when absent.
	FindByAccessToken(ctx context.Context, accessToken string) (*entity.Session, error)

	// FindByRefreshToken retrieves a session by its refresh token. Returns (nil, nil) when absent.
	FindByRefreshToken(ctx context.Context, refreshToken string) (*entity.Session, error)

	// Invalidate flips the session inactive server-side. Reports whether a
	// session was affected; invalidating a missing or already-inactive
	// session is not an error.
	Invalidate(ctx context.Context, id uuid.UUID) (bool, error)

	// InvalidateAllByUserID flips every active session of the user inactive
	// and returns the number of sessions affected. Zero is not an error.
	InvalidateAllByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteExpired bulk-deletes sessions whose expiry has passed and returns
	// the number deleted. Safe to call repeatedly and concurrently.
	DeleteExpired(ctx context.Context) (int64, error)

	// DeleteByUserID removes every session owned by the user and returns the
	// number deleted. Used for cascading account deletion.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}
