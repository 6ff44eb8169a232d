// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotValid is returned when an operation would bring an expired or
// deactivated session back to life. Validity transitions are one-way.
var ErrSessionNotValid = errors.New("session is no longer valid")

// Session represents a single authenticated device session. A user may hold
// many concurrent sessions; each one is owned by exactly one user.
//
// A session moves through: created -> valid -> {expired | invalidated}.
// Both terminal states are final with respect to validity; a session can
// never become valid again once it has expired or been deactivated.
type Session struct {
	ID           uuid.UUID // The unique identifier for this session, assigned at creation.
	UserID       uuid.UUID // The owning user.
	AccessToken  string    // Provider-issued access token. Opaque to this service.
	RefreshToken string    // Provider-issued refresh token. Opaque to this service.
	ExpiresAt    time.Time // When the session stops being valid.
	CreatedAt    time.Time // When the session was created (login time).
	LastAccessed time.Time // Bumped on every successful validation.
	IsActive     bool      // False once the session has been invalidated (logout).
}

// NewSession constructs an active session expiring ttl from now.
func NewSession(userID uuid.UUID, accessToken, refreshToken string, ttl time.Duration) *Session {
	now := time.Now()

	return &Session{
		ID:           uuid.New(),
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
		LastAccessed: now,
		IsActive:     true,
	}
}

// IsExpired reports whether the session's expiry time has passed.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsValid reports whether the session is active and not expired.
func (s *Session) IsValid() bool {
	return s.IsActive && !s.IsExpired()
}

// Touch bumps the last-accessed timestamp.
func (s *Session) Touch() {
	s.LastAccessed = time.Now()
}

// RefreshAccess replaces the access token and recomputes the expiry from now,
// independent of the previous expiry. Refreshing a session that is already
// expired or deactivated is rejected with ErrSessionNotValid.
func (s *Session) RefreshAccess(newAccessToken string, ttl time.Duration) error {
	if !s.IsValid() {
		return ErrSessionNotValid
	}

	now := time.Now()
	s.AccessToken = newAccessToken
	s.ExpiresAt = now.Add(ttl)
	s.LastAccessed = now

	return nil
}

// ExtendExpiration pushes the expiry further into the future. Like
// RefreshAccess it refuses to resurrect a session that is no longer valid.
func (s *Session) ExtendExpiration(d time.Duration) error {
	if !s.IsValid() {
		return ErrSessionNotValid
	}

	s.ExpiresAt = s.ExpiresAt.Add(d)

	return nil
}

// Invalidate deactivates the session. Idempotent.
func (s *Session) Invalidate() {
	s.IsActive = false
}
