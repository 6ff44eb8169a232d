// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core account entity. Its identity is immutable after creation;
// everything else is mutated through the methods below, which keep UpdatedAt
// in sync with every change.
type User struct {
	ID               uuid.UUID      // The unique identifier for the user, assigned at creation.
	Email            string         // The user's email address, the unique business key for lookups.
	Metadata         map[string]any // Arbitrary string-keyed attributes attached at registration or later.
	IsEmailConfirmed bool           // Whether the user has confirmed their email address.
	CreatedAt        time.Time      // Timestamp of when this account was created.
	UpdatedAt        time.Time      // Timestamp of the last modification to this account.
	LastLogin        *time.Time     // Timestamp of the most recent login. Nil until the first login.
}

// NewUser constructs a user with a generated ID and fresh timestamps.
// A nil metadata map is normalized to an empty one.
func NewUser(email string, metadata map[string]any) *User {
	now := time.Now()

	merged := make(map[string]any, len(metadata))
	for k, v := range metadata {
		merged[k] = v
	}

	return &User{
		ID:        uuid.New(),
		Email:     email,
		Metadata:  merged,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ConfirmEmail marks the user's email address as confirmed. Idempotent.
func (u *User) ConfirmEmail() {
	u.IsEmailConfirmed = true
	u.UpdatedAt = time.Now()
}

// RecordLogin stamps the current time as the user's last login.
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLogin = &now
	u.UpdatedAt = now
}

// UpdateMetadata shallow-merges patch into the existing metadata.
// Keys present in patch overwrite existing keys; others are kept.
func (u *User) UpdateMetadata(patch map[string]any) {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		u.Metadata[k] = v
	}
	u.UpdatedAt = time.Now()
}
