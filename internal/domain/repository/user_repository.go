// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
//
// Lookup methods report absence as a nil entity with a nil error; an error
// from any method is an infrastructure failure (connectivity, storage), never
// a business outcome. The use-case layer translates absence into the domain
// taxonomy itself.
package repository

import (
	"context"

	"purse/internal/domain/entity"

	"github.com/google/uuid"
)

// UserRepository defines the standard operations for user persistence.
// The application layer depends on this interface, not on a concrete store.
type UserRepository interface {
	// Save upserts the user by primary key and returns the persisted copy.
	// The persisted copy may differ from the input (server-assigned
	// timestamps); callers must treat it as the source of truth.
	Save(ctx context.Context, user *entity.User) (*entity.User, error)

	// FindByID retrieves a single user by ID. Returns (nil, nil) when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by email. Returns (nil, nil) when absent.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// ExistsByEmail reports whether a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Delete removes the user record. Reports whether a record was deleted;
	// deleting a missing user is not an error.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// ListAll returns users ordered by creation time. limit <= 0 means no limit.
	ListAll(ctx context.Context, limit, offset int) ([]*entity.User, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int64, error)
}
