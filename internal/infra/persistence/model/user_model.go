// Package model defines the GORM table mappings and their conversions to and
// from domain entities.
package model

import (
	"time"

	"purse/internal/domain/entity"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. IDs are generated client-side so the
// same value flows through the entity, the row and any published event.
type UserModel struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key"`
	Email            string         `gorm:"type:varchar(255);unique;not null"`
	Metadata         map[string]any `gorm:"type:jsonb;serializer:json"`
	IsEmailConfirmed bool           `gorm:"not null;default:false"`
	LastLogin        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// FromUserDomain converts a domain entity into its table representation.
func FromUserDomain(user *entity.User) *UserModel {
	return &UserModel{
		ID:               user.ID,
		Email:            user.Email,
		Metadata:         user.Metadata,
		IsEmailConfirmed: user.IsEmailConfirmed,
		LastLogin:        user.LastLogin,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}

// ToUserDomain converts a table row back into a domain entity.
func ToUserDomain(m *UserModel) *entity.User {
	return &entity.User{
		ID:               m.ID,
		Email:            m.Email,
		Metadata:         m.Metadata,
		IsEmailConfirmed: m.IsEmailConfirmed,
		LastLogin:        m.LastLogin,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
