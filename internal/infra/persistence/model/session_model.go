package model

import (
	"time"

	"purse/internal/domain/entity"

	"github.com/google/uuid"
)

// SessionModel mirrors the 'sessions' table. Token columns carry unique
// indexes because both serve as lookup keys.
type SessionModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	AccessToken  string    `gorm:"type:varchar(1024);uniqueIndex;not null"`
	RefreshToken string    `gorm:"type:varchar(1024);uniqueIndex;not null"`
	ExpiresAt    time.Time `gorm:"not null;index"`
	IsActive     bool      `gorm:"not null;default:true;index"`
	LastAccessed time.Time `gorm:"not null"`
	CreatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}

// FromSessionDomain converts a domain entity into its table representation.
func FromSessionDomain(session *entity.Session) *SessionModel {
	return &SessionModel{
		ID:           session.ID,
		UserID:       session.UserID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
		IsActive:     session.IsActive,
		LastAccessed: session.LastAccessed,
		CreatedAt:    session.CreatedAt,
	}
}

// ToSessionDomain converts a table row back into a domain entity.
func ToSessionDomain(m *SessionModel) *entity.Session {
	return &entity.Session{
		ID:           m.ID,
		UserID:       m.UserID,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		ExpiresAt:    m.ExpiresAt,
		IsActive:     m.IsActive,
		LastAccessed: m.LastAccessed,
		CreatedAt:    m.CreatedAt,
	}
}
