package postgres

import (
	"context"
	"time"

	"purse/internal/domain/entity"
	domainerrors "purse/internal/domain/errors"
	"purse/internal/domain/repository"
	"purse/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// sessionRepository implements the repository.SessionRepository interface.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Save upserts the session row by primary key and returns the persisted state.
func (repo *sessionRepository) Save(ctx context.Context, session *entity.Session) (*entity.Session, error) {
	sessionM := model.FromSessionDomain(session)

	if err := repo.db.WithContext(ctx).Save(sessionM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return nil, domainerrors.NewDatabaseExecuteError(err, "session token already in use")
		}
		if isForeignKeyConstraintViolation(err) {
			return nil, domainerrors.NewDatabaseExecuteError(err, "invalid user reference")
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to save session")
	}

	return model.ToSessionDomain(sessionM), nil
}

// FindByID retrieves a session by ID.
func (repo *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	return repo.findOne(ctx, "id = ?", id)
}

// FindByAccessToken retrieves a session by its access token.
func (repo *sessionRepository) FindByAccessToken(ctx context.Context, accessToken string) (*entity.Session, error) {
	return repo.findOne(ctx, "access_token = ?", accessToken)
}

// FindByRefreshToken retrieves a session by its refresh token.
func (repo *sessionRepository) FindByRefreshToken(ctx context.Context, refreshToken string) (*entity.Session, error) {
	return repo.findOne(ctx, "refresh_token = ?", refreshToken)
}

func (repo *sessionRepository) findOne(ctx context.Context, query string, arg any) (*entity.Session, error) {
	var sessionM model.SessionModel
	err := repo.db.WithContext(ctx).
		Where(query, arg).
		First(&sessionM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.WithStack(err)
	}

	return model.ToSessionDomain(&sessionM), nil
}

// FindByUserID retrieves all sessions of the user, newest first.
func (repo *sessionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	var sessionModels []*model.SessionModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessionModels).Error

	if err != nil {
		return nil, errors.WithStack(err)
	}

	return toSessionDomainList(sessionModels), nil
}

// FindActiveByUserID retrieves the user's sessions that are active and not
// yet expired, newest first.
func (repo *sessionRepository) FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	var sessionModels []*model.SessionModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, time.Now()).
		Order("created_at DESC").
		Find(&sessionModels).Error

	if err != nil {
		return nil, errors.WithStack(err)
	}

	return toSessionDomainList(sessionModels), nil
}

// Invalidate deactivates a single session. Reports whether a row actually
// transitioned from active to inactive.
func (repo *sessionRepository) Invalidate(ctx context.Context, id uuid.UUID) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)

	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to invalidate session")
	}

	return result.RowsAffected > 0, nil
}

// InvalidateAllByUserID deactivates every active session of the user and
// returns how many rows transitioned.
func (repo *sessionRepository) InvalidateAllByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false)

	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to invalidate user sessions")
	}

	return result.RowsAffected, nil
}

// DeleteExpired removes all rows whose expiry has passed, active or not.
func (repo *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&model.SessionModel{})

	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete expired sessions")
	}

	return result.RowsAffected, nil
}

// DeleteByUserID removes all rows belonging to the user.
func (repo *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.SessionModel{})

	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete user sessions")
	}

	return result.RowsAffected, nil
}

func toSessionDomainList(sessionModels []*model.SessionModel) []*entity.Session {
	sessions := make([]*entity.Session, 0, len(sessionModels))
	for _, sessionM := range sessionModels {
		sessions = append(sessions, model.ToSessionDomain(sessionM))
	}

	return sessions
}
