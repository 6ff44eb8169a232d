// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"purse/internal/domain/entity"
	domainerrors "purse/internal/domain/errors"
	"purse/internal/domain/repository"
	"purse/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the repository.UserRepository interface.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Save upserts the user row by primary key and returns the persisted state.
func (repo *userRepository) Save(ctx context.Context, user *entity.User) (*entity.User, error) {
	userM := model.FromUserDomain(user)

	if err := repo.db.WithContext(ctx).Save(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("email already registered")
		}
		if isNotNullConstraintViolation(err) {
			return nil, domainerrors.NewDatabaseExecuteError(err, "missing required user information")
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to save user")
	}

	return model.ToUserDomain(userM), nil
}

// FindByID retrieves a single user by ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&userM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.WithStack(err)
	}

	return model.ToUserDomain(&userM), nil
}

// FindByEmail retrieves a single user by email.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("email = ?", email).
		First(&userM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.WithStack(err)
	}

	return model.ToUserDomain(&userM), nil
}

// ExistsByEmail reports whether a user row with this email exists.
func (repo *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("email = ?", email).
		Count(&count).Error

	if err != nil {
		return false, errors.WithStack(err)
	}

	return count > 0, nil
}

// Delete removes the user row. Reports whether a row was actually removed.
func (repo *userRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.UserModel{})

	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete user")
	}

	return result.RowsAffected > 0, nil
}

// ListAll retrieves users ordered by creation time, newest first.
func (repo *userRepository) ListAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	limit, offset = normalizePageArgs(limit, offset)

	var userModels []*model.UserModel
	err := repo.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&userModels).Error

	if err != nil {
		return nil, errors.WithStack(err)
	}

	users := make([]*entity.User, 0, len(userModels))
	for _, userM := range userModels {
		users = append(users, model.ToUserDomain(userM))
	}

	return users, nil
}

// normalizePageArgs maps the repository paging contract onto GORM's clause
// semantics: only a negative argument cancels a LIMIT/OFFSET clause, and
// Limit(0) would emit LIMIT 0 and return no rows at all.
func normalizePageArgs(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = -1
	}
	if offset <= 0 {
		offset = -1
	}

	return limit, offset
}

// Count returns the total number of user rows.
func (repo *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Count(&count).Error

	if err != nil {
		return 0, errors.WithStack(err)
	}

	return count, nil
}
