package repository

import (
	"context"
	"errors"
	"strings"

	"gameauth/internal/domain"

	"gorm.io/gorm"
)

// ErrDuplicateKey reports a storage-layer uniqueness violation.
var ErrDuplicateKey = errors.New("duplicate key")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. Uniqueness of the username is enforced only
// here, by the unique index; a violation surfaces as ErrDuplicateKey.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	tx := r.db.WithContext(ctx).Create(u)
	if tx.Error != nil {
		if isUniqueViolation(tx.Error) {
			return ErrDuplicateKey
		}
		return tx.Error
	}
	return nil
}

// GetByUsername looks up a user by exact, case-sensitive username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	tx := r.db.WithContext(ctx).Where("username = ?", username).First(&u)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// The pure-Go sqlite driver reports constraint violations as plain
	// errors; match only the UNIQUE message so that FOREIGN KEY and
	// NOT NULL violations stay unexpected errors.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
