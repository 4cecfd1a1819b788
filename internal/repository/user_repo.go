package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/db"
)

// UserRepository provides data access for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// CreateUser inserts a new user row. A username/email collision surfaces
// as gorm.ErrDuplicatedKey.
func (r *UserRepository) CreateUser(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) GetUser(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UserExists reports whether a user row exists for the given id.
func (r *UserRepository) UserExists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// SetVerified flips the email-verification flag.
func (r *UserRepository) SetVerified(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Update("verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLogin stamps the last-login time and online flag.
func (r *UserRepository) TouchLogin(ctx context.Context, id uint64, online bool) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"online":        online,
			"last_login_at": time.Now().UTC(),
		}).Error
}

// SetOnline updates only the online flag (used by presence transitions).
func (r *UserRepository) SetOnline(ctx context.Context, id uint64, online bool) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Update("online", online).Error
}

// IsNotFound reports whether err is the storage-level missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
