package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
)

// MaxPhotosPerUser caps the number of live photos per user.
const MaxPhotosPerUser = 5

// PhotoRepository owns the photo rows and the profile-picture flag.
type PhotoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new repository bound to the given DB connection.
func NewPhotoRepository(database *gorm.DB) *PhotoRepository {
	return &PhotoRepository{db: database}
}

func (r *PhotoRepository) ListPhotos(ctx context.Context, userID uint64) ([]db.Photo, error) {
	var photos []db.Photo
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&photos).Error
	return photos, err
}

// HasProfilePhoto reports whether the user has a photo flagged as the
// profile picture. Liking requires this.
func (r *PhotoRepository) HasProfilePhoto(ctx context.Context, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Photo{}).
		Where("user_id = ? AND is_profile = ?", userID, true).
		Count(&count).Error
	return count > 0, err
}

// ProfilePicturePath resolves the user's profile-picture path, or nil
// when no photo carries the flag.
func (r *PhotoRepository) ProfilePicturePath(ctx context.Context, userID uint64) (*string, error) {
	var photo db.Photo
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_profile = ?", userID, true).
		First(&photo).Error
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &photo.Path, nil
}

// AddPhoto inserts a photo, enforcing the per-user cap. New photos are
// never flagged; SetProfilePhoto is the only transition that flags one.
func (r *PhotoRepository) AddPhoto(ctx context.Context, userID uint64, path string) (*db.Photo, error) {
	var photo db.Photo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Photo{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count >= MaxPhotosPerUser {
			return svcErr.Conflict("photo limit reached")
		}
		photo = db.Photo{UserID: userID, Path: path}
		return tx.Create(&photo).Error
	})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// SetProfilePhoto flags one photo as the profile picture and clears the
// flag from the user's other photos, keeping at most one flagged row.
func (r *PhotoRepository) SetProfilePhoto(ctx context.Context, userID, photoID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var photo db.Photo
		if err := tx.First(&photo, "id = ? AND user_id = ?", photoID, userID).Error; err != nil {
			if IsNotFound(err) {
				return svcErr.NotFound("photo not found")
			}
			return err
		}
		if err := tx.Model(&db.Photo{}).
			Where("user_id = ? AND is_profile = ?", userID, true).
			Update("is_profile", false).Error; err != nil {
			return err
		}
		return tx.Model(&db.Photo{}).
			Where("id = ?", photoID).
			Update("is_profile", true).Error
	})
}

// DeletePhoto removes a photo owned by the user. Deleting the flagged
// photo leaves the user with zero flagged rows, which is a valid state.
func (r *PhotoRepository) DeletePhoto(ctx context.Context, userID, photoID uint64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", photoID, userID).
		Delete(&db.Photo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFound("photo not found")
	}
	return nil
}

// PhotosByUserIDs loads the photo lists for a batch of users.
func (r *PhotoRepository) PhotosByUserIDs(ctx context.Context, userIDs []uint64) (map[uint64][]db.Photo, error) {
	result := make(map[uint64][]db.Photo, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	var photos []db.Photo
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("id").
		Find(&photos).Error
	if err != nil {
		return nil, err
	}
	for _, p := range photos {
		result[p.UserID] = append(result[p.UserID], p)
	}
	return result, nil
}
