package repository

import (
	"context"
	"regexp"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
)

var tagNamePattern = regexp.MustCompile(`^#[A-Za-z0-9]+$`)

// NormalizeTagName prepends the leading '#' when missing and validates
// the result against the accepted tag format.
func NormalizeTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name != "" && !strings.HasPrefix(name, "#") {
		name = "#" + name
	}
	if !tagNamePattern.MatchString(name) {
		return "", svcErr.Validation("tag must match #[A-Za-z0-9]+")
	}
	return name, nil
}

// TagRepository owns interest tags and the user<->tag junction.
type TagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new repository bound to the given DB connection.
func NewTagRepository(database *gorm.DB) *TagRepository {
	return &TagRepository{db: database}
}

// TagExists reports whether a tag with the given normalized name exists.
func (r *TagRepository) TagExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Tag{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}

// CreateTag normalizes, validates and inserts a tag, returning the
// existing row when the name is already taken.
func (r *TagRepository) CreateTag(ctx context.Context, name string) (*db.Tag, error) {
	normalized, err := NormalizeTagName(name)
	if err != nil {
		return nil, err
	}
	tag := db.Tag{Name: normalized}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&tag).Error
	if err != nil {
		return nil, err
	}
	if tag.ID == 0 {
		// conflict path: fetch the existing row
		if err := r.db.WithContext(ctx).First(&tag, "name = ?", normalized).Error; err != nil {
			return nil, err
		}
	}
	return &tag, nil
}

// GetTagIDs returns the tag ids attached to a user.
func (r *TagRepository) GetTagIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.UserTag{}).
		Where("user_id = ?", userID).
		Pluck("tag_id", &ids).Error
	return ids, err
}

// GetTagNames returns the tag names attached to a user.
func (r *TagRepository) GetTagNames(ctx context.Context, userID uint64) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("user_tags ut").
		Joins("JOIN tags t ON t.id = ut.tag_id").
		Where("ut.user_id = ?", userID).
		Order("t.name").
		Pluck("t.name", &names).Error
	return names, err
}

// AttachTag links a tag to a user. Repeat attach is a no-op: the
// composite PK keeps the pair unique.
func (r *TagRepository) AttachTag(ctx context.Context, userID, tagID uint64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.UserTag{UserID: userID, TagID: tagID}).Error
}

// DetachTag removes a tag from a user.
func (r *TagRepository) DetachTag(ctx context.Context, userID, tagID uint64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND tag_id = ?", userID, tagID).
		Delete(&db.UserTag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return svcErr.State("tag not attached")
	}
	return nil
}

// UserIDsWithAllTags returns the ids of users holding every one of the
// given tag names (AND semantics). Unknown tag names make the result
// empty, since no user can hold them.
func (r *TagRepository) UserIDsWithAllTags(ctx context.Context, names []string) ([]uint64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var tagIDs []uint64
	if err := r.db.WithContext(ctx).
		Model(&db.Tag{}).
		Where("name IN ?", names).
		Pluck("id", &tagIDs).Error; err != nil {
		return nil, err
	}
	if len(tagIDs) < len(names) {
		return nil, nil
	}

	var userIDs []uint64
	err := r.db.WithContext(ctx).
		Model(&db.UserTag{}).
		Select("user_id").
		Where("tag_id IN ?", tagIDs).
		Group("user_id").
		Having("COUNT(DISTINCT tag_id) = ?", len(tagIDs)).
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// TagIDsByUserIDs loads the tag-id sets for a batch of users in one query.
func (r *TagRepository) TagIDsByUserIDs(ctx context.Context, userIDs []uint64) (map[uint64][]uint64, error) {
	result := make(map[uint64][]uint64, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	var rows []db.UserTag
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, ut := range rows {
		result[ut.UserID] = append(result[ut.UserID], ut.TagID)
	}
	return result, nil
}

// TagNamesByUserIDs loads the tag-name lists for a batch of users.
func (r *TagRepository) TagNamesByUserIDs(ctx context.Context, userIDs []uint64) (map[uint64][]string, error) {
	result := make(map[uint64][]string, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		UserID uint64
		Name   string
	}
	err := r.db.WithContext(ctx).
		Table("user_tags ut").
		Select("ut.user_id, t.name").
		Joins("JOIN tags t ON t.id = ut.tag_id").
		Where("ut.user_id IN ?", userIDs).
		Order("t.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.UserID] = append(result[row.UserID], row.Name)
	}
	return result, nil
}
