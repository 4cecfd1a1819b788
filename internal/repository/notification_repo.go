package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/utils/pagination"
)

// NotificationRepository owns the append-only notification feed.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new repository bound to the given DB connection.
func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListByRecipient returns the recipient's feed newest-first.
//
// Supports cursor-based pagination via paginationToken: the cursor is
// (created_at, id) of the last row of the previous page.
func (r *NotificationRepository) ListByRecipient(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.Notification, *string, error) {
	var notifications []db.Notification

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if cursor.ID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&notifications).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(notifications) > limit {
		last := notifications[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:          last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		notifications = notifications[:limit]
	}

	return notifications, nextToken, nil
}

// MarkRead flips the read flag on one notification owned by the recipient.
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("id = ? AND recipient_id = ? AND `read` = ?", id, recipientID, false).
		Update("read", true)
	return res.RowsAffected > 0, res.Error
}

// MarkAllRead flips the read flag on the recipient's whole feed and
// returns how many rows changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("recipient_id = ? AND `read` = ?", recipientID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

// Delete removes one notification owned by the recipient.
func (r *NotificationRepository) Delete(ctx context.Context, recipientID, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&db.Notification{})
	return res.RowsAffected > 0, res.Error
}

// CountUnread counts the recipient's unread rows. The Redis counter
// fronts this; the DB is the fallback source of truth.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("recipient_id = ? AND `read` = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
