package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/utils/pagination"
)

// MessageRepository owns chat message persistence.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

func (r *MessageRepository) Create(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// History returns the conversation between two users newest-first,
// page/limit paginated, with the total message count.
func (r *MessageRepository) History(
	ctx context.Context,
	a, b uint64,
	page pagination.Page,
) ([]db.Message, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []db.Message
	err := base.
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&messages).Error
	return messages, total, err
}

// MarkConversationRead marks every message from sender to recipient as read.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, recipientID, senderID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND `read` = ?", recipientID, senderID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

// CountUnread counts unread messages addressed to the recipient.
func (r *MessageRepository) CountUnread(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("recipient_id = ? AND `read` = ?", recipientID, false).
		Count(&count).Error
	return count, err
}
