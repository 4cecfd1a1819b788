package notification

import (
	"context"
	"time"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
	"github.com/emberapp/ember-server/internal/repository"
)

// Pusher delivers an event to a connected user, reporting whether any
// live connection received it. The chat hub implements this.
type Pusher interface {
	Push(recipientID uint64, eventType string, payload interface{}) bool
}

// View is the notification projection handed to clients.
type View struct {
	ID        uint64    `json:"id"`
	Type      string    `json:"type"`
	ActorID   uint64    `json:"actor_id"`
	EntityID  *uint64   `json:"entity_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Service persists the notification feed and fans events out to online
// recipients. It implements the engine's NotificationSink.
type Service struct {
	appCtx *app.AppContext
	repo   *repository.NotificationRepository
	pusher Pusher
}

// NewService creates the notification service. pusher may be nil when
// no realtime transport is wired (e.g. in batch tooling).
func NewService(appCtx *app.AppContext, pusher Pusher) *Service {
	return &Service{
		appCtx: appCtx,
		repo:   repository.NewNotificationRepository(appCtx.DB),
		pusher: pusher,
	}
}

// Emit appends a notification row, bumps the unread counter cache and
// pushes to the recipient if connected.
func (s *Service) Emit(ctx context.Context, recipientID uint64, notifType string, actorID uint64, entityID *uint64) error {
	n := &db.Notification{
		RecipientID: recipientID,
		Type:        notifType,
		ActorID:     actorID,
		EntityID:    entityID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.appCtx.RedisCache.BumpUnreadCount(ctx, recipientID, 1)
	if s.pusher != nil {
		s.pusher.Push(recipientID, "notification", toView(n))
	}
	return nil
}

// List returns one cursor page of the recipient's feed, newest first.
func (s *Service) List(ctx context.Context, recipientID uint64, token *string, limit int) ([]View, *string, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	rows, nextToken, err := s.repo.ListByRecipient(ctx, recipientID, token, limit)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}
	views := make([]View, len(rows))
	for i := range rows {
		views[i] = *toView(&rows[i])
	}
	return views, nextToken, nil
}

// MarkRead flips the read flag on one notification.
func (s *Service) MarkRead(ctx context.Context, recipientID, id uint64) error {
	updated, err := s.repo.MarkRead(ctx, recipientID, id)
	if err != nil {
		return svcErr.Map(err)
	}
	if !updated {
		return svcErr.NotFound("notification not found")
	}
	s.appCtx.RedisCache.BumpUnreadCount(ctx, recipientID, -1)
	return nil
}

// MarkAllRead flips the whole feed to read.
func (s *Service) MarkAllRead(ctx context.Context, recipientID uint64) error {
	if _, err := s.repo.MarkAllRead(ctx, recipientID); err != nil {
		return svcErr.Map(err)
	}
	_ = s.appCtx.RedisCache.SetUnreadCount(ctx, recipientID, 0)
	return nil
}

// Delete removes one notification by explicit user action.
func (s *Service) Delete(ctx context.Context, recipientID, id uint64) error {
	deleted, err := s.repo.Delete(ctx, recipientID, id)
	if err != nil {
		return svcErr.Map(err)
	}
	if !deleted {
		return svcErr.NotFound("notification not found")
	}
	// the deleted row may have been unread; drop the cached counter so
	// the next read repopulates from the DB
	_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForUnreadCount(recipientID))
	return nil
}

// UnreadCount returns the unread total, cache-first with DB fallback.
func (s *Service) UnreadCount(ctx context.Context, recipientID uint64) (int64, error) {
	if cached, ok, err := s.appCtx.RedisCache.GetUnreadCount(ctx, recipientID); err == nil && ok {
		return cached, nil
	}
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	_ = s.appCtx.RedisCache.SetUnreadCount(ctx, recipientID, count)
	return count, nil
}

func toView(n *db.Notification) *View {
	return &View{
		ID:        n.ID,
		Type:      n.Type,
		ActorID:   n.ActorID,
		EntityID:  n.EntityID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
