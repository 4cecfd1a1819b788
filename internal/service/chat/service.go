package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
	"github.com/emberapp/ember-server/internal/repository"
	"github.com/emberapp/ember-server/internal/service/match"
	"github.com/emberapp/ember-server/internal/utils/pagination"
)

// ErrNotMatched is returned when messaging a user without a live match.
var ErrNotMatched = svcErr.Precondition("you can only message your matches")

// MessageView is the chat message projection handed to clients.
type MessageView struct {
	ID          string    `json:"id"`
	SenderID    uint64    `json:"sender_id"`
	RecipientID uint64    `json:"recipient_id"`
	Body        string    `json:"body"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryResult is one page of conversation history, newest first.
type HistoryResult struct {
	Messages  []MessageView `json:"messages"`
	Total     int64         `json:"total"`
	Page      int           `json:"page"`
	PageCount int           `json:"page_count"`
}

// Service persists chat messages between matched users and hands them
// to the hub for realtime delivery.
type Service struct {
	appCtx   *app.AppContext
	messages *repository.MessageRepository
	ledger   *repository.InteractionRepository
	hub      *Hub
	sink     match.NotificationSink
}

// NewService creates the chat service. The sink receives `message`
// notifications for recipients with no live connection.
func NewService(appCtx *app.AppContext, hub *Hub, sink match.NotificationSink) *Service {
	return &Service{
		appCtx:   appCtx,
		messages: repository.NewMessageRepository(appCtx.DB),
		ledger:   repository.NewInteractionRepository(appCtx.DB),
		hub:      hub,
		sink:     sink,
	}
}

// SendMessage persists one message and delivers it. Messaging requires
// a live match between the two users.
func (s *Service) SendMessage(ctx context.Context, senderID, recipientID uint64, body string) (*MessageView, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, svcErr.Validation("message body must not be empty")
	}
	if senderID == recipientID {
		return nil, svcErr.Validation("cannot message yourself")
	}
	if err := s.requireMatch(ctx, senderID, recipientID); err != nil {
		return nil, err
	}

	m := &db.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, svcErr.Map(err)
	}

	view := toMessageView(m)
	delivered := false
	if s.hub != nil {
		delivered = s.hub.Push(recipientID, "message", view)
	}
	if !delivered && s.sink != nil {
		if err := s.sink.Emit(ctx, recipientID, db.NotifMessage, senderID, nil); err != nil {
			s.appCtx.Logger.Warn("message notification failed",
				"recipient", recipientID, "err", err)
		}
	}

	return view, nil
}

// History returns one page of the conversation between the viewer and
// another matched user, newest first.
func (s *Service) History(ctx context.Context, viewerID, otherID uint64, page pagination.Page) (*HistoryResult, error) {
	if err := s.requireMatch(ctx, viewerID, otherID); err != nil {
		return nil, err
	}
	page = page.Normalize(s.appCtx.Config.Browse.PageSize, s.appCtx.Config.Browse.MaxPageSize)

	rows, total, err := s.messages.History(ctx, viewerID, otherID, page)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	views := make([]MessageView, len(rows))
	for i := range rows {
		views[i] = *toMessageView(&rows[i])
	}
	return &HistoryResult{
		Messages:  views,
		Total:     total,
		Page:      page.Number,
		PageCount: pagination.PageCount(int(total), page.Limit),
	}, nil
}

// MarkConversationRead marks every message from the other user as read.
func (s *Service) MarkConversationRead(ctx context.Context, viewerID, otherID uint64) error {
	_, err := s.messages.MarkConversationRead(ctx, viewerID, otherID)
	return svcErr.Map(err)
}

func (s *Service) requireMatch(ctx context.Context, a, b uint64) error {
	m, err := s.ledger.FindMatch(ctx, a, b)
	if err != nil {
		return svcErr.Map(err)
	}
	if m == nil {
		return ErrNotMatched
	}
	return nil
}

func toMessageView(m *db.Message) *MessageView {
	return &MessageView{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Body:        m.Body,
		Read:        m.Read,
		CreatedAt:   m.CreatedAt,
	}
}
