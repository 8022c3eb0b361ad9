package notification

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service handles notification logic
type Service struct {
	repo     Repository
	realtime RealtimePublisher
}

// NewService creates notification service
func NewService(repo Repository, realtime RealtimePublisher) *Service {
	return &Service{repo: repo, realtime: realtime}
}

// Create persists a notification and pushes it to the account's live
// connections. Persistence failure is returned; push failure is only logged.
func (s *Service) Create(ctx context.Context, accountID uuid.UUID, notifType Type, title, body string, data *EventData) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		AccountID: accountID,
		Type:      notifType,
		Title:     title,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	if body != "" {
		n.Body = sql.NullString{String: body, Valid: true}
	}
	n.SetData(data)

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.realtime != nil {
		unread, _ := s.repo.CountUnreadByAccount(ctx, accountID)
		if err := s.realtime.NotifyAccount(accountID, NotificationResponseFromEntity(n), unread); err != nil {
			log.Warn().Err(err).Str("account_id", accountID.String()).Msg("realtime notification push failed")
		}
	}

	return n, nil
}

// Broadcast pushes a realtime-only event to the admin room. Admin events are
// not persisted; the pending verification queue is the durable record.
func (s *Service) Broadcast(event string, payload any) {
	if s.realtime == nil {
		return
	}
	if err := s.realtime.NotifyAdmins(event, payload); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("admin broadcast failed")
	}
}

// List returns notifications for an account
func (s *Service) List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Notification, error) {
	return s.repo.ListByAccount(ctx, accountID, limit, offset)
}

// GetUnreadCount returns unread count
func (s *Service) GetUnreadCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	return s.repo.CountUnreadByAccount(ctx, accountID)
}

// MarkAsRead marks single notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, accountID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, accountID)
}

// MarkAllAsRead marks all notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, accountID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, accountID)
}
